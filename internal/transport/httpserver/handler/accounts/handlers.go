package accounts

import (
	"net/http"

	accountdomain "family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/permission"
	roledomain "family-registry-go/internal/domain/role"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
	"family-registry-go/internal/transport/httpserver/middleware"
	"family-registry-go/pkg/logger"
)

type Handlers struct {
	Accounts *accountdomain.Service
	Roles    *roledomain.Service
	Guard    permission.Authorizer
	log      logger.Logger
}

func New(accounts *accountdomain.Service, roles *roledomain.Service, guard permission.Authorizer, log logger.Logger) *Handlers {
	return &Handlers{
		Accounts: accounts,
		Roles:    roles,
		Guard:    guard,
		log:      log,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return commonhandler.DecodeJSON(r, dst)
}

func actor(w http.ResponseWriter, r *http.Request) (accountdomain.Account, bool) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
	}
	return account, ok
}
