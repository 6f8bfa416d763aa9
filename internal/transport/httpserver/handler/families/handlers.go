package families

import (
	"net/http"

	accountdomain "family-registry-go/internal/domain/account"
	familydomain "family-registry-go/internal/domain/family"
	transferdomain "family-registry-go/internal/domain/transfer"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
	"family-registry-go/internal/transport/httpserver/middleware"
	"family-registry-go/pkg/logger"
)

type Handlers struct {
	Families  *familydomain.Service
	Transfers *transferdomain.Service
	log       logger.Logger
}

func New(families *familydomain.Service, transfers *transferdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Families:  families,
		Transfers: transfers,
		log:       log,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
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
