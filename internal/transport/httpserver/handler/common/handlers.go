package common

import (
	"context"
	"net/http"
	"time"

	accountdomain "family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/pkg/logger"
)

type TokenIssuer interface {
	Issue(accountID, familyID string) (string, time.Time, error)
}

type GrantResolver interface {
	Grants(ctx context.Context, accountID string) (permission.Grants, error)
}

type Handlers struct {
	Accounts *accountdomain.Service
	Grants   GrantResolver
	Tokens   TokenIssuer
	log      logger.Logger
}

func New(accounts *accountdomain.Service, grants GrantResolver, tokens TokenIssuer, log logger.Logger) *Handlers {
	return &Handlers{
		Accounts: accounts,
		Grants:   grants,
		Tokens:   tokens,
		log:      log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type capabilityResponse struct {
	Key      permission.Key      `json:"key"`
	Label    string              `json:"label"`
	Category permission.Category `json:"category"`
}

type categoryResponse struct {
	Category     permission.Category  `json:"category"`
	Capabilities []capabilityResponse `json:"capabilities"`
}

func (h *Handlers) ListPermissions(w http.ResponseWriter, r *http.Request) {
	grouped := permission.ByCategory()
	result := make([]categoryResponse, 0, len(grouped))
	for _, category := range permission.Categories() {
		item := categoryResponse{Category: category}
		for _, capability := range grouped[category] {
			item.Capabilities = append(item.Capabilities, capabilityResponse{
				Key:      capability.Key,
				Label:    capability.Label,
				Category: capability.Category,
			})
		}
		result = append(result, item)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": result,
		"critical":   permission.Critical(),
	})
}
