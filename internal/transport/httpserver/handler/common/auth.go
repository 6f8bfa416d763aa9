package common

import (
	"net/http"
	"time"

	accountdomain "family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/internal/transport/httpserver/middleware"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type tokenResponse struct {
	AccessToken string                `json:"access_token"`
	TokenType   string                `json:"token_type"`
	ExpiresAt   time.Time             `json:"expires_at"`
	Account     accountdomain.Account `json:"account"`
}

type meResponse struct {
	Account     accountdomain.Account `json:"account"`
	Permissions []permission.Key      `json:"permissions"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidJSON(w)
		return
	}

	created, err := h.Accounts.Register(r.Context(), accountdomain.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		WriteServiceError(w, h.log, "auth.register", err)
		return
	}

	h.log.Info("auth.register: account created", "account_id", created.ID, "status", created.Status)
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidJSON(w)
		return
	}

	account, err := h.Accounts.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		WriteServiceError(w, h.log, "auth.login", err)
		return
	}

	token, expiresAt, err := h.Tokens.Issue(account.ID, account.FamilyID)
	if err != nil {
		h.log.InternalError("auth.login: issue token failed", err, "account_id", account.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Account:     *account,
	})
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		WriteUnauthorized(w)
		return
	}

	grants, err := h.Grants.Grants(r.Context(), account.ID)
	if err != nil {
		WriteServiceError(w, h.log, "auth.me", err, "account_id", account.ID)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Account:     account,
		Permissions: grants.Granted(),
	})
}
