package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"family-registry-go/internal/config"
	accountdomain "family-registry-go/internal/domain/account"
	"family-registry-go/internal/security"
	"family-registry-go/pkg/logger"
)

type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

type AccountLookup interface {
	Get(ctx context.Context, id string) (*accountdomain.Account, error)
}

// TokenAuth resolves the bearer token to a live, approved account.
type TokenAuth struct {
	tokens        TokenVerifier
	accounts      AccountLookup
	log           logger.Logger
	skipAuth      bool
	mockAccountID string
}

type contextKey int

const (
	accountIDKey contextKey = iota
	accountKey
)

func NewTokenAuth(cfg config.AuthConfig, tokens TokenVerifier, accounts AccountLookup, log logger.Logger) *TokenAuth {
	return &TokenAuth{
		tokens:        tokens,
		accounts:      accounts,
		log:           log,
		skipAuth:      cfg.SkipAuth,
		mockAccountID: strings.TrimSpace(cfg.MockAccountID),
	}
}

func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := a.mockAccountID
		if !a.skipAuth {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := a.tokens.Verify(token)
			if err != nil {
				if errors.Is(err, security.ErrNoSecret) {
					writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
					return
				}
				unauthorized(w)
				return
			}
			accountID = claims.Subject
		}
		if accountID == "" {
			writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock account id not configured")
			return
		}

		account, err := a.accounts.Get(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, accountdomain.ErrAccountNotFound) {
				unauthorized(w)
				return
			}
			a.log.InternalError("auth: load account failed", err, "account_id", accountID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		if account.Status != accountdomain.StatusApproved {
			writeError(w, http.StatusForbidden, "account_not_approved", "account is not approved")
			return
		}

		ctx := WithAccount(r.Context(), *account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithAccount(ctx context.Context, account accountdomain.Account) context.Context {
	ctx = context.WithValue(ctx, accountKey, account)
	return context.WithValue(ctx, accountIDKey, account.ID)
}

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

func AccountFromContext(ctx context.Context) (accountdomain.Account, bool) {
	account, ok := ctx.Value(accountKey).(accountdomain.Account)
	if !ok || account.ID == "" {
		return accountdomain.Account{}, false
	}
	return account, true
}

func AccountIDFromContext(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDKey).(string)
	if !ok || accountID == "" {
		return "", false
	}
	return accountID, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
