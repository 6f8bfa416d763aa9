package access

import (
	"context"
	"errors"
	"strings"

	"family-registry-go/internal/apperr"
	"family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/internal/domain/role"
)

var (
	ErrUnauthenticated  = apperr.New(apperr.KindUnauthenticated, "unauthenticated", "authentication required")
	ErrAccountInactive  = apperr.New(apperr.KindForbidden, "account_inactive", "account is not approved")
	ErrRoleUnavailable  = apperr.New(apperr.KindForbidden, "role_unavailable", "account role is missing or disabled")
	ErrPermissionDenied = apperr.New(apperr.KindForbidden, "permission_denied", "permission denied")
)

type AccountReader interface {
	GetByID(ctx context.Context, id string) (*account.Account, error)
}

type RoleReader interface {
	GetByID(ctx context.Context, id string) (*role.Role, error)
}

// Guard resolves account, role and capability on every call. Nothing is
// cached, so role edits apply to the next request.
type Guard struct {
	accounts AccountReader
	roles    RoleReader
}

func NewGuard(accounts AccountReader, roles RoleReader) *Guard {
	return &Guard{accounts: accounts, roles: roles}
}

func (g *Guard) Authorize(ctx context.Context, accountID string, key permission.Key) error {
	grants, err := g.resolve(ctx, accountID)
	if err != nil {
		return err
	}
	if !grants.Has(key) {
		return ErrPermissionDenied.
			Withf("missing permission %s", key).
			WithDetails(map[string]any{"required": []string{string(key)}})
	}
	return nil
}

// AuthorizeAny succeeds when at least one key is granted.
func (g *Guard) AuthorizeAny(ctx context.Context, accountID string, keys ...permission.Key) error {
	grants, err := g.resolve(ctx, accountID)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if grants.Has(key) {
			return nil
		}
	}
	return ErrPermissionDenied.
		Withf("requires one of %s", joinKeys(keys)).
		WithDetails(map[string]any{"required_any": keyStrings(keys)})
}

// AuthorizeAll succeeds when every key is granted.
func (g *Guard) AuthorizeAll(ctx context.Context, accountID string, keys ...permission.Key) error {
	grants, err := g.resolve(ctx, accountID)
	if err != nil {
		return err
	}
	missing := make([]permission.Key, 0)
	for _, key := range keys {
		if !grants.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return ErrPermissionDenied.
			Withf("missing permissions %s", joinKeys(missing)).
			WithDetails(map[string]any{"required": keyStrings(missing)})
	}
	return nil
}

// Can reports a denied permission as false. Missing accounts and storage
// failures are still returned as errors.
func (g *Guard) Can(ctx context.Context, accountID string, key permission.Key) (bool, error) {
	err := g.Authorize(ctx, accountID, key)
	if err == nil {
		return true, nil
	}
	if apperr.KindOf(err) == apperr.KindForbidden {
		return false, nil
	}
	return false, err
}

// Grants returns the effective grants for an approved account.
func (g *Guard) Grants(ctx context.Context, accountID string) (permission.Grants, error) {
	return g.resolve(ctx, accountID)
}

func (g *Guard) resolve(ctx context.Context, accountID string) (permission.Grants, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrUnauthenticated
	}

	current, err := g.accounts.GetByID(ctx, accountID)
	if errors.Is(err, account.ErrAccountNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if current.Status != account.StatusApproved {
		return nil, ErrAccountInactive.Withf("account is %s", current.Status)
	}

	assigned, err := g.roles.GetByID(ctx, current.RoleID)
	if errors.Is(err, role.ErrRoleNotFound) {
		return nil, ErrRoleUnavailable
	}
	if err != nil {
		return nil, err
	}
	if !assigned.IsActive {
		return nil, ErrRoleUnavailable.Withf("role %s is disabled", assigned.Key)
	}
	return assigned.Grants(), nil
}

func joinKeys(keys []permission.Key) string {
	return strings.Join(keyStrings(keys), ", ")
}

func keyStrings(keys []permission.Key) []string {
	result := make([]string, 0, len(keys))
	for _, key := range keys {
		result = append(result, string(key))
	}
	return result
}
