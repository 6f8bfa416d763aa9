package account

import (
	"context"
	"time"

	"family-registry-go/internal/domain/role"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	// InFamily runs fn in a transaction serialized against every other
	// family-scoped transaction on the same family id.
	InFamily(ctx context.Context, familyID string, fn func(Repository) error) error

	GetByID(ctx context.Context, id string) (*Account, error)
	GetByIDUnscoped(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByMobile(ctx context.Context, mobile string) (*Account, error)
	ListFamily(ctx context.Context, familyID string) ([]Account, error)
	// ListFamilyWithDeleted also returns soft-deleted accounts. Hard-deleted
	// tombstones are left out.
	ListFamilyWithDeleted(ctx context.Context, familyID string) ([]Account, error)
	FamilyPrimaries(ctx context.Context, familyID string) ([]Account, error)
	CountActiveByRole(ctx context.Context, roleID string) (int64, error)

	Create(ctx context.Context, account *Account) error
	Save(ctx context.Context, account *Account) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id string, isPrimary bool) error
	Tombstone(ctx context.Context, id string, at time.Time) error

	CountOwnedMembers(ctx context.Context, ownerIDs []string) (int64, error)
	DeleteOwnedMembers(ctx context.Context, ownerIDs []string) (int64, error)
	ClearMemberLinksTo(ctx context.Context, accountIDs []string) error
	CountExternal(ctx context.Context, ref ExternalRef, accountIDs []string) (int64, error)
	ClearExternal(ctx context.Context, ref ExternalRef, accountIDs []string) error
}

// Roles is the subset of the role store the account service needs.
type Roles interface {
	GetRole(ctx context.Context, id string) (*role.Role, error)
	GetRoleByKey(ctx context.Context, key string) (*role.Role, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// ContactValidator normalizes email and mobile values or rejects them.
type ContactValidator interface {
	NormalizeEmail(value string) (string, error)
	NormalizeMobile(value string) (string, error)
}
