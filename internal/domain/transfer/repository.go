package transfer

import (
	"context"

	"family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/family"
)

type Repository interface {
	InFamily(ctx context.Context, familyID string, fn func(Repository) error) error

	GetAccount(ctx context.Context, id string) (*account.Account, error)
	FamilyPrimaries(ctx context.Context, familyID string) ([]account.Account, error)
	SaveAccount(ctx context.Context, acc *account.Account) error
	SetMemberCount(ctx context.Context, accountID string, count int) error

	ListOwnedMembers(ctx context.Context, ownerID string) ([]family.MemberRecord, error)
	CountActiveByOwner(ctx context.Context, ownerID string) (int64, error)
	// ReassignMembers moves the given records from one owner to another and
	// returns how many rows changed.
	ReassignMembers(ctx context.Context, memberIDs []string, fromOwnerID, toOwnerID string) (int64, error)
}
