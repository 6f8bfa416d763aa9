package family

import (
	"context"

	"family-registry-go/internal/domain/account"
)

type Repository interface {
	InFamily(ctx context.Context, familyID string, fn func(Repository) error) error

	GetAccount(ctx context.Context, id string) (*account.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*account.Account, error)
	FindAccountByMobile(ctx context.Context, mobile string) (*account.Account, error)
	FamilyAccounts(ctx context.Context, familyID string) ([]account.Account, error)
	CreateAccount(ctx context.Context, acc *account.Account) error
	SetAccountLink(ctx context.Context, accountID string, memberID *string) error
	SetAccountStatus(ctx context.Context, accountID string, status account.Status) error
	SetMemberCount(ctx context.Context, accountID string, count int) error

	GetMember(ctx context.Context, id string) (*MemberRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]MemberRecord, error)
	ListByFamily(ctx context.Context, familyID string) ([]MemberRecord, error)
	CountActiveInFamily(ctx context.Context, familyID string) (int64, error)
	CountActiveByOwner(ctx context.Context, ownerID string) (int64, error)
	CreateMember(ctx context.Context, member *MemberRecord) error
	SaveMember(ctx context.Context, member *MemberRecord) error
	DeleteMember(ctx context.Context, id string) error
}
