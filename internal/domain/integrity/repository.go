package integrity

import (
	"context"

	"family-registry-go/internal/domain/account"
)

type Repository interface {
	InFamily(ctx context.Context, familyID string, fn func(Repository) error) error

	FamiliesWithMultiplePrimaries(ctx context.Context) ([]string, error)
	FamilyPrimaries(ctx context.Context, familyID string) ([]account.Account, error)
	MemberFamilyMismatches(ctx context.Context) ([]MemberMismatch, error)
	OneSidedLinks(ctx context.Context) ([]LinkIssue, error)

	DemotePrimary(ctx context.Context, accountID string) error
	SetMemberFamily(ctx context.Context, memberID, familyID string) error
	ClearMemberLink(ctx context.Context, memberID string) error
	ClearAccountLink(ctx context.Context, accountID string) error
}
