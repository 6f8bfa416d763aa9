package integrity

import (
	"context"

	"family-registry-go/internal/db"
	accountdomain "family-registry-go/internal/domain/account"
	familydomain "family-registry-go/internal/domain/family"
	integritydomain "family-registry-go/internal/domain/integrity"
	"gorm.io/gorm"
)

const memberFamilyMismatchSQL = `
SELECT m.id AS member_id, m.family_id AS member_family_id, a.id AS owner_id, a.family_id AS owner_family_id
FROM member_records m
JOIN accounts a ON a.id = m.owner_account_id
WHERE m.deleted_at IS NULL AND m.family_id <> a.family_id
ORDER BY m.id`

const memberSideLinksSQL = `
SELECT m.id AS member_id, m.linked_account_id AS account_id
FROM member_records m
LEFT JOIN accounts a ON a.id = m.linked_account_id
WHERE m.deleted_at IS NULL
  AND m.linked_account_id IS NOT NULL
  AND (a.id IS NULL OR a.linked_member_record_id IS NULL OR a.linked_member_record_id <> m.id)
ORDER BY m.id`

const accountSideLinksSQL = `
SELECT a.linked_member_record_id AS member_id, a.id AS account_id
FROM accounts a
LEFT JOIN member_records m ON m.id = a.linked_member_record_id AND m.deleted_at IS NULL
WHERE a.deleted_at IS NULL
  AND a.linked_member_record_id IS NOT NULL
  AND (m.id IS NULL OR m.linked_account_id IS NULL OR m.linked_account_id <> a.id)
ORDER BY a.id`

type PostgresRepository struct {
	db   *gorm.DB
	tx   *db.TxRunner
	inTx bool
}

func NewPostgres(gormDB *gorm.DB, tx *db.TxRunner) *PostgresRepository {
	return &PostgresRepository{db: gormDB, tx: tx}
}

func (r *PostgresRepository) InFamily(ctx context.Context, familyID string, fn func(integritydomain.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.tx.InFamily(ctx, r.db, familyID, func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx, tx: r.tx, inTx: true})
	})
}

func (r *PostgresRepository) FamiliesWithMultiplePrimaries(ctx context.Context) ([]string, error) {
	var families []string
	if err := r.db.WithContext(ctx).Model(&accountdomain.Account{}).
		Where("is_primary = ?", true).
		Group("family_id").
		Having("COUNT(*) > 1").
		Order("family_id").
		Pluck("family_id", &families).Error; err != nil {
		return nil, err
	}
	return families, nil
}

func (r *PostgresRepository) FamilyPrimaries(ctx context.Context, familyID string) ([]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	if err := r.db.WithContext(ctx).
		Where("family_id = ? AND is_primary = ?", familyID, true).
		Order("created_at asc").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *PostgresRepository) MemberFamilyMismatches(ctx context.Context) ([]integritydomain.MemberMismatch, error) {
	var mismatches []integritydomain.MemberMismatch
	if err := r.db.WithContext(ctx).Raw(memberFamilyMismatchSQL).Scan(&mismatches).Error; err != nil {
		return nil, err
	}
	return mismatches, nil
}

type linkRow struct {
	MemberID  string
	AccountID string
}

func (r *PostgresRepository) OneSidedLinks(ctx context.Context) ([]integritydomain.LinkIssue, error) {
	var issues []integritydomain.LinkIssue
	for _, query := range []struct {
		side integritydomain.LinkSide
		sql  string
	}{
		{side: integritydomain.LinkMemberSide, sql: memberSideLinksSQL},
		{side: integritydomain.LinkAccountSide, sql: accountSideLinksSQL},
	} {
		var rows []linkRow
		if err := r.db.WithContext(ctx).Raw(query.sql).Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			issues = append(issues, integritydomain.LinkIssue{Side: query.side, MemberID: row.MemberID, AccountID: row.AccountID})
		}
	}
	return issues, nil
}

func (r *PostgresRepository) DemotePrimary(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).Model(&accountdomain.Account{}).
		Where("id = ?", accountID).
		Update("is_primary", false).Error
}

func (r *PostgresRepository) SetMemberFamily(ctx context.Context, memberID, familyID string) error {
	return r.db.WithContext(ctx).Model(&familydomain.MemberRecord{}).
		Where("id = ?", memberID).
		Update("family_id", familyID).Error
}

func (r *PostgresRepository) ClearMemberLink(ctx context.Context, memberID string) error {
	return r.db.WithContext(ctx).Model(&familydomain.MemberRecord{}).
		Where("id = ?", memberID).
		Update("linked_account_id", nil).Error
}

func (r *PostgresRepository) ClearAccountLink(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).Model(&accountdomain.Account{}).
		Where("id = ?", accountID).
		Update("linked_member_record_id", nil).Error
}
