package account

import (
	"context"
	"errors"
	"time"

	"family-registry-go/internal/db"
	accountdomain "family-registry-go/internal/domain/account"
	familydomain "family-registry-go/internal/domain/family"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tombstoneName = "Deleted account"

type PostgresRepository struct {
	db   *gorm.DB
	tx   *db.TxRunner
	inTx bool
}

func NewPostgres(gormDB *gorm.DB, tx *db.TxRunner) *PostgresRepository {
	return &PostgresRepository{db: gormDB, tx: tx}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(accountdomain.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx, tx: r.tx, inTx: true})
	})
}

func (r *PostgresRepository) InFamily(ctx context.Context, familyID string, fn func(accountdomain.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.tx.InFamily(ctx, r.db, familyID, func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx, tx: r.tx, inTx: true})
	})
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *PostgresRepository) GetByIDUnscoped(ctx context.Context, id string) (*accountdomain.Account, error) {
	return r.first(r.db.WithContext(ctx).Unscoped().Where("id = ?", id))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*accountdomain.Account, error) {
	return r.first(r.db.WithContext(ctx).Where("email = ? AND status <> ?", email, accountdomain.StatusRejected))
}

func (r *PostgresRepository) FindByMobile(ctx context.Context, mobile string) (*accountdomain.Account, error) {
	return r.first(r.db.WithContext(ctx).Where("mobile = ? AND status <> ?", mobile, accountdomain.StatusRejected))
}

func (r *PostgresRepository) first(query *gorm.DB) (*accountdomain.Account, error) {
	var account accountdomain.Account
	if err := query.First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accountdomain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresRepository) ListFamily(ctx context.Context, familyID string) ([]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	if err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("is_primary desc, created_at asc").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *PostgresRepository) ListFamilyWithDeleted(ctx context.Context, familyID string) ([]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	if err := r.db.WithContext(ctx).Unscoped().
		Where("family_id = ?", familyID).
		Where("delete_type IS NULL OR delete_type <> ?", accountdomain.DeleteHard).
		Order("is_primary desc, created_at asc").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
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

func (r *PostgresRepository) CountActiveByRole(ctx context.Context, roleID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&accountdomain.Account{}).Where("role_id = ?", roleID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *accountdomain.Account) error {
	return contactErr(r.db.WithContext(ctx).Create(account).Error)
}

func (r *PostgresRepository) Save(ctx context.Context, account *accountdomain.Account) error {
	return contactErr(r.db.WithContext(ctx).Model(account).Select("*").Omit("created_at", "deleted_at").Updates(account).Error)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&accountdomain.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"deleted_at":  at,
			"delete_type": accountdomain.DeleteSoft,
		}).Error
}

func (r *PostgresRepository) Restore(ctx context.Context, id string, isPrimary bool) error {
	return contactErr(r.db.WithContext(ctx).Unscoped().Model(&accountdomain.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"deleted_at":  nil,
			"delete_type": nil,
			"is_primary":  isPrimary,
		}).Error)
}

// Tombstone keeps the row for lookups but strips everything identifying.
func (r *PostgresRepository) Tombstone(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Unscoped().Model(&accountdomain.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"deleted_at":              at,
			"delete_type":             accountdomain.DeleteHard,
			"name":                    tombstoneName,
			"email":                   nil,
			"mobile":                  nil,
			"password_hash":           "",
			"is_primary":              false,
			"linked_member_record_id": nil,
		}).Error
}

func (r *PostgresRepository) CountOwnedMembers(ctx context.Context, ownerIDs []string) (int64, error) {
	if len(ownerIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&familydomain.MemberRecord{}).
		Where("owner_account_id IN ?", ownerIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteOwnedMembers removes the rows for good, soft-deleted ones included,
// and clears account links that pointed at them.
func (r *PostgresRepository) DeleteOwnedMembers(ctx context.Context, ownerIDs []string) (int64, error) {
	if len(ownerIDs) == 0 {
		return 0, nil
	}

	var memberIDs []string
	if err := r.db.WithContext(ctx).Unscoped().Model(&familydomain.MemberRecord{}).
		Where("owner_account_id IN ?", ownerIDs).
		Pluck("id", &memberIDs).Error; err != nil {
		return 0, err
	}
	if len(memberIDs) == 0 {
		return 0, nil
	}

	if err := r.db.WithContext(ctx).Unscoped().Model(&accountdomain.Account{}).
		Where("linked_member_record_id IN ?", memberIDs).
		Update("linked_member_record_id", nil).Error; err != nil {
		return 0, err
	}

	result := r.db.WithContext(ctx).Unscoped().
		Where("id IN ?", memberIDs).
		Delete(&familydomain.MemberRecord{})
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) ClearMemberLinksTo(ctx context.Context, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Unscoped().Model(&familydomain.MemberRecord{}).
		Where("linked_account_id IN ?", accountIDs).
		Update("linked_account_id", nil).Error
}

func (r *PostgresRepository) CountExternal(ctx context.Context, ref accountdomain.ExternalRef, accountIDs []string) (int64, error) {
	if len(accountIDs) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Table(ref.Table).
		Where(externalIn(ref, accountIDs)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) ClearExternal(ctx context.Context, ref accountdomain.ExternalRef, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Table(ref.Table).
		Where(externalIn(ref, accountIDs)).
		Update(ref.Column, nil).Error
}

func externalIn(ref accountdomain.ExternalRef, accountIDs []string) clause.IN {
	values := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		values[i] = id
	}
	return clause.IN{Column: clause.Column{Table: ref.Table, Name: ref.Column}, Values: values}
}

func contactErr(err error) error {
	if db.IsUniqueViolation(err) {
		return accountdomain.ErrContactTaken
	}
	return err
}
