package transfer

import (
	"context"
	"errors"

	"family-registry-go/internal/db"
	accountdomain "family-registry-go/internal/domain/account"
	familydomain "family-registry-go/internal/domain/family"
	transferdomain "family-registry-go/internal/domain/transfer"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db   *gorm.DB
	tx   *db.TxRunner
	inTx bool
}

func NewPostgres(gormDB *gorm.DB, tx *db.TxRunner) *PostgresRepository {
	return &PostgresRepository{db: gormDB, tx: tx}
}

func (r *PostgresRepository) InFamily(ctx context.Context, familyID string, fn func(transferdomain.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.tx.InFamily(ctx, r.db, familyID, func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx, tx: r.tx, inTx: true})
	})
}

func (r *PostgresRepository) GetAccount(ctx context.Context, id string) (*accountdomain.Account, error) {
	var account accountdomain.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accountdomain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
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

func (r *PostgresRepository) SaveAccount(ctx context.Context, account *accountdomain.Account) error {
	err := r.db.WithContext(ctx).Model(account).Select("*").Omit("created_at", "deleted_at").Updates(account).Error
	if db.IsUniqueViolation(err) {
		return accountdomain.ErrContactTaken
	}
	return err
}

func (r *PostgresRepository) SetMemberCount(ctx context.Context, accountID string, count int) error {
	return r.db.WithContext(ctx).Model(&accountdomain.Account{}).
		Where("id = ?", accountID).
		Update("member_count", count).Error
}

func (r *PostgresRepository) ListOwnedMembers(ctx context.Context, ownerID string) ([]familydomain.MemberRecord, error) {
	var members []familydomain.MemberRecord
	if err := r.db.WithContext(ctx).
		Where("owner_account_id = ?", ownerID).
		Order("created_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) CountActiveByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&familydomain.MemberRecord{}).
		Where("owner_account_id = ?", ownerID).
		Where("approval_status IN ?", []familydomain.ApprovalStatus{familydomain.ApprovalApproved, familydomain.ApprovalPending}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) ReassignMembers(ctx context.Context, memberIDs []string, fromOwnerID, toOwnerID string) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&familydomain.MemberRecord{}).
		Where("id IN ? AND owner_account_id = ?", memberIDs, fromOwnerID).
		Update("owner_account_id", toOwnerID)
	return result.RowsAffected, result.Error
}
