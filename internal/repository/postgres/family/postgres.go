package family

import (
	"context"
	"errors"

	"family-registry-go/internal/db"
	accountdomain "family-registry-go/internal/domain/account"
	familydomain "family-registry-go/internal/domain/family"
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

func (r *PostgresRepository) InFamily(ctx context.Context, familyID string, fn func(familydomain.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.tx.InFamily(ctx, r.db, familyID, func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx, tx: r.tx, inTx: true})
	})
}

func (r *PostgresRepository) GetAccount(ctx context.Context, id string) (*accountdomain.Account, error) {
	return r.firstAccount(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *PostgresRepository) FindAccountByEmail(ctx context.Context, email string) (*accountdomain.Account, error) {
	return r.firstAccount(r.db.WithContext(ctx).Where("email = ? AND status <> ?", email, accountdomain.StatusRejected))
}

func (r *PostgresRepository) FindAccountByMobile(ctx context.Context, mobile string) (*accountdomain.Account, error) {
	return r.firstAccount(r.db.WithContext(ctx).Where("mobile = ? AND status <> ?", mobile, accountdomain.StatusRejected))
}

func (r *PostgresRepository) firstAccount(query *gorm.DB) (*accountdomain.Account, error) {
	var account accountdomain.Account
	if err := query.First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accountdomain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresRepository) FamilyAccounts(ctx context.Context, familyID string) ([]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	if err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("is_primary desc, created_at asc").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, account *accountdomain.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if db.IsUniqueViolation(err) {
		return accountdomain.ErrContactTaken
	}
	return err
}

func (r *PostgresRepository) SetAccountLink(ctx context.Context, accountID string, memberID *string) error {
	return r.updateAccount(ctx, accountID, "linked_member_record_id", memberID)
}

func (r *PostgresRepository) SetAccountStatus(ctx context.Context, accountID string, status accountdomain.Status) error {
	return r.updateAccount(ctx, accountID, "status", status)
}

func (r *PostgresRepository) SetMemberCount(ctx context.Context, accountID string, count int) error {
	return r.updateAccount(ctx, accountID, "member_count", count)
}

func (r *PostgresRepository) updateAccount(ctx context.Context, accountID, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&accountdomain.Account{}).Where("id = ?", accountID).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return accountdomain.ErrAccountNotFound
	}
	return nil
}

func (r *PostgresRepository) GetMember(ctx context.Context, id string) (*familydomain.MemberRecord, error) {
	var member familydomain.MemberRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]familydomain.MemberRecord, error) {
	var members []familydomain.MemberRecord
	if err := r.db.WithContext(ctx).
		Where("owner_account_id = ?", ownerID).
		Order("created_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) ListByFamily(ctx context.Context, familyID string) ([]familydomain.MemberRecord, error) {
	var members []familydomain.MemberRecord
	if err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) CountActiveInFamily(ctx context.Context, familyID string) (int64, error) {
	return r.countActive(ctx, "family_id = ?", familyID)
}

func (r *PostgresRepository) CountActiveByOwner(ctx context.Context, ownerID string) (int64, error) {
	return r.countActive(ctx, "owner_account_id = ?", ownerID)
}

func (r *PostgresRepository) countActive(ctx context.Context, condition string, value string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&familydomain.MemberRecord{}).
		Where(condition, value).
		Where("approval_status IN ?", []familydomain.ApprovalStatus{familydomain.ApprovalApproved, familydomain.ApprovalPending}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) CreateMember(ctx context.Context, member *familydomain.MemberRecord) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *PostgresRepository) SaveMember(ctx context.Context, member *familydomain.MemberRecord) error {
	return r.db.WithContext(ctx).Model(member).Select("*").Omit("created_at", "deleted_at").Updates(member).Error
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&familydomain.MemberRecord{}).Error
}
