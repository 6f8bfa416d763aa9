package role

import (
	"context"
	"errors"

	"family-registry-go/internal/db"
	roledomain "family-registry-go/internal/domain/role"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db   *gorm.DB
	inTx bool
}

func NewPostgres(gormDB *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: gormDB}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(roledomain.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx, inTx: true})
	})
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*roledomain.Role, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *PostgresRepository) GetByKey(ctx context.Context, key string) (*roledomain.Role, error) {
	return r.first(r.db.WithContext(ctx).Where(`"key" = ?`, key))
}

func (r *PostgresRepository) first(query *gorm.DB) (*roledomain.Role, error) {
	var role roledomain.Role
	if err := query.First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, roledomain.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *PostgresRepository) List(ctx context.Context, includeInactive bool) ([]roledomain.Role, error) {
	query := r.db.WithContext(ctx).Order("is_system_role desc, name asc")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var roles []roledomain.Role
	if err := query.Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *PostgresRepository) Create(ctx context.Context, role *roledomain.Role) error {
	return roleErr(r.db.WithContext(ctx).Create(role).Error)
}

func (r *PostgresRepository) Save(ctx context.Context, role *roledomain.Role) error {
	return roleErr(r.db.WithContext(ctx).Model(role).Select("*").Omit("created_at").Updates(role).Error)
}

func roleErr(err error) error {
	if db.IsUniqueViolation(err) {
		return roledomain.ErrRoleExists
	}
	return err
}
