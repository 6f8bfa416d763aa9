package role

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByKey(ctx context.Context, key string) (*Role, error)
	List(ctx context.Context, includeInactive bool) ([]Role, error)
	Create(ctx context.Context, role *Role) error
	Save(ctx context.Context, role *Role) error
}

// AccountCounter reports how many live accounts reference a role.
type AccountCounter interface {
	CountActiveByRole(ctx context.Context, roleID string) (int64, error)
}
