package permission

import "context"

// Authorizer resolves an account's current role and checks a capability.
type Authorizer interface {
	Authorize(ctx context.Context, accountID string, key Key) error
	Can(ctx context.Context, accountID string, key Key) (bool, error)
}
