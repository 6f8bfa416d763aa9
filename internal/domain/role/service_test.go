package role

import (
	"context"
	"errors"
	"testing"

	"family-registry-go/internal/apperr"
	"family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/pkg/logger"
)

type fakeRoleRepo struct {
	roles map[string]*Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[string]*Role)}
}

func (r *fakeRoleRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeRoleRepo) GetByID(ctx context.Context, id string) (*Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, ErrRoleNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *fakeRoleRepo) GetByKey(ctx context.Context, key string) (*Role, error) {
	for _, role := range r.roles {
		if role.Key == key {
			copied := *role
			return &copied, nil
		}
	}
	return nil, ErrRoleNotFound
}

func (r *fakeRoleRepo) List(ctx context.Context, includeInactive bool) ([]Role, error) {
	result := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		if role.IsActive || includeInactive {
			result = append(result, *role)
		}
	}
	return result, nil
}

func (r *fakeRoleRepo) Create(ctx context.Context, role *Role) error {
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

func (r *fakeRoleRepo) Save(ctx context.Context, role *Role) error {
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

type fakeAccountCounter struct {
	counts map[string]int64
}

func (c fakeAccountCounter) CountActiveByRole(ctx context.Context, roleID string) (int64, error) {
	return c.counts[roleID], nil
}

func newTestService(t *testing.T) (*Service, *fakeRoleRepo, fakeAccountCounter) {
	t.Helper()
	repo := newFakeRoleRepo()
	counter := fakeAccountCounter{counts: make(map[string]int64)}
	svc := NewService(repo, counter, audit.Nop{}, logger.Discard())
	if err := svc.EnsureSystemRoles(context.Background()); err != nil {
		t.Fatalf("ensure system roles: %v", err)
	}
	return svc, repo, counter
}

func TestDeriveKey(t *testing.T) {
	cases := map[string]string{
		"Event Manager":     "event_manager",
		"  Finance--Team ":  "finance_team",
		"Admin":             "admin",
		"!!!":               "",
		"Zone 4 / Outreach": "zone_4_outreach",
	}
	for name, expected := range cases {
		if got := DeriveKey(name); got != expected {
			t.Fatalf("DeriveKey(%q): expected %q, got %q", name, expected, got)
		}
	}
}

func TestEnsureSystemRolesCreatesAdminWithAllGrants(t *testing.T) {
	svc, _, _ := newTestService(t)

	admin, err := svc.GetRoleByKey(context.Background(), KeyAdmin)
	if err != nil {
		t.Fatalf("expected admin role, got %v", err)
	}
	if !admin.IsSystemRole || !admin.IsActive {
		t.Fatalf("expected active system role, got %+v", admin)
	}
	if admin.Grants().CountTrue() != len(permission.All()) {
		t.Fatalf("expected admin to hold every capability, got %v", admin.Grants().Granted())
	}
}

func TestEnsureSystemRolesRestoresCriticalGrants(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	admin, _ := repo.GetByKey(ctx, KeyAdmin)
	grants := admin.Grants()
	grants[permission.RolesManage] = false
	delete(grants, permission.AuditView)
	admin.setGrants(grants)
	_ = repo.Save(ctx, admin)

	if err := svc.EnsureSystemRoles(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	admin, _ = repo.GetByKey(ctx, KeyAdmin)
	if !admin.Grants().Has(permission.RolesManage) {
		t.Fatalf("expected roles.manage to be re-granted")
	}
	if !admin.Grants().Has(permission.AuditView) {
		t.Fatalf("expected missing catalog key to be added as granted")
	}
}

func TestCreateRoleRequiresTrueGrant(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateRole(context.Background(), CreateRoleInput{
		ActorID: "admin-1",
		Name:    "Viewers",
		Grants:  map[string]any{"users.view": false, "bogus.key": true, "roles.view": "yes"},
	})
	if !errors.Is(err, ErrNoGrants) {
		t.Fatalf("expected ErrNoGrants, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Fatalf("expected invalid argument kind, got %s", apperr.KindOf(err))
	}
}

func TestCreateRoleConflictsWithActiveRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateRole(ctx, CreateRoleInput{Name: "Event Manager", Grants: map[string]any{"users.view": true}}); err != nil {
		t.Fatalf("expected first create to succeed, got %v", err)
	}
	_, err := svc.CreateRole(ctx, CreateRoleInput{Name: "event-manager", Grants: map[string]any{"users.view": true}})
	if !errors.Is(err, ErrRoleExists) {
		t.Fatalf("expected ErrRoleExists, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %s", apperr.KindOf(err))
	}
}

func TestCreateRoleRevivesDisabledRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateRole(ctx, CreateRoleInput{Name: "Event Manager", Grants: map[string]any{"users.view": true}})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if err := svc.DeleteRole(ctx, "admin-1", first.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}

	revived, err := svc.CreateRole(ctx, CreateRoleInput{Name: "Event Manager", Description: "again", Grants: map[string]any{"audit.view": true}})
	if err != nil {
		t.Fatalf("expected revive to succeed, got %v", err)
	}
	if revived.ID != first.ID || !revived.IsActive {
		t.Fatalf("expected same role reactivated, got %+v", revived)
	}
	if revived.Grants().Has(permission.UsersView) || !revived.Grants().Has(permission.AuditView) {
		t.Fatalf("expected grants replaced, got %v", revived.Grants().Granted())
	}
}

func TestUpdateRoleRejectsSystemRename(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, _ := svc.GetRoleByKey(ctx, KeyUser)
	name := "Members"
	_, err := svc.UpdateRole(ctx, "admin-1", UpdateRoleInput{ID: user.ID, Name: &name})
	if !errors.Is(err, ErrSystemRoleRename) {
		t.Fatalf("expected ErrSystemRoleRename, got %v", err)
	}
}

func TestUpdateRoleProtectsAdminCriticalGrants(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	admin, _ := svc.GetRoleByKey(ctx, KeyAdmin)
	_, err := svc.UpdateRole(ctx, "admin-1", UpdateRoleInput{ID: admin.ID, Grants: map[string]any{"users.manage": false}})
	if !errors.Is(err, ErrCriticalPermission) {
		t.Fatalf("expected ErrCriticalPermission, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden kind, got %s", apperr.KindOf(err))
	}

	stored, _ := repo.GetByID(ctx, admin.ID)
	if !stored.Grants().Has(permission.UsersManage) {
		t.Fatalf("expected stored admin role untouched")
	}
}

func TestUpdateRoleKeepsOneTrueGrantOnCustomRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.CreateRole(ctx, CreateRoleInput{Name: "Auditor", Grants: map[string]any{"audit.view": true}})
	_, err := svc.UpdateRole(ctx, "admin-1", UpdateRoleInput{ID: created.ID, Grants: map[string]any{"audit.view": false}})
	if !errors.Is(err, ErrNoGrants) {
		t.Fatalf("expected ErrNoGrants, got %v", err)
	}

	updated, err := svc.UpdateRole(ctx, "admin-1", UpdateRoleInput{ID: created.ID, Grants: map[string]any{"audit.view": false, "users.view": true, "ghost.key": true}})
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	granted := updated.Grants().Granted()
	if len(granted) != 1 || granted[0] != permission.UsersView {
		t.Fatalf("expected only users.view granted, got %v", granted)
	}
}

func TestUpdateRoleRenameRederivesKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.CreateRole(ctx, CreateRoleInput{Name: "Auditor", Grants: map[string]any{"audit.view": true}})
	_, _ = svc.CreateRole(ctx, CreateRoleInput{Name: "Treasurer", Grants: map[string]any{"audit.view": true}})

	name := "Treasurer"
	if _, err := svc.UpdateRole(ctx, "admin-1", UpdateRoleInput{ID: created.ID, Name: &name}); !errors.Is(err, ErrRoleExists) {
		t.Fatalf("expected ErrRoleExists, got %v", err)
	}

	name = "Senior Auditor"
	updated, err := svc.UpdateRole(ctx, "admin-1", UpdateRoleInput{ID: created.ID, Name: &name})
	if err != nil {
		t.Fatalf("expected rename to succeed, got %v", err)
	}
	if updated.Key != "senior_auditor" {
		t.Fatalf("expected key senior_auditor, got %q", updated.Key)
	}
}

func TestDeleteRole(t *testing.T) {
	svc, repo, counter := newTestService(t)
	ctx := context.Background()

	admin, _ := svc.GetRoleByKey(ctx, KeyAdmin)
	if err := svc.DeleteRole(ctx, "admin-1", admin.ID); !errors.Is(err, ErrSystemRoleDelete) {
		t.Fatalf("expected ErrSystemRoleDelete, got %v", err)
	}

	created, _ := svc.CreateRole(ctx, CreateRoleInput{Name: "Auditor", Grants: map[string]any{"audit.view": true}})
	counter.counts[created.ID] = 2
	err := svc.DeleteRole(ctx, "admin-1", created.ID)
	if !errors.Is(err, ErrRoleInUse) {
		t.Fatalf("expected ErrRoleInUse, got %v", err)
	}
	if domainErr, ok := apperr.As(err); !ok || domainErr.Details["accounts"] != int64(2) {
		t.Fatalf("expected account count in details, got %v", err)
	}

	counter.counts[created.ID] = 0
	if err := svc.DeleteRole(ctx, "admin-1", created.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	stored, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("expected role kept in storage, got %v", err)
	}
	if stored.IsActive {
		t.Fatalf("expected role disabled")
	}
}

func TestHasPermissionFailsClosed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.CreateRole(ctx, CreateRoleInput{Name: "Auditor", Grants: map[string]any{"audit.view": true}})

	if !HasPermission(created, permission.AuditView) {
		t.Fatalf("expected audit.view granted")
	}
	if HasPermission(created, permission.Key("unknown.key")) {
		t.Fatalf("expected unknown key to be false")
	}
	if HasPermission(created, permission.RolesManage) {
		t.Fatalf("expected key not granted to be false")
	}
	if HasPermission(nil, permission.AuditView) {
		t.Fatalf("expected nil role to be false")
	}

	ok, err := svc.HasPermission(ctx, "missing-role", permission.AuditView)
	if err != nil || ok {
		t.Fatalf("expected false for missing role, got %v %v", ok, err)
	}
}
