package role

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/pkg/logger"
	"github.com/google/uuid"
)

type Service struct {
	repo     Repository
	accounts AccountCounter
	audit    audit.Recorder
	log      logger.Logger
}

func NewService(repo Repository, accounts AccountCounter, recorder audit.Recorder, log logger.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{repo: repo, accounts: accounts, audit: recorder, log: log}
}

func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetRoleByKey(ctx context.Context, key string) (*Role, error) {
	return s.repo.GetByKey(ctx, key)
}

func (s *Service) ListRoles(ctx context.Context, includeInactive bool) ([]Role, error) {
	return s.repo.List(ctx, includeInactive)
}

// CreateRole creates a custom role. A disabled role with the same derived key
// is revived in place instead of failing.
func (s *Service) CreateRole(ctx context.Context, input CreateRoleInput) (*Role, error) {
	name := strings.TrimSpace(input.Name)
	key := DeriveKey(name)
	if key == "" {
		return nil, ErrNameRequired
	}

	grants := permission.Sanitize(input.Grants)
	if grants.CountTrue() == 0 {
		return nil, ErrNoGrants
	}

	var result Role
	revived := false
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.GetByKey(ctx, key)
		switch {
		case err == nil:
			if existing.IsActive || existing.IsSystemRole {
				return ErrRoleExists.Withf("role %q already exists", existing.Name)
			}
			existing.Name = name
			existing.Description = strings.TrimSpace(input.Description)
			existing.setGrants(permission.DefaultGrants().Merge(grants))
			existing.IsActive = true
			if err := tx.Save(ctx, existing); err != nil {
				return err
			}
			result = *existing
			revived = true
			return nil
		case errors.Is(err, ErrRoleNotFound):
		default:
			return err
		}

		created := Role{
			ID:          uuid.NewString(),
			Name:        name,
			Key:         key,
			Description: strings.TrimSpace(input.Description),
			IsActive:    true,
		}
		created.setGrants(permission.DefaultGrants().Merge(grants))
		if input.ActorID != "" {
			actor := input.ActorID
			created.CreatedBy = &actor
		}
		if err := tx.Create(ctx, &created); err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy: input.ActorID,
		Action:      audit.ActionRoleCreated,
		Details:     map[string]any{"role_id": result.ID, "key": result.Key, "revived": revived},
		Description: fmt.Sprintf("role %q created", result.Name),
	})
	return &result, nil
}

func (s *Service) UpdateRole(ctx context.Context, actorID string, input UpdateRoleInput) (*Role, error) {
	var result Role
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.GetByID(ctx, input.ID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name != current.Name {
				if current.IsSystemRole {
					return ErrSystemRoleRename
				}
				key := DeriveKey(name)
				if key == "" {
					return ErrNameRequired
				}
				if key != current.Key {
					other, err := tx.GetByKey(ctx, key)
					if err == nil && other.ID != current.ID {
						return ErrRoleExists.Withf("role %q already exists", other.Name)
					}
					if err != nil && !errors.Is(err, ErrRoleNotFound) {
						return err
					}
				}
				current.Name = name
				current.Key = key
			}
		}

		if input.Description != nil {
			current.Description = strings.TrimSpace(*input.Description)
		}

		if input.Grants != nil {
			merged := current.Grants().Merge(permission.Sanitize(input.Grants))
			if current.Key == KeyAdmin {
				for _, key := range permission.Critical() {
					if !merged.Has(key) {
						return ErrCriticalPermission.Withf("admin role must keep %s", key)
					}
				}
			}
			if !current.IsSystemRole && merged.CountTrue() == 0 {
				return ErrNoGrants
			}
			current.setGrants(merged)
		}

		if err := tx.Save(ctx, current); err != nil {
			return err
		}
		result = *current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy: actorID,
		Action:      audit.ActionRoleUpdated,
		Details:     map[string]any{"role_id": result.ID, "granted": result.Grants().Granted()},
		Description: fmt.Sprintf("role %q updated", result.Name),
	})
	return &result, nil
}

// DeleteRole disables a custom role. Roles are never removed from storage.
func (s *Service) DeleteRole(ctx context.Context, actorID, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsSystemRole {
		return ErrSystemRoleDelete
	}
	inUse, err := s.accounts.CountActiveByRole(ctx, existing.ID)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrRoleInUse.WithDetails(map[string]any{"accounts": inUse})
	}

	var disabled *Role
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !current.IsActive {
			return nil
		}
		current.IsActive = false
		if err := tx.Save(ctx, current); err != nil {
			return err
		}
		disabled = current
		return nil
	})
	if err != nil {
		return err
	}

	if disabled != nil {
		s.audit.Record(ctx, audit.Entry{
			PerformedBy: actorID,
			Action:      audit.ActionRoleDisabled,
			Details:     map[string]any{"role_id": disabled.ID},
			Description: fmt.Sprintf("role %q disabled", disabled.Name),
		})
	}
	return nil
}

func (s *Service) HasPermission(ctx context.Context, roleID string, key permission.Key) (bool, error) {
	current, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return false, nil
		}
		return false, err
	}
	return HasPermission(current, key), nil
}

type systemRoleTemplate struct {
	key         string
	name        string
	description string
	grants      permission.Grants
}

func systemRoleTemplates() []systemRoleTemplate {
	return []systemRoleTemplate{
		{
			key:         KeyAdmin,
			name:        "Admin",
			description: "Full access to every capability",
			grants:      permission.AllGranted(),
		},
		{
			key:         KeyCommittee,
			name:        "Committee",
			description: "Reviews registrations and family members",
			grants: permission.DefaultGrants().Merge(permission.Grants{
				permission.UsersView:            true,
				permission.UsersApprove:         true,
				permission.FamilyView:           true,
				permission.FamilyApproveMembers: true,
				permission.AuditView:            true,
			}),
		},
		{
			key:         KeyUser,
			name:        "User",
			description: "Default role for registered accounts",
			grants:      permission.DefaultGrants(),
		},
	}
}

// EnsureSystemRoles creates missing system roles and, on every boot, adds
// newly cataloged keys to existing ones and re-grants the admin critical keys.
func (s *Service) EnsureSystemRoles(ctx context.Context) error {
	for _, template := range systemRoleTemplates() {
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			existing, err := tx.GetByKey(ctx, template.key)
			if errors.Is(err, ErrRoleNotFound) {
				created := Role{
					ID:           uuid.NewString(),
					Name:         template.name,
					Key:          template.key,
					Description:  template.description,
					IsSystemRole: true,
					IsActive:     true,
				}
				created.setGrants(template.grants)
				s.log.Info("roles: creating system role", "key", template.key)
				return tx.Create(ctx, &created)
			}
			if err != nil {
				return err
			}

			grants := existing.Grants()
			changed := false
			for key, value := range template.grants {
				if _, ok := grants[key]; !ok {
					grants[key] = value
					changed = true
				}
			}
			if template.key == KeyAdmin {
				for _, key := range permission.Critical() {
					if !grants[key] {
						s.log.Warn("roles: re-granting critical permission to admin", "permission", key)
						grants[key] = true
						changed = true
					}
				}
			}
			if !existing.IsSystemRole || !existing.IsActive {
				existing.IsSystemRole = true
				existing.IsActive = true
				changed = true
			}
			if !changed {
				return nil
			}
			existing.setGrants(grants)
			return tx.Save(ctx, existing)
		})
		if err != nil {
			return fmt.Errorf("ensure system role %s: %w", template.key, err)
		}
	}
	return nil
}
