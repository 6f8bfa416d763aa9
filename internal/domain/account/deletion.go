package account

import (
	"context"
	"fmt"
	"time"

	"family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/permission"
)

var now = func() time.Time {
	return time.Now().UTC()
}

// Dependencies computes what a hard delete of id would remove or orphan.
func (s *Service) Dependencies(ctx context.Context, id string) (Dependencies, error) {
	target, err := s.repo.GetByIDUnscoped(ctx, id)
	if err != nil {
		return Dependencies{}, err
	}
	deps, _, err := s.collectDependencies(ctx, s.repo, target)
	return deps, err
}

// HardDelete permanently removes an account. Without cascade any dependency
// blocks the delete and the breakdown is returned instead of an error. With
// cascade, owned member records, sibling accounts of a primary and external
// references are removed in the same family transaction. The account row is
// kept as an anonymised tombstone.
func (s *Service) HardDelete(ctx context.Context, actorID, id string, cascade bool) (DeletionResult, error) {
	if err := s.guard.Authorize(ctx, actorID, permission.AccountsHardDelete); err != nil {
		return DeletionResult{}, err
	}
	if actorID == id {
		return DeletionResult{}, ErrSelfDelete
	}

	current, err := s.repo.GetByIDUnscoped(ctx, id)
	if err != nil {
		return DeletionResult{}, err
	}
	adminRoleID, err := s.adminRoleID(ctx)
	if err != nil {
		return DeletionResult{}, err
	}

	var (
		result DeletionResult
		name   string
	)
	err = s.repo.InFamily(ctx, current.FamilyID, func(tx Repository) error {
		result = DeletionResult{}

		target, err := tx.GetByIDUnscoped(ctx, id)
		if err != nil {
			return err
		}
		if target.IsHardDeleted() {
			return ErrHardDeleted.Withf("account is already permanently deleted")
		}
		if !target.IsDeleted() {
			if err := s.ensureNotLastAdmin(ctx, tx, adminRoleID, target); err != nil {
				return err
			}
		}
		name = target.Name

		deps, siblings, err := s.collectDependencies(ctx, tx, target)
		if err != nil {
			return err
		}
		result.Dependencies = deps
		if !cascade && deps.Total() > 0 {
			result.Blocked = true
			return nil
		}

		ids := make([]string, 0, len(siblings)+1)
		ids = append(ids, target.ID)
		for _, sibling := range siblings {
			ids = append(ids, sibling.ID)
		}

		removed, err := tx.DeleteOwnedMembers(ctx, ids)
		if err != nil {
			return fmt.Errorf("delete owned members: %w", err)
		}
		result.MembersDeleted = removed

		if err := tx.ClearMemberLinksTo(ctx, ids); err != nil {
			return fmt.Errorf("clear member links: %w", err)
		}
		for _, ref := range s.settings.ExternalRefs {
			if err := tx.ClearExternal(ctx, ref, ids); err != nil {
				return fmt.Errorf("clear %s: %w", ref, err)
			}
		}

		at := now()
		for _, sibling := range siblings {
			if err := tx.Tombstone(ctx, sibling.ID, at); err != nil {
				return fmt.Errorf("tombstone sibling %s: %w", sibling.ID, err)
			}
		}
		result.AccountsDeleted = int64(len(siblings))

		if err := tx.Tombstone(ctx, target.ID, at); err != nil {
			return fmt.Errorf("tombstone account: %w", err)
		}
		result.Deleted = true
		return nil
	})
	if err != nil {
		return DeletionResult{}, err
	}

	if result.Blocked {
		s.log.Info("accounts.hard_delete: blocked by dependencies",
			"account_id", id, "family_members", result.Dependencies.FamilyMembers, "family_accounts", result.Dependencies.FamilyAccounts)
		return result, nil
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     actorID,
		Action:          audit.ActionAccountHardDeleted,
		TargetAccountID: &current.ID,
		Details: map[string]any{
			"cascade":          cascade,
			"members_deleted":  result.MembersDeleted,
			"accounts_deleted": result.AccountsDeleted,
			"dependencies":     result.Dependencies.Map(),
		},
		Description: fmt.Sprintf("%s permanently deleted", name),
	})
	return result, nil
}

// collectDependencies also returns the sibling accounts that a cascade would
// remove alongside a primary target. Soft-deleted siblings count: a restore
// would otherwise bring them back into a family without a primary.
func (s *Service) collectDependencies(ctx context.Context, repo Repository, target *Account) (Dependencies, []Account, error) {
	var deps Dependencies

	var siblings []Account
	if target.IsPrimary {
		family, err := repo.ListFamilyWithDeleted(ctx, target.FamilyID)
		if err != nil {
			return deps, nil, err
		}
		for _, candidate := range family {
			if candidate.ID == target.ID || candidate.IsPrimary {
				continue
			}
			siblings = append(siblings, candidate)
		}
	}
	deps.FamilyAccounts = int64(len(siblings))

	owners := []string{target.ID}
	owned, err := repo.CountOwnedMembers(ctx, owners)
	if err != nil {
		return deps, nil, err
	}
	deps.FamilyMembers = owned

	if len(s.settings.ExternalRefs) > 0 {
		deps.External = make(map[string]int64, len(s.settings.ExternalRefs))
		for _, ref := range s.settings.ExternalRefs {
			count, err := repo.CountExternal(ctx, ref, owners)
			if err != nil {
				return deps, nil, fmt.Errorf("count %s: %w", ref, err)
			}
			if count > 0 {
				deps.External[ref.String()] = count
			}
		}
	}

	return deps, siblings, nil
}
