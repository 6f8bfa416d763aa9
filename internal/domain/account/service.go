package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/internal/domain/role"
	"family-registry-go/pkg/logger"
	"github.com/google/uuid"
)

const minPasswordLength = 6

type Deps struct {
	Roles    Roles
	Guard    permission.Authorizer
	Hasher   PasswordHasher
	Contacts ContactValidator
	Audit    audit.Recorder
	Log      logger.Logger
}

type Settings struct {
	AutoApprove  bool
	ExternalRefs []ExternalRef
}

type BootstrapAdmin struct {
	Name     string
	Email    string
	Password string
}

type Service struct {
	repo     Repository
	roles    Roles
	guard    permission.Authorizer
	hasher   PasswordHasher
	contacts ContactValidator
	audit    audit.Recorder
	log      logger.Logger
	settings Settings
}

func NewService(repo Repository, deps Deps, settings Settings) *Service {
	recorder := deps.Audit
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:     repo,
		roles:    deps.Roles,
		guard:    deps.Guard,
		hasher:   deps.Hasher,
		contacts: deps.Contacts,
		audit:    recorder,
		log:      deps.Log,
		settings: settings,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListFamily(ctx context.Context, familyID string) ([]Account, error) {
	return s.repo.ListFamily(ctx, familyID)
}

func (s *Service) TransferHistory(ctx context.Context, id string) ([]TransferRecord, error) {
	account, err := s.repo.GetByIDUnscoped(ctx, id)
	if err != nil {
		return nil, err
	}
	return account.History(), nil
}

// Register creates a self-registered account heading a new family.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email, mobile, err := s.normalizeContacts(input.Email, input.Mobile)
	if err != nil {
		return nil, err
	}
	if email == "" && mobile == "" {
		return nil, ErrContactRequired
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	userRole, err := s.roles.GetRoleByKey(ctx, role.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("resolve default role: %w", err)
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	status := StatusPending
	if s.settings.AutoApprove {
		status = StatusApproved
	}

	created := Account{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           optional(email),
		Mobile:          optional(mobile),
		PasswordHash:    hash,
		FamilyID:        uuid.NewString(),
		IsPrimary:       true,
		RoleID:          userRole.ID,
		Status:          status,
		TransferHistory: []TransferRecord{},
	}

	err = s.repo.InFamily(ctx, created.FamilyID, func(tx Repository) error {
		if err := EnsureContactsAvailable(ctx, tx, email, mobile, ""); err != nil {
			return err
		}
		return tx.Create(ctx, &created)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     created.ID,
		Action:          audit.ActionAccountRegistered,
		TargetAccountID: &created.ID,
		Details:         map[string]any{"family_id": created.FamilyID, "status": string(created.Status)},
		Description:     fmt.Sprintf("%s registered", created.Name),
	})
	return &created, nil
}

// Authenticate accepts an email or mobile identifier.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		found *Account
		err   error
	)
	if strings.Contains(identifier, "@") {
		email, normErr := s.contacts.NormalizeEmail(identifier)
		if normErr != nil {
			return nil, ErrInvalidCredentials
		}
		found, err = s.repo.FindByEmail(ctx, email)
	} else {
		mobile, normErr := s.contacts.NormalizeMobile(identifier)
		if normErr != nil {
			return nil, ErrInvalidCredentials
		}
		found, err = s.repo.FindByMobile(ctx, mobile)
	}
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.hasher.Compare(found.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if found.Status != StatusApproved {
		return nil, ErrAccountNotApproved.Withf("account is %s", found.Status)
	}
	return found, nil
}

func (s *Service) SetStatus(ctx context.Context, actorID, id string, status Status) (*Account, error) {
	if err := s.guard.Authorize(ctx, actorID, permission.UsersApprove); err != nil {
		return nil, err
	}
	if status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var result Account
	err = s.repo.InFamily(ctx, current.FamilyID, func(tx Repository) error {
		target, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if target.Status == status {
			return ErrStatusUnchanged.Withf("account is already %s", status)
		}
		if target.Status == StatusRejected {
			if err := EnsureContactsAvailable(ctx, tx, deref(target.Email), deref(target.Mobile), target.ID); err != nil {
				return err
			}
		}
		target.Status = status
		if err := tx.Save(ctx, target); err != nil {
			return err
		}
		result = *target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     actorID,
		Action:          audit.ActionAccountStatusChanged,
		TargetAccountID: &result.ID,
		Details:         map[string]any{"status": string(status)},
		Description:     fmt.Sprintf("%s marked %s", result.Name, status),
	})
	return &result, nil
}

func (s *Service) AssignRole(ctx context.Context, actorID, id, roleID string) (*Account, error) {
	if err := s.guard.Authorize(ctx, actorID, permission.UsersManage); err != nil {
		return nil, err
	}

	next, err := s.roles.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if !next.IsActive {
		return nil, role.ErrRoleInactive.Withf("role %q is disabled", next.Name)
	}

	adminRoleID, err := s.adminRoleID(ctx)
	if err != nil {
		return nil, err
	}

	var result Account
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		target, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if target.RoleID == next.ID {
			result = *target
			return nil
		}
		if next.Key != role.KeyAdmin {
			if err := s.ensureNotLastAdmin(ctx, tx, adminRoleID, target); err != nil {
				return err
			}
		}
		target.RoleID = next.ID
		if err := tx.Save(ctx, target); err != nil {
			return err
		}
		result = *target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     actorID,
		Action:          audit.ActionAccountRoleAssigned,
		TargetAccountID: &result.ID,
		Details:         map[string]any{"role_id": next.ID, "role_key": next.Key},
		Description:     fmt.Sprintf("%s assigned role %s", result.Name, next.Name),
	})
	return &result, nil
}

func (s *Service) SoftDelete(ctx context.Context, actorID, id string) error {
	if err := s.guard.Authorize(ctx, actorID, permission.AccountsDelete); err != nil {
		return err
	}
	if actorID == id {
		return ErrSelfDelete
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	adminRoleID, err := s.adminRoleID(ctx)
	if err != nil {
		return err
	}

	var deleted Account
	err = s.repo.InFamily(ctx, current.FamilyID, func(tx Repository) error {
		target, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ensureNotLastAdmin(ctx, tx, adminRoleID, target); err != nil {
			return err
		}
		deleted = *target
		return tx.SoftDelete(ctx, target.ID, now())
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     actorID,
		Action:          audit.ActionAccountSoftDeleted,
		TargetAccountID: &deleted.ID,
		Details:         map[string]any{"family_id": deleted.FamilyID, "was_primary": deleted.IsPrimary},
		Description:     fmt.Sprintf("%s deleted", deleted.Name),
	})
	return nil
}

// Restore reverses a soft delete. A restored primary whose family already has
// a primary comes back as a regular account.
func (s *Service) Restore(ctx context.Context, actorID, id string) (*Account, error) {
	if err := s.guard.Authorize(ctx, actorID, permission.AccountsRestore); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByIDUnscoped(ctx, id)
	if err != nil {
		return nil, err
	}

	var result *Account
	err = s.repo.InFamily(ctx, current.FamilyID, func(tx Repository) error {
		target, err := tx.GetByIDUnscoped(ctx, id)
		if err != nil {
			return err
		}
		if target.IsHardDeleted() {
			return ErrHardDeleted
		}
		if !target.IsDeleted() {
			return ErrNotDeleted
		}
		if target.Status != StatusRejected {
			if err := EnsureContactsAvailable(ctx, tx, deref(target.Email), deref(target.Mobile), target.ID); err != nil {
				return err
			}
		}

		isPrimary := target.IsPrimary
		if isPrimary {
			primaries, err := tx.FamilyPrimaries(ctx, target.FamilyID)
			if err != nil {
				return err
			}
			if len(primaries) > 0 {
				s.log.Warn("accounts.restore: family already has a primary, restoring as member",
					"account_id", target.ID, "family_id", target.FamilyID, "primary_id", primaries[0].ID)
				isPrimary = false
			}
		}

		if err := tx.Restore(ctx, target.ID, isPrimary); err != nil {
			return err
		}
		result, err = tx.GetByID(ctx, target.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     actorID,
		Action:          audit.ActionAccountRestored,
		TargetAccountID: &result.ID,
		Details:         map[string]any{"is_primary": result.IsPrimary},
		Description:     fmt.Sprintf("%s restored", result.Name),
	})
	return result, nil
}

// EnsureBootstrapAdmin creates or promotes the configured administrator.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, admin BootstrapAdmin) error {
	email, err := s.contacts.NormalizeEmail(admin.Email)
	if err != nil {
		return err
	}
	if email == "" {
		return nil
	}

	adminRole, err := s.roles.GetRoleByKey(ctx, role.KeyAdmin)
	if err != nil {
		return fmt.Errorf("resolve admin role: %w", err)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.RoleID == adminRole.ID && existing.Status == StatusApproved {
			return nil
		}
		existing.RoleID = adminRole.ID
		existing.Status = StatusApproved
		s.log.Info("accounts: promoting bootstrap admin", "account_id", existing.ID)
		return s.repo.Save(ctx, existing)
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return err
	}

	if len(admin.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Administrator"
	}

	created := Account{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           &email,
		PasswordHash:    hash,
		FamilyID:        uuid.NewString(),
		IsPrimary:       true,
		RoleID:          adminRole.ID,
		Status:          StatusApproved,
		TransferHistory: []TransferRecord{},
	}
	s.log.Info("accounts: creating bootstrap admin", "account_id", created.ID)
	return s.repo.Create(ctx, &created)
}

// adminRoleID is resolved before a transaction opens so the check inside it
// only touches the transaction's own connection.
func (s *Service) adminRoleID(ctx context.Context) (string, error) {
	adminRole, err := s.roles.GetRoleByKey(ctx, role.KeyAdmin)
	if err != nil {
		return "", fmt.Errorf("resolve admin role: %w", err)
	}
	return adminRole.ID, nil
}

func (s *Service) ensureNotLastAdmin(ctx context.Context, tx Repository, adminRoleID string, target *Account) error {
	if target.RoleID != adminRoleID {
		return nil
	}
	admins, err := tx.CountActiveByRole(ctx, adminRoleID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func (s *Service) normalizeContacts(email, mobile string) (string, string, error) {
	normalizedEmail, err := s.contacts.NormalizeEmail(email)
	if err != nil {
		return "", "", err
	}
	normalizedMobile, err := s.contacts.NormalizeMobile(mobile)
	if err != nil {
		return "", "", err
	}
	return normalizedEmail, normalizedMobile, nil
}

// EnsureContactsAvailable fails with a conflict when another live, non-rejected
// account already uses email or mobile. excludeID skips the account itself.
func EnsureContactsAvailable(ctx context.Context, repo Repository, email, mobile, excludeID string) error {
	if email != "" {
		found, err := repo.FindByEmail(ctx, email)
		if err == nil && found.ID != excludeID {
			return ErrEmailTaken.Withf("email %s is already registered", email)
		}
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			return err
		}
	}
	if mobile != "" {
		found, err := repo.FindByMobile(ctx, mobile)
		if err == nil && found.ID != excludeID {
			return ErrMobileTaken.Withf("mobile %s is already registered", mobile)
		}
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			return err
		}
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
