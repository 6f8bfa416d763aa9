package family

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/internal/domain/role"
	"family-registry-go/pkg/logger"
	"github.com/google/uuid"
)

type Roles interface {
	GetRoleByKey(ctx context.Context, key string) (*role.Role, error)
}

type Deps struct {
	Roles    Roles
	Guard    permission.Authorizer
	Hasher   account.PasswordHasher
	Contacts account.ContactValidator
	Audit    audit.Recorder
	Log      logger.Logger
}

type Settings struct {
	FreeMemberLimit int
}

type Service struct {
	repo     Repository
	roles    Roles
	guard    permission.Authorizer
	hasher   account.PasswordHasher
	contacts account.ContactValidator
	audit    audit.Recorder
	log      logger.Logger
	limit    int64
	now      func() time.Time
}

func NewService(repo Repository, deps Deps, settings Settings) *Service {
	limit := settings.FreeMemberLimit
	if limit <= 0 {
		limit = DefaultFreeMemberLimit
	}
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
		limit:    int64(limit),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddMember adds a person to the owner's family. The first FreeMemberLimit
// active records of a family are approved immediately; later ones wait for
// review. Counting and inserting happen in one family-scoped transaction.
func (s *Service) AddMember(ctx context.Context, input AddMemberInput) (*AddMemberResult, error) {
	person, err := s.normalizePerson(input.Person)
	if err != nil {
		return nil, err
	}

	owner, err := s.repo.GetAccount(ctx, input.OwnerAccountID)
	if err != nil {
		return nil, ownerErr(err)
	}
	if err := s.authorizeManager(ctx, input.ActorID, owner.FamilyID); err != nil {
		return nil, err
	}

	var login *loginPlan
	if input.CreateLogin {
		login, err = s.planLogin(ctx, person, input.Password)
		if err != nil {
			return nil, err
		}
		if login == nil {
			s.log.Debug("members.add: login requested without contact, skipping", "owner_id", owner.ID)
		}
	}

	var result AddMemberResult
	err = s.repo.InFamily(ctx, owner.FamilyID, func(tx Repository) error {
		result = AddMemberResult{}

		current, err := tx.GetAccount(ctx, owner.ID)
		if err != nil {
			return ownerErr(err)
		}
		if current.FamilyID != owner.FamilyID {
			return ErrOwnerNotFound.Withf("owner moved to another family")
		}

		active, err := tx.CountActiveInFamily(ctx, current.FamilyID)
		if err != nil {
			return err
		}

		member := MemberRecord{
			ID:             uuid.NewString(),
			OwnerAccountID: current.ID,
			FamilyID:       current.FamilyID,
			Name:           person.Name,
			Relationship:   person.Relationship,
			Gender:         optional(person.Gender),
			BirthDate:      person.BirthDate,
			Email:          optional(person.Email),
			Mobile:         optional(person.Mobile),
			ApprovalStatus: ApprovalApproved,
			AddedBy:        input.ActorID,
		}
		if active >= s.limit {
			member.ApprovalStatus = ApprovalPending
			member.NeedsApproval = true
		}
		if err := tx.CreateMember(ctx, &member); err != nil {
			return err
		}

		if login != nil {
			linked, created, err := s.provisionLogin(ctx, tx, current, &member, login)
			if err != nil {
				return err
			}
			result.Account = linked
			result.AccountCreated = created
		}

		if err := s.refreshMemberCount(ctx, tx, current.ID); err != nil {
			return err
		}
		result.Member = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"family_id":       result.Member.FamilyID,
		"owner_id":        result.Member.OwnerAccountID,
		"approval_status": string(result.Member.ApprovalStatus),
	}
	if result.Account != nil {
		details["linked_account_id"] = result.Account.ID
		details["account_created"] = result.AccountCreated
	}
	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     input.ActorID,
		Action:          audit.ActionMemberAdded,
		TargetAccountID: &result.Member.OwnerAccountID,
		TargetMemberID:  &result.Member.ID,
		Details:         details,
		Description:     fmt.Sprintf("%s added as %s", result.Member.Name, result.Member.Relationship),
	})
	if result.Account != nil {
		s.audit.Record(ctx, audit.Entry{
			PerformedBy:     input.ActorID,
			Action:          audit.ActionMemberLoginLinked,
			TargetAccountID: &result.Account.ID,
			TargetMemberID:  &result.Member.ID,
			Details:         map[string]any{"account_created": result.AccountCreated},
			Description:     fmt.Sprintf("login linked to %s", result.Member.Name),
		})
	}
	return &result, nil
}

func (s *Service) ApproveMember(ctx context.Context, actorID, memberID, note string) (*MemberRecord, error) {
	return s.review(ctx, actorID, memberID, note, ApprovalApproved)
}

// RejectMember removes the record from the owner's active list. A linked
// account is left as it is.
func (s *Service) RejectMember(ctx context.Context, actorID, memberID, note string) (*MemberRecord, error) {
	return s.review(ctx, actorID, memberID, note, ApprovalRejected)
}

func (s *Service) review(ctx context.Context, actorID, memberID, note string, decision ApprovalStatus) (*MemberRecord, error) {
	if err := s.guard.Authorize(ctx, actorID, permission.FamilyApproveMembers); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var (
		result          MemberRecord
		accountApproved bool
	)
	err = s.repo.InFamily(ctx, existing.FamilyID, func(tx Repository) error {
		accountApproved = false

		member, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member.ApprovalStatus == decision {
			return ErrAlreadyReviewed.Withf("member is already %s", decision)
		}

		reviewedAt := s.now()
		member.ApprovalStatus = decision
		member.NeedsApproval = false
		member.ReviewedBy = &actorID
		member.ReviewedAt = &reviewedAt
		member.ReviewNote = optional(strings.TrimSpace(note))
		if err := tx.SaveMember(ctx, member); err != nil {
			return err
		}

		if decision == ApprovalApproved && member.LinkedAccountID != nil {
			linked, err := tx.GetAccount(ctx, *member.LinkedAccountID)
			switch {
			case err == nil && linked.Status == account.StatusPending:
				if err := tx.SetAccountStatus(ctx, linked.ID, account.StatusApproved); err != nil {
					return err
				}
				accountApproved = true
			case err != nil && !errors.Is(err, account.ErrAccountNotFound):
				return err
			}
		}

		if err := s.refreshMemberCount(ctx, tx, member.OwnerAccountID); err != nil {
			return err
		}
		result = *member
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := audit.ActionMemberApproved
	if decision == ApprovalRejected {
		action = audit.ActionMemberRejected
	}
	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     actorID,
		Action:          action,
		TargetAccountID: &result.OwnerAccountID,
		TargetMemberID:  &result.ID,
		Details:         map[string]any{"note": note, "linked_account_approved": accountApproved},
		Description:     fmt.Sprintf("%s %s", result.Name, decision),
	})
	return &result, nil
}

// UpdateMember lets the owning account edit its own member record.
func (s *Service) UpdateMember(ctx context.Context, actorID, memberID string, input UpdateMemberInput) (*MemberRecord, error) {
	return s.update(ctx, actorID, memberID, input, false)
}

// AdminUpdateMember edits any member record for holders of
// family.manage_members.
func (s *Service) AdminUpdateMember(ctx context.Context, actorID, memberID string, input UpdateMemberInput) (*MemberRecord, error) {
	if err := s.guard.Authorize(ctx, actorID, permission.FamilyManageMembers); err != nil {
		return nil, err
	}
	return s.update(ctx, actorID, memberID, input, true)
}

func (s *Service) update(ctx context.Context, actorID, memberID string, input UpdateMemberInput, bypassOwnership bool) (*MemberRecord, error) {
	existing, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !bypassOwnership && existing.OwnerAccountID != actorID {
		return nil, ErrNotOwner
	}

	var result MemberRecord
	err = s.repo.InFamily(ctx, existing.FamilyID, func(tx Repository) error {
		member, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if !bypassOwnership && member.OwnerAccountID != actorID {
			return ErrNotOwner
		}
		if err := s.applyUpdate(member, input); err != nil {
			return err
		}
		if err := tx.SaveMember(ctx, member); err != nil {
			return err
		}
		result = *member
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     actorID,
		Action:          audit.ActionMemberUpdated,
		TargetAccountID: &result.OwnerAccountID,
		TargetMemberID:  &result.ID,
		Details:         map[string]any{"admin": bypassOwnership},
		Description:     fmt.Sprintf("%s updated", result.Name),
	})
	return &result, nil
}

// DeleteMember lets the owning account remove its own member record.
func (s *Service) DeleteMember(ctx context.Context, actorID, memberID string) error {
	return s.delete(ctx, actorID, memberID, false)
}

func (s *Service) AdminDeleteMember(ctx context.Context, actorID, memberID string) error {
	if err := s.guard.Authorize(ctx, actorID, permission.FamilyManageMembers); err != nil {
		return err
	}
	return s.delete(ctx, actorID, memberID, true)
}

func (s *Service) delete(ctx context.Context, actorID, memberID string, bypassOwnership bool) error {
	existing, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if !bypassOwnership && existing.OwnerAccountID != actorID {
		return ErrNotOwner
	}

	var removed MemberRecord
	err = s.repo.InFamily(ctx, existing.FamilyID, func(tx Repository) error {
		member, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if !bypassOwnership && member.OwnerAccountID != actorID {
			return ErrNotOwner
		}

		if member.LinkedAccountID != nil {
			linked, err := tx.GetAccount(ctx, *member.LinkedAccountID)
			switch {
			case err == nil:
				if linked.LinkedMemberRecordID != nil && *linked.LinkedMemberRecordID == member.ID {
					if err := tx.SetAccountLink(ctx, linked.ID, nil); err != nil {
						return err
					}
				}
			case !errors.Is(err, account.ErrAccountNotFound):
				return err
			}
		}

		if err := tx.DeleteMember(ctx, member.ID); err != nil {
			return err
		}
		if err := s.refreshMemberCount(ctx, tx, member.OwnerAccountID); err != nil {
			return err
		}
		removed = *member
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     actorID,
		Action:          audit.ActionMemberDeleted,
		TargetAccountID: &removed.OwnerAccountID,
		TargetMemberID:  &removed.ID,
		Details:         map[string]any{"admin": bypassOwnership},
		Description:     fmt.Sprintf("%s removed", removed.Name),
	})
	return nil
}

func (s *Service) GetMember(ctx context.Context, actorID, memberID string) (*MemberRecord, error) {
	member, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeViewer(ctx, actorID, member.FamilyID); err != nil {
		return nil, err
	}
	return member, nil
}

// ListMembers returns the owner's active (approved or pending) records.
func (s *Service) ListMembers(ctx context.Context, actorID, ownerID string) ([]MemberRecord, error) {
	owner, err := s.repo.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, ownerErr(err)
	}
	if err := s.authorizeViewer(ctx, actorID, owner.FamilyID); err != nil {
		return nil, err
	}

	members, err := s.repo.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	result := make([]MemberRecord, 0, len(members))
	for _, member := range members {
		if member.IsActive() {
			result = append(result, member)
		}
	}
	return result, nil
}

func (s *Service) FamilyOverview(ctx context.Context, actorID, familyID string) (*Overview, error) {
	if err := s.authorizeViewer(ctx, actorID, familyID); err != nil {
		return nil, err
	}

	accounts, err := s.repo.FamilyAccounts(ctx, familyID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 && len(members) == 0 {
		return nil, account.ErrAccountNotFound.Withf("family %s has no accounts", familyID)
	}

	overview := &Overview{
		FamilyID: familyID,
		Accounts: accounts,
		Members:  members,
	}
	for i := range accounts {
		if accounts[i].IsPrimary && overview.Primary == nil {
			overview.Primary = &accounts[i]
		}
	}
	for _, member := range members {
		if member.IsActive() {
			overview.ActiveMemberCount++
		}
	}
	if remaining := s.limit - overview.ActiveMemberCount; remaining > 0 {
		overview.FreeSlotsRemaining = remaining
	}
	return overview, nil
}

// authorizeManager allows the family's primary account or a holder of
// family.manage_members.
func (s *Service) authorizeManager(ctx context.Context, actorID, familyID string) error {
	actor, err := s.repo.GetAccount(ctx, actorID)
	if errors.Is(err, account.ErrAccountNotFound) {
		return ErrActorNotFound
	}
	if err != nil {
		return err
	}
	if actor.IsPrimary && actor.FamilyID == familyID {
		return nil
	}

	allowed, err := s.guard.Can(ctx, actorID, permission.FamilyManageMembers)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotFamilyManager
	}
	return nil
}

// authorizeViewer allows accounts of the same family or holders of family.view.
func (s *Service) authorizeViewer(ctx context.Context, actorID, familyID string) error {
	actor, err := s.repo.GetAccount(ctx, actorID)
	if errors.Is(err, account.ErrAccountNotFound) {
		return ErrActorNotFound
	}
	if err != nil {
		return err
	}
	if actor.FamilyID == familyID {
		return nil
	}

	allowed, err := s.guard.Can(ctx, actorID, permission.FamilyView)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotFamilyViewer
	}
	return nil
}

func (s *Service) refreshMemberCount(ctx context.Context, tx Repository, ownerID string) error {
	count, err := tx.CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	return tx.SetMemberCount(ctx, ownerID, int(count))
}

func (s *Service) normalizePerson(person Person) (Person, error) {
	person.Name = strings.TrimSpace(person.Name)
	if person.Name == "" {
		return Person{}, ErrNameRequired
	}

	relationship, err := normalizeRelationship(person.Relationship)
	if err != nil {
		return Person{}, err
	}
	person.Relationship = relationship

	gender, err := normalizeGender(person.Gender)
	if err != nil {
		return Person{}, err
	}
	person.Gender = gender

	if person.Email, err = s.contacts.NormalizeEmail(person.Email); err != nil {
		return Person{}, err
	}
	if person.Mobile, err = s.contacts.NormalizeMobile(person.Mobile); err != nil {
		return Person{}, err
	}
	return person, nil
}

func (s *Service) applyUpdate(member *MemberRecord, input UpdateMemberInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return ErrNameRequired
		}
		member.Name = name
	}
	if input.Relationship != nil {
		relationship, err := normalizeRelationship(*input.Relationship)
		if err != nil {
			return err
		}
		member.Relationship = relationship
	}
	if input.Gender != nil {
		gender, err := normalizeGender(*input.Gender)
		if err != nil {
			return err
		}
		member.Gender = optional(gender)
	}
	if input.BirthDate != nil {
		member.BirthDate = input.BirthDate
	}
	if input.Email != nil {
		email, err := s.contacts.NormalizeEmail(*input.Email)
		if err != nil {
			return err
		}
		member.Email = optional(email)
	}
	if input.Mobile != nil {
		mobile, err := s.contacts.NormalizeMobile(*input.Mobile)
		if err != nil {
			return err
		}
		member.Mobile = optional(mobile)
	}
	return nil
}

func normalizeRelationship(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	if _, ok := relationships[normalized]; !ok {
		return "", ErrInvalidRelationship.Withf("relationship %q is not recognised", value)
	}
	return normalized, nil
}

func normalizeGender(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", nil
	}
	if _, ok := genders[normalized]; !ok {
		return "", ErrInvalidGender
	}
	return normalized, nil
}

func ownerErr(err error) error {
	if errors.Is(err, account.ErrAccountNotFound) {
		return ErrOwnerNotFound
	}
	return err
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
