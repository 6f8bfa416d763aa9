package family

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/contact"
	"family-registry-go/internal/domain/role"
	"github.com/google/uuid"
)

const minPasswordLength = 6

// loginPlan is prepared before the family transaction so hashing does not run
// while the family lock is held.
type loginPlan struct {
	email        string
	mobile       string
	givenEmail   string
	givenMobile  string
	passwordHash string
	roleID       string
}

// planLogin returns nil when the person has neither email nor mobile.
func (s *Service) planLogin(ctx context.Context, person Person, explicitPassword string) (*loginPlan, error) {
	if person.Email == "" && person.Mobile == "" {
		return nil, nil
	}
	if explicitPassword != "" && len(explicitPassword) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	userRole, err := s.roles.GetRoleByKey(ctx, role.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("resolve default role: %w", err)
	}

	hash, err := s.hasher.Hash(DefaultPassword(explicitPassword, person.Email, person.Mobile))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email := person.Email
	mobile := person.Mobile
	if email == "" {
		email = PlaceholderEmail(mobile)
	}
	if mobile == "" {
		mobile = PlaceholderMobile(email)
	}

	return &loginPlan{
		email:        email,
		mobile:       mobile,
		givenEmail:   person.Email,
		givenMobile:  person.Mobile,
		passwordHash: hash,
		roleID:       userRole.ID,
	}, nil
}

// provisionLogin links an existing account matching the person's contact or
// creates a non-primary one in the owner's family. Both sides of the link are
// written before the transaction commits.
func (s *Service) provisionLogin(ctx context.Context, tx Repository, owner *account.Account, member *MemberRecord, plan *loginPlan) (*account.Account, bool, error) {
	existing, err := findByContact(ctx, tx, plan.givenEmail, plan.givenMobile)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		if existing.FamilyID != owner.FamilyID {
			return nil, false, ErrContactInOtherFamily.Withf("contact belongs to an account in another family")
		}
		if existing.LinkedMemberRecordID != nil {
			linked, err := tx.GetMember(ctx, *existing.LinkedMemberRecordID)
			if err == nil && linked.ID != member.ID {
				return nil, false, ErrAccountAlreadyLinked.Withf("account is already linked to member %s", linked.ID)
			}
			if err != nil && !errors.Is(err, ErrMemberNotFound) {
				return nil, false, err
			}
		}

		member.LinkedAccountID = &existing.ID
		if err := tx.SaveMember(ctx, member); err != nil {
			return nil, false, err
		}
		if err := tx.SetAccountLink(ctx, existing.ID, &member.ID); err != nil {
			return nil, false, err
		}
		existing.LinkedMemberRecordID = &member.ID
		return existing, false, nil
	}

	if err := ensurePlaceholdersFree(ctx, tx, plan); err != nil {
		return nil, false, err
	}

	status := account.StatusApproved
	if member.ApprovalStatus == ApprovalPending {
		status = account.StatusPending
	}
	created := account.Account{
		ID:                   uuid.NewString(),
		Name:                 member.Name,
		Email:                &plan.email,
		Mobile:               &plan.mobile,
		PasswordHash:         plan.passwordHash,
		FamilyID:             owner.FamilyID,
		IsPrimary:            false,
		RoleID:               plan.roleID,
		Status:               status,
		LinkedMemberRecordID: &member.ID,
		TransferHistory:      []account.TransferRecord{},
	}
	if err := tx.CreateAccount(ctx, &created); err != nil {
		return nil, false, err
	}

	member.LinkedAccountID = &created.ID
	if err := tx.SaveMember(ctx, member); err != nil {
		return nil, false, err
	}
	return &created, true, nil
}

// findByContact resolves the account owning the given email or mobile. Both
// contacts must point at the same account when both match.
func findByContact(ctx context.Context, tx Repository, email, mobile string) (*account.Account, error) {
	var byEmail, byMobile *account.Account
	if email != "" {
		found, err := tx.FindAccountByEmail(ctx, email)
		if err != nil && !errors.Is(err, account.ErrAccountNotFound) {
			return nil, err
		}
		byEmail = found
	}
	if mobile != "" {
		found, err := tx.FindAccountByMobile(ctx, mobile)
		if err != nil && !errors.Is(err, account.ErrAccountNotFound) {
			return nil, err
		}
		byMobile = found
	}

	if byEmail != nil && byMobile != nil && byEmail.ID != byMobile.ID {
		return nil, ErrContactMismatch.WithDetails(map[string]any{
			"email_account_id":  byEmail.ID,
			"mobile_account_id": byMobile.ID,
		})
	}
	if byEmail != nil {
		return byEmail, nil
	}
	return byMobile, nil
}

func ensurePlaceholdersFree(ctx context.Context, tx Repository, plan *loginPlan) error {
	if _, err := tx.FindAccountByEmail(ctx, plan.email); err == nil {
		return account.ErrEmailTaken.Withf("email %s is already registered", plan.email)
	} else if !errors.Is(err, account.ErrAccountNotFound) {
		return err
	}
	if _, err := tx.FindAccountByMobile(ctx, plan.mobile); err == nil {
		return account.ErrMobileTaken.Withf("mobile %s is already registered", plan.mobile)
	} else if !errors.Is(err, account.ErrAccountNotFound) {
		return err
	}
	return nil
}

// PlaceholderEmail builds a deterministic address from a mobile number.
func PlaceholderEmail(mobile string) string {
	return contact.Digits(mobile) + "@" + PlaceholderEmailDomain
}

// PlaceholderMobile derives a stable eleven digit number starting with 9 from
// an email address.
func PlaceholderMobile(email string) string {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(strings.ToLower(email)))
	return fmt.Sprintf("%s%010d", placeholderMobilePrefix, hasher.Sum64()%placeholderMobileModulus)
}

// DefaultPassword picks the explicit password, then the mobile digits, then
// the email local part, then the shared fallback.
func DefaultPassword(explicit, email, mobile string) string {
	if explicit != "" {
		return explicit
	}
	if digits := contact.Digits(mobile); digits != "" {
		return digits
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return DefaultMemberPassword
}
