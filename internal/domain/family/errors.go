package family

import "family-registry-go/internal/apperr"

var (
	ErrMemberNotFound       = apperr.New(apperr.KindNotFound, "member_not_found", "member not found")
	ErrOwnerNotFound        = apperr.New(apperr.KindNotFound, "owner_not_found", "owner account not found")
	ErrActorNotFound        = apperr.New(apperr.KindUnauthenticated, "actor_not_found", "actor account not found")
	ErrNotFamilyManager     = apperr.New(apperr.KindForbidden, "not_family_manager", "only the family primary or a member manager can do this")
	ErrNotOwner             = apperr.New(apperr.KindForbidden, "not_owner", "only the owning account can change this member")
	ErrNotFamilyViewer      = apperr.New(apperr.KindForbidden, "not_family_viewer", "not allowed to view this family")
	ErrNameRequired         = apperr.New(apperr.KindInvalidArgument, "member_name_required", "member name is required")
	ErrInvalidRelationship  = apperr.New(apperr.KindInvalidArgument, "invalid_relationship", "relationship is not recognised")
	ErrInvalidGender        = apperr.New(apperr.KindInvalidArgument, "invalid_gender", "gender must be male, female or other")
	ErrPasswordTooShort     = apperr.New(apperr.KindInvalidArgument, "password_too_short", "password must have at least 6 characters")
	ErrAlreadyReviewed      = apperr.New(apperr.KindInvalidState, "member_already_reviewed", "member already has this decision")
	ErrContactInOtherFamily = apperr.New(apperr.KindConflict, "contact_in_other_family", "contact belongs to an account in another family")
	ErrAccountAlreadyLinked = apperr.New(apperr.KindConflict, "account_already_linked", "account is already linked to another member")
	ErrContactMismatch      = apperr.New(apperr.KindConflict, "contact_mismatch", "email and mobile belong to different accounts")
)
