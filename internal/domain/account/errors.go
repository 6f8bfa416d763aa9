package account

import "family-registry-go/internal/apperr"

var (
	ErrAccountNotFound     = apperr.New(apperr.KindNotFound, "account_not_found", "account not found")
	ErrInvalidCredentials  = apperr.New(apperr.KindUnauthenticated, "invalid_credentials", "invalid credentials")
	ErrAccountNotApproved  = apperr.New(apperr.KindForbidden, "account_not_approved", "account is not approved")
	ErrContactRequired     = apperr.New(apperr.KindInvalidArgument, "contact_required", "email or mobile is required")
	ErrNameRequired        = apperr.New(apperr.KindInvalidArgument, "name_required", "name is required")
	ErrPasswordTooShort    = apperr.New(apperr.KindInvalidArgument, "password_too_short", "password must have at least 6 characters")
	ErrInvalidStatus       = apperr.New(apperr.KindInvalidArgument, "invalid_status", "status must be approved or rejected")
	ErrEmailTaken          = apperr.New(apperr.KindConflict, "email_taken", "email is already registered")
	ErrMobileTaken         = apperr.New(apperr.KindConflict, "mobile_taken", "mobile is already registered")
	ErrContactTaken        = apperr.New(apperr.KindConflict, "contact_taken", "email or mobile is already registered")
	ErrLastAdmin           = apperr.New(apperr.KindConflict, "last_admin", "cannot remove the last administrator")
	ErrSelfDelete          = apperr.New(apperr.KindForbidden, "self_delete", "accounts cannot delete themselves")
	ErrStatusUnchanged     = apperr.New(apperr.KindInvalidState, "status_unchanged", "account already has this status")
	ErrNotDeleted          = apperr.New(apperr.KindInvalidState, "account_not_deleted", "account is not deleted")
	ErrHardDeleted         = apperr.New(apperr.KindInvalidState, "account_hard_deleted", "hard-deleted accounts cannot be restored")
	ErrDependenciesPresent = apperr.New(apperr.KindConflict, "dependencies_present", "account has dependent records")
)
