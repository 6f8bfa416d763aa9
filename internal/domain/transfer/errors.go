package transfer

import "family-registry-go/internal/apperr"

var (
	ErrCurrentNotFound      = apperr.New(apperr.KindNotFound, "current_primary_not_found", "current primary account not found")
	ErrTargetNotFound       = apperr.New(apperr.KindNotFound, "new_primary_not_found", "new primary account not found")
	ErrSameAccount          = apperr.New(apperr.KindInvalidArgument, "same_account", "current and new primary must differ")
	ErrAccountRequired      = apperr.New(apperr.KindInvalidArgument, "account_required", "current and new primary ids are required")
	ErrNotPrimary           = apperr.New(apperr.KindInvalidArgument, "not_primary", "current account is not the family primary")
	ErrCrossFamily          = apperr.New(apperr.KindInvalidArgument, "cross_family_transfer", "accounts belong to different families")
	ErrTargetAlreadyPrimary = apperr.New(apperr.KindConflict, "already_primary", "new account is already a primary")
	ErrTargetInactive       = apperr.New(apperr.KindInvalidState, "target_inactive", "new primary must be an approved or pending account")
	ErrInvalidMigration     = apperr.New(apperr.KindInvalidArgument, "invalid_migration_set", "member records must be owned by the current primary")
	ErrNotAllowed           = apperr.New(apperr.KindForbidden, "transfer_not_allowed", "only the current primary or a transfer manager can do this")
)
