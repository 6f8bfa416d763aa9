package role

import "family-registry-go/internal/apperr"

var (
	ErrRoleNotFound       = apperr.New(apperr.KindNotFound, "role_not_found", "role not found")
	ErrRoleExists         = apperr.New(apperr.KindConflict, "role_exists", "a role with this name already exists")
	ErrRoleInUse          = apperr.New(apperr.KindConflict, "role_in_use", "role is assigned to active accounts")
	ErrNameRequired       = apperr.New(apperr.KindInvalidArgument, "role_name_required", "role name is required")
	ErrNoGrants           = apperr.New(apperr.KindInvalidArgument, "role_without_grants", "role must grant at least one permission")
	ErrSystemRoleRename   = apperr.New(apperr.KindForbidden, "system_role_rename", "system roles cannot be renamed")
	ErrSystemRoleDelete   = apperr.New(apperr.KindForbidden, "system_role_delete", "system roles cannot be deleted")
	ErrCriticalPermission = apperr.New(apperr.KindForbidden, "critical_permission", "admin role must keep critical permissions")
	ErrRoleInactive       = apperr.New(apperr.KindInvalidState, "role_inactive", "role is disabled")
)
