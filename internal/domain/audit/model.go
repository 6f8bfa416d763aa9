package audit

import (
	"time"

	"gorm.io/datatypes"
)

type Action string

const (
	ActionMemberAdded          Action = "member.added"
	ActionMemberApproved       Action = "member.approved"
	ActionMemberRejected       Action = "member.rejected"
	ActionMemberUpdated        Action = "member.updated"
	ActionMemberDeleted        Action = "member.deleted"
	ActionMemberLoginLinked    Action = "member.login_linked"
	ActionPrimaryTransferred   Action = "primary.transferred"
	ActionAccountRegistered    Action = "account.registered"
	ActionAccountStatusChanged Action = "account.status_changed"
	ActionAccountRoleAssigned  Action = "account.role_assigned"
	ActionAccountSoftDeleted   Action = "account.soft_deleted"
	ActionAccountHardDeleted   Action = "account.hard_deleted"
	ActionAccountRestored      Action = "account.restored"
	ActionRoleCreated          Action = "role.created"
	ActionRoleUpdated          Action = "role.updated"
	ActionRoleDisabled         Action = "role.disabled"
	ActionIntegrityRepaired    Action = "integrity.repaired"
)

// SystemActor marks entries written by background jobs rather than an account.
const SystemActor = "00000000-0000-0000-0000-000000000000"

type Entry struct {
	ID              string            `gorm:"type:uuid;primaryKey" json:"id"`
	PerformedBy     string            `gorm:"type:uuid;not null;index" json:"performed_by"`
	Action          Action            `gorm:"type:varchar(48);not null;index" json:"action"`
	TargetAccountID *string           `gorm:"type:uuid;index" json:"target_account_id,omitempty"`
	TargetMemberID  *string           `gorm:"type:uuid;index" json:"target_member_id,omitempty"`
	Details         datatypes.JSONMap `json:"details,omitempty"`
	Description     string            `gorm:"type:text;not null" json:"description"`
	CreatedAt       time.Time         `gorm:"not null;index" json:"created_at"`
}

func (Entry) TableName() string {
	return "audit_entries"
}

type ListFilter struct {
	Action          Action
	TargetAccountID string
	Limit           int
	Offset          int
}
