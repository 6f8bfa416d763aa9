package account

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDeceased Status = "deceased"
)

type DeleteType string

const (
	DeleteSoft DeleteType = "soft"
	DeleteHard DeleteType = "hard"
)

// TransferRecord is one primary-account handoff. Records are appended to a
// history and never changed afterwards.
type TransferRecord struct {
	FromAccountID              string    `json:"from_account_id"`
	FromName                   string    `json:"from_name"`
	ToAccountID                string    `json:"to_account_id"`
	ToName                     string    `json:"to_name"`
	TransferredBy              string    `json:"transferred_by"`
	TransferredAt              time.Time `json:"transferred_at"`
	Reason                     string    `json:"reason"`
	MemberRecordsMigratedCount int       `json:"member_records_migrated_count"`
}

type Account struct {
	ID                   string                              `gorm:"type:uuid;primaryKey" json:"id"`
	Name                 string                              `gorm:"type:varchar(128);not null" json:"name"`
	Email                *string                             `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Mobile               *string                             `gorm:"type:varchar(32);index" json:"mobile,omitempty"`
	PasswordHash         string                              `gorm:"type:varchar(255);not null" json:"-"`
	FamilyID             string                              `gorm:"type:uuid;not null;index" json:"family_id"`
	IsPrimary            bool                                `gorm:"not null" json:"is_primary"`
	RoleID               string                              `gorm:"type:uuid;not null;index" json:"role_id"`
	Status               Status                              `gorm:"type:varchar(16);not null;index" json:"status"`
	LinkedMemberRecordID *string                             `gorm:"type:uuid" json:"linked_member_record_id,omitempty"`
	TransferHistory      datatypes.JSONSlice[TransferRecord] `gorm:"not null" json:"transfer_history"`
	TransferredFrom      *string                             `gorm:"type:uuid" json:"transferred_from,omitempty"`
	TransferredAt        *time.Time                          `json:"transferred_at,omitempty"`
	TransferredBy        *string                             `gorm:"type:uuid" json:"transferred_by,omitempty"`
	TransferReason       *string                             `gorm:"type:text" json:"transfer_reason,omitempty"`
	MemberCount          int                                 `gorm:"not null" json:"member_count"`
	DeleteType           *DeleteType                         `gorm:"type:varchar(8)" json:"delete_type,omitempty"`
	CreatedAt            time.Time                           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time                           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt                      `gorm:"index" json:"deleted_at,omitempty"`
}

// History returns a copy of the transfer chain.
func (a *Account) History() []TransferRecord {
	result := make([]TransferRecord, len(a.TransferHistory))
	copy(result, a.TransferHistory)
	return result
}

func (a *Account) IsDeleted() bool {
	return a.DeletedAt.Valid
}

func (a *Account) IsHardDeleted() bool {
	return a.DeleteType != nil && *a.DeleteType == DeleteHard
}

type RegisterInput struct {
	Name     string
	Email    string
	Mobile   string
	Password string
}

// Dependencies counts what blocks a hard delete.
type Dependencies struct {
	FamilyMembers  int64            `json:"family_members"`
	FamilyAccounts int64            `json:"family_accounts"`
	External       map[string]int64 `json:"external,omitempty"`
}

func (d Dependencies) Total() int64 {
	total := d.FamilyMembers + d.FamilyAccounts
	for _, count := range d.External {
		total += count
	}
	return total
}

func (d Dependencies) Map() map[string]any {
	result := map[string]any{
		"family_members":  d.FamilyMembers,
		"family_accounts": d.FamilyAccounts,
	}
	if len(d.External) > 0 {
		external := make(map[string]any, len(d.External))
		for name, count := range d.External {
			external[name] = count
		}
		result["external"] = external
	}
	return result
}

type DeletionResult struct {
	Blocked         bool         `json:"blocked"`
	Deleted         bool         `json:"deleted"`
	Dependencies    Dependencies `json:"dependencies"`
	MembersDeleted  int64        `json:"members_deleted"`
	AccountsDeleted int64        `json:"accounts_deleted"`
}

// ExternalRef names a column in another table that points at accounts.
// Cascading hard deletes null it out.
type ExternalRef struct {
	Table  string
	Column string
}

func (r ExternalRef) String() string {
	return r.Table + "." + r.Column
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ParseExternalRef reads a "table.column" pair. Both parts must be plain
// lower-case SQL identifiers.
func ParseExternalRef(value string) (ExternalRef, error) {
	table, column, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), ".")
	if !ok || !identifierPattern.MatchString(table) || !identifierPattern.MatchString(column) {
		return ExternalRef{}, fmt.Errorf("invalid external reference %q, want table.column", value)
	}
	return ExternalRef{Table: table, Column: column}, nil
}
