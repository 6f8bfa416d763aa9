package family

import (
	"time"

	"family-registry-go/internal/domain/account"
	"gorm.io/gorm"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

const (
	DefaultFreeMemberLimit   = 5
	DefaultMemberPassword    = "family@123"
	PlaceholderEmailDomain   = "members.placeholder.local"
	placeholderMobilePrefix  = "9"
	placeholderMobileModulus = 10_000_000_000
)

var relationships = map[string]struct{}{
	"spouse":          {},
	"son":             {},
	"daughter":        {},
	"father":          {},
	"mother":          {},
	"brother":         {},
	"sister":          {},
	"grandfather":     {},
	"grandmother":     {},
	"grandson":        {},
	"granddaughter":   {},
	"son_in_law":      {},
	"daughter_in_law": {},
	"father_in_law":   {},
	"mother_in_law":   {},
	"uncle":           {},
	"aunt":            {},
	"nephew":          {},
	"niece":           {},
	"cousin":          {},
	"other":           {},
}

var genders = map[string]struct{}{
	"male":   {},
	"female": {},
	"other":  {},
}

type MemberRecord struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerAccountID  string         `gorm:"type:uuid;not null;index" json:"owner_account_id"`
	FamilyID        string         `gorm:"type:uuid;not null;index" json:"family_id"`
	Name            string         `gorm:"type:varchar(128);not null" json:"name"`
	Relationship    string         `gorm:"type:varchar(32);not null" json:"relationship"`
	Gender          *string        `gorm:"type:varchar(16)" json:"gender,omitempty"`
	BirthDate       *time.Time     `gorm:"type:date" json:"birth_date,omitempty"`
	Email           *string        `gorm:"type:varchar(255)" json:"email,omitempty"`
	Mobile          *string        `gorm:"type:varchar(32)" json:"mobile,omitempty"`
	ApprovalStatus  ApprovalStatus `gorm:"type:varchar(16);not null;index" json:"approval_status"`
	NeedsApproval   bool           `gorm:"not null" json:"needs_approval"`
	LinkedAccountID *string        `gorm:"type:uuid;index" json:"linked_account_id,omitempty"`
	AddedBy         string         `gorm:"type:uuid;not null" json:"added_by"`
	ReviewedBy      *string        `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	ReviewNote      *string        `gorm:"type:text" json:"review_note,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MemberRecord) TableName() string {
	return "member_records"
}

// IsActive reports whether the record counts towards the owner's list and the
// family threshold.
func (m *MemberRecord) IsActive() bool {
	return m.ApprovalStatus == ApprovalApproved || m.ApprovalStatus == ApprovalPending
}

type Person struct {
	Name         string
	Relationship string
	Gender       string
	BirthDate    *time.Time
	Email        string
	Mobile       string
}

type AddMemberInput struct {
	ActorID        string
	OwnerAccountID string
	Person         Person
	CreateLogin    bool
	Password       string
}

type AddMemberResult struct {
	Member         MemberRecord     `json:"member"`
	Account        *account.Account `json:"account,omitempty"`
	AccountCreated bool             `json:"account_created"`
}

// UpdateMemberInput carries optional field changes; nil leaves a field as is.
type UpdateMemberInput struct {
	Name         *string
	Relationship *string
	Gender       *string
	BirthDate    *time.Time
	Email        *string
	Mobile       *string
}

type Overview struct {
	FamilyID           string            `json:"family_id"`
	Primary            *account.Account  `json:"primary,omitempty"`
	Accounts           []account.Account `json:"accounts"`
	Members            []MemberRecord    `json:"members"`
	ActiveMemberCount  int64             `json:"active_member_count"`
	FreeSlotsRemaining int64             `json:"free_slots_remaining"`
}
