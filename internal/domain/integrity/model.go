package integrity

import "time"

type LinkSide string

const (
	// LinkMemberSide: the member points at an account that does not point back.
	LinkMemberSide LinkSide = "member"
	// LinkAccountSide: the account points at a member that does not point back.
	LinkAccountSide LinkSide = "account"
)

type PrimaryIssue struct {
	FamilyID   string   `json:"family_id"`
	AccountIDs []string `json:"account_ids"`
	KeptID     string   `json:"kept_id,omitempty"`
}

type MemberMismatch struct {
	MemberID       string `json:"member_id"`
	MemberFamilyID string `json:"member_family_id"`
	OwnerID        string `json:"owner_id"`
	OwnerFamilyID  string `json:"owner_family_id"`
}

type LinkIssue struct {
	Side      LinkSide `json:"side"`
	MemberID  string   `json:"member_id"`
	AccountID string   `json:"account_id"`
}

type Report struct {
	StartedAt         time.Time        `json:"started_at"`
	FinishedAt        time.Time        `json:"finished_at"`
	Repair            bool             `json:"repair"`
	MultiplePrimaries []PrimaryIssue   `json:"multiple_primaries"`
	MemberMismatches  []MemberMismatch `json:"member_mismatches"`
	OneSidedLinks     []LinkIssue      `json:"one_sided_links"`
	Repaired          int              `json:"repaired"`
}

func (r *Report) Clean() bool {
	return len(r.MultiplePrimaries) == 0 && len(r.MemberMismatches) == 0 && len(r.OneSidedLinks) == 0
}
