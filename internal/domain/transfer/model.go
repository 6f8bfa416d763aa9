package transfer

import (
	"regexp"

	"family-registry-go/internal/domain/account"
)

var deceasedPattern = regexp.MustCompile(`(?i)\b(deceased|death|died|dead|passed away|demise)\b`)

// ReasonIndicatesDeath reports whether a free-text reason names a death.
func ReasonIndicatesDeath(reason string) bool {
	return deceasedPattern.MatchString(reason)
}

type TransferInput struct {
	ActorID          string
	CurrentPrimaryID string
	NewPrimaryID     string
	Reason           string
	// MemberRecordIDs limits the migration to these records. Empty migrates
	// every record the current primary owns.
	MemberRecordIDs []string
	// MarkDeceased sets the outgoing primary to deceased regardless of the
	// reason text.
	MarkDeceased bool
}

type Outcome struct {
	MigratedCount int                    `json:"migrated_count"`
	Record        account.TransferRecord `json:"record"`
	Previous      account.Account        `json:"previous"`
	Current       account.Account        `json:"current"`
	// Demoted lists other accounts of the family found flagged primary and
	// demoted before the handoff.
	Demoted []string `json:"demoted,omitempty"`
}
