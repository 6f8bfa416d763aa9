package transfer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/pkg/logger"
)

type Deps struct {
	Guard permission.Authorizer
	Audit audit.Recorder
	Log   logger.Logger
}

type Service struct {
	repo  Repository
	guard permission.Authorizer
	audit audit.Recorder
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, deps Deps) *Service {
	recorder := deps.Audit
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:  repo,
		guard: deps.Guard,
		audit: recorder,
		log:   deps.Log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// TransferPrimary hands primary status and the selected member records from
// the current primary to another account of the same family. Every write
// happens in one family-scoped transaction; on any failure nothing changes.
func (s *Service) TransferPrimary(ctx context.Context, input TransferInput) (*Outcome, error) {
	input.CurrentPrimaryID = strings.TrimSpace(input.CurrentPrimaryID)
	input.NewPrimaryID = strings.TrimSpace(input.NewPrimaryID)
	input.Reason = strings.TrimSpace(input.Reason)
	if input.CurrentPrimaryID == "" || input.NewPrimaryID == "" {
		return nil, ErrAccountRequired
	}
	if input.CurrentPrimaryID == input.NewPrimaryID {
		return nil, ErrSameAccount
	}

	current, err := s.repo.GetAccount(ctx, input.CurrentPrimaryID)
	if err != nil {
		return nil, notFound(err, ErrCurrentNotFound)
	}
	if err := s.authorize(ctx, input.ActorID, current.ID); err != nil {
		return nil, err
	}

	var outcome Outcome
	err = s.repo.InFamily(ctx, current.FamilyID, func(tx Repository) error {
		outcome = Outcome{}
		return s.transfer(ctx, tx, input, &outcome)
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"family_id":      outcome.Current.FamilyID,
		"from_id":        outcome.Record.FromAccountID,
		"to_id":          outcome.Record.ToAccountID,
		"reason":         outcome.Record.Reason,
		"migrated_count": outcome.MigratedCount,
		"marked_dead":    outcome.Previous.Status == account.StatusDeceased,
		"history_length": len(outcome.Current.TransferHistory),
	}
	if len(outcome.Demoted) > 0 {
		details["demoted"] = outcome.Demoted
	}
	s.audit.Record(ctx, audit.Entry{
		PerformedBy:     input.ActorID,
		Action:          audit.ActionPrimaryTransferred,
		TargetAccountID: &outcome.Current.ID,
		Details:         details,
		Description:     fmt.Sprintf("primary transferred from %s to %s", outcome.Record.FromName, outcome.Record.ToName),
	})
	return &outcome, nil
}

func (s *Service) transfer(ctx context.Context, tx Repository, input TransferInput, outcome *Outcome) error {
	current, err := tx.GetAccount(ctx, input.CurrentPrimaryID)
	if err != nil {
		return notFound(err, ErrCurrentNotFound)
	}
	next, err := tx.GetAccount(ctx, input.NewPrimaryID)
	if err != nil {
		return notFound(err, ErrTargetNotFound)
	}

	if !current.IsPrimary {
		return ErrNotPrimary
	}
	if current.FamilyID != next.FamilyID {
		return ErrCrossFamily
	}
	if next.IsPrimary {
		return ErrTargetAlreadyPrimary
	}
	if next.Status != account.StatusApproved && next.Status != account.StatusPending {
		return ErrTargetInactive.Withf("new primary has status %s, must be approved or pending", next.Status)
	}

	demoted, err := s.normalizePrimaries(ctx, tx, current)
	if err != nil {
		return err
	}

	migration, err := migrationSet(ctx, tx, current.ID, input.MemberRecordIDs)
	if err != nil {
		return err
	}

	at := s.now()
	record := account.TransferRecord{
		FromAccountID:              current.ID,
		FromName:                   current.Name,
		ToAccountID:                next.ID,
		ToName:                     next.Name,
		TransferredBy:              input.ActorID,
		TransferredAt:              at,
		Reason:                     input.Reason,
		MemberRecordsMigratedCount: len(migration),
	}
	prior := current.History()

	current.IsPrimary = false
	if input.MarkDeceased || ReasonIndicatesDeath(input.Reason) {
		current.Status = account.StatusDeceased
	}
	current.TransferHistory = appendRecord(prior, record)
	if err := tx.SaveAccount(ctx, current); err != nil {
		return fmt.Errorf("demote current primary: %w", err)
	}

	if len(migration) > 0 {
		moved, err := tx.ReassignMembers(ctx, migration, current.ID, next.ID)
		if err != nil {
			return fmt.Errorf("reassign member records: %w", err)
		}
		if moved != int64(len(migration)) {
			return fmt.Errorf("reassign member records: moved %d of %d", moved, len(migration))
		}
	}

	reason := input.Reason
	next.IsPrimary = true
	next.TransferredFrom = &current.ID
	next.TransferredAt = &at
	next.TransferredBy = &input.ActorID
	next.TransferReason = &reason
	next.TransferHistory = appendRecord(prior, record)
	if err := tx.SaveAccount(ctx, next); err != nil {
		return fmt.Errorf("promote new primary: %w", err)
	}

	for _, owner := range []*account.Account{current, next} {
		count, err := tx.CountActiveByOwner(ctx, owner.ID)
		if err != nil {
			return err
		}
		if err := tx.SetMemberCount(ctx, owner.ID, int(count)); err != nil {
			return err
		}
		owner.MemberCount = int(count)
	}

	outcome.MigratedCount = len(migration)
	outcome.Record = record
	outcome.Previous = *current
	outcome.Current = *next
	outcome.Demoted = demoted
	return nil
}

// normalizePrimaries demotes any other account of the family flagged primary.
func (s *Service) normalizePrimaries(ctx context.Context, tx Repository, current *account.Account) ([]string, error) {
	primaries, err := tx.FamilyPrimaries(ctx, current.FamilyID)
	if err != nil {
		return nil, err
	}

	var demoted []string
	for i := range primaries {
		stray := primaries[i]
		if stray.ID == current.ID {
			continue
		}
		stray.IsPrimary = false
		if err := tx.SaveAccount(ctx, &stray); err != nil {
			return nil, fmt.Errorf("demote stray primary %s: %w", stray.ID, err)
		}
		s.log.Warn("transfers.normalize: demoted extra primary", "family_id", current.FamilyID, "account_id", stray.ID)
		demoted = append(demoted, stray.ID)
	}
	return demoted, nil
}

// migrationSet resolves the records to move. Explicit ids must all be live
// records owned by the current primary.
func migrationSet(ctx context.Context, tx Repository, ownerID string, requested []string) ([]string, error) {
	owned, err := tx.ListOwnedMembers(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if len(requested) == 0 {
		ids := make([]string, 0, len(owned))
		for _, member := range owned {
			ids = append(ids, member.ID)
		}
		return ids, nil
	}

	ownedSet := make(map[string]struct{}, len(owned))
	for _, member := range owned {
		ownedSet[member.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(requested))
	ids := make([]string, 0, len(requested))
	var invalid []string
	for _, id := range requested {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := ownedSet[id]; !ok {
			invalid = append(invalid, id)
			continue
		}
		ids = append(ids, id)
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, ErrInvalidMigration.WithDetails(map[string]any{"invalid": invalid})
	}
	return ids, nil
}

func (s *Service) authorize(ctx context.Context, actorID, currentID string) error {
	if actorID == "" {
		return ErrNotAllowed
	}
	if actorID == currentID {
		return nil
	}
	allowed, err := s.guard.Can(ctx, actorID, permission.FamilyTransferPrimary)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotAllowed
	}
	return nil
}

func appendRecord(prior []account.TransferRecord, record account.TransferRecord) []account.TransferRecord {
	chain := make([]account.TransferRecord, 0, len(prior)+1)
	chain = append(chain, prior...)
	return append(chain, record)
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, account.ErrAccountNotFound) {
		return sentinel
	}
	return err
}
