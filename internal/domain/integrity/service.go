package integrity

import (
	"context"
	"fmt"
	"sort"
	"sync"
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

// Service sweeps the store for broken family invariants and can repair them.
// Only one sweep runs at a time.
type Service struct {
	repo  Repository
	guard permission.Authorizer
	audit audit.Recorder
	log   logger.Logger
	now   func() time.Time
	mu    sync.Mutex
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

// RunAs checks integrity.run for the actor before sweeping.
func (s *Service) RunAs(ctx context.Context, actorID string, repair bool) (*Report, error) {
	if err := s.guard.Authorize(ctx, actorID, permission.IntegrityRun); err != nil {
		return nil, err
	}
	return s.run(ctx, actorID, repair)
}

// Run sweeps on behalf of the system, used by the scheduler.
func (s *Service) Run(ctx context.Context, repair bool) (*Report, error) {
	return s.run(ctx, audit.SystemActor, repair)
}

func (s *Service) run(ctx context.Context, actorID string, repair bool) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &Report{StartedAt: s.now(), Repair: repair}

	families, err := s.repo.FamiliesWithMultiplePrimaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("find duplicate primaries: %w", err)
	}
	for _, familyID := range families {
		issue, err := s.checkPrimaries(ctx, familyID, repair)
		if err != nil {
			return nil, err
		}
		if issue == nil {
			continue
		}
		report.MultiplePrimaries = append(report.MultiplePrimaries, *issue)
		if issue.KeptID != "" {
			report.Repaired++
		}
	}

	mismatches, err := s.repo.MemberFamilyMismatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("find member family mismatches: %w", err)
	}
	report.MemberMismatches = mismatches
	if repair {
		for _, mismatch := range mismatches {
			err := s.repo.InFamily(ctx, mismatch.OwnerFamilyID, func(tx Repository) error {
				return tx.SetMemberFamily(ctx, mismatch.MemberID, mismatch.OwnerFamilyID)
			})
			if err != nil {
				return nil, fmt.Errorf("realign member %s: %w", mismatch.MemberID, err)
			}
			report.Repaired++
		}
	}

	links, err := s.repo.OneSidedLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("find one-sided links: %w", err)
	}
	report.OneSidedLinks = links
	if repair {
		for _, link := range links {
			if err := s.clearLink(ctx, link); err != nil {
				return nil, err
			}
			report.Repaired++
		}
	}

	report.FinishedAt = s.now()
	s.log.Info("integrity.run: sweep finished",
		"repair", repair,
		"multiple_primaries", len(report.MultiplePrimaries),
		"member_mismatches", len(report.MemberMismatches),
		"one_sided_links", len(report.OneSidedLinks),
		"repaired", report.Repaired,
	)

	if repair && report.Repaired > 0 {
		s.audit.Record(ctx, audit.Entry{
			PerformedBy: actorID,
			Action:      audit.ActionIntegrityRepaired,
			Details: map[string]any{
				"multiple_primaries": len(report.MultiplePrimaries),
				"member_mismatches":  len(report.MemberMismatches),
				"one_sided_links":    len(report.OneSidedLinks),
				"repaired":           report.Repaired,
			},
			Description: fmt.Sprintf("integrity sweep repaired %d issues", report.Repaired),
		})
	}
	return report, nil
}

// checkPrimaries re-reads the family under its lock. When repairing it keeps
// the most recently promoted primary and demotes the rest.
func (s *Service) checkPrimaries(ctx context.Context, familyID string, repair bool) (*PrimaryIssue, error) {
	var issue *PrimaryIssue
	err := s.repo.InFamily(ctx, familyID, func(tx Repository) error {
		issue = nil

		primaries, err := tx.FamilyPrimaries(ctx, familyID)
		if err != nil {
			return err
		}
		if len(primaries) < 2 {
			return nil
		}

		keep := PickPrimary(primaries)
		found := PrimaryIssue{FamilyID: familyID}
		for _, acc := range primaries {
			found.AccountIDs = append(found.AccountIDs, acc.ID)
		}
		sort.Strings(found.AccountIDs)

		if repair {
			for _, acc := range primaries {
				if acc.ID == keep.ID {
					continue
				}
				if err := tx.DemotePrimary(ctx, acc.ID); err != nil {
					return err
				}
				s.log.Warn("integrity.run: demoted extra primary", "family_id", familyID, "account_id", acc.ID, "kept_id", keep.ID)
			}
			found.KeptID = keep.ID
		}
		issue = &found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check primaries of family %s: %w", familyID, err)
	}
	return issue, nil
}

func (s *Service) clearLink(ctx context.Context, link LinkIssue) error {
	var err error
	switch link.Side {
	case LinkMemberSide:
		err = s.repo.ClearMemberLink(ctx, link.MemberID)
	case LinkAccountSide:
		err = s.repo.ClearAccountLink(ctx, link.AccountID)
	default:
		return fmt.Errorf("unknown link side %q", link.Side)
	}
	if err != nil {
		return fmt.Errorf("clear %s link %s/%s: %w", link.Side, link.MemberID, link.AccountID, err)
	}
	return nil
}

// PickPrimary returns the account that keeps primary status: the latest
// transfer wins, then the earliest created account.
func PickPrimary(primaries []account.Account) account.Account {
	best := primaries[0]
	for _, candidate := range primaries[1:] {
		if promotedLater(candidate, best) {
			best = candidate
		}
	}
	return best
}

func promotedLater(a, b account.Account) bool {
	switch {
	case a.TransferredAt != nil && b.TransferredAt == nil:
		return true
	case a.TransferredAt == nil && b.TransferredAt != nil:
		return false
	case a.TransferredAt != nil && !a.TransferredAt.Equal(*b.TransferredAt):
		return a.TransferredAt.After(*b.TransferredAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
