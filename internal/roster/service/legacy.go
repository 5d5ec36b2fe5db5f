package service

import (
	"context"
	"fmt"

	"github.com/samtime/samtime-backend/internal/roster/domain"
)

// Rename records one legacy id rewrite
type Rename struct {
	CompanyID int64  `json:"company_id"`
	OldID     string `json:"old_id"`
	NewID     string `json:"new_id"`
}

// MigrateLegacyIDs rewrites every EMPnnn id into EMP-{company}-{nnn}.
// When that id is taken the employee gets the company's next free
// sequence instead. Everything runs in one transaction; with dryRun the
// transaction is rolled back after computing the renames.
func (s *RosterService) MigrateLegacyIDs(ctx context.Context, dryRun bool) ([]Rename, error) {
	var renames []Rename

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		legacy, err := s.repo.ListLegacy(ctx)
		if err != nil {
			return err
		}

		locked := map[int64]bool{}
		for _, emp := range legacy {
			if !locked[emp.CompanyID] {
				if err := s.repo.LockCompanySequence(ctx, emp.CompanyID); err != nil {
					return err
				}
				locked[emp.CompanyID] = true
			}

			rename, err := s.migrateOne(ctx, emp)
			if err != nil {
				return err
			}
			renames = append(renames, rename)
		}

		if dryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && err != errDryRun {
		s.logger.Error().Err(err).Msg("legacy id migration failed")
		return nil, err
	}

	if !dryRun {
		for _, r := range renames {
			s.publisher.PublishIDMigrated(ctx, r.CompanyID, r.OldID, r.NewID)
		}
	}

	s.logger.Info().Int("renamed", len(renames)).Bool("dry_run", dryRun).Msg("legacy id migration finished")
	return renames, nil
}

var errDryRun = fmt.Errorf("dry run")

func (s *RosterService) migrateOne(ctx context.Context, emp *domain.Employee) (Rename, error) {
	seq := domain.ParseID(emp.ID).Seq
	if seq < 1 {
		seq = 1
	}
	newID := domain.FormatID(emp.CompanyID, seq)

	outcome, err := s.repo.RenameID(ctx, emp.ID, newID, seq)
	if err != nil {
		return Rename{}, err
	}

	if outcome == domain.OutcomeConflict {
		lastID, found, err := s.repo.LastID(ctx, emp.CompanyID)
		if err != nil {
			return Rename{}, err
		}
		if domain.SequenceExhausted(lastID, found) {
			return Rename{}, errSequenceExhausted(emp.CompanyID)
		}
		newID = domain.NextID(emp.CompanyID, lastID, found)
		seq = domain.ParseID(newID).Seq

		outcome, err = s.repo.RenameID(ctx, emp.ID, newID, seq)
		if err != nil {
			return Rename{}, err
		}
	}

	if outcome != domain.OutcomeUpdated {
		return Rename{}, fmt.Errorf("failed to rename %s to %s: %s", emp.ID, newID, outcome)
	}

	return Rename{CompanyID: emp.CompanyID, OldID: emp.ID, NewID: newID}, nil
}
