// Package stats computes per-user and per-mosque donation totals. Nothing is
// cached or materialised; every call recomputes from the live donation set.
package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/mosque-donations/internal/analytics"
	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/models"
	"github.com/hongminglow/mosque-donations/internal/storage"
)

// Service aggregates donations for reporting.
type Service struct {
	store    storage.DonationStore
	now      func() time.Time
	location *time.Location
}

// NewService constructs the stats service. Calendar windows are evaluated in
// loc; nil means UTC.
func NewService(store storage.DonationStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, now: time.Now, location: loc}
}

// WithClock replaces the time source used for window boundaries.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Summary returns userID's totals for every kind after the ownership check.
// Kinds without rows report zero totals.
func (s *Service) Summary(ctx context.Context, callerID, userID int64) (models.Summary, error) {
	if err := auth.AuthorizeOwner(callerID, userID); err != nil {
		return models.Summary{}, err
	}
	return s.summary(ctx, userID)
}

// Counts returns how many Fitr and Zakat donations userID has recorded.
func (s *Service) Counts(ctx context.Context, callerID, userID int64) (models.AnnualCounts, error) {
	if err := auth.AuthorizeOwner(callerID, userID); err != nil {
		return models.AnnualCounts{}, err
	}
	summary, err := s.summary(ctx, userID, models.KindFitr, models.KindZakat)
	if err != nil {
		return models.AnnualCounts{}, err
	}
	return models.AnnualCounts{Fitr: summary.Fitr.Count, Zakat: summary.Zakat.Count}, nil
}

// Analytics builds the dashboard report for userID.
func (s *Service) Analytics(ctx context.Context, callerID, userID int64) (analytics.Report, error) {
	if err := auth.AuthorizeOwner(callerID, userID); err != nil {
		return analytics.Report{}, err
	}

	var (
		summary   models.Summary
		donations []models.Donation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.summary(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		donations, err = s.store.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list donations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return analytics.Report{}, err
	}
	return analytics.Build(summary, donations, s.now().In(s.location)), nil
}

// WindowStats sums mosqueID's Friday donations for the current ISO week,
// calendar month and calendar year.
func (s *Service) WindowStats(ctx context.Context, mosqueID int64) (models.WindowStats, error) {
	if mosqueID <= 0 {
		return models.WindowStats{}, models.Invalid("mosque_id", "invalid mosque id")
	}
	now := s.now().In(s.location)

	var stats models.WindowStats
	targets := map[Window]*models.Money{
		WindowWeek:  &stats.Weekly,
		WindowMonth: &stats.Monthly,
		WindowYear:  &stats.Yearly,
	}
	g, gctx := errgroup.WithContext(ctx)
	for window, dst := range targets {
		from, to, err := Bounds(window, now)
		if err != nil {
			return models.WindowStats{}, err
		}
		g.Go(func() error {
			total, err := s.store.WindowedSum(gctx, mosqueID, from, to)
			if err != nil {
				return fmt.Errorf("%s total: %w", window, err)
			}
			*dst = total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.WindowStats{}, err
	}
	return stats, nil
}

// summary runs one SumAndCount per kind concurrently; with no kinds given
// it covers all of them.
func (s *Service) summary(ctx context.Context, userID int64, kinds ...models.Kind) (models.Summary, error) {
	if len(kinds) == 0 {
		kinds = models.Kinds
	}
	results := make([]models.Totals, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			totals, err := s.store.SumAndCount(gctx, kind, userID)
			if err != nil {
				return fmt.Errorf("sum %s: %w", kind, err)
			}
			results[i] = totals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Summary{}, err
	}

	var summary models.Summary
	for i, kind := range kinds {
		summary.Set(kind, results[i])
	}
	return summary, nil
}
