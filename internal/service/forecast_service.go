package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
	"github.com/mlammarsch/finwise/planning-backend/internal/schedule"
)

const (
	// DefaultMaxProjectionYears bounds a single forecast window. Wider
	// requests fail instead of silently truncating.
	DefaultMaxProjectionYears = 10
)

type forecastCacheKey struct {
	workspaceID int32
	id          uuid.UUID
}

type forecastCacheEntry struct {
	windowStart time.Time
	windowEnd   time.Time
	occurrences []domain.Occurrence
}

// ForecastService materializes upcoming occurrences for display without
// committing them as ledger entries. Projection is read-side only and is
// re-run whenever planning transactions change or the window shifts; a
// small per-transaction cache avoids re-expanding unchanged rules for a
// repeated window.
type ForecastService struct {
	planningRepo domain.PlanningRepository
	maxSpan      time.Duration

	mu    sync.Mutex
	cache map[forecastCacheKey]forecastCacheEntry
}

// NewForecastService creates a new ForecastService
func NewForecastService(planningRepo domain.PlanningRepository, maxProjectionYears int) *ForecastService {
	if maxProjectionYears <= 0 {
		maxProjectionYears = DefaultMaxProjectionYears
	}
	return &ForecastService{
		planningRepo: planningRepo,
		maxSpan:      time.Duration(maxProjectionYears) * 365 * 24 * time.Hour,
		cache:        make(map[forecastCacheKey]forecastCacheEntry),
	}
}

// Project expands all active planning transactions of the workspace into
// occurrences within [windowStart, windowEnd], sorted by date ascending
// with ties broken by stored insertion order.
func (s *ForecastService) Project(workspaceID int32, windowStart, windowEnd time.Time) ([]domain.Occurrence, error) {
	if err := s.checkBounds(windowStart, windowEnd); err != nil {
		return nil, err
	}

	activeOnly := true
	pts, err := s.planningRepo.ListByWorkspace(workspaceID, &activeOnly)
	if err != nil {
		return nil, err
	}

	var out []domain.Occurrence
	for _, pt := range pts {
		occ, err := s.occurrencesFor(pt, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}

	// Stable sort keeps the repository's insertion order for equal dates.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return out, nil
}

// ProjectTransactions expands the given planning transactions without
// touching the repository or the cache. Inactive and soft-deleted entries
// are skipped.
func ProjectTransactions(pts []*domain.PlanningTransaction, windowStart, windowEnd time.Time) ([]domain.Occurrence, error) {
	var out []domain.Occurrence
	for _, pt := range pts {
		if !pt.IsActive || pt.DeletedAt != nil {
			continue
		}
		occ, err := expand(pt, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return out, nil
}

// Invalidate drops cached occurrences for a planning transaction. Called
// by the planning service after updates and deletes.
func (s *ForecastService) Invalidate(workspaceID int32, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, forecastCacheKey{workspaceID: workspaceID, id: id})
}

func (s *ForecastService) occurrencesFor(pt *domain.PlanningTransaction, windowStart, windowEnd time.Time) ([]domain.Occurrence, error) {
	key := forecastCacheKey{workspaceID: pt.WorkspaceID, id: pt.ID}

	s.mu.Lock()
	entry, ok := s.cache[key]
	s.mu.Unlock()
	if ok && entry.windowStart.Equal(windowStart) && entry.windowEnd.Equal(windowEnd) {
		return entry.occurrences, nil
	}

	occ, err := expand(pt, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = forecastCacheEntry{windowStart: windowStart, windowEnd: windowEnd, occurrences: occ}
	s.mu.Unlock()

	return occ, nil
}

// expand runs generation and weekend adjustment for one planning
// transaction and resolves the forecast amount per occurrence.
func expand(pt *domain.PlanningTransaction, windowStart, windowEnd time.Time) ([]domain.Occurrence, error) {
	raw, err := schedule.Generate(pt.Recurrence, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	amount := pt.Amount.Resolve()
	out := make([]domain.Occurrence, 0, len(raw))
	for _, r := range raw {
		out = append(out, domain.Occurrence{
			PlanningTransactionID: pt.ID,
			Date:                  schedule.AdjustWeekend(r.Date, pt.Recurrence.WeekendHandling),
			RawDate:               r.Date,
			Amount:                amount,
			SequenceIndex:         r.Index,
			ForecastOnly:          pt.ForecastOnly,
			AutoExecute:           pt.AutoExecute,
		})
	}

	return out, nil
}

func (s *ForecastService) checkBounds(windowStart, windowEnd time.Time) error {
	if windowStart.IsZero() || windowEnd.IsZero() {
		return fmt.Errorf("%w: window bounds are required", domain.ErrProjectionBounds)
	}
	if windowEnd.Before(windowStart) {
		return fmt.Errorf("%w: window end precedes window start", domain.ErrProjectionBounds)
	}
	if windowEnd.Sub(windowStart) > s.maxSpan {
		return fmt.Errorf("%w: window spans more than %s", domain.ErrProjectionBounds, s.maxSpan)
	}
	return nil
}
