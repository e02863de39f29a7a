package service

import (
	"sort"
	"time"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
)

// AutoExecService lists occurrences that are due for conversion into real
// ledger transactions. Conversion itself is the ledger collaborator's
// job; this service only answers "what is due as of this date".
type AutoExecService struct {
	planningRepo domain.PlanningRepository
}

// NewAutoExecService creates a new AutoExecService
func NewAutoExecService(planningRepo domain.PlanningRepository) *AutoExecService {
	return &AutoExecService{planningRepo: planningRepo}
}

// DueOccurrences returns, ordered by date, every occurrence of an active
// auto-executing planning transaction that falls on/before asOf. Entries
// marked forecast-only never auto-materialize and are excluded.
func (s *AutoExecService) DueOccurrences(workspaceID int32, asOf time.Time) ([]domain.Occurrence, error) {
	activeOnly := true
	pts, err := s.planningRepo.ListByWorkspace(workspaceID, &activeOnly)
	if err != nil {
		return nil, err
	}

	candidates := make([]*domain.PlanningTransaction, 0, len(pts))
	for _, pt := range pts {
		if !pt.AutoExecute || pt.ForecastOnly {
			continue
		}
		if pt.Recurrence.StartDate.After(asOf) {
			continue
		}
		candidates = append(candidates, pt)
	}

	var out []domain.Occurrence
	for _, pt := range candidates {
		occ, err := expand(pt, pt.Recurrence.StartDate, asOf)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}

	// Weekend adjustment may push an occurrence past asOf; those are not
	// yet due.
	filtered := out[:0]
	for _, o := range out {
		if !o.Date.After(asOf) {
			filtered = append(filtered, o)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.Before(filtered[j].Date)
	})
	return filtered, nil
}
