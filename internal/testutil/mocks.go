package testutil

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
	"github.com/mlammarsch/finwise/planning-backend/internal/websocket"
)

// MockPlanningRepository is an in-memory implementation of
// domain.PlanningRepository preserving insertion order
type MockPlanningRepository struct {
	Entries  []*domain.PlanningTransaction
	CreateFn func(pt *domain.PlanningTransaction) (*domain.PlanningTransaction, error)
	UpdateFn func(pt *domain.PlanningTransaction) (*domain.PlanningTransaction, error)
}

// NewMockPlanningRepository creates a new MockPlanningRepository
func NewMockPlanningRepository() *MockPlanningRepository {
	return &MockPlanningRepository{}
}

// Create stores a new planning transaction and assigns its id
func (m *MockPlanningRepository) Create(pt *domain.PlanningTransaction) (*domain.PlanningTransaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(pt)
	}

	stored := *pt
	stored.ID = uuid.New()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.Entries = append(m.Entries, &stored)

	result := stored
	return &result, nil
}

// GetByID retrieves a planning transaction by ID
func (m *MockPlanningRepository) GetByID(workspaceID int32, id uuid.UUID) (*domain.PlanningTransaction, error) {
	for _, e := range m.Entries {
		if e.WorkspaceID == workspaceID && e.ID == id && e.DeletedAt == nil {
			result := *e
			return &result, nil
		}
	}
	return nil, domain.ErrPlanningNotFound
}

// ListByWorkspace returns entries in insertion order
func (m *MockPlanningRepository) ListByWorkspace(workspaceID int32, activeOnly *bool) ([]*domain.PlanningTransaction, error) {
	var out []*domain.PlanningTransaction
	for _, e := range m.Entries {
		if e.WorkspaceID != workspaceID || e.DeletedAt != nil {
			continue
		}
		if activeOnly != nil && *activeOnly && !e.IsActive {
			continue
		}
		result := *e
		out = append(out, &result)
	}
	return out, nil
}

// Update replaces a stored planning transaction by id
func (m *MockPlanningRepository) Update(pt *domain.PlanningTransaction) (*domain.PlanningTransaction, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(pt)
	}

	for i, e := range m.Entries {
		if e.WorkspaceID == pt.WorkspaceID && e.ID == pt.ID && e.DeletedAt == nil {
			stored := *pt
			stored.CreatedAt = e.CreatedAt
			stored.UpdatedAt = time.Now().UTC()
			m.Entries[i] = &stored

			result := stored
			return &result, nil
		}
	}
	return nil, domain.ErrPlanningNotFound
}

// Delete soft-deletes a planning transaction
func (m *MockPlanningRepository) Delete(workspaceID int32, id uuid.UUID) error {
	for _, e := range m.Entries {
		if e.WorkspaceID == workspaceID && e.ID == id && e.DeletedAt == nil {
			now := time.Now().UTC()
			e.DeletedAt = &now
			return nil
		}
	}
	return domain.ErrPlanningNotFound
}

// AddPlanning adds an entry to the mock repository (helper for tests)
func (m *MockPlanningRepository) AddPlanning(pt *domain.PlanningTransaction) {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	m.Entries = append(m.Entries, pt)
}

// RecordingBalanceNotifier records recalculation requests and can be
// forced to fail
type RecordingBalanceNotifier struct {
	mu       sync.Mutex
	Requests []string
	FailWith error
}

// RequestRecalculation implements service.BalanceNotifier
func (r *RecordingBalanceNotifier) RequestRecalculation(workspaceID int32, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = append(r.Requests, reason)
	return r.FailWith
}

// Count returns the number of recorded requests
func (r *RecordingBalanceNotifier) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Requests)
}

// RecordingPublisher captures published WebSocket events
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []websocket.Event
}

// Publish implements websocket.EventPublisher
func (r *RecordingPublisher) Publish(workspaceID int32, event websocket.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// EventTypes returns the combined types of all captured events
func (r *RecordingPublisher) EventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}

// RecordingInvalidator records forecast invalidation calls
type RecordingInvalidator struct {
	mu  sync.Mutex
	IDs []uuid.UUID
}

// Invalidate implements service.ForecastInvalidator
func (r *RecordingInvalidator) Invalidate(workspaceID int32, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IDs = append(r.IDs, id)
}

// Count returns the number of recorded invalidations
func (r *RecordingInvalidator) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.IDs)
}
