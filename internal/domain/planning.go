package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AmountType string

const (
	AmountTypeExact       AmountType = "exact"
	AmountTypeApproximate AmountType = "approximate"
	AmountTypeRange       AmountType = "range"
)

// AmountSpec qualifies the monetary value of a planning transaction.
// The sign of the resolved value indicates inflow (positive) or outflow
// (negative). Build values with ExactAmount, ApproximateAmount or
// RangeAmount so that only the fields of the chosen variant are set.
type AmountSpec struct {
	Type        AmountType       `json:"type"`
	Value       *decimal.Decimal `json:"value,omitempty"`
	Approximate *decimal.Decimal `json:"approximate,omitempty"`
	Min         *decimal.Decimal `json:"min,omitempty"`
	Max         *decimal.Decimal `json:"max,omitempty"`
}

// ExactAmount returns an amount spec with a known value
func ExactAmount(value decimal.Decimal) AmountSpec {
	return AmountSpec{Type: AmountTypeExact, Value: &value}
}

// ApproximateAmount returns an amount spec whose exact value is unknown
// until the transaction is realized
func ApproximateAmount(approximate decimal.Decimal) AmountSpec {
	return AmountSpec{Type: AmountTypeApproximate, Approximate: &approximate}
}

// RangeAmount returns an amount spec bounded by min and max
func RangeAmount(min, max decimal.Decimal) AmountSpec {
	return AmountSpec{Type: AmountTypeRange, Min: &min, Max: &max}
}

// Resolve returns the single scalar used for forecast arithmetic:
// the stored value, the approximate value, or the range midpoint.
func (a AmountSpec) Resolve() decimal.Decimal {
	switch a.Type {
	case AmountTypeApproximate:
		if a.Approximate != nil {
			return *a.Approximate
		}
	case AmountTypeRange:
		if a.Min != nil && a.Max != nil {
			return a.Min.Add(*a.Max).Div(decimal.NewFromInt(2))
		}
	default:
		if a.Value != nil {
			return *a.Value
		}
	}
	return decimal.Zero
}

// Validate checks that exactly the fields of the declared variant are set
func (a AmountSpec) Validate() error {
	switch a.Type {
	case AmountTypeExact:
		if a.Value == nil || a.Approximate != nil || a.Min != nil || a.Max != nil {
			return fmt.Errorf("%w: exact amount requires only a value", ErrInvalidAmountSpec)
		}
	case AmountTypeApproximate:
		if a.Approximate == nil || a.Value != nil || a.Min != nil || a.Max != nil {
			return fmt.Errorf("%w: approximate amount requires only an approximate value", ErrInvalidAmountSpec)
		}
	case AmountTypeRange:
		if a.Min == nil || a.Max == nil || a.Value != nil || a.Approximate != nil {
			return fmt.Errorf("%w: range amount requires min and max", ErrInvalidAmountSpec)
		}
		if a.Max.LessThan(*a.Min) {
			return fmt.Errorf("%w: max below min", ErrInvalidAmountSpec)
		}
	default:
		return fmt.Errorf("%w: amount type %q", ErrInvalidAmountSpec, a.Type)
	}
	return nil
}

// MutationOrigin distinguishes user-initiated writes from sync-replay
// writes. Sync-origin mutations suppress entity events and the balance
// recalculation trigger; the sync caller requests one bulk recalculation
// after the batch.
type MutationOrigin string

const (
	OriginUser MutationOrigin = "user"
	OriginSync MutationOrigin = "sync"
)

// PlanningTransaction is a template describing a transaction that recurs
// or will occur once in the future, as opposed to a realized ledger entry.
type PlanningTransaction struct {
	ID           uuid.UUID      `json:"id"`
	WorkspaceID  int32          `json:"workspaceId"`
	Name         string         `json:"name"`
	AccountID    int32          `json:"accountId"`
	CategoryID   *int32         `json:"categoryId,omitempty"`
	RecipientID  *int32         `json:"recipientId,omitempty"`
	TagIDs       []string       `json:"tagIds,omitempty"`
	Amount       AmountSpec     `json:"amount"`
	Recurrence   RecurrenceRule `json:"recurrence"`
	IsActive     bool           `json:"isActive"`
	ForecastOnly bool           `json:"forecastOnly"`
	AutoExecute  bool           `json:"autoExecute"`
	// CounterPlanningTransactionID links the paired opposite leg of a
	// transfer. Relation only, not ownership: deleting one side never
	// cascades to the other.
	CounterPlanningTransactionID *uuid.UUID `json:"counterPlanningTransactionId,omitempty"`
	Note                         *string    `json:"note,omitempty"`
	CreatedAt                    time.Time  `json:"createdAt"`
	UpdatedAt                    time.Time  `json:"updatedAt"`
	DeletedAt                    *time.Time `json:"deletedAt,omitempty"`
}

// Validate checks the entity ahead of any persisted write
func (p *PlanningTransaction) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if len(p.Name) > MaxPlanningNameLength {
		return ErrNameTooLong
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	return p.Recurrence.Validate()
}

type PlanningRepository interface {
	Create(pt *PlanningTransaction) (*PlanningTransaction, error)
	GetByID(workspaceID int32, id uuid.UUID) (*PlanningTransaction, error)
	ListByWorkspace(workspaceID int32, activeOnly *bool) ([]*PlanningTransaction, error)
	Update(pt *PlanningTransaction) (*PlanningTransaction, error)
	Delete(workspaceID int32, id uuid.UUID) error
}
