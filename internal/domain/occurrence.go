package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Occurrence is one concrete, dated instance generated by expanding a
// recurrence rule. Occurrences are ephemeral: they are computed per
// request and never persisted.
type Occurrence struct {
	PlanningTransactionID uuid.UUID `json:"planningTransactionId"`
	// Date is the final date after weekend adjustment; RawDate is the
	// generated date before adjustment, kept for audit.
	Date          time.Time       `json:"date"`
	RawDate       time.Time       `json:"rawDate"`
	Amount        decimal.Decimal `json:"amount"`
	SequenceIndex int             `json:"sequenceIndex"`
	ForecastOnly  bool            `json:"forecastOnly"`
	AutoExecute   bool            `json:"autoExecute"`
}
