package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mlammarsch/finwise/planning-backend/internal/domain"
)

const planningColumns = `id, workspace_id, name, account_id, category_id, recipient_id, tag_ids,
	amount_type, amount_value, amount_approximate, amount_min, amount_max,
	recurrence_pattern, start_date, end_type, end_date, end_count, execution_day, weekend_handling,
	is_active, forecast_only, auto_execute, counter_planning_transaction_id, note,
	created_at, updated_at, deleted_at`

// PlanningRepository implements domain.PlanningRepository using PostgreSQL
type PlanningRepository struct {
	pool *pgxpool.Pool
}

// NewPlanningRepository creates a new PlanningRepository
func NewPlanningRepository(pool *pgxpool.Pool) *PlanningRepository {
	return &PlanningRepository{pool: pool}
}

// Create creates a new planning transaction
func (r *PlanningRepository) Create(pt *domain.PlanningTransaction) (*domain.PlanningTransaction, error) {
	ctx := context.Background()

	amountValue, err := decimalPtrToPgNumeric(pt.Amount.Value)
	if err != nil {
		return nil, err
	}
	amountApprox, err := decimalPtrToPgNumeric(pt.Amount.Approximate)
	if err != nil {
		return nil, err
	}
	amountMin, err := decimalPtrToPgNumeric(pt.Amount.Min)
	if err != nil {
		return nil, err
	}
	amountMax, err := decimalPtrToPgNumeric(pt.Amount.Max)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO planning_transactions (
			workspace_id, name, account_id, category_id, recipient_id, tag_ids,
			amount_type, amount_value, amount_approximate, amount_min, amount_max,
			recurrence_pattern, start_date, end_type, end_date, end_count, execution_day, weekend_handling,
			is_active, forecast_only, auto_execute, counter_planning_transaction_id, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING `+planningColumns,
		pt.WorkspaceID, pt.Name, pt.AccountID, pt.CategoryID, pt.RecipientID, pt.TagIDs,
		string(pt.Amount.Type), amountValue, amountApprox, amountMin, amountMax,
		string(pt.Recurrence.Pattern), pt.Recurrence.StartDate,
		string(pt.Recurrence.End.Type), pt.Recurrence.End.Date, pt.Recurrence.End.Count,
		pt.Recurrence.ExecutionDay, string(pt.Recurrence.WeekendHandling),
		pt.IsActive, pt.ForecastOnly, pt.AutoExecute, pt.CounterPlanningTransactionID, pt.Note,
	)

	return scanPlanning(row)
}

// GetByID retrieves a planning transaction by ID
func (r *PlanningRepository) GetByID(workspaceID int32, id uuid.UUID) (*domain.PlanningTransaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+planningColumns+`
		 FROM planning_transactions
		 WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id,
	)

	pt, err := scanPlanning(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPlanningNotFound
		}
		return nil, err
	}
	return pt, nil
}

// ListByWorkspace retrieves all planning transactions for a workspace in
// insertion order
func (r *PlanningRepository) ListByWorkspace(workspaceID int32, activeOnly *bool) ([]*domain.PlanningTransaction, error) {
	ctx := context.Background()

	var activeFilter bool
	if activeOnly != nil {
		activeFilter = *activeOnly
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+planningColumns+`
		 FROM planning_transactions
		 WHERE workspace_id = $1 AND deleted_at IS NULL AND ($2 = false OR is_active = true)
		 ORDER BY created_at ASC, id ASC`,
		workspaceID, activeFilter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.PlanningTransaction
	for rows.Next() {
		pt, err := scanPlanning(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pt)
	}
	return result, rows.Err()
}

// Update replaces the mutable fields of a planning transaction
func (r *PlanningRepository) Update(pt *domain.PlanningTransaction) (*domain.PlanningTransaction, error) {
	ctx := context.Background()

	amountValue, err := decimalPtrToPgNumeric(pt.Amount.Value)
	if err != nil {
		return nil, err
	}
	amountApprox, err := decimalPtrToPgNumeric(pt.Amount.Approximate)
	if err != nil {
		return nil, err
	}
	amountMin, err := decimalPtrToPgNumeric(pt.Amount.Min)
	if err != nil {
		return nil, err
	}
	amountMax, err := decimalPtrToPgNumeric(pt.Amount.Max)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE planning_transactions SET
			name = $3, account_id = $4, category_id = $5, recipient_id = $6, tag_ids = $7,
			amount_type = $8, amount_value = $9, amount_approximate = $10, amount_min = $11, amount_max = $12,
			recurrence_pattern = $13, start_date = $14, end_type = $15, end_date = $16, end_count = $17,
			execution_day = $18, weekend_handling = $19,
			is_active = $20, forecast_only = $21, auto_execute = $22,
			counter_planning_transaction_id = $23, note = $24,
			updated_at = now()
		 WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		 RETURNING `+planningColumns,
		pt.WorkspaceID, pt.ID,
		pt.Name, pt.AccountID, pt.CategoryID, pt.RecipientID, pt.TagIDs,
		string(pt.Amount.Type), amountValue, amountApprox, amountMin, amountMax,
		string(pt.Recurrence.Pattern), pt.Recurrence.StartDate,
		string(pt.Recurrence.End.Type), pt.Recurrence.End.Date, pt.Recurrence.End.Count,
		pt.Recurrence.ExecutionDay, string(pt.Recurrence.WeekendHandling),
		pt.IsActive, pt.ForecastOnly, pt.AutoExecute, pt.CounterPlanningTransactionID, pt.Note,
	)

	updated, err := scanPlanning(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPlanningNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a planning transaction
func (r *PlanningRepository) Delete(workspaceID int32, id uuid.UUID) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx,
		`UPDATE planning_transactions SET deleted_at = now(), updated_at = now()
		 WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanningNotFound
	}
	return nil
}

func scanPlanning(row pgx.Row) (*domain.PlanningTransaction, error) {
	pt := &domain.PlanningTransaction{}

	var (
		amountType      string
		amountValue     pgtype.Numeric
		amountApprox    pgtype.Numeric
		amountMin       pgtype.Numeric
		amountMax       pgtype.Numeric
		pattern         string
		startDate       time.Time
		endType         string
		endDate         *time.Time
		endCount        *int32
		weekendHandling string
	)

	err := row.Scan(
		&pt.ID, &pt.WorkspaceID, &pt.Name, &pt.AccountID, &pt.CategoryID, &pt.RecipientID, &pt.TagIDs,
		&amountType, &amountValue, &amountApprox, &amountMin, &amountMax,
		&pattern, &startDate, &endType, &endDate, &endCount, &pt.Recurrence.ExecutionDay, &weekendHandling,
		&pt.IsActive, &pt.ForecastOnly, &pt.AutoExecute, &pt.CounterPlanningTransactionID, &pt.Note,
		&pt.CreatedAt, &pt.UpdatedAt, &pt.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	pt.Amount.Type = domain.AmountType(amountType)
	pt.Amount.Value = pgNumericToDecimalPtr(amountValue)
	pt.Amount.Approximate = pgNumericToDecimalPtr(amountApprox)
	pt.Amount.Min = pgNumericToDecimalPtr(amountMin)
	pt.Amount.Max = pgNumericToDecimalPtr(amountMax)

	pt.Recurrence.Pattern = domain.RecurrencePattern(pattern)
	pt.Recurrence.StartDate = startDate.UTC()
	pt.Recurrence.End = domain.EndCondition{Type: domain.EndType(endType)}
	if endDate != nil {
		d := endDate.UTC()
		pt.Recurrence.End.Date = &d
	}
	pt.Recurrence.End.Count = endCount
	pt.Recurrence.WeekendHandling = domain.WeekendHandling(weekendHandling)

	return pt, nil
}

func decimalPtrToPgNumeric(d *decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if d == nil {
		return num, nil
	}
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimalPtr(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}
