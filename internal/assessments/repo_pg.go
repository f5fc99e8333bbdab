package assessments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"igma-backend/internal/catalog"
	"igma-backend/internal/evolution"
	"igma-backend/internal/scoring"
)

const uniqueViolation = "23505"

const assessmentColumns = `id, territory_id, cycle_number, status, generation, error_message, created_at, updated_at, calculated_at`

const alertColumns = `id, territory_id, pillar, consecutive_cycles, raised, level, is_read, is_dismissed, last_assessment_id`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (Assessment, error) {
	var a Assessment
	var errorMessage sql.NullString
	var calculatedAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.TerritoryID,
		&a.CycleNumber,
		&a.Status,
		&a.Generation,
		&errorMessage,
		&a.CreatedAt,
		&a.UpdatedAt,
		&calculatedAt,
	); err != nil {
		return Assessment{}, err
	}
	if errorMessage.Valid {
		msg := errorMessage.String
		a.ErrorMessage = &msg
	}
	if calculatedAt.Valid {
		t := calculatedAt.Time.UTC()
		a.CalculatedAt = &t
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

// Create inserts a new assessment.
func (r *PGRepo) Create(ctx context.Context, a Assessment) error {
	const query = `
INSERT INTO assessments (id, territory_id, cycle_number, status, generation, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		a.ID,
		a.TerritoryID,
		a.CycleNumber,
		a.Status,
		a.Generation,
		a.CreatedAt,
		a.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateCycle
	}
	return err
}

// GetByID returns an assessment by ID.
func (r *PGRepo) GetByID(ctx context.Context, assessmentID string) (Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`
	a, err := scanAssessment(r.DB.QueryRowContext(ctx, query, assessmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	return a, err
}

// ListByTerritory returns the territory's assessments by ascending cycle.
func (r *PGRepo) ListByTerritory(ctx context.Context, territoryID string) ([]Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE territory_id = $1 ORDER BY cycle_number`
	rows, err := r.DB.QueryContext(ctx, query, territoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Transition performs a compare-and-set on the assessment status.
func (r *PGRepo) Transition(ctx context.Context, assessmentID string, from []string, to string) (Assessment, error) {
	query := `
UPDATE assessments
SET status = $2, error_message = NULL, updated_at = NOW()
WHERE id = $1 AND status = ANY(string_to_array($3, ','))
RETURNING ` + assessmentColumns
	a, err := scanAssessment(r.DB.QueryRowContext(ctx, query, assessmentID, to, strings.Join(from, ",")))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Assessment{}, err
	}
	current, getErr := r.GetByID(ctx, assessmentID)
	if getErr != nil {
		return Assessment{}, getErr
	}
	return current, ErrInvalidTransition
}

// MarkFailed records a failed computation.
func (r *PGRepo) MarkFailed(ctx context.Context, assessmentID, message string) error {
	const query = `
UPDATE assessments
SET status = $2, error_message = $3, updated_at = NOW()
WHERE id = $1 AND status = $4`
	res, err := r.DB.ExecContext(ctx, query, assessmentID, StatusFailed, message, StatusCalculating)
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrInvalidTransition)
}

// ReplaceValues swaps the full value set of an assessment.
func (r *PGRepo) ReplaceValues(ctx context.Context, assessmentID string, values []scoring.IndicatorValue) error {
	const insert = `
INSERT INTO indicator_values (assessment_id, indicator_code, value_raw, value_text, source, reference_date)
VALUES ($1, $2, $3, $4, $5, $6)`
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM indicator_values WHERE assessment_id = $1`, assessmentID); err != nil {
		return err
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx, insert,
			assessmentID,
			v.IndicatorCode,
			v.ValueRaw,
			nullString(v.ValueText),
			nullString(v.Source),
			v.ReferenceDate,
		); err != nil {
			return fmt.Errorf("insert value %s: %w", v.IndicatorCode, err)
		}
	}
	return tx.Commit()
}

// ListValues returns the stored values ordered by indicator code.
func (r *PGRepo) ListValues(ctx context.Context, assessmentID string) ([]scoring.IndicatorValue, error) {
	const query = `
SELECT indicator_code, value_raw, value_text, source, reference_date
FROM indicator_values
WHERE assessment_id = $1
ORDER BY indicator_code`
	rows, err := r.DB.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scoring.IndicatorValue
	for rows.Next() {
		v := scoring.IndicatorValue{AssessmentID: assessmentID}
		var raw sql.NullFloat64
		var text, source sql.NullString
		var refDate sql.NullTime
		if err := rows.Scan(&v.IndicatorCode, &raw, &text, &source, &refDate); err != nil {
			return nil, err
		}
		if raw.Valid {
			f := raw.Float64
			v.ValueRaw = &f
		}
		v.ValueText = text.String
		v.Source = source.String
		if refDate.Valid {
			d := refDate.Time.UTC()
			v.ReferenceDate = &d
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SaveResult stores the result and completes the calculating assessment in
// one transaction.
func (r *PGRepo) SaveResult(ctx context.Context, res StoredResult) error {
	const upsert = `
INSERT INTO assessment_results (assessment_id, generation, result, computed_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (assessment_id) DO UPDATE SET
	generation = EXCLUDED.generation,
	result = EXCLUDED.result,
	computed_at = EXCLUDED.computed_at`
	const complete = `
UPDATE assessments
SET status = $2, generation = $3, calculated_at = $4, error_message = NULL, updated_at = NOW()
WHERE id = $1 AND status = $5`
	payload, err := json.Marshal(res.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updated, err := tx.ExecContext(ctx, complete, res.AssessmentID, StatusCalculated, res.Generation, res.ComputedAt, StatusCalculating)
	if err != nil {
		return err
	}
	if err := expectOneRow(updated, ErrInvalidTransition); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsert, res.AssessmentID, res.Generation, string(payload), res.ComputedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// GetResult returns the latest stored result of an assessment.
func (r *PGRepo) GetResult(ctx context.Context, assessmentID string) (StoredResult, error) {
	const query = `
SELECT assessment_id, generation, result, computed_at
FROM assessment_results
WHERE assessment_id = $1`
	return scanResult(r.DB.QueryRowContext(ctx, query, assessmentID))
}

// LatestCalculatedBefore returns the prior calculated cycle of a territory.
func (r *PGRepo) LatestCalculatedBefore(ctx context.Context, territoryID string, cycle int) (StoredResult, error) {
	const query = `
SELECT r.assessment_id, r.generation, r.result, r.computed_at
FROM assessment_results r
JOIN assessments a ON a.id = r.assessment_id
WHERE a.territory_id = $1 AND a.cycle_number < $2 AND a.status = $3
ORDER BY a.cycle_number DESC
LIMIT 1`
	return scanResult(r.DB.QueryRowContext(ctx, query, territoryID, cycle, StatusCalculated))
}

func scanResult(row rowScanner) (StoredResult, error) {
	var res StoredResult
	var payload []byte
	if err := row.Scan(&res.AssessmentID, &res.Generation, &payload, &res.ComputedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredResult{}, ErrNotFound
		}
		return StoredResult{}, err
	}
	if err := json.Unmarshal(payload, &res.Result); err != nil {
		return StoredResult{}, fmt.Errorf("decode result %s: %w", res.AssessmentID, err)
	}
	res.ComputedAt = res.ComputedAt.UTC()
	return res, nil
}

// ListAlerts returns the territory's alerts in pillar order.
func (r *PGRepo) ListAlerts(ctx context.Context, territoryID string) ([]evolution.RegressionAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM regression_alerts WHERE territory_id = $1`
	rows, err := r.DB.QueryContext(ctx, query, territoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPillar := make(map[catalog.Pillar]evolution.RegressionAlert)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		byPillar[a.Pillar] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []evolution.RegressionAlert
	for _, p := range catalog.Pillars {
		if a, ok := byPillar[p]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func scanAlert(row rowScanner) (evolution.RegressionAlert, error) {
	var a evolution.RegressionAlert
	var level, lastAssessment sql.NullString
	if err := row.Scan(
		&a.ID,
		&a.TerritoryID,
		&a.Pillar,
		&a.ConsecutiveCycles,
		&a.Raised,
		&level,
		&a.IsRead,
		&a.IsDismissed,
		&lastAssessment,
	); err != nil {
		return evolution.RegressionAlert{}, err
	}
	a.Level = evolution.AlertLevel(level.String)
	a.LastAssessmentID = lastAssessment.String
	return a, nil
}

// SaveAlerts upserts alert counters by ID.
func (r *PGRepo) SaveAlerts(ctx context.Context, alerts []evolution.RegressionAlert) error {
	const query = `
INSERT INTO regression_alerts (
	id, territory_id, pillar, consecutive_cycles, raised, level, is_read, is_dismissed,
	last_assessment_id, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	consecutive_cycles = EXCLUDED.consecutive_cycles,
	raised = EXCLUDED.raised,
	level = EXCLUDED.level,
	is_read = EXCLUDED.is_read,
	is_dismissed = EXCLUDED.is_dismissed,
	last_assessment_id = EXCLUDED.last_assessment_id,
	updated_at = EXCLUDED.updated_at`
	if len(alerts) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx, query,
			a.ID,
			a.TerritoryID,
			string(a.Pillar),
			a.ConsecutiveCycles,
			a.Raised,
			nullString(string(a.Level)),
			a.IsRead,
			a.IsDismissed,
			nullString(a.LastAssessmentID),
			now,
		); err != nil {
			return fmt.Errorf("upsert alert %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// UpdateAlert sets the read and dismissed flags of an alert.
func (r *PGRepo) UpdateAlert(ctx context.Context, alertID string, read, dismissed bool) (evolution.RegressionAlert, error) {
	query := `
UPDATE regression_alerts
SET is_read = is_read OR $2, is_dismissed = is_dismissed OR $3, updated_at = NOW()
WHERE id = $1
RETURNING ` + alertColumns
	a, err := scanAlert(r.DB.QueryRowContext(ctx, query, alertID, read, dismissed))
	if errors.Is(err, sql.ErrNoRows) {
		return evolution.RegressionAlert{}, ErrNotFound
	}
	return a, err
}

func expectOneRow(res sql.Result, otherwise error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return otherwise
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Repo = (*PGRepo)(nil)
