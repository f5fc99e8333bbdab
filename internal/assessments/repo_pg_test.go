package assessments

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"igma-backend/internal/catalog"
	"igma-backend/internal/engine"
	"igma-backend/internal/evolution"
	"igma-backend/internal/scoring"
)

var assessmentCols = []string{"id", "territory_id", "cycle_number", "status", "generation", "error_message", "created_at", "updated_at", "calculated_at"}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func assessmentRow(id, status string) []driver.Value {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{id, "t-1", 2, status, 1, nil, ts, ts, nil}
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	a := Assessment{ID: "a-1", TerritoryID: "t-1", CycleNumber: 1, Status: StatusDraft, CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec("INSERT INTO assessments").
		WithArgs("a-1", "t-1", 1, StatusDraft, 0, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO assessments").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), Assessment{ID: "a-1", TerritoryID: "t-1", CycleNumber: 1})
	if !errors.Is(err, ErrDuplicateCycle) {
		t.Fatalf("expected ErrDuplicateCycle, got %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM assessments WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(assessmentCols))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoTransition(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE assessments").
		WithArgs("a-1", StatusCalculating, StatusDataReady).
		WillReturnRows(sqlmock.NewRows(assessmentCols).AddRow(assessmentRow("a-1", StatusCalculating)...))

	a, err := repo.Transition(context.Background(), "a-1", []string{StatusDataReady}, StatusCalculating)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if a.Status != StatusCalculating || a.CycleNumber != 2 || a.ErrorMessage != nil || a.CalculatedAt != nil {
		t.Fatalf("unexpected assessment %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoTransitionRejectsWrongStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE assessments").
		WithArgs("a-1", StatusDataReady, "draft,data_ready").
		WillReturnRows(sqlmock.NewRows(assessmentCols))
	mock.ExpectQuery("SELECT (.+) FROM assessments WHERE id").
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(assessmentCols).AddRow(assessmentRow("a-1", StatusCalculating)...))

	a, err := repo.Transition(context.Background(), "a-1", []string{StatusDraft, StatusDataReady}, StatusDataReady)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if a.Status != StatusCalculating {
		t.Fatalf("expected current status to be returned, got %+v", a)
	}
}

func TestPGRepoReplaceValues(t *testing.T) {
	repo, mock := newMockRepo(t)
	v := 12.5
	ref := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM indicator_values").
		WithArgs("a-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO indicator_values").
		WithArgs("a-1", "AO_CAPACITACOES", 12.5, nil, "SETUR", ref).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO indicator_values").
		WithArgs("a-1", "OE_SINALIZACAO", nil, "n/d", nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceValues(context.Background(), "a-1", []scoring.IndicatorValue{
		{IndicatorCode: "AO_CAPACITACOES", ValueRaw: &v, Source: "SETUR", ReferenceDate: &ref},
		{IndicatorCode: "OE_SINALIZACAO", ValueText: "n/d"},
	})
	if err != nil {
		t.Fatalf("ReplaceValues: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSaveResult(t *testing.T) {
	repo, mock := newMockRepo(t)
	computedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	res := StoredResult{AssessmentID: "a-1", Generation: 3, ComputedAt: computedAt, Result: engine.Result{AssessmentID: "a-1"}}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assessments").
		WithArgs("a-1", StatusCalculated, 3, computedAt, StatusCalculating).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assessment_results").
		WithArgs("a-1", 3, sqlmock.AnyArg(), computedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.SaveResult(context.Background(), res); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSaveResultRequiresCalculating(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assessments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SaveResult(context.Background(), StoredResult{AssessmentID: "a-1", Generation: 1})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLatestCalculatedBefore(t *testing.T) {
	repo, mock := newMockRepo(t)
	payload, _ := json.Marshal(engine.Result{
		AssessmentID: "a-1",
		CycleNumber:  1,
		PillarScores: []scoring.PillarScore{{Pillar: catalog.PillarRA, Score: 0.3, Severity: scoring.Critico}},
	})
	computedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM assessment_results r").
		WithArgs("t-1", 2, StatusCalculated).
		WillReturnRows(sqlmock.NewRows([]string{"assessment_id", "generation", "result", "computed_at"}).
			AddRow("a-1", 1, payload, computedAt))

	res, err := repo.LatestCalculatedBefore(context.Background(), "t-1", 2)
	if err != nil {
		t.Fatalf("LatestCalculatedBefore: %v", err)
	}
	prior := res.Result.Prior()
	if prior.AssessmentID != "a-1" || len(prior.PillarScores) != 1 || prior.PillarScores[0].Severity != scoring.Critico {
		t.Fatalf("unexpected prior %+v", prior)
	}
}

func TestPGRepoLatestCalculatedBeforeNone(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM assessment_results r").
		WillReturnRows(sqlmock.NewRows([]string{"assessment_id", "generation", "result", "computed_at"}))

	if _, err := repo.LatestCalculatedBefore(context.Background(), "t-1", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListAlertsOrdersPillars(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := []string{"id", "territory_id", "pillar", "consecutive_cycles", "raised", "level", "is_read", "is_dismissed", "last_assessment_id"}
	mock.ExpectQuery("FROM regression_alerts").
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t-1:AO", "t-1", "AO", 0, false, nil, false, false, nil).
			AddRow("t-1:RA", "t-1", "RA", 3, true, "critical", true, false, "a-3"))

	alerts, err := repo.ListAlerts(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(alerts) != 2 || alerts[0].Pillar != catalog.PillarRA || alerts[1].Pillar != catalog.PillarAO {
		t.Fatalf("unexpected order %+v", alerts)
	}
	if alerts[0].Level != evolution.AlertCritical || alerts[0].LastAssessmentID != "a-3" || !alerts[0].IsRead {
		t.Fatalf("unexpected RA alert %+v", alerts[0])
	}
}

func TestPGRepoSaveAlerts(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO regression_alerts").
		WithArgs("t-1:RA", "t-1", "RA", 2, true, "warning", false, false, "a-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO regression_alerts").
		WithArgs("t-1:OE", "t-1", "OE", 0, false, nil, false, false, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.SaveAlerts(context.Background(), []evolution.RegressionAlert{
		{ID: "t-1:RA", TerritoryID: "t-1", Pillar: catalog.PillarRA, ConsecutiveCycles: 2, Raised: true, Level: evolution.AlertWarning, LastAssessmentID: "a-2"},
		{ID: "t-1:OE", TerritoryID: "t-1", Pillar: catalog.PillarOE},
	})
	if err != nil {
		t.Fatalf("SaveAlerts: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateAlertNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := []string{"id", "territory_id", "pillar", "consecutive_cycles", "raised", "level", "is_read", "is_dismissed", "last_assessment_id"}
	mock.ExpectQuery("UPDATE regression_alerts").
		WithArgs("nope", true, false).
		WillReturnRows(sqlmock.NewRows(cols))

	if _, err := repo.UpdateAlert(context.Background(), "nope", true, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
