package assessments

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoTransitionIsCompareAndSet(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, Assessment{ID: "a-1", TerritoryID: "t-1", CycleNumber: 1, Status: StatusDataReady}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.Transition(ctx, "a-1", []string{StatusDataReady}, StatusCalculating); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if _, err := repo.Transition(ctx, "a-1", []string{StatusDataReady}, StatusCalculating); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second transition should lose, got %v", err)
	}
}

func TestMemoryRepoLatestCalculatedBeforeSkipsUncalculated(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	for i, status := range []string{StatusCalculating, StatusDraft, StatusDraft} {
		id := []string{"c1", "c2", "c3"}[i]
		if err := repo.Create(ctx, Assessment{ID: id, TerritoryID: "t-1", CycleNumber: i + 1, Status: status}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if err := repo.SaveResult(ctx, StoredResult{AssessmentID: "c1", Generation: 1, ComputedAt: time.Now()}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	res, err := repo.LatestCalculatedBefore(ctx, "t-1", 3)
	if err != nil || res.AssessmentID != "c1" {
		t.Fatalf("expected c1, got %+v %v", res, err)
	}
	if _, err := repo.LatestCalculatedBefore(ctx, "t-1", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before the first cycle, got %v", err)
	}
}

func TestMemoryRepoHonorsCancelledContext(t *testing.T) {
	repo := NewMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.GetByID(ctx, "a-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
