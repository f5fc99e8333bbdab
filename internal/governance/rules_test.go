package governance

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"igma-backend/internal/catalog"
	"igma-backend/internal/issues"
	"igma-backend/internal/scoring"
)

func pillars(ra, oe, ao float64) scoring.PillarSet {
	set := scoring.PillarSet{}
	for p, v := range map[catalog.Pillar]float64{catalog.PillarRA: ra, catalog.PillarOE: oe, catalog.PillarAO: ao} {
		if v < 0 {
			continue
		}
		set[p] = scoring.PillarScore{Pillar: p, Score: v, Severity: scoring.Classify(v)}
	}
	return set
}

func TestRALimitationGatesExpansionAndMarketing(t *testing.T) {
	flags := Evaluate(Input{Current: pillars(0.2, 0.8, 0.9)})

	if !flags.RALimitation {
		t.Fatalf("expected RA_LIMITATION")
	}
	if !flags.IsBlocked(ActionEduOE) {
		t.Fatalf("expected EDU_OE blocked, got %v", flags.BlockedActions)
	}
	if !flags.MarketingBlocked || !flags.IsBlocked(ActionMarketing) {
		t.Fatalf("expected MARKETING blocked")
	}
	if flags.GovernanceBlock {
		t.Fatalf("AO is BOM, governance block must not fire")
	}
	if diff := cmp.Diff([]Action{ActionEduRA, ActionEduAO}, flags.AllowedActions); diff != "" {
		t.Fatalf("allowed actions mismatch (-want +got):\n%s", diff)
	}
	if len(flags.Messages) != 2 || flags.Messages[0].FlagID != FlagRALimitation || flags.Messages[0].Type != MessageCritical {
		t.Fatalf("unexpected messages: %+v", flags.Messages)
	}
	if flags.ReviewIntervalMonths != 6 {
		t.Fatalf("expected 6 month review, got %d", flags.ReviewIntervalMonths)
	}
}

func TestAllBomAllowsEverything(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	flags := Evaluate(Input{Current: pillars(0.8, 0.8, 0.8), Previous: pillars(0.8, 0.8, 0.8), Now: now})

	if len(flags.BlockedActions) != 0 || len(flags.Messages) != 0 {
		t.Fatalf("expected clean pass, got %+v", flags)
	}
	if diff := cmp.Diff(Actions, flags.AllowedActions); diff != "" {
		t.Fatalf("allowed actions mismatch (-want +got):\n%s", diff)
	}
	if len(flags.Indeterminate) != 0 {
		t.Fatalf("expected no indeterminate rules, got %v", flags.Indeterminate)
	}
	want := time.Date(2027, 7, 15, 0, 0, 0, 0, time.UTC)
	if flags.NextReviewRecommendedAt == nil || !flags.NextReviewRecommendedAt.Equal(want) {
		t.Fatalf("expected review at %s, got %v", want, flags.NextReviewRecommendedAt)
	}
}

func TestReviewIntervalModerado(t *testing.T) {
	flags := Evaluate(Input{Current: pillars(0.5, 0.8, 0.8)})
	if flags.ReviewIntervalMonths != 12 {
		t.Fatalf("expected 12 months, got %d", flags.ReviewIntervalMonths)
	}
	if flags.NextReviewRecommendedAt != nil {
		t.Fatalf("expected no date without Now")
	}
}

func TestGovernanceBlock(t *testing.T) {
	flags := Evaluate(Input{Current: pillars(0.8, 0.8, 0.1)})
	if !flags.GovernanceBlock || !flags.MarketingBlocked {
		t.Fatalf("expected governance and marketing blocks, got %+v", flags)
	}
	if flags.RALimitation {
		t.Fatalf("RA is BOM")
	}
	if diff := cmp.Diff([]FlagID{FlagGovernanceBlock}, flags.BlockedBy[ActionEduOE]); diff != "" {
		t.Fatalf("blocked by mismatch (-want +got):\n%s", diff)
	}
}

func TestBothCriticalBlockEduOETwice(t *testing.T) {
	flags := Evaluate(Input{Current: pillars(0.1, 0.8, 0.1)})
	if diff := cmp.Diff([]FlagID{FlagRALimitation, FlagGovernanceBlock}, flags.BlockedBy[ActionEduOE]); diff != "" {
		t.Fatalf("blocked by mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Action{ActionEduOE, ActionMarketing}, flags.BlockedActions); diff != "" {
		t.Fatalf("blocked actions mismatch (-want +got):\n%s", diff)
	}
}

func TestExternalityWarning(t *testing.T) {
	flags := Evaluate(Input{
		Current:  pillars(0.60, 0.65, 0.8),
		Previous: pillars(0.70, 0.50, 0.8),
	})
	if !flags.ExternalityWarning {
		t.Fatalf("expected EXTERNALITY_WARNING")
	}
	if len(flags.BlockedActions) != 0 {
		t.Fatalf("externality must not block, got %v", flags.BlockedActions)
	}
	if len(flags.Messages) != 1 || flags.Messages[0].Type != MessageWarning {
		t.Fatalf("expected one warning message, got %+v", flags.Messages)
	}
}

func TestExternalityNeedsPreviousCycle(t *testing.T) {
	flags := Evaluate(Input{Current: pillars(0.60, 0.65, 0.8)})
	if flags.ExternalityWarning {
		t.Fatalf("must not fire without previous cycle")
	}
	if !flags.IsIndeterminate(FlagExternalityWarning) {
		t.Fatalf("expected externality indeterminate, got %v", flags.Indeterminate)
	}
}

func TestMissingPillarsAreIndeterminate(t *testing.T) {
	flags := Evaluate(Input{Current: pillars(-1, 0.8, 0.8)})
	if flags.RALimitation || flags.MarketingBlocked {
		t.Fatalf("rules needing RA must not fire, got %+v", flags)
	}
	for _, id := range []FlagID{FlagRALimitation, FlagMarketingBlocked, FlagPlanningCycle} {
		if !flags.IsIndeterminate(id) {
			t.Fatalf("expected %s indeterminate, got %v", id, flags.Indeterminate)
		}
	}
	if flags.IsIndeterminate(FlagGovernanceBlock) {
		t.Fatalf("AO is known; governance block is determinate")
	}
}

func TestMarketingFiresOnKnownCriticalWithUnknownPeer(t *testing.T) {
	flags := Evaluate(Input{Current: pillars(-1, 0.8, 0.1)})
	if !flags.MarketingBlocked {
		t.Fatalf("critical AO alone must block marketing")
	}
	if flags.IsIndeterminate(FlagMarketingBlocked) {
		t.Fatalf("marketing block is determinate when AO is critical")
	}
	if flags.ReviewIntervalMonths != 6 || flags.IsIndeterminate(FlagPlanningCycle) {
		t.Fatalf("critical pillar fixes the review interval")
	}
}

func TestIntersectoralDependencyIsInformational(t *testing.T) {
	found := []issues.Issue{
		{Title: "Saude (RA)", Severity: scoring.Moderado, Sectors: []string{"SAUDE"}},
		{Title: "Hospedagem (OE)", Severity: scoring.Critico},
	}
	flags := Evaluate(Input{Current: pillars(0.8, 0.8, 0.8), Issues: found})
	if !flags.IntersectoralDependency {
		t.Fatalf("expected INTERSECTORAL_DEPENDENCY")
	}
	if len(flags.BlockedActions) != 0 {
		t.Fatalf("intersectoral dependency must not block actions")
	}
	if len(flags.Messages) != 1 || flags.Messages[0].Type != MessageInfo {
		t.Fatalf("expected one info message, got %+v", flags.Messages)
	}
}
