package prescriptions

import (
	"fmt"
	"sort"
	"strings"

	"igma-backend/internal/catalog"
	"igma-backend/internal/governance"
	"igma-backend/internal/issues"
	"igma-backend/internal/scoring"
)

// pillarPriority ranks pillars for prescription ordering: environmental
// foundation first, then governance, then structure.
var pillarPriority = map[catalog.Pillar]int{
	catalog.PillarRA: 0,
	catalog.PillarAO: 1,
	catalog.PillarOE: 2,
}

// Generator turns issues and rule flags into prioritized prescriptions.
type Generator struct {
	Policy Policy
}

// NewGenerator builds a generator with the default policy.
func NewGenerator() Generator {
	return Generator{Policy: DefaultPolicy()}
}

// Generate builds one prescription per issue and assigns priorities
// (1 = most urgent). Prescriptions whose action is blocked are kept and
// marked blocked.
func (g Generator) Generate(found []issues.Issue, flags governance.RuleFlags, pillars scoring.PillarSet, cycleNumber int) []Prescription {
	policy := g.Policy
	if policy.Agents == nil {
		policy = DefaultPolicy()
	}

	out := make([]Prescription, 0, len(found))
	for _, issue := range found {
		agents := policy.agentsFor(issue.Interpretation)
		action := policy.PillarActions[issue.Pillar]
		rx := Prescription{
			ID:             "RX:" + issue.ID,
			Key:            issue.Key,
			AssessmentID:   issue.AssessmentID,
			IssueID:        issue.ID,
			Pillar:         issue.Pillar,
			Status:         issue.Severity,
			Interpretation: issue.Interpretation,
			Justification:  justify(policy, issue, pillars),
			TargetAgent:    agents[0],
			Action:         action,
			CycleNumber:    cycleNumber,
			Score:          issue.Score,
			EvidenceCount:  len(issue.Evidence),
		}
		if len(agents) > 1 {
			rx.SupportingAgents = append([]TargetAgent(nil), agents[1:]...)
		}
		if action != "" && flags.IsBlocked(action) {
			rx.Blocked = true
			rx.BlockedBy = append([]governance.FlagID(nil), flags.BlockedBy[action]...)
		}
		out = append(out, rx)
	}

	sortPrescriptions(out)
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}

func sortPrescriptions(items []Prescription) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Status.Rank() != b.Status.Rank() {
			return a.Status.Rank() < b.Status.Rank()
		}
		if pillarRank(a.Pillar) != pillarRank(b.Pillar) {
			return pillarRank(a.Pillar) < pillarRank(b.Pillar)
		}
		if a.EvidenceCount != b.EvidenceCount {
			return a.EvidenceCount > b.EvidenceCount
		}
		return a.Key < b.Key
	})
}

func pillarRank(p catalog.Pillar) int {
	if rank, ok := pillarPriority[p]; ok {
		return rank
	}
	return len(pillarPriority)
}

func justify(policy Policy, issue issues.Issue, pillars scoring.PillarSet) string {
	parts := make([]string, 0, len(issue.Evidence))
	for _, ev := range issue.Evidence {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", ev.Name, ev.Score))
	}
	pillarLabel := PillarLabels[issue.Pillar]
	if ps, ok := pillars.Get(issue.Pillar); ok {
		pillarLabel = fmt.Sprintf("%s, %s", pillarLabel, scoring.SeverityLabels[ps.Severity].Label)
	}
	return fmt.Sprintf(policy.justificationFor(issue.Interpretation), issue.Theme, pillarLabel, strings.Join(parts, "; "))
}
