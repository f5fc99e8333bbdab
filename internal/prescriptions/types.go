package prescriptions

import (
	"igma-backend/internal/catalog"
	"igma-backend/internal/governance"
	"igma-backend/internal/scoring"
)

// TargetAgent is the class of agent a prescription is addressed to.
type TargetAgent string

const (
	AgentGestores TargetAgent = "GESTORES"
	AgentTecnicos TargetAgent = "TECNICOS"
	AgentTrade    TargetAgent = "TRADE"
)

// Prescription is a recommended capacity-building action tied to an issue.
// Blocked prescriptions are kept so the gated recommendation stays traceable.
type Prescription struct {
	ID               string                  `json:"id"`
	Key              string                  `json:"key"`
	AssessmentID     string                  `json:"assessmentId"`
	IssueID          string                  `json:"issueId,omitempty"`
	Pillar           catalog.Pillar          `json:"pillar"`
	Status           scoring.Severity        `json:"status"`
	Interpretation   *catalog.Interpretation `json:"interpretation"`
	Justification    string                  `json:"justification"`
	TargetAgent      TargetAgent             `json:"targetAgent"`
	SupportingAgents []TargetAgent           `json:"supportingAgents,omitempty"`
	Action           governance.Action       `json:"action"`
	Blocked          bool                    `json:"blocked"`
	BlockedBy        []governance.FlagID     `json:"blockedBy,omitempty"`
	Priority         int                     `json:"priority"`
	CycleNumber      int                     `json:"cycleNumber"`
	Score            float64                 `json:"score"`
	EvidenceCount    int                     `json:"evidenceCount"`
}
