package governance

import (
	"time"

	"igma-backend/internal/issues"
	"igma-backend/internal/scoring"
)

// Action is a capacity-building action that rules may block.
type Action string

const (
	ActionEduRA     Action = "EDU_RA"
	ActionEduAO     Action = "EDU_AO"
	ActionEduOE     Action = "EDU_OE"
	ActionMarketing Action = "MARKETING"
)

// Actions is the fixed action universe in display order.
var Actions = []Action{ActionEduRA, ActionEduAO, ActionEduOE, ActionMarketing}

// FlagID identifies a governance rule.
type FlagID string

const (
	FlagRALimitation            FlagID = "RA_LIMITATION"
	FlagPlanningCycle           FlagID = "PLANNING_CYCLE"
	FlagExternalityWarning      FlagID = "EXTERNALITY_WARNING"
	FlagGovernanceBlock         FlagID = "GOVERNANCE_BLOCK"
	FlagMarketingBlocked        FlagID = "MARKETING_BLOCKED"
	FlagIntersectoralDependency FlagID = "INTERSECTORAL_DEPENDENCY"
)

// MessageType is the visual weight of a UI message.
type MessageType string

const (
	MessageInfo     MessageType = "info"
	MessageWarning  MessageType = "warning"
	MessageCritical MessageType = "critical"
)

// UIMessage is a human-readable record emitted for an active flag.
type UIMessage struct {
	Type    MessageType `json:"type"`
	FlagID  FlagID      `json:"flagId"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// RuleFlags is the governance state of an assessment. It is rebuilt in full
// on every evaluation.
type RuleFlags struct {
	RALimitation            bool                `json:"raLimitation"`
	GovernanceBlock         bool                `json:"governanceBlock"`
	ExternalityWarning      bool                `json:"externalityWarning"`
	MarketingBlocked        bool                `json:"marketingBlocked"`
	IntersectoralDependency bool                `json:"intersectoralDependency"`
	AllowedActions          []Action            `json:"allowedActions"`
	BlockedActions          []Action            `json:"blockedActions"`
	BlockedBy               map[Action][]FlagID `json:"blockedBy,omitempty"`
	ReviewIntervalMonths    int                 `json:"reviewIntervalMonths,omitempty"`
	NextReviewRecommendedAt *time.Time          `json:"nextReviewRecommendedAt,omitempty"`
	Messages                []UIMessage         `json:"uiMessages"`
	Indeterminate           []FlagID            `json:"indeterminate,omitempty"`
}

// IsBlocked reports whether action is blocked.
func (f RuleFlags) IsBlocked(action Action) bool {
	for _, a := range f.BlockedActions {
		if a == action {
			return true
		}
	}
	return false
}

// IsIndeterminate reports whether the rule could not be evaluated.
func (f RuleFlags) IsIndeterminate(id FlagID) bool {
	for _, candidate := range f.Indeterminate {
		if candidate == id {
			return true
		}
	}
	return false
}

// Input holds everything rule evaluation depends on. Previous is nil on a
// territory's first cycle. Now anchors the review recommendation; when zero
// no date is produced.
type Input struct {
	Current  scoring.PillarSet
	Previous scoring.PillarSet
	Issues   []issues.Issue
	Now      time.Time
}
