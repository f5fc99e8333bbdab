package governance

import (
	"fmt"
	"sort"
	"strings"

	"igma-backend/internal/catalog"
	"igma-backend/internal/scoring"
)

// Review intervals in months by worst pillar severity.
const (
	reviewCritico  = 6
	reviewModerado = 12
	reviewBom      = 18
)

// outcome is the result of one rule predicate.
type outcome struct {
	fired         bool
	indeterminate bool
	blocks        []Action
	message       *UIMessage
}

type rule struct {
	id   FlagID
	eval func(Input) outcome
}

// rules are independent predicates; the slice order fixes message order only.
var rules = []rule{
	{id: FlagRALimitation, eval: raLimitation},
	{id: FlagExternalityWarning, eval: externalityWarning},
	{id: FlagGovernanceBlock, eval: governanceBlock},
	{id: FlagMarketingBlocked, eval: marketingBlocked},
	{id: FlagIntersectoralDependency, eval: intersectoralDependency},
}

// Evaluate derives the full governance state from the current pillar scores,
// the previous cycle's scores (nil on a first cycle) and the detected issues.
func Evaluate(in Input) RuleFlags {
	flags := RuleFlags{
		AllowedActions: []Action{},
		BlockedActions: []Action{},
		Messages:       []UIMessage{},
	}
	blockedBy := map[Action][]FlagID{}

	for _, r := range rules {
		res := r.eval(in)
		if res.indeterminate {
			flags.Indeterminate = append(flags.Indeterminate, r.id)
		}
		if !res.fired {
			continue
		}
		flags.set(r.id)
		for _, a := range res.blocks {
			blockedBy[a] = append(blockedBy[a], r.id)
		}
		if res.message != nil {
			flags.Messages = append(flags.Messages, *res.message)
		}
	}

	for _, a := range Actions {
		if len(blockedBy[a]) > 0 {
			flags.BlockedActions = append(flags.BlockedActions, a)
			continue
		}
		flags.AllowedActions = append(flags.AllowedActions, a)
	}
	if len(blockedBy) > 0 {
		flags.BlockedBy = blockedBy
	}

	months, indeterminate := reviewInterval(in.Current)
	if indeterminate {
		flags.Indeterminate = append(flags.Indeterminate, FlagPlanningCycle)
	}
	if months > 0 {
		flags.ReviewIntervalMonths = months
		if !in.Now.IsZero() {
			next := in.Now.AddDate(0, months, 0)
			flags.NextReviewRecommendedAt = &next
		}
	}
	return flags
}

func (f *RuleFlags) set(id FlagID) {
	switch id {
	case FlagRALimitation:
		f.RALimitation = true
	case FlagExternalityWarning:
		f.ExternalityWarning = true
	case FlagGovernanceBlock:
		f.GovernanceBlock = true
	case FlagMarketingBlocked:
		f.MarketingBlocked = true
	case FlagIntersectoralDependency:
		f.IntersectoralDependency = true
	}
}

func raLimitation(in Input) outcome {
	ra, ok := in.Current.Get(catalog.PillarRA)
	if !ok {
		return outcome{indeterminate: true}
	}
	if ra.Severity != scoring.Critico {
		return outcome{}
	}
	return outcome{
		fired:   true,
		blocks:  []Action{ActionEduOE},
		message: newMessage(FlagRALimitation, MessageCritical, flagLabels[FlagRALimitation].Message),
	}
}

func externalityWarning(in Input) outcome {
	if in.Previous == nil {
		return outcome{indeterminate: true}
	}
	raNow, ok1 := in.Current.Get(catalog.PillarRA)
	oeNow, ok2 := in.Current.Get(catalog.PillarOE)
	raPrev, ok3 := in.Previous.Get(catalog.PillarRA)
	oePrev, ok4 := in.Previous.Get(catalog.PillarOE)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return outcome{indeterminate: true}
	}
	if !(oeNow.Score > oePrev.Score && raNow.Score < raPrev.Score) {
		return outcome{}
	}
	typ := MessageWarning
	if raNow.Severity == scoring.Critico {
		typ = MessageCritical
	}
	text := fmt.Sprintf(flagLabels[FlagExternalityWarning].Message, oePrev.Score, oeNow.Score, raPrev.Score, raNow.Score)
	return outcome{fired: true, message: newMessage(FlagExternalityWarning, typ, text)}
}

func governanceBlock(in Input) outcome {
	ao, ok := in.Current.Get(catalog.PillarAO)
	if !ok {
		return outcome{indeterminate: true}
	}
	if ao.Severity != scoring.Critico {
		return outcome{}
	}
	return outcome{
		fired:   true,
		blocks:  []Action{ActionEduOE},
		message: newMessage(FlagGovernanceBlock, MessageCritical, flagLabels[FlagGovernanceBlock].Message),
	}
}

// marketingBlocked fires unless RA and AO are both known to be non-critical.
// One critical pillar is enough to fire even if the other is unknown.
func marketingBlocked(in Input) outcome {
	ra, raOK := in.Current.Get(catalog.PillarRA)
	ao, aoOK := in.Current.Get(catalog.PillarAO)

	var reasons []string
	if raOK && ra.Severity == scoring.Critico {
		reasons = append(reasons, "RA crítico")
	}
	if aoOK && ao.Severity == scoring.Critico {
		reasons = append(reasons, "AO crítico")
	}
	if len(reasons) == 0 {
		if !raOK || !aoOK {
			return outcome{indeterminate: true}
		}
		return outcome{}
	}
	text := fmt.Sprintf(flagLabels[FlagMarketingBlocked].Message, strings.Join(reasons, " e "))
	return outcome{
		fired:   true,
		blocks:  []Action{ActionMarketing},
		message: newMessage(FlagMarketingBlocked, MessageCritical, text),
	}
}

// intersectoralDependency is informational; it never blocks actions.
func intersectoralDependency(in Input) outcome {
	var themes []string
	sectors := map[string]bool{}
	for _, issue := range in.Issues {
		if !issue.Intersectoral() {
			continue
		}
		if issue.Severity != scoring.Critico && issue.Severity != scoring.Moderado {
			continue
		}
		themes = append(themes, issue.Title)
		for _, s := range issue.Sectors {
			sectors[s] = true
		}
	}
	if len(themes) == 0 {
		return outcome{}
	}
	sectorList := make([]string, 0, len(sectors))
	for s := range sectors {
		sectorList = append(sectorList, s)
	}
	sort.Strings(sectorList)
	text := fmt.Sprintf(flagLabels[FlagIntersectoralDependency].Message, strings.Join(themes, ", "), strings.Join(sectorList, ", "))
	return outcome{fired: true, message: newMessage(FlagIntersectoralDependency, MessageInfo, text)}
}

// reviewInterval recommends the next planning review from the worst known
// pillar. A missing pillar makes a non-critical result indeterminate, since
// the unknown pillar could be critical.
func reviewInterval(current scoring.PillarSet) (int, bool) {
	if len(current) == 0 {
		return 0, true
	}
	worst := scoring.Bom
	missing := false
	for _, p := range catalog.Pillars {
		ps, ok := current.Get(p)
		if !ok {
			missing = true
			continue
		}
		if ps.Severity.Rank() < worst.Rank() {
			worst = ps.Severity
		}
	}
	switch worst {
	case scoring.Critico:
		return reviewCritico, false
	case scoring.Moderado:
		return reviewModerado, missing
	default:
		return reviewBom, missing
	}
}

func newMessage(id FlagID, typ MessageType, text string) *UIMessage {
	return &UIMessage{
		Type:    typ,
		FlagID:  id,
		Title:   flagLabels[id].Title,
		Message: text,
	}
}
