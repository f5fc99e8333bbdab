package issues

import (
	"sort"
	"strings"
	"unicode"

	"igma-backend/internal/catalog"
	"igma-backend/internal/scoring"
)

const defaultTheme = "Geral"

// interpretationPrecedence breaks ties between interpretations; earlier wins.
var interpretationPrecedence = []catalog.Interpretation{catalog.Estrutural, catalog.Gestao, catalog.Entrega}

// Detector groups underperforming indicators into issues.
type Detector struct {
	Catalog catalog.Catalog
}

type groupKey struct {
	pillar catalog.Pillar
	theme  string
}

// Detect returns one issue per (pillar, theme) group holding at least one
// indicator scoring below the BOM threshold. Issues are ordered by pillar then theme.
func (d Detector) Detect(pillars scoring.PillarSet, scores []scoring.IndicatorScore) []Issue {
	groups := make(map[groupKey][]member)
	for _, s := range scores {
		if s.Score >= scoring.BomThreshold {
			continue
		}
		ind, ok := d.Catalog.Get(s.IndicatorCode)
		if !ok {
			continue
		}
		theme := strings.TrimSpace(ind.Theme)
		if theme == "" {
			theme = defaultTheme
		}
		k := groupKey{pillar: ind.Pillar, theme: theme}
		groups[k] = append(groups[k], member{indicator: ind, score: s})
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if pillarOrder(keys[i].pillar) != pillarOrder(keys[j].pillar) {
			return pillarOrder(keys[i].pillar) < pillarOrder(keys[j].pillar)
		}
		return keys[i].theme < keys[j].theme
	})

	out := make([]Issue, 0, len(keys))
	for _, k := range keys {
		out = append(out, buildIssue(k, groups[k], pillars))
	}
	return out
}

type member struct {
	indicator catalog.Indicator
	score     scoring.IndicatorScore
}

func buildIssue(k groupKey, members []member, pillars scoring.PillarSet) Issue {
	sort.Slice(members, func(i, j int) bool {
		if members[i].score.Score != members[j].score.Score {
			return members[i].score.Score < members[j].score.Score
		}
		return members[i].indicator.Code < members[j].indicator.Code
	})

	assessmentID := members[0].score.AssessmentID
	key := string(k.pillar) + "_" + slugify(k.theme)
	issue := Issue{
		ID:           assessmentID + ":" + key,
		Key:          key,
		AssessmentID: assessmentID,
		Pillar:       k.pillar,
		Theme:        k.theme,
		Severity:     scoring.Classify(members[0].score.Score),
		Title:        k.theme + " (" + string(k.pillar) + ")",
		Evidence:     make([]Evidence, 0, len(members)),
	}
	if ps, ok := pillars.Get(k.pillar); ok {
		issue.PillarSeverity = ps.Severity
	}

	var weighted, weights, plain float64
	sectors := map[string]bool{}
	for _, m := range members {
		issue.Evidence = append(issue.Evidence, Evidence{
			IndicatorCode: m.indicator.Code,
			Name:          m.indicator.DisplayName(),
			Score:         m.score.Score,
			Weight:        m.score.WeightUsed,
		})
		weighted += m.score.Score * m.score.WeightUsed
		weights += m.score.WeightUsed
		plain += m.score.Score
		for _, s := range m.indicator.ExternalSectors() {
			sectors[s] = true
		}
	}
	if weights > 0 {
		issue.Score = weighted / weights
	} else {
		issue.Score = plain / float64(len(members))
	}
	for s := range sectors {
		issue.Sectors = append(issue.Sectors, s)
	}
	sort.Strings(issue.Sectors)
	issue.Interpretation = majorityInterpretation(members)
	return issue
}

// majorityInterpretation picks the interpretation carrying the most weight
// among tagged members. Ties resolve by interpretationPrecedence. When every
// tagged member has zero weight, members are counted instead.
func majorityInterpretation(members []member) *catalog.Interpretation {
	byWeight := map[catalog.Interpretation]float64{}
	byCount := map[catalog.Interpretation]float64{}
	totalWeight := 0.0
	for _, m := range members {
		interp := m.indicator.Interpretation
		if !interp.Valid() {
			continue
		}
		byWeight[interp] += m.score.WeightUsed
		byCount[interp]++
		totalWeight += m.score.WeightUsed
	}
	if len(byCount) == 0 {
		return nil
	}
	tally := byWeight
	if totalWeight <= 0 {
		tally = byCount
	}

	var best catalog.Interpretation
	bestValue := -1.0
	for _, interp := range interpretationPrecedence {
		if v, ok := tally[interp]; ok && v > bestValue {
			best = interp
			bestValue = v
		}
	}
	return &best
}

func pillarOrder(p catalog.Pillar) int {
	for i, candidate := range catalog.Pillars {
		if candidate == p {
			return i
		}
	}
	return len(catalog.Pillars)
}

func slugify(input string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "item"
	}
	return out
}
