package catalog

import (
	"sort"
	"strings"
)

// Pillar is one of the three fixed diagnostic domains.
type Pillar string

const (
	PillarRA Pillar = "RA"
	PillarOE Pillar = "OE"
	PillarAO Pillar = "AO"
)

// Pillars lists the pillars in their canonical order.
var Pillars = []Pillar{PillarRA, PillarOE, PillarAO}

// Valid reports whether p is a known pillar.
func (p Pillar) Valid() bool {
	switch p {
	case PillarRA, PillarOE, PillarAO:
		return true
	default:
		return false
	}
}

// Direction tells whether larger raw values are better or worse.
type Direction string

const (
	HighIsBetter Direction = "HIGH_IS_BETTER"
	LowIsBetter  Direction = "LOW_IS_BETTER"
)

// Normalization is the strategy used to turn a raw value into a score.
type Normalization string

const (
	MinMax Normalization = "MIN_MAX"
	Bands  Normalization = "BANDS"
	Binary Normalization = "BINARY"
)

// Interpretation is the territorial root-cause category tagged on an indicator.
type Interpretation string

const (
	Estrutural Interpretation = "ESTRUTURAL"
	Gestao     Interpretation = "GESTAO"
	Entrega    Interpretation = "ENTREGA"
)

// Valid reports whether i is a known interpretation. Empty is not valid.
func (i Interpretation) Valid() bool {
	switch i {
	case Estrutural, Gestao, Entrega:
		return true
	default:
		return false
	}
}

// SectorTurismo is the only sector that tourism governance controls directly.
const SectorTurismo = "TURISMO"

// Indicator is a measurable indicator definition.
type Indicator struct {
	Code           string         `json:"code" yaml:"code"`
	Name           string         `json:"name" yaml:"name"`
	Pillar         Pillar         `json:"pillar" yaml:"pillar"`
	Theme          string         `json:"theme" yaml:"theme"`
	Direction      Direction      `json:"direction" yaml:"direction"`
	Normalization  Normalization  `json:"normalization" yaml:"normalization"`
	MinRef         float64        `json:"minRef" yaml:"min_ref"`
	MaxRef         float64        `json:"maxRef" yaml:"max_ref"`
	Weight         float64        `json:"weight" yaml:"weight"`
	Interpretation Interpretation `json:"interpretation,omitempty" yaml:"interpretation,omitempty"`
	Sectors        []string       `json:"sectors,omitempty" yaml:"sectors,omitempty"`
	Version        int            `json:"version" yaml:"version"`
}

// DisplayName returns the name, falling back to the code.
func (ind Indicator) DisplayName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return ind.Code
}

// ExternalSectors returns the non-tourism sectors the indicator depends on.
func (ind Indicator) ExternalSectors() []string {
	out := make([]string, 0, len(ind.Sectors))
	for _, s := range ind.Sectors {
		if s == "" || s == SectorTurismo {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Catalog is a read-only snapshot of indicator definitions keyed by code.
type Catalog struct {
	byCode     map[string]Indicator
	codes      []string
	duplicates []string
}

// NormalizeCode is the canonical form of an indicator code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// New builds a catalog snapshot keyed by normalized code. Later duplicates
// replace earlier ones and are reported by Duplicates.
func New(indicators []Indicator) Catalog {
	c := Catalog{byCode: make(map[string]Indicator, len(indicators))}
	for _, ind := range indicators {
		ind.Code = NormalizeCode(ind.Code)
		if _, seen := c.byCode[ind.Code]; seen {
			c.duplicates = appendUnique(c.duplicates, ind.Code)
		} else {
			c.codes = append(c.codes, ind.Code)
		}
		c.byCode[ind.Code] = ind
	}
	sort.Strings(c.codes)
	sort.Strings(c.duplicates)
	return c
}

func (c Catalog) withDuplicates(codes []string) Catalog {
	for _, code := range codes {
		c.duplicates = appendUnique(c.duplicates, code)
	}
	sort.Strings(c.duplicates)
	return c
}

// Duplicates lists codes defined more than once, sorted.
func (c Catalog) Duplicates() []string {
	return append([]string(nil), c.duplicates...)
}

func appendUnique(list []string, code string) []string {
	for _, existing := range list {
		if existing == code {
			return list
		}
	}
	return append(list, code)
}

// Get returns the indicator for code.
func (c Catalog) Get(code string) (Indicator, bool) {
	ind, ok := c.byCode[NormalizeCode(code)]
	return ind, ok
}

// Len returns the number of indicators.
func (c Catalog) Len() int {
	return len(c.codes)
}

// Indicators returns all indicators sorted by code.
func (c Catalog) Indicators() []Indicator {
	out := make([]Indicator, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.byCode[code])
	}
	return out
}

// ByPillar returns the indicators belonging to p, sorted by code.
func (c Catalog) ByPillar(p Pillar) []Indicator {
	out := make([]Indicator, 0)
	for _, code := range c.codes {
		if ind := c.byCode[code]; ind.Pillar == p {
			out = append(out, ind)
		}
	}
	return out
}
