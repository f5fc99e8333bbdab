package scoring

// Severity is the three-band classification of a score.
type Severity string

const (
	Critico  Severity = "CRITICO"
	Moderado Severity = "MODERADO"
	Bom      Severity = "BOM"
)

const (
	// BomThreshold is the lowest score classified as BOM.
	BomThreshold = 0.67
	// ModeradoThreshold is the lowest score classified as MODERADO.
	ModeradoThreshold = 0.34
)

// Classify maps a score to its severity.
func Classify(score float64) Severity {
	switch {
	case score >= BomThreshold:
		return Bom
	case score >= ModeradoThreshold:
		return Moderado
	default:
		return Critico
	}
}

// Rank orders severities from most to least urgent (CRITICO = 0).
func (s Severity) Rank() int {
	switch s {
	case Critico:
		return 0
	case Moderado:
		return 1
	case Bom:
		return 2
	default:
		return 3
	}
}

// SeverityLabel is the display label and color for a severity.
type SeverityLabel struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// SeverityLabels is the display table for severities.
var SeverityLabels = map[Severity]SeverityLabel{
	Critico:  {Label: "Crítico", Color: "red"},
	Moderado: {Label: "Atenção", Color: "amber"},
	Bom:      {Label: "Adequado", Color: "green"},
}
