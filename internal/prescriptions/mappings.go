package prescriptions

import (
	"igma-backend/internal/catalog"
	"igma-backend/internal/governance"
)

// Policy holds the lookup tables that drive prescription generation.
// Changing policy never requires touching generation logic.
type Policy struct {
	// Agents maps an interpretation to its agents; the first is the target.
	Agents map[catalog.Interpretation][]TargetAgent
	// DefaultAgents applies to issues without an interpretation.
	DefaultAgents []TargetAgent
	// PillarActions maps a pillar to the capacity-building action it prescribes.
	PillarActions map[catalog.Pillar]governance.Action
	// Justifications are format strings taking theme, pillar label and evidence.
	Justifications map[catalog.Interpretation]string
	// DefaultJustification applies to issues without an interpretation.
	DefaultJustification string
}

// DefaultPolicy returns the reference policy tables.
func DefaultPolicy() Policy {
	return Policy{
		Agents: map[catalog.Interpretation][]TargetAgent{
			catalog.Estrutural: {AgentGestores},
			catalog.Gestao:     {AgentGestores, AgentTecnicos},
			catalog.Entrega:    {AgentTrade, AgentTecnicos},
		},
		DefaultAgents: []TargetAgent{AgentGestores},
		PillarActions: map[catalog.Pillar]governance.Action{
			catalog.PillarRA: governance.ActionEduRA,
			catalog.PillarAO: governance.ActionEduAO,
			catalog.PillarOE: governance.ActionEduOE,
		},
		Justifications: map[catalog.Interpretation]string{
			catalog.Estrutural: "Restrição estrutural de longo prazo em %s (%s): %s.",
			catalog.Gestao:     "Falha de coordenação e planejamento em %s (%s): %s.",
			catalog.Entrega:    "Falha na execução e entrega de serviços em %s (%s): %s.",
		},
		DefaultJustification: "Desempenho abaixo do adequado em %s (%s): %s.",
	}
}

// InterpretationLabel is the display label and color for an interpretation.
type InterpretationLabel struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// InterpretationLabels is the display table for territorial interpretations.
var InterpretationLabels = map[catalog.Interpretation]InterpretationLabel{
	catalog.Estrutural: {Label: "Estrutural", Color: "purple"},
	catalog.Gestao:     {Label: "Gestão", Color: "blue"},
	catalog.Entrega:    {Label: "Entrega", Color: "orange"},
}

// AgentDescriptions describes each target agent class.
var AgentDescriptions = map[TargetAgent]string{
	AgentGestores: "Gestores públicos responsáveis por planejamento e políticas de turismo",
	AgentTecnicos: "Técnicos municipais que operam programas e serviços",
	AgentTrade:    "Trade turístico: empresas e prestadores de serviços do destino",
}

// PillarLabels names each pillar for display.
var PillarLabels = map[catalog.Pillar]string{
	catalog.PillarRA: "Relações Ambientais",
	catalog.PillarOE: "Organização Estrutural",
	catalog.PillarAO: "Ações Operacionais",
}

func (p Policy) agentsFor(interp *catalog.Interpretation) []TargetAgent {
	if interp != nil {
		if agents, ok := p.Agents[*interp]; ok && len(agents) > 0 {
			return agents
		}
	}
	if len(p.DefaultAgents) > 0 {
		return p.DefaultAgents
	}
	return []TargetAgent{AgentGestores}
}

func (p Policy) justificationFor(interp *catalog.Interpretation) string {
	if interp != nil {
		if tmpl, ok := p.Justifications[*interp]; ok {
			return tmpl
		}
	}
	return p.DefaultJustification
}
