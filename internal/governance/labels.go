package governance

// flagCopy is the title and message template shown for an active flag.
type flagCopy struct {
	Title   string
	Message string
}

var flagLabels = map[FlagID]flagCopy{
	FlagRALimitation: {
		Title:   "Limitação estrutural ambiental",
		Message: "O pilar RA está crítico. Ações de expansão da organização estrutural (EDU_OE) ficam suspensas até a estabilização territorial e ambiental.",
	},
	FlagExternalityWarning: {
		Title:   "Alerta de externalidade",
		Message: "A organização estrutural avançou (OE %.2f → %.2f) enquanto as relações ambientais recuaram (RA %.2f → %.2f).",
	},
	FlagGovernanceBlock: {
		Title:   "Bloqueio por governança",
		Message: "O pilar AO está crítico. Investimentos em expansão (EDU_OE) dependem de capacidade de governança.",
	},
	FlagMarketingBlocked: {
		Title:   "Marketing bloqueado",
		Message: "Não promova o que não pode ser entregue: %s.",
	},
	FlagIntersectoralDependency: {
		Title:   "Dependência intersetorial",
		Message: "Os temas %s dependem de setores fora do turismo (%s); a governança do turismo sozinha não resolve.",
	},
}

// ActionLabels describes each action for display.
var ActionLabels = map[Action]string{
	ActionEduRA:     "Capacitação em relações ambientais",
	ActionEduAO:     "Capacitação em ações operacionais e governança",
	ActionEduOE:     "Capacitação em organização estrutural",
	ActionMarketing: "Promoção e marketing do destino",
}
