package assessments

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"igma-backend/internal/evolution"
	"igma-backend/internal/governance"
	"igma-backend/internal/prescriptions"
	"igma-backend/internal/scoring"
	"igma-backend/internal/shared/server/middleware"
	"igma-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the assessments service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches assessment routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/territories/:id/assessments", h.createAssessment)
	rg.GET("/territories/:id/assessments", h.listAssessments)
	rg.GET("/territories/:id/alerts", h.listAlerts)
	rg.GET("/assessments/:id", h.getAssessment)
	rg.PUT("/assessments/:id/values", h.putValues)
	rg.POST("/assessments/:id/calculate", h.calculate)
	rg.GET("/assessments/:id/result", h.getResult)
	rg.POST("/alerts/:id/read", h.markAlertRead)
	rg.POST("/alerts/:id/dismiss", h.dismissAlert)
}

func (h *Handler) createAssessment(c *gin.Context) {
	territoryID := c.Param("id")
	c.Set(middleware.TerritoryIDKey, territoryID)

	var req createAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	a, err := h.Svc.Create(c.Request.Context(), territoryID, req.CycleNumber)
	if err != nil {
		writeError(c, err, "failed to create assessment")
		return
	}
	c.Set(middleware.AssessmentIDKey, a.ID)
	respond.Created(c, toAssessmentResponse(a))
}

func (h *Handler) listAssessments(c *gin.Context) {
	territoryID := c.Param("id")
	c.Set(middleware.TerritoryIDKey, territoryID)

	items, err := h.Svc.ListByTerritory(c.Request.Context(), territoryID)
	if err != nil {
		writeError(c, err, "failed to list assessments")
		return
	}
	resp := make([]AssessmentResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, toAssessmentResponse(a))
	}
	respond.OK(c, gin.H{"items": resp})
}

func (h *Handler) getAssessment(c *gin.Context) {
	assessmentID := c.Param("id")
	c.Set(middleware.AssessmentIDKey, assessmentID)

	a, err := h.Svc.Get(c.Request.Context(), assessmentID)
	if err != nil {
		writeError(c, err, "failed to fetch assessment")
		return
	}
	c.Set(middleware.TerritoryIDKey, a.TerritoryID)
	respond.OK(c, toAssessmentResponse(a))
}

func (h *Handler) putValues(c *gin.Context) {
	assessmentID := c.Param("id")
	c.Set(middleware.AssessmentIDKey, assessmentID)

	var req putValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	values, err := req.toValues()
	if err != nil {
		writeError(c, err, "invalid values")
		return
	}
	a, err := h.Svc.PutValues(c.Request.Context(), assessmentID, values)
	if err != nil {
		writeError(c, err, "failed to store values")
		return
	}
	c.Set(middleware.TerritoryIDKey, a.TerritoryID)
	respond.OK(c, gin.H{
		"assessment": toAssessmentResponse(a),
		"values":     len(values),
	})
}

func (h *Handler) calculate(c *gin.Context) {
	assessmentID := c.Param("id")
	c.Set(middleware.AssessmentIDKey, assessmentID)

	a, err := h.Svc.MarkDataReady(c.Request.Context(), assessmentID)
	if err != nil {
		writeError(c, err, "failed to start calculation")
		return
	}
	c.Set(middleware.TerritoryIDKey, a.TerritoryID)
	c.Set(middleware.StatusTransitionKey, "->"+StatusDataReady)
	respond.Accepted(c, gin.H{
		"assessmentId": a.ID,
		"status":       a.Status,
	})
}

func (h *Handler) getResult(c *gin.Context) {
	assessmentID := c.Param("id")
	c.Set(middleware.AssessmentIDKey, assessmentID)

	a, res, err := h.Svc.GetResult(c.Request.Context(), assessmentID)
	if err != nil {
		writeError(c, err, "failed to fetch result")
		return
	}
	c.Set(middleware.TerritoryIDKey, a.TerritoryID)
	respond.OK(c, gin.H{
		"assessment": toAssessmentResponse(a),
		"generation": res.Generation,
		"result":     res.Result,
		"labels":     displayLabels(),
	})
}

func (h *Handler) listAlerts(c *gin.Context) {
	territoryID := c.Param("id")
	c.Set(middleware.TerritoryIDKey, territoryID)

	alerts, err := h.Svc.ListAlerts(c.Request.Context(), territoryID)
	if err != nil {
		writeError(c, err, "failed to list alerts")
		return
	}
	if alerts == nil {
		alerts = []evolution.RegressionAlert{}
	}
	respond.OK(c, gin.H{"items": alerts})
}

func (h *Handler) markAlertRead(c *gin.Context) {
	alert, err := h.Svc.MarkAlertRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to update alert")
		return
	}
	c.Set(middleware.TerritoryIDKey, alert.TerritoryID)
	respond.OK(c, alert)
}

func (h *Handler) dismissAlert(c *gin.Context) {
	alert, err := h.Svc.DismissAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to update alert")
		return
	}
	c.Set(middleware.TerritoryIDKey, alert.TerritoryID)
	respond.OK(c, alert)
}

func displayLabels() gin.H {
	return gin.H{
		"severities":      scoring.SeverityLabels,
		"pillars":         prescriptions.PillarLabels,
		"interpretations": prescriptions.InterpretationLabels,
		"agents":          prescriptions.AgentDescriptions,
		"actions":         governance.ActionLabels,
	}
}

func writeError(c *gin.Context, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "validation failed", verr.Fields)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "not found", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, respond.CodeInvalidTransition, "operation not allowed in the current status", nil)
	case errors.Is(err, ErrDuplicateCycle):
		respond.Error(c, http.StatusConflict, ErrorCodeDuplicateCycle, "cycle already exists for territory", nil)
	case errors.Is(err, ErrResultNotReady):
		respond.Error(c, http.StatusConflict, ErrorCodeResultNotReady, "assessment has no computed result yet", nil)
	case errors.Is(err, ErrEnqueueFailed):
		respond.Error(c, http.StatusServiceUnavailable, respond.CodeUnavailable, "calculation queue unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, fallback, nil)
	}
}
