package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"igma-backend/internal/shared/server/respond"
)

// Handler exposes the catalog over HTTP.
type Handler struct {
	Reader Reader
}

// NewHandler constructs a Handler.
func NewHandler(reader Reader) *Handler {
	return &Handler{Reader: reader}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.list)
	rg.POST("/catalog/validate", h.validate)
}

func (h *Handler) list(c *gin.Context) {
	cat, err := h.Reader.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to load catalog", nil)
		return
	}
	indicators := cat.Indicators()
	respond.OK(c, gin.H{
		"indicators": indicators,
		"errors":     ValidateAll(indicators),
	})
}

func (h *Handler) validate(c *gin.Context) {
	indicators, err := LoadYAML(c.Request.Body)
	if err != nil {
		if errors.Is(err, ErrEmptyCatalog) {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "catalog has no indicators", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid catalog document", err.Error())
		return
	}
	problems := ValidateAll(indicators)
	respond.OK(c, gin.H{
		"valid":      len(problems) == 0,
		"indicators": len(indicators),
		"errors":     problems,
	})
}
