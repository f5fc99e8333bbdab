package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func catalogRouter(reader Reader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(reader).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestHandlerListsCatalog(t *testing.T) {
	bad := validIndicator()
	bad.Code = "RA_BAD"
	bad.MaxRef = bad.MinRef
	router := catalogRouter(NewMemoryRepo(validIndicator(), bad))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Indicators []Indicator          `json:"indicators"`
		Errors     []ConfigurationError `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Indicators) != 2 || body.Indicators[0].Code != "RA_BAD" {
		t.Fatalf("unexpected indicators %+v", body.Indicators)
	}
	if len(body.Errors) != 1 || body.Errors[0].Code != "RA_BAD" {
		t.Fatalf("expected configuration error for RA_BAD, got %+v", body.Errors)
	}
}

func TestHandlerValidateDocument(t *testing.T) {
	router := catalogRouter(NewMemoryRepo())

	doc := `
indicators:
  - code: OE_X
    pillar: OE
    direction: LOW_IS_BETTER
    normalization: BANDS
    min_ref: 10
    max_ref: 5
    weight: 1
`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/validate", strings.NewReader(doc))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Valid      bool                 `json:"valid"`
		Indicators int                  `json:"indicators"`
		Errors     []ConfigurationError `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Valid || body.Indicators != 1 || len(body.Errors) != 1 || body.Errors[0].Field != "max_ref" {
		t.Fatalf("unexpected validation body %+v", body)
	}
}

func TestHandlerValidateRejectsEmptyDocument(t *testing.T) {
	router := catalogRouter(NewMemoryRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/validate", strings.NewReader(""))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
