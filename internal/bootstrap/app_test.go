package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"igma-backend/internal/assessments"
	"igma-backend/internal/shared/config"
)

func TestBuildDevUsesMemoryRepositories(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(config.Config{Env: "dev", LocalStoreDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil || app.Queue != nil {
		t.Fatalf("expected no database and no queue in dev")
	}
	if _, ok := app.AssessmentsRepo.(*assessments.MemoryRepo); !ok {
		t.Fatalf("expected memory repo, got %T", app.AssessmentsRepo)
	}
	cat, err := app.Catalog.List(context.Background())
	if err != nil || cat.Len() == 0 {
		t.Fatalf("expected embedded catalog, got %d indicators (%v)", cat.Len(), err)
	}

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected healthy app, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	if _, err := Build(config.Config{Env: "production"}); err == nil {
		t.Fatal("expected error without DATABASE_URL in production")
	}
}

func TestBuildLoadsCatalogFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `indicators:
  - code: AO_UNICO
    name: Indicador unico
    pillar: AO
    theme: Governanca
    direction: HIGH_IS_BETTER
    normalization: BINARY
    weight: 1
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	app, err := Build(config.Config{Env: "dev", CatalogPath: path, LocalStoreDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cat, _ := app.Catalog.List(context.Background())
	if cat.Len() != 1 {
		t.Fatalf("expected catalog from path, got %d indicators", cat.Len())
	}
	if _, err := Build(config.Config{Env: "dev", CatalogPath: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}
