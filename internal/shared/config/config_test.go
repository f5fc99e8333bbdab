package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "ENV", "OBJECT_STORE", "EVOLUTION_EPSILON", "ENGINE_CONCURRENCY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" || cfg.Env != "dev" || cfg.ObjectStoreType != "local" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.EvolutionEpsilon != 0.02 {
		t.Fatalf("expected default epsilon, got %v", cfg.EvolutionEpsilon)
	}
	if cfg.Concurrency <= 0 {
		t.Fatalf("expected positive concurrency, got %d", cfg.Concurrency)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://localhost/igma")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("EVOLUTION_EPSILON", "0.05")
	t.Setenv("ENGINE_CONCURRENCY", "3")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.Env != "production" || cfg.ObjectStoreType != "s3" {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if cfg.EvolutionEpsilon != 0.05 || cfg.Concurrency != 3 {
		t.Fatalf("unexpected numeric settings %+v", cfg)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EVOLUTION_EPSILON", "-1")
	t.Setenv("ENGINE_CONCURRENCY", "many")

	cfg := Load()
	if cfg.EvolutionEpsilon != 0.02 {
		t.Fatalf("expected fallback epsilon, got %v", cfg.EvolutionEpsilon)
	}
	if cfg.Concurrency <= 0 {
		t.Fatalf("expected fallback concurrency, got %d", cfg.Concurrency)
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "CATALOG_PATH=/etc/igma/catalog.yaml\nPORT=9999\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "7000")
	t.Setenv("CATALOG_PATH", "")
	_ = os.Unsetenv("CATALOG_PATH")

	cfg := Load()
	if cfg.CatalogPath != "/etc/igma/catalog.yaml" {
		t.Fatalf("expected catalog path from .env, got %q", cfg.CatalogPath)
	}
	if cfg.Port != "7000" {
		t.Fatalf("process env must win, got %q", cfg.Port)
	}
}
