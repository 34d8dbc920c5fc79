package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
)

func TestCollectPaths_ExpandsDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(dir, "a.md"):       "# a",
		filepath.Join(sub, "b.txt"):      "b",
		filepath.Join(dir, "ignore.exe"): "MZ",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := collectPaths([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 supported files, got %v", paths)
	}
	for _, p := range paths {
		if strings.HasSuffix(p, "ignore.exe") {
			t.Error("unsupported file should be filtered out")
		}
	}
}

func TestCollectPaths_KeepsExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := collectPaths([]string{file, filepath.Join(dir, "missing.txt")})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("explicit paths should pass through, got %v", paths)
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\nserver:\n  port: 9999\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved path: %s", resolved)
	}
	if !cfg.Debug || cfg.Server.Port != 9999 {
		t.Errorf("config: debug=%v port=%d", cfg.Debug, cfg.Server.Port)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func testComponentsConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Store.Backend = config.BackendFlat
	cfg.Store.DataDir = filepath.Join(dir, "store")
	cfg.Storage.DatabasePath = filepath.Join(dir, "registry.db")
	cfg.Embedding.Dimensions = 32
	return cfg
}

func TestInitializeComponents_UnavailableEmbedderIsFatal(t *testing.T) {
	cfg := testComponentsConfig(t)
	cfg.Embedding.Provider = embedding.ProviderONNX
	cfg.Embedding.ModelPath = filepath.Join(t.TempDir(), "missing-model.onnx")
	cfg.Embedding.MaxTokens = 16
	cfg.Embedding.CacheSize = 10

	components, err := initializeComponents(cfg, zap.NewNop(), false)
	if err == nil {
		components.Close()
		t.Fatal("startup must fail when the configured embedding provider is unavailable")
	}
	if !strings.Contains(err.Error(), "embedder") {
		t.Errorf("error should name the embedder: %v", err)
	}
}

func TestInitializeComponents_HashProvider(t *testing.T) {
	cfg := testComponentsConfig(t)
	cfg.Embedding.Provider = embedding.ProviderHash

	components, err := initializeComponents(cfg, zap.NewNop(), false)
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()
	if components.Embedder.Dimensions() != 32 {
		t.Errorf("dimensions=%d", components.Embedder.Dimensions())
	}
}
