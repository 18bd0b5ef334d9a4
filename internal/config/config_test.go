// No t.Parallel() — env vars are process-global and not thread-safe,
// matching internal/infra/config/config_test.go's caution.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{envListenAddr, envEmbedderBackend, envMergeThreshold, envEmbeddingDim} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default ListenAddr, got %q", cfg.ListenAddr)
	}
	if cfg.EmbedderBackend != "local" {
		t.Errorf("expected default EmbedderBackend 'local', got %q", cfg.EmbedderBackend)
	}
	if cfg.MergeThreshold != 0.90 {
		t.Errorf("expected default MergeThreshold 0.90, got %v", cfg.MergeThreshold)
	}
	if cfg.EmbeddingDim != 256 {
		t.Errorf("expected default EmbeddingDim 256, got %v", cfg.EmbeddingDim)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(envEmbedderBackend, "http")
	t.Setenv(envMergeThreshold, "0.95")
	t.Setenv(envEmbeddingDim, "512")

	cfg := Load()

	if cfg.EmbedderBackend != "http" {
		t.Errorf("expected EmbedderBackend 'http', got %q", cfg.EmbedderBackend)
	}
	if cfg.MergeThreshold != 0.95 {
		t.Errorf("expected MergeThreshold 0.95, got %v", cfg.MergeThreshold)
	}
	if cfg.EmbeddingDim != 512 {
		t.Errorf("expected EmbeddingDim 512, got %v", cfg.EmbeddingDim)
	}
}

func TestEnvOrFloat_InvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("TEST_ENVOR_FLOAT", "not-a-number")
	if got := envOrFloat("TEST_ENVOR_FLOAT", 1.5); got != 1.5 {
		t.Errorf("expected fallback 1.5, got %v", got)
	}
}

func TestLoadYAML_MissingFileReturnsBaseUnchanged(t *testing.T) {
	base := Load()
	cfg, err := LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"), base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg != base {
		t.Errorf("expected unchanged base config, got %+v", cfg)
	}
}

func TestLoadYAML_OverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	content := "decay_rate: 0.1\nchunk_size: 3000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	base := Load()
	cfg, err := LoadYAML(path, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DecayRate != 0.1 {
		t.Errorf("expected DecayRate overridden to 0.1, got %v", cfg.DecayRate)
	}
	if cfg.ChunkSize != 3000 {
		t.Errorf("expected ChunkSize overridden to 3000, got %v", cfg.ChunkSize)
	}
	if cfg.MergeThreshold != base.MergeThreshold {
		t.Errorf("expected MergeThreshold untouched, got %v", cfg.MergeThreshold)
	}
}
