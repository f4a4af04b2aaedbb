package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepscout/deepscout/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Research.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want default 10", cfg.Research.MaxIterations)
	}
	if cfg.Orchestrator.PoolSize != 5 {
		t.Errorf("PoolSize = %d, want default 5", cfg.Orchestrator.PoolSize)
	}
	if cfg.Orchestrator.TaskTimeout != 30*time.Second {
		t.Errorf("TaskTimeout = %v, want default 30s", cfg.Orchestrator.TaskTimeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deepscout.yaml")
	content := []byte("research:\n  max_iterations: 4\norchestrator:\n  pool_size: 2\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Research.MaxIterations != 4 {
		t.Errorf("MaxIterations = %d, want 4 from file", cfg.Research.MaxIterations)
	}
	if cfg.Orchestrator.PoolSize != 2 {
		t.Errorf("PoolSize = %d, want 2 from file", cfg.Orchestrator.PoolSize)
	}
	// Untouched values keep defaults.
	if cfg.Memory.SearchTopK != 5 {
		t.Errorf("SearchTopK = %d, want default 5", cfg.Memory.SearchTopK)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DEEPSCOUT_RESEARCH_MAX_ITERATIONS", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Research.MaxIterations != 7 {
		t.Errorf("MaxIterations = %d, want env override 7", cfg.Research.MaxIterations)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() with missing explicit file should error")
	}
	if !errors.IsFatal(err) {
		t.Errorf("error %v should be fatal", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero iterations", func(c *Config) { c.Research.MaxIterations = 0 }},
		{"zero pool", func(c *Config) { c.Orchestrator.PoolSize = 0 }},
		{"zero batch", func(c *Config) { c.Orchestrator.MaxBatchSize = 0 }},
		{"negative timeout", func(c *Config) { c.Orchestrator.TaskTimeout = -time.Second }},
		{"threshold out of range", func(c *Config) { c.Memory.SearchThreshold = 1.5 }},
		{"unknown provider", func(c *Config) { c.Research.Provider = "carrier-pigeon" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "LOUD" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted an invalid config")
			}
			var cfgErr *errors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error %T, want *errors.ConfigError", err)
			}
		})
	}
}

func TestHTTPProviderRequiresCredentials(t *testing.T) {
	cfg := Default()
	cfg.Research.Provider = "http"
	cfg.Research.ProviderURL = "https://judge.example.org"

	err := cfg.Validate()
	if !errors.Is(err, errors.ErrMissingCredentials) {
		t.Errorf("Validate() error = %v, want ErrMissingCredentials", err)
	}

	cfg.Research.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with credentials error: %v", err)
	}
}
