// Package config loads deepscout configuration from defaults, an optional
// YAML file, and DEEPSCOUT_* environment variable overrides, in increasing
// precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/deepscout/deepscout/internal/errors"
)

// Config is the complete deepscout configuration.
type Config struct {
	Research     ResearchConfig     `mapstructure:"research"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Memory       MemoryConfig       `mapstructure:"memory"`
	Validation   ValidationConfig   `mapstructure:"validation"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ResearchConfig controls the adaptive control loop.
type ResearchConfig struct {
	// MaxIterations bounds the control loop regardless of workflow state.
	MaxIterations int `mapstructure:"max_iterations"`
	// MaxDuration is the wall-clock budget for one run. Zero disables it.
	MaxDuration time.Duration `mapstructure:"max_duration"`
	// OutputDir receives the report and its metadata sidecar.
	OutputDir string `mapstructure:"output_dir"`
	// Provider selects the judgment backend: "offline" or "http".
	Provider string `mapstructure:"provider"`
	// ProviderURL is the judgment endpoint; required when Provider is "http".
	ProviderURL string `mapstructure:"provider_url"`
	// APIKey authenticates against the judgment endpoint; required when
	// Provider is "http".
	APIKey string `mapstructure:"api_key"`
}

// OrchestratorConfig controls parallel subtask execution.
type OrchestratorConfig struct {
	// PoolSize bounds how many subtasks run concurrently.
	PoolSize int `mapstructure:"pool_size"`
	// MaxBatchSize caps how many queries one batch accepts.
	MaxBatchSize int `mapstructure:"max_batch_size"`
	// TaskTimeout is the per-subtask deadline.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

// MemoryConfig controls semantic memory.
type MemoryConfig struct {
	// Dimensions is the embedding vector size of the offline provider.
	Dimensions int `mapstructure:"dimensions"`
	// CacheSize bounds the embedding cache entry count.
	CacheSize int `mapstructure:"cache_size"`
	// SearchThreshold filters search matches below this similarity.
	SearchThreshold float64 `mapstructure:"search_threshold"`
	// SearchTopK limits search result count.
	SearchTopK int `mapstructure:"search_top_k"`
}

// ValidationConfig controls the fact validator.
type ValidationConfig struct {
	// UseDelegate routes claim grading through the judgment delegate when
	// one is configured. When false the term-overlap heuristic grades
	// claims even if a delegate exists.
	UseDelegate bool `mapstructure:"use_delegate"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Research: ResearchConfig{
			MaxIterations: 10,
			MaxDuration:   5 * time.Minute,
			OutputDir:     "research_output",
			Provider:      "offline",
		},
		Orchestrator: OrchestratorConfig{
			PoolSize:     5,
			MaxBatchSize: 3,
			TaskTimeout:  30 * time.Second,
		},
		Memory: MemoryConfig{
			Dimensions:      256,
			CacheSize:       512,
			SearchThreshold: 0.3,
			SearchTopK:      5,
		},
		Validation: ValidationConfig{UseDelegate: true},
		Logging:    LoggingConfig{Level: "INFO"},
	}
}

// Load reads configuration from the optional file at path (empty path checks
// the default locations), applies DEEPSCOUT_* environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEEPSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config_file", err)
		}
	} else {
		v.SetConfigName("deepscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "deepscout"))
		}
		// Missing default config files are fine; defaults apply.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config_file", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigError("unmarshal", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("research.max_iterations", def.Research.MaxIterations)
	v.SetDefault("research.max_duration", def.Research.MaxDuration)
	v.SetDefault("research.output_dir", def.Research.OutputDir)
	v.SetDefault("research.provider", def.Research.Provider)
	v.SetDefault("research.provider_url", "")
	v.SetDefault("research.api_key", "")
	v.SetDefault("orchestrator.pool_size", def.Orchestrator.PoolSize)
	v.SetDefault("orchestrator.max_batch_size", def.Orchestrator.MaxBatchSize)
	v.SetDefault("orchestrator.task_timeout", def.Orchestrator.TaskTimeout)
	v.SetDefault("memory.dimensions", def.Memory.Dimensions)
	v.SetDefault("memory.cache_size", def.Memory.CacheSize)
	v.SetDefault("memory.search_threshold", def.Memory.SearchThreshold)
	v.SetDefault("memory.search_top_k", def.Memory.SearchTopK)
	v.SetDefault("validation.use_delegate", def.Validation.UseDelegate)
	v.SetDefault("logging.level", def.Logging.Level)
}

// Validate checks the configuration for fatal problems. Every returned error
// is a *errors.ConfigError and aborts the run before any state transition.
func (c *Config) Validate() error {
	if c.Research.MaxIterations < 1 {
		return errors.NewConfigError("research.max_iterations", errors.New("must be at least 1"))
	}
	if c.Orchestrator.PoolSize < 1 {
		return errors.NewConfigError("orchestrator.pool_size", errors.New("must be at least 1"))
	}
	if c.Orchestrator.MaxBatchSize < 1 {
		return errors.NewConfigError("orchestrator.max_batch_size", errors.New("must be at least 1"))
	}
	if c.Orchestrator.TaskTimeout <= 0 {
		return errors.NewConfigError("orchestrator.task_timeout", errors.New("must be positive"))
	}
	if c.Memory.SearchThreshold < -1 || c.Memory.SearchThreshold > 1 {
		return errors.NewConfigError("memory.search_threshold", errors.New("must be within [-1, 1]"))
	}

	switch c.Research.Provider {
	case "offline":
	case "http":
		if c.Research.ProviderURL == "" {
			return errors.NewConfigError("research.provider_url", errors.New("required for the http provider"))
		}
		if c.Research.APIKey == "" {
			return errors.NewConfigError("research.api_key", errors.ErrMissingCredentials)
		}
	default:
		return errors.NewConfigError("research.provider", errors.New("must be offline or http"))
	}

	valid := false
	for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		if strings.EqualFold(c.Logging.Level, level) {
			valid = true
			break
		}
	}
	if !valid {
		return errors.NewConfigError("logging.level", errors.New("must be DEBUG, INFO, WARN, or ERROR"))
	}
	return nil
}
