package config

import (
	"fmt"
	"os"
	"strconv"

	"lassosig/domain/model"
	"lassosig/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Pipeline PipelineConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// PipelineConfig holds the permutation-inference settings
type PipelineConfig struct {
	FoldCount        int              // k for cross-validation (default 10)
	LossMetric       model.LossMetric // CV loss (default misclassification)
	PermutationCount int              // number of label shuffles (default 100)
	Seed             int64            // base seed for all derived streams
	FDRMethod        model.FDRMethod  // multiple-testing correction (default BH)
	Workers          int              // permutation worker bound; 0 means sequential
	MaxShuffleRetry  int              // re-draws allowed per degenerate shuffle
	SmoothPValues    bool             // (1+k)/(1+N) estimator instead of k/N
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds result-store connection settings
type DatabaseConfig struct {
	URL string
}

// DefaultPipeline returns the documented defaults
func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		FoldCount:        10,
		LossMetric:       model.LossMisclassification,
		PermutationCount: 100,
		Seed:             42,
		FDRMethod:        model.FDRBenjaminiHochberg,
		Workers:          4,
		MaxShuffleRetry:  10,
		SmoothPValues:    false,
	}
}

// Validate rejects configurations the pipeline cannot honor
func (c PipelineConfig) Validate() error {
	if c.FoldCount < 2 {
		return errors.ConfigInvalid(fmt.Sprintf("fold count must be >= 2, got %d", c.FoldCount))
	}
	if !c.LossMetric.Valid() {
		return errors.ConfigInvalid(fmt.Sprintf("unknown loss metric %q", c.LossMetric))
	}
	if c.PermutationCount < 1 {
		// p-values are undefined with no permutations; reject rather than emit 0/0
		return errors.New(errors.CodeZeroPermutations,
			fmt.Sprintf("permutation count must be >= 1, got %d", c.PermutationCount))
	}
	if !c.FDRMethod.Valid() {
		return errors.ConfigInvalid(fmt.Sprintf("unknown FDR method %q", c.FDRMethod))
	}
	if c.Workers < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("worker count must be >= 0, got %d", c.Workers))
	}
	if c.MaxShuffleRetry < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("shuffle retry cap must be >= 0, got %d", c.MaxShuffleRetry))
	}
	return nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	pipeline, err := loadPipelineConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pipeline configuration")
	}

	cfg := &Config{
		Pipeline: *pipeline,
		Server: ServerConfig{
			Port:    getEnv("SERVER_PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}
	return cfg, nil
}

func loadPipelineConfig() (*PipelineConfig, error) {
	cfg := DefaultPipeline()

	var err error
	if cfg.FoldCount, err = getEnvInt("FOLD_COUNT", cfg.FoldCount); err != nil {
		return nil, err
	}
	if cfg.PermutationCount, err = getEnvInt("PERMUTATION_COUNT", cfg.PermutationCount); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getEnvInt("PERMUTATION_WORKERS", cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.MaxShuffleRetry, err = getEnvInt("SHUFFLE_RETRY_CAP", cfg.MaxShuffleRetry); err != nil {
		return nil, err
	}
	if seedStr := os.Getenv("RANDOM_SEED"); seedStr != "" {
		seed, err := strconv.ParseInt(seedStr, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("RANDOM_SEED: %v", err))
		}
		cfg.Seed = seed
	}
	if metric := os.Getenv("LOSS_METRIC"); metric != "" {
		cfg.LossMetric = model.LossMetric(metric)
	}
	if method := os.Getenv("FDR_METHOD"); method != "" {
		cfg.FDRMethod = model.FDRMethod(method)
	}
	if smooth := os.Getenv("SMOOTH_P_VALUES"); smooth != "" {
		cfg.SmoothPValues = smooth == "1" || smooth == "true"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %v", key, err))
	}
	return n, nil
}
