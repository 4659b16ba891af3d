package resolverates

import (
	"fmt"

	"tariff-workers/internal/common/config"
	"tariff-workers/internal/workers/jobs"
)

const defaultMaxBatchSize = 200

type Config struct {
	jobs.Settings `mapstructure:",squash"`
	MaxBatchSize  int `mapstructure:"max_batch_size"`
}

func DefaultConfig() *Config {
	return &Config{Settings: jobs.DefaultSettings(), MaxBatchSize: defaultMaxBatchSize}
}

func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}
	return &Config{
		Settings:     jobs.SettingsFor(appConfig, TaskType),
		MaxBatchSize: defaultMaxBatchSize,
	}
}
