package qualifycomponents

import (
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/workers/jobs"
)

type Config struct {
	jobs.Settings `mapstructure:",squash"`
}

func DefaultConfig() *Config {
	return &Config{Settings: jobs.DefaultSettings()}
}

func (c *Config) Validate() error {
	return c.Settings.Validate()
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}
	return &Config{Settings: jobs.SettingsFor(appConfig, TaskType)}
}
