package notifybrokerreview

import (
	"fmt"

	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/workers/jobs"
)

type Config struct {
	jobs.Settings `mapstructure:",squash"`
	AWSRegion     string   `mapstructure:"aws_region"`
	EmailEnabled  bool     `mapstructure:"email_enabled"`
	FromEmail     string   `mapstructure:"from_email"`
	BrokerDesk    []string `mapstructure:"broker_desk"`
	SNSEnabled    bool     `mapstructure:"sns_enabled"`
	TopicARN      string   `mapstructure:"topic_arn"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings:  jobs.DefaultSettings(),
		AWSRegion: "us-east-1",
	}
}

func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if c.EmailEnabled {
		if !validation.ValidateEmail(c.FromEmail) {
			return fmt.Errorf("from_email %q is not a valid address", c.FromEmail)
		}
		for _, addr := range c.BrokerDesk {
			if !validation.ValidateEmail(addr) {
				return fmt.Errorf("broker_desk address %q is not valid", addr)
			}
		}
	}
	if c.SNSEnabled && c.TopicARN == "" {
		return fmt.Errorf("topic_arn is required when sns is enabled")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}
	cfg := DefaultConfig()
	cfg.Settings = jobs.SettingsFor(appConfig, TaskType)
	if appConfig == nil {
		return cfg
	}

	n := appConfig.Notifications
	if n.AWS.Region != "" {
		cfg.AWSRegion = n.AWS.Region
	}
	cfg.EmailEnabled = n.Email.Enabled
	cfg.FromEmail = n.Email.FromEmail
	cfg.BrokerDesk = append([]string(nil), n.Email.BrokerDesk...)
	cfg.SNSEnabled = n.SNS.Enabled
	cfg.TopicARN = n.SNS.TopicARN
	return cfg
}
