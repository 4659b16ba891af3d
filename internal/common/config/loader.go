// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// then applies environment overrides and defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// STORE_SEARCH_BACKEND overrides store.search_backend, and so on
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are conventionally provided as plain env vars.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.Database.Elasticsearch.Username == "" {
		cfg.Database.Elasticsearch.Username = os.Getenv("ES_USERNAME")
	}
	if cfg.Database.Elasticsearch.Password == "" {
		cfg.Database.Elasticsearch.Password = os.Getenv("ES_PASSWORD")
	}
	if cfg.Notifications.SNS.TopicARN == "" {
		cfg.Notifications.SNS.TopicARN = os.Getenv("BROKER_REVIEW_TOPIC_ARN")
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = os.Getenv("AWS_REGION")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "tariff-workers"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Store defaults
	if cfg.Store.SearchBackend == "" {
		cfg.Store.SearchBackend = BackendPostgres
	}
	if cfg.Store.LookupBackend == "" {
		cfg.Store.LookupBackend = BackendPostgres
	}
	if cfg.Store.Table == "" {
		cfg.Store.Table = "tariff_codes"
	}
	if cfg.Store.Index == "" {
		cfg.Store.Index = "tariff-codes"
	}
	if cfg.Store.SearchLimit == 0 {
		cfg.Store.SearchLimit = 50
	}

	// Classification defaults; vocabulary lists stay empty and fall back in the matcher
	if cfg.Classification.MinTermLength == 0 {
		cfg.Classification.MinTermLength = 4
	}
	if cfg.Classification.MaxTerms == 0 {
		cfg.Classification.MaxTerms = 5
	}
	if cfg.Classification.MaxCandidates == 0 {
		cfg.Classification.MaxCandidates = 10
	}
	applyScoringDefaults(&cfg.Classification.Scoring)

	// Qualification defaults
	if cfg.Qualification.BlocName == "" {
		cfg.Qualification.BlocName = "USMCA"
	}
	if len(cfg.Qualification.BlocMembers) == 0 {
		cfg.Qualification.BlocMembers = []string{"US", "MX", "CA"}
	}
	if cfg.Qualification.DefaultThreshold == 0 {
		cfg.Qualification.DefaultThreshold = 62.5
	}

	// Rates defaults
	if cfg.Rates.TierTimeout == 0 {
		cfg.Rates.TierTimeout = 2000
	}
	if cfg.Rates.BatchConcurrency == 0 {
		cfg.Rates.BatchConcurrency = 4
	}

	if cfg.Notifications.ReviewConfidenceThreshold == 0 {
		cfg.Notifications.ReviewConfidenceThreshold = 40
	}

	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "configs/activity-registry.json"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func applyScoringDefaults(s *ScoringConfig) {
	if s.BaseFloor == 0 {
		s.BaseFloor = 30
	}
	if s.BaseCeiling == 0 {
		s.BaseCeiling = 100
	}
	if s.CategoryMatchBonus == 0 {
		s.CategoryMatchBonus = 25
	}
	if s.StrongTermBonus == 0 {
		s.StrongTermBonus = 20
	}
	if s.CorroborationBonus == 0 {
		s.CorroborationBonus = 15
	}
	if s.ChapterHintBonus == 0 {
		s.ChapterHintBonus = 5
	}
	if s.CategoryMismatchPenalty == 0 {
		s.CategoryMismatchPenalty = 10
	}
	if s.HintedFloor == 0 {
		s.HintedFloor = 60
	}
	if s.Ceiling == 0 {
		s.Ceiling = 95
	}
}

// validateConfig validates the store wiring; broker settings are checked by
// ValidateWorkerRuntime since the CLI runs without Zeebe.
func validateConfig(cfg *Config) error {
	for _, backend := range []string{cfg.Store.SearchBackend, cfg.Store.LookupBackend} {
		switch backend {
		case BackendPostgres:
			if cfg.Database.Postgres.Host == "" {
				return fmt.Errorf("database.postgres.host is required for the %s backend", backend)
			}
			if cfg.Database.Postgres.Database == "" {
				return fmt.Errorf("database.postgres.database is required")
			}
		case BackendElasticsearch:
			if len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
				return fmt.Errorf("database.elasticsearch.addresses or url is required")
			}
		case BackendMemory:
			if cfg.Store.SnapshotPath == "" {
				return fmt.Errorf("store.snapshot_path is required for the memory backend")
			}
		default:
			return fmt.Errorf("unknown store backend %q", backend)
		}
	}
	if cfg.Store.LookupBackend == BackendElasticsearch {
		return fmt.Errorf("store.lookup_backend cannot be elasticsearch")
	}

	if cfg.Qualification.DefaultThreshold < 0 || cfg.Qualification.DefaultThreshold > 100 {
		return fmt.Errorf("qualification.default_threshold must be within 0-100")
	}
	for category, threshold := range cfg.Qualification.Thresholds {
		if threshold < 0 || threshold > 100 {
			return fmt.Errorf("qualification.thresholds.%s must be within 0-100", category)
		}
	}

	return nil
}

// ValidateWorkerRuntime checks what the worker manager needs on top of validateConfig.
func (c *Config) ValidateWorkerRuntime() error {
	if c.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if c.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
