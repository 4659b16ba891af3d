// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig               `mapstructure:"app"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Database       DatabaseConfig          `mapstructure:"database"`
	Store          StoreConfig             `mapstructure:"store"`
	Classification ClassificationConfig    `mapstructure:"classification"`
	Qualification  QualificationConfig     `mapstructure:"qualification"`
	Rates          RatesConfig             `mapstructure:"rates"`
	Notifications  NotificationConfig      `mapstructure:"notifications"`
	Registry       RegistryConfig          `mapstructure:"registry"`
	Server         ServerConfig            `mapstructure:"server"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	Logging        LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single address shorthand
}

// GetAddresses returns Addresses, or URL when only the shorthand is set.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Tariff resolver configuration ---

// Store backends.
const (
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// StoreConfig selects where description search and code lookups are served from.
type StoreConfig struct {
	SearchBackend    string `mapstructure:"search_backend"`
	LookupBackend    string `mapstructure:"lookup_backend"`
	SnapshotPath     string `mapstructure:"snapshot_path"`
	Table            string `mapstructure:"table"`
	Index            string `mapstructure:"index"`
	SearchLimit      int    `mapstructure:"search_limit"`
	ChapterEstimates bool   `mapstructure:"chapter_estimates"`
}

// ClassificationConfig is the immutable vocabulary handed to the matcher and
// scorer. Empty lists fall back to the built-in vocabulary.
type ClassificationConfig struct {
	StopWords        []string            `mapstructure:"stop_words"`
	MinTermLength    int                 `mapstructure:"min_term_length"`
	MaxTerms         int                 `mapstructure:"max_terms"`
	MaxCandidates    int                 `mapstructure:"max_candidates"`
	ScopeSearch      bool                `mapstructure:"scope_search_to_hint"`
	StrongTerms      map[string][]string `mapstructure:"strong_terms"`
	CategoryChapters map[string][]string `mapstructure:"category_chapters"`
	Scoring          ScoringConfig       `mapstructure:"scoring"`
	CacheTTL         int                 `mapstructure:"cache_ttl"` // milliseconds, 0 disables
}

// ScoringConfig names every additive constant of the scoring rules.
type ScoringConfig struct {
	BaseFloor               float64 `mapstructure:"base_floor"`
	BaseCeiling             float64 `mapstructure:"base_ceiling"`
	CategoryMatchBonus      float64 `mapstructure:"category_match_bonus"`
	StrongTermBonus         float64 `mapstructure:"strong_term_bonus"`
	CorroborationBonus      float64 `mapstructure:"corroboration_bonus"`
	ChapterHintBonus        float64 `mapstructure:"chapter_hint_bonus"`
	CategoryMismatchPenalty float64 `mapstructure:"category_mismatch_penalty"`
	HintedFloor             float64 `mapstructure:"hinted_floor"`
	Ceiling                 float64 `mapstructure:"ceiling"`
}

type QualificationConfig struct {
	BlocName         string             `mapstructure:"bloc_name"`
	BlocMembers      []string           `mapstructure:"bloc_members"`
	CountryAliases   map[string]string  `mapstructure:"country_aliases"`
	Thresholds       map[string]float64 `mapstructure:"thresholds"`
	DefaultThreshold float64            `mapstructure:"default_threshold"`
}

type RatesConfig struct {
	TierTimeout      int                `mapstructure:"tier_timeout"` // milliseconds
	CacheTTL         int                `mapstructure:"cache_ttl"`    // milliseconds, 0 disables
	BatchConcurrency int                `mapstructure:"batch_concurrency"`
	ChapterAverages  map[string]float64 `mapstructure:"chapter_averages"`
}

// NotificationConfig holds settings for the notify-broker-review worker.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	Email struct {
		Enabled    bool     `mapstructure:"enabled"`
		FromEmail  string   `mapstructure:"from_email"`
		BrokerDesk []string `mapstructure:"broker_desk"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	ReviewConfidenceThreshold float64 `mapstructure:"review_confidence_threshold"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
