package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  search_backend: memory
  lookup_backend: memory
  snapshot_path: configs/tariff-snapshot.json
qualification:
  thresholds:
    electronics: 65
    general manufacturing: 62.5
workers:
  resolve-rates:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "tariff-workers", cfg.App.Name)
	assert.Equal(t, 4, cfg.Classification.MinTermLength)
	assert.Equal(t, 5, cfg.Classification.MaxTerms)
	assert.Equal(t, 95.0, cfg.Classification.Scoring.Ceiling)
	assert.Equal(t, 60.0, cfg.Classification.Scoring.HintedFloor)
	assert.Equal(t, 62.5, cfg.Qualification.DefaultThreshold)
	assert.Equal(t, []string{"US", "MX", "CA"}, cfg.Qualification.BlocMembers)
	assert.Equal(t, 65.0, cfg.Qualification.Thresholds["electronics"])
	assert.Equal(t, 62.5, cfg.Qualification.Thresholds["general manufacturing"])
	assert.Equal(t, 2000, cfg.Rates.TierTimeout)
	assert.Equal(t, 40.0, cfg.Notifications.ReviewConfidenceThreshold)

	wcfg := cfg.Workers["resolve-rates"]
	assert.True(t, wcfg.Enabled)
	assert.Equal(t, 5, wcfg.MaxJobsActive)
	assert.Equal(t, 30000, wcfg.Timeout)
	assert.Equal(t, 3, wcfg.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_SNAPSHOT_PATH", "/tmp/snapshot.json")
	path := writeConfig(t, `
store:
  search_backend: memory
  lookup_backend: memory
  snapshot_path: ${TEST_SNAPSHOT_PATH}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/snapshot.json", cfg.Store.SnapshotPath)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "postgres backend with host",
			mutate: func(cfg *Config) {},
		},
		{
			name: "postgres backend missing host",
			mutate: func(cfg *Config) {
				cfg.Database.Postgres.Host = ""
			},
			wantErr: "database.postgres.host",
		},
		{
			name: "elasticsearch search without addresses",
			mutate: func(cfg *Config) {
				cfg.Store.SearchBackend = BackendElasticsearch
			},
			wantErr: "database.elasticsearch",
		},
		{
			name: "elasticsearch cannot serve lookups",
			mutate: func(cfg *Config) {
				cfg.Database.Elasticsearch.URL = "http://localhost:9200"
				cfg.Store.LookupBackend = BackendElasticsearch
			},
			wantErr: "lookup_backend",
		},
		{
			name: "unknown backend",
			mutate: func(cfg *Config) {
				cfg.Store.SearchBackend = "mongo"
			},
			wantErr: "unknown store backend",
		},
		{
			name: "threshold out of range",
			mutate: func(cfg *Config) {
				cfg.Qualification.Thresholds = map[string]float64{"textiles": 120}
			},
			wantErr: "qualification.thresholds.textiles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Database.Postgres.Host = "localhost"
			cfg.Database.Postgres.Database = "tariffs"
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateWorkerRuntime(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateWorkerRuntime())

	cfg.Camunda.BrokerAddress = "localhost:26500"
	assert.Error(t, cfg.ValidateWorkerRuntime())

	cfg.Database.Redis.Address = "localhost:6379"
	assert.NoError(t, cfg.ValidateWorkerRuntime())
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}
	wcfg := GetWorkerConfig(cfg, "missing")
	assert.True(t, wcfg.Enabled)
	assert.Equal(t, 30000, wcfg.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "missing"))
}
