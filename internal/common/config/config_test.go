package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: greensource
    user: matcher
  redis:
    address: localhost:6379
workers:
  match-rfq-suppliers:
    enabled: true
    max_jobs_active: 4
  notify-matched-suppliers:
    enabled: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	m := cfg.Matching
	assert.Equal(t, 0.35, m.EmissionFactorKgPerTonMile)
	assert.Equal(t, 100.0, m.LocalDistanceThresholdMiles)
	assert.Equal(t, []float64{100, 75, 50, 25}, m.TierBaselineScores)
	assert.Equal(t, 10, m.MaxCandidates)
	assert.False(t, m.AIAdjustmentEnabled)
	assert.Equal(t, 3000, m.OracleTimeoutMs)
	assert.Equal(t, CandidateStorePostgres, m.CandidateStore)

	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.Observability.MetricsPort)

	w := GetWorkerConfig(cfg, "match-rfq-suppliers")
	assert.Equal(t, 4, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "match-rfq-suppliers"))
	assert.False(t, IsWorkerEnabled(cfg, "notify-matched-suppliers"))
	assert.True(t, IsWorkerEnabled(cfg, "persist-match-results"))
}

func TestLoadFromFile_MatchingSection(t *testing.T) {
	body := baseYAML + `
apis:
  genai:
    base_url: http://genai.local
matching:
  emission_factor_kg_per_ton_mile: 0.5
  local_distance_threshold_miles: 50
  tier_baseline_scores: [90, 70, 40, 10]
  max_candidates: 5
  ai_adjustment_enabled: true
  oracle_timeout_ms: 1500
  store_timeout_ms: 2000
  concurrency: 2
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	w := cfg.Matching.Weights()
	assert.Equal(t, [4]float64{90, 70, 40, 10}, w.TierBaselines)
	assert.True(t, w.AIAdjustmentEnabled)
	assert.Equal(t, 1500*time.Millisecond, w.OracleTimeout)
	assert.Equal(t, 10.0, w.OracleMaxDelta)

	o := cfg.Matching.EngineOptions()
	assert.Equal(t, 5, o.MaxCandidates)
	assert.Equal(t, 2, o.Concurrency)
	assert.Equal(t, 2*time.Second, o.StoreTimeout)

	assert.Equal(t, 0.5, cfg.Matching.Estimator().EmissionFactorKgPerTonMile)
	assert.Equal(t, 50.0, cfg.Matching.Classifier().LocalThresholdMiles)
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("RFQ_TEST_DB_PASSWORD", "s3cret")
	body := `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: greensource
    user: matcher
    password: ${RFQ_TEST_DB_PASSWORD}
  redis:
    address: localhost:6379
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{
			name:  "baselines count",
			extra: "matching:\n  tier_baseline_scores: [100, 75, 50]\n",
			want:  "exactly 4",
		},
		{
			name:  "baselines increasing",
			extra: "matching:\n  tier_baseline_scores: [50, 75, 50, 25]\n",
			want:  "must not increase",
		},
		{
			name:  "unknown store",
			extra: "matching:\n  candidate_store: mongo\n",
			want:  "candidate_store",
		},
		{
			name:  "elasticsearch without addresses",
			extra: "matching:\n  candidate_store: elasticsearch\n",
			want:  "elasticsearch.addresses",
		},
		{
			name:  "ai without oracle url",
			extra: "matching:\n  ai_adjustment_enabled: true\n",
			want:  "genai.base_url",
		},
		{
			name:  "negative threshold",
			extra: "matching:\n  local_distance_threshold_miles: -1\n",
			want:  "local_distance_threshold_miles",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, baseYAML+tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_MissingBroker(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, "database:\n  postgres:\n    host: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camunda.broker_address")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, GetDuration(250))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}

func TestDefaultMatching(t *testing.T) {
	m := DefaultMatching()
	require.NoError(t, m.Validate())
	assert.Equal(t, 0.35, m.EmissionFactorKgPerTonMile)
	assert.Equal(t, 100.0, m.LocalDistanceThresholdMiles)
	assert.Len(t, m.TierBaselineScores, 4)
	assert.Equal(t, CandidateStorePostgres, m.CandidateStore)
	assert.False(t, m.AIAdjustmentEnabled)
}
