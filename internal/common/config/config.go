package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Matching      MatchingConfig          `mapstructure:"matching"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
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
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig is keyed by task type under workers:.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type APIsConfig struct {
	GenAI struct {
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"genai"`
}

// NotificationConfig drives notify-matched-suppliers.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	Email struct {
		Enabled       bool   `mapstructure:"enabled"`
		FromEmail     string `mapstructure:"from_email"`
		PortalBaseURL string `mapstructure:"portal_base_url"`
	} `mapstructure:"email"`
	Concierge struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"concierge"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	MetricsPort    int     `mapstructure:"metrics_port"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// MatchingConfig is loaded once at startup and treated as read-only.
type MatchingConfig struct {
	EmissionFactorKgPerTonMile  float64   `mapstructure:"emission_factor_kg_per_ton_mile"`
	LocalDistanceThresholdMiles float64   `mapstructure:"local_distance_threshold_miles"`
	TierBaselineScores          []float64 `mapstructure:"tier_baseline_scores"`
	MaxCandidates               int       `mapstructure:"max_candidates"`
	AIAdjustmentEnabled         bool      `mapstructure:"ai_adjustment_enabled"`
	OracleTimeoutMs             int       `mapstructure:"oracle_timeout_ms"`
	OracleMaxDelta              float64   `mapstructure:"oracle_max_delta"`
	StoreTimeoutMs              int       `mapstructure:"store_timeout_ms"`
	Concurrency                 int       `mapstructure:"concurrency"`
	CarbonReferenceKg           float64   `mapstructure:"carbon_reference_kg"`
	CarbonPenaltyMax            float64   `mapstructure:"carbon_penalty_max"`
	CertificationBonus          float64   `mapstructure:"certification_bonus"`
	CandidateStore              string    `mapstructure:"candidate_store"`
	CandidateIndex              string    `mapstructure:"candidate_index"`
	CandidateCacheTTLMs         int       `mapstructure:"candidate_cache_ttl_ms"`
	OracleCacheTTLMs            int       `mapstructure:"oracle_cache_ttl_ms"`
}

const (
	CandidateStorePostgres      = "postgres"
	CandidateStoreElasticsearch = "elasticsearch"
)
