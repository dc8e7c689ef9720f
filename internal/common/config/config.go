package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Scoring       ScoringConfig           `mapstructure:"scoring"`
	Trigger       TriggerConfig           `mapstructure:"trigger"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Server        ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name         string `mapstructure:"name"`
	Version      string `mapstructure:"version"`
	Environment  string `mapstructure:"environment"`
	RegistryPath string `mapstructure:"registry_path"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	Plaintext      bool   `mapstructure:"plaintext"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// MongoConfig locates the tenant documents: questionnaires, applicants and
// tenant settings each live in their own collection keyed by tenantId.
type MongoConfig struct {
	URI         string           `mapstructure:"uri"`
	Database    string           `mapstructure:"database"`
	Timeout     int              `mapstructure:"timeout"` // milliseconds
	Collections MongoCollections `mapstructure:"collections"`
}

type MongoCollections struct {
	Questions  string `mapstructure:"questions"`
	Applicants string `mapstructure:"applicants"`
	Tenants    string `mapstructure:"tenants"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
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
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds the scoring oracle backends.
type APIsConfig struct {
	GenAI struct {
		BaseURL     string  `mapstructure:"base_url"`
		APIKey      string  `mapstructure:"api_key"`
		Path        string  `mapstructure:"path"`
		Timeout     int     `mapstructure:"timeout"` // milliseconds
		MaxRetries  int     `mapstructure:"max_retries"`
		MaxTokens   int     `mapstructure:"max_tokens"`
		Temperature float64 `mapstructure:"temperature"`
	} `mapstructure:"genai"`

	Vertex struct {
		Project     string  `mapstructure:"project"`
		Location    string  `mapstructure:"location"`
		Model       string  `mapstructure:"model"`
		Temperature float32 `mapstructure:"temperature"`
	} `mapstructure:"vertex"`
}

// ScoringConfig drives the applicant pipeline.
type ScoringConfig struct {
	DefaultThreshold   int    `mapstructure:"default_threshold"`
	OracleBackend      string `mapstructure:"oracle_backend"` // genai | vertex
	OracleConcurrency  int    `mapstructure:"oracle_concurrency"`
	OracleTimeout      int    `mapstructure:"oracle_timeout"` // milliseconds
	DefaultTraitPoints int    `mapstructure:"default_trait_points"`
	StatusPass         string `mapstructure:"status_pass"`
	StatusReview       string `mapstructure:"status_review"`
	LockTTL            int    `mapstructure:"lock_ttl"`         // milliseconds
	SchemaCacheTTL     int    `mapstructure:"schema_cache_ttl"` // milliseconds
}

// TriggerConfig selects how new applicants reach the pipeline.
type TriggerConfig struct {
	Mode          string `mapstructure:"mode"` // zeebe | changestream | both
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

func (t TriggerConfig) ZeebeEnabled() bool {
	return t.Mode == "zeebe" || t.Mode == "both"
}

func (t TriggerConfig) ChangeStreamEnabled() bool {
	return t.Mode == "changestream" || t.Mode == "both"
}

// NotificationConfig holds the scored-applicant event settings.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
