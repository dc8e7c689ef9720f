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

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides.
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
	_ = v.MergeInConfig()

	return build(v)
}

// LoadFromFile reads a single config file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
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
	paths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

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
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.APIs.GenAI.APIKey, "GENAI_API_KEY")
	setIfEmpty(&cfg.APIs.Vertex.Project, "GOOGLE_CLOUD_PROJECT")
	setIfEmpty(&cfg.APIs.Vertex.Location, "GOOGLE_CLOUD_LOCATION")
	setIfEmpty(&cfg.Database.Mongo.URI, "MONGO_URI")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Notifications.SNS.TopicARN, "SNS_TOPIC_ARN")
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.App.RegistryPath == "" {
		cfg.App.RegistryPath = "configs/activity-registry.json"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	mongo := &cfg.Database.Mongo
	if mongo.Database == "" {
		mongo.Database = "hiring"
	}
	if mongo.Timeout == 0 {
		mongo.Timeout = 10000
	}
	if mongo.Collections.Questions == "" {
		mongo.Collections.Questions = "questionnaire"
	}
	if mongo.Collections.Applicants == "" {
		mongo.Collections.Applicants = "applicants"
	}
	if mongo.Collections.Tenants == "" {
		mongo.Collections.Tenants = "users"
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
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "scored-applicants"
	}

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
			worker.Timeout = 120000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.APIs.GenAI.Path == "" {
		cfg.APIs.GenAI.Path = "/api/ai/score"
	}
	if cfg.APIs.GenAI.Timeout == 0 {
		cfg.APIs.GenAI.Timeout = 30000
	}
	if cfg.APIs.GenAI.MaxRetries == 0 {
		cfg.APIs.GenAI.MaxRetries = 2
	}
	if cfg.APIs.GenAI.MaxTokens == 0 {
		cfg.APIs.GenAI.MaxTokens = 1024
	}
	if cfg.APIs.Vertex.Location == "" {
		cfg.APIs.Vertex.Location = "us-central1"
	}
	if cfg.APIs.Vertex.Model == "" {
		cfg.APIs.Vertex.Model = "gemini-2.5-flash"
	}

	s := &cfg.Scoring
	if s.DefaultThreshold == 0 {
		s.DefaultThreshold = 75
	}
	if s.OracleBackend == "" {
		s.OracleBackend = "genai"
	}
	if s.OracleConcurrency == 0 {
		s.OracleConcurrency = 4
	}
	if s.OracleTimeout == 0 {
		s.OracleTimeout = 20000
	}
	if s.DefaultTraitPoints == 0 {
		s.DefaultTraitPoints = 10
	}
	if s.StatusPass == "" {
		s.StatusPass = "Interview"
	}
	if s.StatusReview == "" {
		s.StatusReview = "Review"
	}
	if s.LockTTL == 0 {
		s.LockTTL = 120000
	}
	if s.SchemaCacheTTL == 0 {
		s.SchemaCacheTTL = 300000
	}

	if cfg.Trigger.Mode == "" {
		cfg.Trigger.Mode = "zeebe"
	}
	if cfg.Trigger.MaxConcurrent == 0 {
		cfg.Trigger.MaxConcurrent = 8
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Trigger.Mode {
	case "zeebe", "changestream", "both":
	default:
		return fmt.Errorf("trigger.mode must be zeebe, changestream or both, got %q", cfg.Trigger.Mode)
	}

	if cfg.Trigger.ZeebeEnabled() && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Database.Mongo.URI == "" {
		return fmt.Errorf("database.mongo.uri is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if pg := cfg.Database.Postgres; pg.Enabled {
		if pg.Host == "" || pg.Database == "" || pg.User == "" {
			return fmt.Errorf("database.postgres.host, database and user are required when enabled")
		}
	}
	if es := cfg.Database.Elasticsearch; es.Enabled && len(es.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when enabled")
	}
	if sns := cfg.Notifications.SNS; sns.Enabled && sns.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when enabled")
	}

	switch cfg.Scoring.OracleBackend {
	case "genai":
		if cfg.APIs.GenAI.BaseURL == "" {
			return fmt.Errorf("apis.genai.base_url is required for the genai oracle")
		}
	case "vertex":
		if cfg.APIs.Vertex.Project == "" {
			return fmt.Errorf("apis.vertex.project is required for the vertex oracle")
		}
	default:
		return fmt.Errorf("scoring.oracle_backend must be genai or vertex, got %q", cfg.Scoring.OracleBackend)
	}

	if cfg.Scoring.OracleConcurrency < 1 {
		return fmt.Errorf("scoring.oracle_concurrency must be positive")
	}
	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       120000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
