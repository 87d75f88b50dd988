package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"collectionsync/internal/pkg/logger"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-level config
type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	LogLevel string `yaml:"level"`
}

// MongoDB connection config
type MongoConfig struct {
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	URI             string        `yaml:"uri"`
	DBName          string        `yaml:"db_name"`
	MaxPoolSize     uint64        `yaml:"max_pool_size"`
	MinPoolSize     uint64        `yaml:"min_pool_size"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_minutes"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout_seconds"`
}

// Redis connection config
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	EnableTLS      bool          `yaml:"enable_tls"`
	ConnectTimeout time.Duration `yaml:"connect_timeout_seconds"`
	CertContent    string        `yaml:"cert_content"`
	DedupTTL       time.Duration `yaml:"dedup_ttl_hours"`
}

// ProviderConfig configures the outbound banking-provider API client.
type ProviderConfig struct {
	BaseURL              string        `yaml:"base_url"`
	APIToken             string        `yaml:"api_token"`
	WebhookSecret        string        `yaml:"webhook_secret"`
	RequestTimeout       time.Duration `yaml:"request_timeout_seconds"`
	MaxRequestsPerSecond int           `yaml:"max_requests_per_second"`
	MaxRetries           int           `yaml:"max_retries"`
	BaseDelayMs          int           `yaml:"base_delay_ms"`
	MaxDelayMs           int           `yaml:"max_delay_ms"`
}

// BatchConfig configures the batch mutation service.
type BatchConfig struct {
	WorkerCount        int     `yaml:"worker_count"`
	MaxDiscountPercent float64 `yaml:"max_discount_percent"`
	SweepBatchSize     int     `yaml:"sweep_batch_size"`
}

// Kafka producer config for the parked-events manual-review topic.
type KafkaConfig struct {
	Server            string `yaml:"server"`
	ParkedEventsTopic string `yaml:"parked_events_topic"`
	SecurityProtocol  string `yaml:"security_protocol"`
	SASLMechanism     string `yaml:"sasl_mechanism"`
	SASLUsername      string `yaml:"sasl_username"`
	SASLPassword      string `yaml:"sasl_password"`
	SessionTimeoutMs  int    `yaml:"session_timeout_ms"`
	ClientID          string `yaml:"client_id"`
	FlushTimeoutMs    int    `yaml:"flush_timeout_ms"`
}

type PubSubConfig struct {
	ProjectID         string `yaml:"project_id"`
	NotificationTopic string `yaml:"notification_topic"`
}

type GCSConfig struct {
	DocumentBucket string `yaml:"document_bucket"`
}

type OtelConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	CollectorURL string `yaml:"collector_url"`
}

// AppConfig is the main config struct that holds all configs
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LogConfig      `yaml:"logging"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Provider ProviderConfig `yaml:"provider"`
	Batch    BatchConfig    `yaml:"batch"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
	GCS      GCSConfig      `yaml:"gcs"`
	Otel     OtelConfig     `yaml:"otel"`
}

func assignDefaultConfigValues(cfg *AppConfig) *AppConfig {

	// server config defaults
	cfg.Server.Port = GetEnvOrDefaultAsInt("SERVER_PORT", cfg.Server.Port)

	// log config defaults
	cfg.Logging.LogLevel = GetEnvOrDefaultAsString("LOGGING_LEVEL", "info")

	// MongoDB config defaults
	cfg.Mongo.URI = GetEnvOrDefaultAsString("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.DBName = GetEnvOrDefaultAsString("MONGO_DB_NAME", cfg.Mongo.DBName)
	cfg.Mongo.Username = GetEnvOrDefaultAsString("MONGO_USERNAME", cfg.Mongo.Username)
	cfg.Mongo.Password = GetEnvOrDefaultAsString("MONGO_PASSWORD", cfg.Mongo.Password)
	cfg.Mongo.MaxPoolSize = GetEnvOrDefaultAsUint64("MONGO_MAX_POOL_SIZE", cfg.Mongo.MaxPoolSize)
	cfg.Mongo.MinPoolSize = GetEnvOrDefaultAsUint64("MONGO_MIN_POOL_SIZE", cfg.Mongo.MinPoolSize)
	cfg.Mongo.MaxConnIdleTime = time.Duration(GetEnvOrDefaultAsInt("MONGO_MAX_CONN_IDLE_MINUTES", 30)) * time.Minute
	cfg.Mongo.ConnectTimeout = time.Duration(GetEnvOrDefaultAsInt("MONGO_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second

	// Redis config defaults
	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.EnableTLS = GetEnvOrDefaultAsInt("REDIS_ENABLE_TLS", 0) == 1
	cfg.Redis.ConnectTimeout = time.Duration(GetEnvOrDefaultAsInt("REDIS_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second
	cfg.Redis.CertContent = GetEnvOrDefaultAsString("REDIS_TLS_CERT", cfg.Redis.CertContent)
	cfg.Redis.DedupTTL = time.Duration(GetEnvOrDefaultAsInt("REDIS_DEDUP_TTL_HOURS", 72)) * time.Hour

	// Provider config defaults
	cfg.Provider.BaseURL = GetEnvOrDefaultAsString("PROVIDER_BASE_URL", cfg.Provider.BaseURL)
	cfg.Provider.APIToken = GetEnvOrDefaultAsString("PROVIDER_API_TOKEN", cfg.Provider.APIToken)
	cfg.Provider.WebhookSecret = GetEnvOrDefaultAsString("PROVIDER_WEBHOOK_SECRET", cfg.Provider.WebhookSecret)
	cfg.Provider.RequestTimeout = time.Duration(GetEnvOrDefaultAsInt("PROVIDER_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second
	cfg.Provider.MaxRequestsPerSecond = GetEnvOrDefaultAsInt("PROVIDER_MAX_REQUESTS_PER_SECOND", 5)
	cfg.Provider.MaxRetries = GetEnvOrDefaultAsInt("PROVIDER_MAX_RETRIES", 3)
	cfg.Provider.BaseDelayMs = GetEnvOrDefaultAsInt("PROVIDER_BASE_DELAY_MS", 1000)
	cfg.Provider.MaxDelayMs = GetEnvOrDefaultAsInt("PROVIDER_MAX_DELAY_MS", 30000)

	// Batch config defaults
	cfg.Batch.WorkerCount = GetEnvOrDefaultAsInt("BATCH_WORKER_COUNT", 4)
	if cfg.Batch.MaxDiscountPercent == 0 {
		cfg.Batch.MaxDiscountPercent = 50
	}
	cfg.Batch.SweepBatchSize = GetEnvOrDefaultAsInt("BATCH_SWEEP_BATCH_SIZE", 100)

	// Kafka config defaults
	cfg.Kafka.Server = GetEnvOrDefaultAsString("KAFKA_SERVER", cfg.Kafka.Server)
	cfg.Kafka.ParkedEventsTopic = GetEnvOrDefaultAsString("KAFKA_PARKED_EVENTS_TOPIC", cfg.Kafka.ParkedEventsTopic)
	cfg.Kafka.SecurityProtocol = GetEnvOrDefaultAsString("KAFKA_SECURITY_PROTOCOL", cfg.Kafka.SecurityProtocol)
	cfg.Kafka.SASLMechanism = GetEnvOrDefaultAsString("KAFKA_SASL_MECHANISM", cfg.Kafka.SASLMechanism)
	cfg.Kafka.SASLUsername = GetEnvOrDefaultAsString("KAFKA_SASL_USERNAME", cfg.Kafka.SASLUsername)
	cfg.Kafka.SASLPassword = GetEnvOrDefaultAsString("KAFKA_SASL_PASSWORD", cfg.Kafka.SASLPassword)
	cfg.Kafka.SessionTimeoutMs = GetEnvOrDefaultAsInt("KAFKA_SESSION_TIMEOUT_MS", 15000)
	cfg.Kafka.ClientID = GetEnvOrDefaultAsString("KAFKA_CLIENT_ID", cfg.Kafka.ClientID)
	cfg.Kafka.FlushTimeoutMs = GetEnvOrDefaultAsInt("KAFKA_FLUSH_TIMEOUT_MS", 15000)

	// PubSub config defaults
	cfg.PubSub.ProjectID = GetEnvOrDefaultAsString("PROJECT_ID", cfg.PubSub.ProjectID)
	cfg.PubSub.NotificationTopic = GetEnvOrDefaultAsString("PUBSUB_NOTIFICATION_TOPIC", cfg.PubSub.NotificationTopic)

	// GCS config defaults
	cfg.GCS.DocumentBucket = GetEnvOrDefaultAsString("GCS_DOCUMENT_BUCKET", cfg.GCS.DocumentBucket)

	// Otel config defaults
	cfg.Otel.ServiceName = GetEnvOrDefaultAsString("OTEL_SERVICE_NAME", "collection-sync")
	cfg.Otel.CollectorURL = GetEnvOrDefaultAsString("OTEL_COLLECTOR_URL", cfg.Otel.CollectorURL)

	return cfg
}

// LoadFromConfigFilePath loads and parses a config file into AppConfig
func LoadFromConfigFilePath(configPath string) (*AppConfig, error) {

	// #nosec G304: configPath comes from a trusted env var or the default path
	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Error("Failed to read config file", err, slog.String("path", configPath))
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("Failed to unmarshal config", err)
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaultCfg := assignDefaultConfigValues(&cfg)

	if err := validateConfig(defaultCfg); err != nil {
		logger.Error("Config validation failed", err)
		return nil, err
	}

	logger.Info("Configuration loaded successfully", slog.String("path", configPath))

	return defaultCfg, nil
}

func validateConfig(cfg *AppConfig) error {
	provider := cfg.Provider
	if provider.WebhookSecret == "" {
		return fmt.Errorf("provider.webhook_secret is required")
	}
	if provider.MaxRequestsPerSecond < 1 || provider.MaxRequestsPerSecond > 50 {
		return fmt.Errorf("provider.max_requests_per_second must be between 1 and 50, got %d",
			provider.MaxRequestsPerSecond)
	}
	if provider.MaxRetries < 1 || provider.MaxRetries > 10 {
		return fmt.Errorf("provider.max_retries must be between 1 and 10, got %d", provider.MaxRetries)
	}
	if provider.BaseDelayMs < 100 || provider.BaseDelayMs > provider.MaxDelayMs {
		return fmt.Errorf("provider.base_delay_ms must be between 100 and max_delay_ms, got %d",
			provider.BaseDelayMs)
	}

	batch := cfg.Batch
	if batch.WorkerCount < 1 || batch.WorkerCount > 32 {
		return fmt.Errorf("batch.worker_count must be between 1 and 32, got %d", batch.WorkerCount)
	}
	if batch.MaxDiscountPercent <= 0 || batch.MaxDiscountPercent > 100 {
		return fmt.Errorf("batch.max_discount_percent must be in (0, 100], got %v", batch.MaxDiscountPercent)
	}

	mongo := cfg.Mongo
	if mongo.MaxPoolSize > 0 && mongo.MinPoolSize > mongo.MaxPoolSize {
		return fmt.Errorf("mongo.min_pool_size %d exceeds max_pool_size %d", mongo.MinPoolSize, mongo.MaxPoolSize)
	}

	return nil
}

// GetEnvOrDefaultAsInt returns the value of the given env variable
// as an int or the default value if not set or invalid.
func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return int(value)
}

// GetEnvOrDefaultAsUint64 returns the value of the env variable
// as uint64 or the default value if not set or invalid.
func GetEnvOrDefaultAsUint64(key string, defaultValue uint64) uint64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvOrDefaultAsString(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return defaultVal
}

// LoadFromConfig resolves the config file path and loads it.
func LoadFromConfig() (*AppConfig, error) {
	configPath := GetEnvOrDefaultAsString("CONFIG_PATH", "configs/config.yaml")

	cfg, err := LoadFromConfigFilePath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	return cfg, nil
}
