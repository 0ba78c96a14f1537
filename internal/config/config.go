package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Kafka    KafkaConfig    `toml:"kafka"`
	Quotes   QuotesConfig   `toml:"quotes"`
	Cache    CacheConfig    `toml:"cache"`
	Alerts   AlertsConfig   `toml:"alerts"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Notify   NotifyConfig   `toml:"notify"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `toml:"port" validate:"required"`
	Host string `toml:"host"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host        string `toml:"host" validate:"required"`
	Port        string `toml:"port" validate:"required"`
	User        string `toml:"user"`
	Password    string `toml:"password"`
	DBName      string `toml:"name" validate:"required"`
	SSLMode     string `toml:"sslmode"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

// RedisConfig holds the result cache connection settings
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Enabled reports whether a redis address is configured. Without one the
// service falls back to an in-process cache.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// KafkaConfig holds job queue configuration
type KafkaConfig struct {
	Brokers      []string `toml:"brokers" validate:"required,min=1"`
	JobsTopic    string   `toml:"jobs_topic" validate:"required"`
	GroupID      string   `toml:"group_id" validate:"required"`
	Workers      int      `toml:"workers" validate:"min=1"`
	MaxRetries   int      `toml:"max_retries" validate:"min=0"`
	RetryBackoff string   `toml:"retry_backoff"`
}

// GetRetryBackoff parses the retry backoff, defaulting to 2s
func (k KafkaConfig) GetRetryBackoff() time.Duration {
	return parseDuration(k.RetryBackoff, 2*time.Second)
}

// QuotesConfig holds market data provider settings
type QuotesConfig struct {
	StockBaseURL  string `toml:"stock_base_url" validate:"required,url"`
	CryptoBaseURL string `toml:"crypto_base_url" validate:"required,url"`
	CryptoAPIKey  string `toml:"crypto_api_key"`
	Timeout       string `toml:"timeout"`
	RateLimit     int    `toml:"rate_limit" validate:"min=1"`
}

// GetTimeout parses the per-batch provider timeout, defaulting to 10s
func (q QuotesConfig) GetTimeout() time.Duration {
	return parseDuration(q.Timeout, 10*time.Second)
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	TTL string `toml:"ttl"`
}

// GetTTL parses the cache entry TTL, defaulting to 15s
func (c CacheConfig) GetTTL() time.Duration {
	return parseDuration(c.TTL, 15*time.Second)
}

// AlertsConfig holds alert pipeline settings
type AlertsConfig struct {
	BatchSize int    `toml:"batch_size" validate:"min=1"`
	Interval  string `toml:"interval"`
}

// GetInterval parses the evaluation cycle interval, defaulting to 5m
func (a AlertsConfig) GetInterval() time.Duration {
	return parseDuration(a.Interval, 5*time.Minute)
}

// SnapshotConfig holds daily snapshot settings
type SnapshotConfig struct {
	Concurrency      int    `toml:"concurrency" validate:"min=1"`
	At               string `toml:"at"` // HH:MM America/New_York
	SchedulerEnabled bool   `toml:"scheduler_enabled"`
}

// NotifyConfig holds notification transport settings
type NotifyConfig struct {
	SMTPHost      string `toml:"smtp_host"`
	SMTPPort      string `toml:"smtp_port"`
	SMTPUser      string `toml:"smtp_user"`
	SMTPPassword  string `toml:"smtp_password"`
	EmailFrom     string `toml:"email_from"`
	TwilioBaseURL string `toml:"twilio_base_url"`
	TwilioSID     string `toml:"twilio_account_sid"`
	TwilioToken   string `toml:"twilio_auth_token"`
	SMSFrom       string `toml:"sms_from"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Env   string `toml:"env"`
	Level string `toml:"level"`
}

// Load reads configuration from an optional .env file, an optional TOML
// file named by CONFIG_FILE, and environment variables, in that order of
// increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and ranges
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "portfolios",
			SSLMode:  "disable",
		},
		Kafka: KafkaConfig{
			Brokers:    []string{"localhost:9092"},
			JobsTopic:  "valuation-jobs",
			GroupID:    "valuation-workers",
			Workers:    4,
			MaxRetries: 3,
		},
		Quotes: QuotesConfig{
			StockBaseURL:  "https://query1.finance.yahoo.com",
			CryptoBaseURL: "https://api.coingecko.com",
			RateLimit:     5,
		},
		Alerts: AlertsConfig{
			BatchSize: 5,
		},
		Snapshot: SnapshotConfig{
			Concurrency: 4,
			At:          "16:30",
		},
		Notify: NotifyConfig{
			SMTPPort:      "587",
			TwilioBaseURL: "https://api.twilio.com",
		},
		Log: LogConfig{
			Env:   "development",
			Level: "info",
		},
	}
}

func applyEnv(c *Config) {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
	c.Kafka.JobsTopic = getEnv("KAFKA_JOBS_TOPIC", c.Kafka.JobsTopic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)
	c.Kafka.Workers = getEnvInt("KAFKA_WORKERS", c.Kafka.Workers)
	c.Kafka.MaxRetries = getEnvInt("KAFKA_MAX_RETRIES", c.Kafka.MaxRetries)
	c.Kafka.RetryBackoff = getEnv("KAFKA_RETRY_BACKOFF", c.Kafka.RetryBackoff)

	c.Quotes.StockBaseURL = getEnv("QUOTES_STOCK_BASE_URL", c.Quotes.StockBaseURL)
	c.Quotes.CryptoBaseURL = getEnv("QUOTES_CRYPTO_BASE_URL", c.Quotes.CryptoBaseURL)
	c.Quotes.CryptoAPIKey = getEnv("QUOTES_CRYPTO_API_KEY", c.Quotes.CryptoAPIKey)
	c.Quotes.Timeout = getEnv("QUOTES_TIMEOUT", c.Quotes.Timeout)
	c.Quotes.RateLimit = getEnvInt("QUOTES_RATE_LIMIT", c.Quotes.RateLimit)

	c.Cache.TTL = getEnv("CACHE_TTL", c.Cache.TTL)

	c.Alerts.BatchSize = getEnvInt("ALERT_BATCH_SIZE", c.Alerts.BatchSize)
	c.Alerts.Interval = getEnv("ALERT_INTERVAL", c.Alerts.Interval)

	c.Snapshot.Concurrency = getEnvInt("SNAPSHOT_CONCURRENCY", c.Snapshot.Concurrency)
	c.Snapshot.At = getEnv("SNAPSHOT_AT", c.Snapshot.At)
	c.Snapshot.SchedulerEnabled = getEnvBool("SCHEDULER_ENABLED", c.Snapshot.SchedulerEnabled)

	c.Notify.SMTPHost = getEnv("SMTP_HOST", c.Notify.SMTPHost)
	c.Notify.SMTPPort = getEnv("SMTP_PORT", c.Notify.SMTPPort)
	c.Notify.SMTPUser = getEnv("SMTP_USER", c.Notify.SMTPUser)
	c.Notify.SMTPPassword = getEnv("SMTP_PASSWORD", c.Notify.SMTPPassword)
	c.Notify.EmailFrom = getEnv("EMAIL_FROM", c.Notify.EmailFrom)
	c.Notify.TwilioBaseURL = getEnv("TWILIO_BASE_URL", c.Notify.TwilioBaseURL)
	c.Notify.TwilioSID = getEnv("TWILIO_ACCOUNT_SID", c.Notify.TwilioSID)
	c.Notify.TwilioToken = getEnv("TWILIO_AUTH_TOKEN", c.Notify.TwilioToken)
	c.Notify.SMSFrom = getEnv("SMS_FROM", c.Notify.SMSFrom)

	c.Log.Env = getEnv("APP_ENV", c.Log.Env)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// SnapshotClock parses At into hour and minute, defaulting to 16:30
func (s SnapshotConfig) SnapshotClock() (hour, minute int) {
	t, err := time.Parse("15:04", s.At)
	if err != nil {
		return 16, 30
	}
	return t.Hour(), t.Minute()
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
