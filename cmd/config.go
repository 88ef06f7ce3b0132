package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTPHost string
	HTTPPort int

	StorageDriver     string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSslMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	KafkaBrokers           []string
	KafkaOrderChangedTopic string
	KafkaWriteTimeout      time.Duration
	KafkaQueueSize         int

	RabbitURL            string
	RabbitExchange       string
	NotificationChannels []string
	NotificationTimeout  time.Duration

	CacheEnabled      bool
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisPrefix       string
	AnalyticsCacheTTL time.Duration

	MatchWeightLocation float64
	MatchWeightHeadroom float64
	MatchWeightRating   float64

	JobsEnabled   bool
	SweepSpec     string
	SweepBatch    int
	ReconcileSpec string
	JobTimeout    time.Duration

	LogLevel    string
	LogEncoding string
	ServiceName string
	Environment string
}

var loadEnvOnce sync.Once

// LoadConfig reads the environment, after merging an optional .env file.
func LoadConfig() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	cfg := Config{
		HTTPHost: getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort: getEnvAsInt("HTTP_PORT", 8080),

		StorageDriver:     getEnv("STORAGE_DRIVER", StoragePostgres),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "fulfillment"),
		DBPassword:        getEnv("DB_PASSWORD", "fulfillment"),
		DBName:            getEnv("DB_NAME", "fulfillment"),
		DBSslMode:         getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		KafkaBrokers:           getEnvAsStringSlice("KAFKA_BROKERS", nil),
		KafkaOrderChangedTopic: getEnv("KAFKA_ORDER_CHANGED_TOPIC", "orders.status_changed"),
		KafkaWriteTimeout:      getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
		KafkaQueueSize:         getEnvAsInt("KAFKA_QUEUE_SIZE", 1024),

		RabbitURL:            getEnv("RABBITMQ_URL", ""),
		RabbitExchange:       getEnv("RABBITMQ_EXCHANGE", "notifications"),
		NotificationChannels: getEnvAsStringSlice("NOTIFICATION_CHANNELS", []string{"email", "whatsapp"}),
		NotificationTimeout:  getEnvAsDuration("NOTIFICATION_TIMEOUT", 10*time.Second),

		CacheEnabled:      getEnvAsBool("CACHE_ENABLED", false),
		RedisAddr:         getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		RedisPrefix:       getEnv("REDIS_PREFIX", "fulfillment:analytics:"),
		AnalyticsCacheTTL: getEnvAsDuration("ANALYTICS_CACHE_TTL", time.Minute),

		MatchWeightLocation: getEnvAsFloat("MATCH_WEIGHT_LOCATION", 0.5),
		MatchWeightHeadroom: getEnvAsFloat("MATCH_WEIGHT_HEADROOM", 0.3),
		MatchWeightRating:   getEnvAsFloat("MATCH_WEIGHT_RATING", 0.2),

		JobsEnabled:   getEnvAsBool("JOBS_ENABLED", true),
		SweepSpec:     getEnv("JOB_SWEEP_SPEC", "*/30 * * * * *"),
		SweepBatch:    getEnvAsInt("JOB_SWEEP_BATCH", 100),
		ReconcileSpec: getEnv("JOB_RECONCILE_SPEC", "0 */15 * * * *"),
		JobTimeout:    getEnvAsDuration("JOB_TIMEOUT", time.Minute),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),
		ServiceName: getEnv("SERVICE_NAME", "fulfillment"),
		Environment: getEnv("ENVIRONMENT", "local"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.StorageDriver)
	}
	if c.CacheEnabled && c.RedisAddr == "" {
		return fmt.Errorf("missing REDIS_ADDR for analytics cache")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaOrderChangedTopic == "" {
		return fmt.Errorf("missing KAFKA_ORDER_CHANGED_TOPIC for kafka events")
	}
	if c.KafkaQueueSize <= 0 {
		return fmt.Errorf("invalid kafka queue size: %d", c.KafkaQueueSize)
	}
	if c.SweepBatch <= 0 {
		return fmt.Errorf("invalid sweep batch: %d", c.SweepBatch)
	}
	return nil
}

// DSN is the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
