// Package config loads service configuration from the environment.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	loadDotEnv(".env")
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		// Remove surrounding quotes
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

const (
	defaultPort        = "4400"
	defaultEnvironment = "development"
	defaultLogLevel    = "info"

	defaultRedisAddr    = "localhost:6379"
	defaultEventChannel = "groundcrew:events"

	defaultMQTTClientID = "groundcrew-ingest"
	defaultMQTTTopic    = "groundcrew/headcounts/#"

	defaultNotifyBatchSize   = 50
	defaultNotifyMaxAttempts = 3
	defaultNotifyInterval    = 30 * time.Second
)

// RedisConfig configures the pub/sub event fan-out.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	EventChannel string
}

// MQTTConfig configures the crowd-sensor headcount feed. Ingest is disabled
// when Broker is empty.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// IdentityConfig points at the external identity provider.
type IdentityConfig struct {
	BaseURL string
	APIKey  string
}

// BlobConfig points at the external blob storage service.
type BlobConfig struct {
	BaseURL string
	APIKey  string
}

// NotifyConfig tunes the notification dispatch worker. Dispatch is disabled
// when ProviderURL is empty.
type NotifyConfig struct {
	ProviderURL string
	APIKey      string
	BatchSize   int
	MaxAttempts int
	Interval    time.Duration
}

// Config is the full server configuration.
type Config struct {
	Port        string
	DatabaseURL string
	Environment string
	LogLevel    string
	Redis       RedisConfig
	MQTT        MQTTConfig
	Identity    IdentityConfig
	Blob        BlobConfig
	Notify      NotifyConfig
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Port:        getEnv("PORT", defaultPort),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Environment: getEnv("ENVIRONMENT", defaultEnvironment),
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel),
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", defaultRedisAddr),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           getEnvInt("REDIS_DB", 0),
			EventChannel: getEnv("REDIS_EVENT_CHANNEL", defaultEventChannel),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			ClientID: getEnv("MQTT_CLIENT_ID", defaultMQTTClientID),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
			Topic:    getEnv("MQTT_HEADCOUNT_TOPIC", defaultMQTTTopic),
		},
		Identity: IdentityConfig{
			BaseURL: os.Getenv("IDENTITY_BASE_URL"),
			APIKey:  os.Getenv("IDENTITY_API_KEY"),
		},
		Blob: BlobConfig{
			BaseURL: os.Getenv("BLOB_BASE_URL"),
			APIKey:  os.Getenv("BLOB_API_KEY"),
		},
		Notify: NotifyConfig{
			ProviderURL: os.Getenv("NOTIFY_PROVIDER_URL"),
			APIKey:      os.Getenv("NOTIFY_PROVIDER_API_KEY"),
			BatchSize:   getEnvInt("NOTIFY_BATCH_SIZE", defaultNotifyBatchSize),
			MaxAttempts: getEnvInt("NOTIFY_MAX_ATTEMPTS", defaultNotifyMaxAttempts),
			Interval:    getEnvDuration("NOTIFY_INTERVAL", defaultNotifyInterval),
		},
	}
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
