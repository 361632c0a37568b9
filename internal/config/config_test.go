package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("NOTIFY_BATCH_SIZE", "")
	t.Setenv("NOTIFY_INTERVAL", "")

	cfg := Load()
	require.Equal(t, "4400", cfg.Port)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, "groundcrew:events", cfg.Redis.EventChannel)
	require.Equal(t, 50, cfg.Notify.BatchSize)
	require.Equal(t, 30*time.Second, cfg.Notify.Interval)
	require.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "5")
	t.Setenv("NOTIFY_INTERVAL", "10s")

	cfg := Load()
	require.Equal(t, "9000", cfg.Port)
	require.True(t, cfg.IsProduction())
	require.Equal(t, 3, cfg.Redis.DB)
	require.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	require.Equal(t, 5, cfg.Notify.MaxAttempts)
	require.Equal(t, 10*time.Second, cfg.Notify.Interval)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("NOTIFY_INTERVAL", "soon")

	cfg := Load()
	require.Equal(t, 0, cfg.Redis.DB)
	require.Equal(t, 30*time.Second, cfg.Notify.Interval)
}
