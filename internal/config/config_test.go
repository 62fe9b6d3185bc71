package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, CartStorePostgres, cfg.CartStore)
	assert.Equal(t, EventsNone, cfg.EventsDriver)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CART_STORE", "Redis")
	t.Setenv("EVENTS_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, CartStoreRedis, cfg.CartStore)
	assert.Equal(t, EventsKafka, cfg.EventsDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadRejectsUnknownDrivers(t *testing.T) {
	t.Setenv("EVENTS_DRIVER", "pigeon")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("EVENTS_DRIVER", "none")
	t.Setenv("CART_STORE", "memcached")
	_, err = Load()
	require.Error(t, err)
}

func TestRedactedMasksCredentials(t *testing.T) {
	cfg := Config{
		DBConnString:  "postgres://bazaar:secret@db:5432/bazaar?sslmode=disable",
		CartStore:     CartStoreRedis,
		RedisPassword: "hunter2",
		EventsDriver:  EventsRabbitMQ,
		AMQPURL:       "amqp://guest:guest@mq:5672/",
	}

	out := cfg.Redacted()

	assert.Equal(t, "postgres://bazaar:xxxxx@db:5432/bazaar?sslmode=disable", out["DB_DSN"])
	assert.Equal(t, "xxxxx", out["REDIS_PASSWORD"])
	assert.Equal(t, "amqp://guest:xxxxx@mq:5672/", out["AMQP_URL"])
	assert.NotContains(t, out, "KAFKA_BROKERS")
}
