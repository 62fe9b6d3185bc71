// Command healthcheck probes every backing service named by the current
// configuration and exits non-zero when any is unreachable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"localbazaar/internal/config"
	"localbazaar/internal/db"
	"localbazaar/internal/health"
	"localbazaar/internal/logging"
)

type report struct {
	Config  map[string]string `json:"config"`
	Results []health.Result   `json:"results"`
	Healthy bool              `json:"healthy"`
}

func main() {
	timeout := flag.Duration("timeout", 3*time.Second, "Per-probe timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, "healthcheck")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	checker := health.NewChecker(*timeout, logger)

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		connErr := err
		checker.Register("postgres", func(context.Context) error { return connErr })
	} else {
		defer pool.Close()
		checker.Register("postgres", health.Postgres(pool))
	}

	if cfg.CartStore == config.CartStoreRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		checker.Register("redis", health.Redis(client))
	}

	switch cfg.EventsDriver {
	case config.EventsKafka:
		checker.Register("kafka", health.Kafka(cfg.KafkaBrokers))
	case config.EventsRabbitMQ:
		checker.Register("rabbitmq", health.RabbitMQ(cfg.AMQPURL))
	}

	results, runErr := checker.Run(ctx)
	out := report{Config: cfg.Redacted(), Results: results, Healthy: runErr == nil}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("write report", zap.Error(err))
	}
	if runErr != nil {
		logger.Sync()
		os.Exit(1)
	}
}
