// Package health probes the backing services the API depends on.
package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"localbazaar/internal/logging"
)

// Probe checks one dependency and returns nil when it is reachable.
type Probe func(ctx context.Context) error

// Result is the outcome of a single probe.
type Result struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// Checker runs a set of named probes concurrently.
type Checker struct {
	probes  map[string]Probe
	timeout time.Duration
	logger  *zap.Logger
}

func NewChecker(timeout time.Duration, logger *zap.Logger) *Checker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Checker{
		probes:  make(map[string]Probe),
		timeout: timeout,
		logger:  logging.OrNop(logger).Named("health"),
	}
}

// Register adds or replaces the probe under name.
func (c *Checker) Register(name string, p Probe) {
	c.probes[name] = p
}

// Run executes every probe with the checker timeout. Results are sorted by
// name; the returned error is non-nil when any probe failed.
func (c *Checker) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, len(c.probes))
	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		probe := c.probes[name]
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, c.timeout)
			defer cancel()
			start := time.Now()
			err := probe(pctx)
			results[i] = Result{Name: name, OK: err == nil, Latency: time.Since(start)}
			if err != nil {
				results[i].Error = err.Error()
				c.logger.Warn("probe failed", zap.String("probe", name), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if !r.OK {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Error))
		}
	}
	return results, errors.Join(errs...)
}

// rowQuerier is satisfied by *pgxpool.Pool.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func Postgres(db rowQuerier) Probe {
	return func(ctx context.Context) error {
		var one int
		if err := db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
			return fmt.Errorf("select 1: %w", err)
		}
		if one != 1 {
			return fmt.Errorf("select 1 returned %d", one)
		}
		return nil
	}
}

func Redis(client redis.UniversalClient) Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Kafka dials each broker and fails on the first unreachable one.
func Kafka(brokers []string) Probe {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("no brokers configured")
		}
		for _, b := range brokers {
			conn, err := kafka.DialContext(ctx, "tcp", b)
			if err != nil {
				return fmt.Errorf("dial %s: %w", b, err)
			}
			_ = conn.Close()
		}
		return nil
	}
}

func RabbitMQ(url string) Probe {
	return func(ctx context.Context) error {
		conn, err := amqp.DialConfig(url, amqp.Config{
			Dial: amqp.DefaultDial(timeoutFrom(ctx)),
		})
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

func timeoutFrom(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 3 * time.Second
}
