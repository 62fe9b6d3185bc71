package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRow struct {
	v   int
	err error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int)) = r.v
	return nil
}

type stubDB struct{ row stubRow }

func (s stubDB) QueryRow(context.Context, string, ...any) pgx.Row { return s.row }

func TestChecker_Run(t *testing.T) {
	c := NewChecker(time.Second, nil)
	c.Register("postgres", Postgres(stubDB{row: stubRow{v: 1}}))
	c.Register("broker", func(context.Context) error { return errors.New("connection refused") })

	results, err := c.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker: connection refused")
	require.Len(t, results, 2)
	assert.Equal(t, "broker", results[0].Name)
	assert.False(t, results[0].OK)
	assert.Equal(t, "postgres", results[1].Name)
	assert.True(t, results[1].OK)
}

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker(0, nil)
	c.Register("postgres", Postgres(stubDB{row: stubRow{v: 1}}))

	results, err := c.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
}

func TestChecker_ProbeTimeout(t *testing.T) {
	c := NewChecker(20*time.Millisecond, nil)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	_, err := c.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestPostgres_ScanError(t *testing.T) {
	err := Postgres(stubDB{row: stubRow{err: errors.New("boom")}})(context.Background())
	require.Error(t, err)

	err = Postgres(stubDB{row: stubRow{v: 2}})(context.Background())
	require.Error(t, err)
}

func TestKafka_NoBrokers(t *testing.T) {
	require.Error(t, Kafka(nil)(context.Background()))
}
