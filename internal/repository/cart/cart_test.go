package cart

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"localbazaar/internal/db"
	"localbazaar/internal/db/dbtest"
	"localbazaar/internal/domain"
)

func TestPostgres_CartLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	customer := dbtest.Customer(ctx, t, pool, "c@example.com")

	repo := NewPostgres(pool)
	exerciseRepository(ctx, t, repo, customer)

	_, err := repo.AddItem(ctx, customer, 7, domain.MaxLineQuantity)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, customer, 7, 1)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuantity))
	require.NoError(t, repo.Clear(ctx, customer))
}

func TestPostgres_ConcurrentTakeYieldsItemsOnce(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	customer := dbtest.Customer(ctx, t, pool, "take@example.com")
	repo := NewPostgres(pool)
	tx := db.NewTxRunner(pool)

	_, err := repo.AddItem(ctx, customer, 7, 2)
	require.NoError(t, err)

	counts := make([]int, 2)
	var g errgroup.Group
	for i := range counts {
		i := i
		g.Go(func() error {
			return tx.WithinTx(ctx, func(ctx context.Context) error {
				c, err := repo.Take(ctx, customer)
				if err != nil {
					return err
				}
				counts[i] = len(c.Items)
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())

	assert.ElementsMatch(t, []int{0, 1}, counts)
}

func TestRedis_CartLifecycle(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	const customer = int64(424242)
	repo := NewRedis(client, time.Minute)
	require.NoError(t, repo.Clear(ctx, customer))

	exerciseRepository(ctx, t, repo, customer)

	ttl, err := client.TTL(ctx, quantityKey(customer)).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

func exerciseRepository(ctx context.Context, t *testing.T, repo Repository, customer int64) {
	t.Helper()

	empty, err := repo.Get(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	qty, err := repo.AddItem(ctx, customer, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)
	qty, err = repo.AddItem(ctx, customer, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, qty)
	_, err = repo.AddItem(ctx, customer, 9, 1)
	require.NoError(t, err)

	cart, err := repo.Get(ctx, customer)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(7), cart.Items[0].ProductID)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, int64(9), cart.Items[1].ProductID)

	require.NoError(t, repo.SetQuantity(ctx, customer, 9, 4))
	assert.ErrorIs(t, repo.SetQuantity(ctx, customer, 99, 1), domain.ErrNotFound)

	require.NoError(t, repo.RemoveItem(ctx, customer, 7))
	require.NoError(t, repo.RemoveItem(ctx, customer, 7))

	cart, err = repo.Get(ctx, customer)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	require.NoError(t, repo.Clear(ctx, customer))
	cart, err = repo.Get(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = repo.AddItem(ctx, customer, 7, 2)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, customer, 9, 1)
	require.NoError(t, err)

	taken, err := repo.Take(ctx, customer)
	require.NoError(t, err)
	require.Len(t, taken.Items, 2)
	assert.Equal(t, int64(7), taken.Items[0].ProductID)
	assert.Equal(t, 2, taken.Items[0].Quantity)

	again, err := repo.Take(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, again.Items, "a taken cart is gone")

	require.NoError(t, repo.Restore(ctx, *taken))
	require.NoError(t, repo.Restore(ctx, *taken))
	cart, err = repo.Get(ctx, customer)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2, cart.Items[0].Quantity, "restoring twice must not add quantities")

	require.NoError(t, repo.Clear(ctx, customer))
}
