package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"localbazaar/internal/domain"
)

// setIfPresent updates a quantity only when the line already exists.
var setIfPresent = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('PEXPIRE', KEYS[2], ARGV[3])
return 1
`)

type redisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis keeps carts in Redis: a hash of product->quantity plus a sorted
// set recording when each product was first added. Both keys expire after ttl
// of inactivity.
func NewRedis(client *redis.Client, ttl time.Duration) Repository {
	return &redisRepo{client: client, ttl: ttl}
}

func quantityKey(customerID int64) string { return fmt.Sprintf("cart:%d:qty", customerID) }
func orderKey(customerID int64) string    { return fmt.Sprintf("cart:%d:order", customerID) }

func (r *redisRepo) Get(ctx context.Context, customerID int64) (*domain.Cart, error) {
	var (
		qtyCmd   *redis.MapStringStringCmd
		orderCmd *redis.ZSliceCmd
	)
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		qtyCmd = p.HGetAll(ctx, quantityKey(customerID))
		orderCmd = p.ZRangeWithScores(ctx, orderKey(customerID), 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return decodeCart(customerID, qtyCmd.Val(), orderCmd.Val())
}

func decodeCart(customerID int64, quantities map[string]string, order []redis.Z) (*domain.Cart, error) {
	added := make(map[int64]time.Time)
	for _, z := range order {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		added[id] = time.UnixMicro(int64(z.Score)).UTC()
	}

	cart := domain.Cart{CustomerID: customerID}
	for field, raw := range quantities {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode cart product %q: %w", field, err)
		}
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decode cart quantity %q: %w", raw, err)
		}
		cart.Items = append(cart.Items, domain.CartItem{ProductID: id, Quantity: qty, AddedAt: added[id]})
	}
	sortItems(cart.Items)
	return &cart, nil
}

func (r *redisRepo) AddItem(ctx context.Context, customerID, productID int64, quantity int) (int, error) {
	field := strconv.FormatInt(productID, 10)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, quantityKey(customerID), field, int64(quantity))
		p.ZAddNX(ctx, orderKey(customerID), redis.Z{Score: float64(time.Now().UnixMicro()), Member: field})
		p.Expire(ctx, quantityKey(customerID), r.ttl)
		p.Expire(ctx, orderKey(customerID), r.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add cart item: %w", err)
	}
	return int(incr.Val()), nil
}

func (r *redisRepo) SetQuantity(ctx context.Context, customerID, productID int64, quantity int) error {
	keys := []string{quantityKey(customerID), orderKey(customerID)}
	updated, err := setIfPresent.Run(ctx, r.client, keys, productID, quantity, r.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("set cart quantity: %w", err)
	}
	if updated == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *redisRepo) RemoveItem(ctx context.Context, customerID, productID int64) error {
	field := strconv.FormatInt(productID, 10)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, quantityKey(customerID), field)
		p.ZRem(ctx, orderKey(customerID), field)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (r *redisRepo) Clear(ctx context.Context, customerID int64) error {
	if err := r.client.Del(ctx, quantityKey(customerID), orderKey(customerID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Take reads and deletes both keys in one MULTI/EXEC block.
func (r *redisRepo) Take(ctx context.Context, customerID int64) (*domain.Cart, error) {
	var (
		qtyCmd   *redis.MapStringStringCmd
		orderCmd *redis.ZSliceCmd
	)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		qtyCmd = p.HGetAll(ctx, quantityKey(customerID))
		orderCmd = p.ZRangeWithScores(ctx, orderKey(customerID), 0, -1)
		p.Del(ctx, quantityKey(customerID), orderKey(customerID))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("take cart: %w", err)
	}
	return decodeCart(customerID, qtyCmd.Val(), orderCmd.Val())
}

func (r *redisRepo) Restore(ctx context.Context, cart domain.Cart) error {
	if len(cart.Items) == 0 {
		return nil
	}
	qtyKey, ordKey := quantityKey(cart.CustomerID), orderKey(cart.CustomerID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, it := range cart.Items {
			field := strconv.FormatInt(it.ProductID, 10)
			p.HSetNX(ctx, qtyKey, field, it.Quantity)
			p.ZAddNX(ctx, ordKey, redis.Z{Score: float64(it.AddedAt.UnixMicro()), Member: field})
		}
		p.Expire(ctx, qtyKey, r.ttl)
		p.Expire(ctx, ordKey, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}
	return nil
}
