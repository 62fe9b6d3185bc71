package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localbazaar/internal/domain"
)

type memoryRepo struct {
	carts    map[int64][]domain.CartItem
	getErr   error
	removed  []int64
	clearErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{carts: make(map[int64][]domain.CartItem)}
}

func (r *memoryRepo) Get(_ context.Context, customerID int64) (*domain.Cart, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	items := append([]domain.CartItem(nil), r.carts[customerID]...)
	return &domain.Cart{CustomerID: customerID, Items: items}, nil
}

func (r *memoryRepo) AddItem(_ context.Context, customerID, productID int64, quantity int) (int, error) {
	items := r.carts[customerID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return items[i].Quantity, nil
		}
	}
	r.carts[customerID] = append(items, domain.CartItem{ProductID: productID, Quantity: quantity, AddedAt: time.Now()})
	return quantity, nil
}

func (r *memoryRepo) SetQuantity(_ context.Context, customerID, productID int64, quantity int) error {
	items := r.carts[customerID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memoryRepo) RemoveItem(_ context.Context, customerID, productID int64) error {
	items := r.carts[customerID]
	for i := range items {
		if items[i].ProductID == productID {
			r.carts[customerID] = append(items[:i], items[i+1:]...)
			r.removed = append(r.removed, productID)
			return nil
		}
	}
	return nil
}

func (r *memoryRepo) Clear(_ context.Context, customerID int64) error {
	if r.clearErr != nil {
		return r.clearErr
	}
	delete(r.carts, customerID)
	return nil
}

func (r *memoryRepo) Take(_ context.Context, customerID int64) (*domain.Cart, error) {
	items := r.carts[customerID]
	delete(r.carts, customerID)
	return &domain.Cart{CustomerID: customerID, Items: items}, nil
}

func (r *memoryRepo) Restore(_ context.Context, cart domain.Cart) error {
	for _, it := range cart.Items {
		if _, ok := (domain.Cart{Items: r.carts[cart.CustomerID]}).Find(it.ProductID); !ok {
			r.carts[cart.CustomerID] = append(r.carts[cart.CustomerID], it)
		}
	}
	return nil
}

type stubProducts struct {
	byID map[int64]domain.Product
	err  error
}

func (s *stubProducts) Lookup(_ context.Context, id int64) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func product(id int64, price string, active bool) domain.Product {
	return domain.Product{ID: id, Name: "p", Price: decimal.RequireFromString(price), IsActive: active, ShopActive: true}
}

func newFixture() (*Service, *memoryRepo, *stubProducts) {
	repo := newMemoryRepo()
	products := &stubProducts{byID: map[int64]domain.Product{
		1: product(1, "19.99", true),
		2: product(2, "0.10", true),
		3: product(3, "5.00", false),
	}}
	return New(repo, products, nil), repo, products
}

func TestAddItem_SumsQuantities(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	assert.Equal(t, "59.97", cart.Total.StringFixed(2))
}

func TestAddItem_Validation(t *testing.T) {
	svc, repo, _ := newFixture()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 0)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuantity))

	_, err = svc.AddItem(ctx, 7, 42, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.AddItem(ctx, 7, 3, 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, domain.HasCode(err, domain.CodeProductInactive))

	assert.Empty(t, repo.carts[7])
}

func TestUpdateItem(t *testing.T) {
	svc, repo, _ := newFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)

	cart, err := svc.UpdateItem(ctx, 7, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Lines[0].Quantity)

	_, err = svc.UpdateItem(ctx, 7, 1, -1)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuantity))

	_, err = svc.UpdateItem(ctx, 7, 2, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound, "updating a line that was never added")

	cart, err = svc.UpdateItem(ctx, 7, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Empty(t, repo.carts[7])
}

func TestRemoveItem_Idempotent(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 7, 2, 1)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		cart, err := svc.RemoveItem(ctx, 7, 2)
		require.NoError(t, err)
		assert.Empty(t, cart.Lines)
	}
}

func TestPrice_PrunesUnavailableProducts(t *testing.T) {
	svc, repo, products := newFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 7, 1, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 7, 2, 1)
	require.NoError(t, err)

	delete(products.byID, 1)
	cart, err := svc.Price(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, cart.Pruned)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(2), cart.Lines[0].Product.ID)
	assert.Equal(t, "0.10", cart.Total.StringFixed(2))
	assert.Equal(t, []int64{1}, repo.removed)

	p := products.byID[2]
	p.ShopActive = false
	products.byID[2] = p
	cart, err = svc.Price(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.True(t, cart.Total.IsZero())
}

func TestPrice_UsesCurrentCatalogPrice(t *testing.T) {
	svc, _, products := newFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)

	p := products.byID[1]
	p.Price = decimal.RequireFromString("25.00")
	products.byID[1] = p

	cart, err := svc.Price(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "50.00", cart.Total.StringFixed(2))
	assert.Equal(t, 2, cart.ItemCount())
}

func TestPrice_PropagatesLookupFailure(t *testing.T) {
	svc, _, products := newFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)

	boom := errors.New("db down")
	products.err = boom
	_, err = svc.Price(ctx, 7)
	assert.ErrorIs(t, err, boom)
}

func TestClear(t *testing.T) {
	svc, repo, _ := newFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 7, 1, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, 7))
	assert.Empty(t, repo.carts[7])
	require.NoError(t, svc.Clear(ctx, 7))

	repo.clearErr = errors.New("redis unavailable")
	assert.Error(t, svc.Clear(ctx, 7))
}

func TestAddItem_QuantityCap(t *testing.T) {
	svc, repo, _ := newFixture()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 7, 1, 2147483647)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuantity))
	assert.Empty(t, repo.carts[7])

	_, err = svc.AddItem(ctx, 7, 1, domain.MaxLineQuantity)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 7, 1, 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuantity))
	assert.Equal(t, domain.MaxLineQuantity, repo.carts[7][0].Quantity)

	_, err = svc.UpdateItem(ctx, 7, 1, domain.MaxLineQuantity+1)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuantity))
}

func TestTakeAndRestore(t *testing.T) {
	svc, repo, products := newFixture()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 7, 1, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 7, 2, 1)
	require.NoError(t, err)

	delete(products.byID, 2)
	taken, err := svc.Take(ctx, 7)
	require.NoError(t, err)
	require.Len(t, taken.Lines, 1)
	assert.Equal(t, []int64{2}, taken.Pruned)
	assert.Equal(t, "39.98", taken.Total.StringFixed(2))
	assert.Empty(t, repo.carts[7])

	again, err := svc.Take(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, again.Lines)

	require.NoError(t, svc.Restore(ctx, *taken))
	require.NoError(t, svc.Restore(ctx, *taken))
	require.Len(t, repo.carts[7], 1)
	assert.Equal(t, 2, repo.carts[7][0].Quantity)
}
