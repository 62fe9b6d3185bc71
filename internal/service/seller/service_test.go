package seller

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localbazaar/internal/domain"
	shoprepo "localbazaar/internal/repository/shop"
)

type memoryShops struct {
	items map[int64]domain.Shop
}

func (m *memoryShops) List(_ context.Context, f shoprepo.ListFilter) ([]domain.Shop, error) {
	var out []domain.Shop
	for id := int64(1); id <= int64(len(m.items)); id++ {
		s, ok := m.items[id]
		if !ok || (f.SellerID != nil && s.SellerID != *f.SellerID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryShops) GetByID(_ context.Context, id int64) (*domain.Shop, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memoryShops) Create(_ context.Context, s domain.Shop) (*domain.Shop, error) {
	s.ID = int64(len(m.items) + 1)
	m.items[s.ID] = s
	return &s, nil
}

func (m *memoryShops) Update(_ context.Context, s domain.Shop) (*domain.Shop, error) {
	m.items[s.ID] = s
	return &s, nil
}

type memoryProducts struct {
	items map[int64]domain.Product
	shops *memoryShops
}

func (m *memoryProducts) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	var out []domain.Product
	for id := int64(1); id <= int64(len(m.items)); id++ {
		p := m.items[id]
		if f.SellerID != nil && m.shops.items[p.ShopID].SellerID != *f.SellerID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memoryProducts) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	p.ID = int64(len(m.items) + 1)
	m.items[p.ID] = p
	return &p, nil
}

func (m *memoryProducts) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	m.items[p.ID] = p
	return &p, nil
}

func (m *memoryProducts) LowStock(_ context.Context, sellerID int64, threshold int) ([]domain.Product, error) {
	var out []domain.Product
	for id := int64(1); id <= int64(len(m.items)); id++ {
		p := m.items[id]
		if m.shops.items[p.ShopID].SellerID == sellerID && p.StockQuantity <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProducts) Reserve(context.Context, int64, int) (int, error) { return 0, nil }
func (m *memoryProducts) Release(context.Context, int64, int) (int, error) { return 0, nil }

func (m *memoryProducts) SetStock(_ context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return domain.Validation(domain.CodeInvalidQuantity, "negative stock")
	}
	p := m.items[productID]
	p.StockQuantity = quantity
	m.items[productID] = p
	return nil
}

type memoryCategories struct {
	items []domain.Category
}

func (m *memoryCategories) List(context.Context) ([]domain.Category, error) { return m.items, nil }

func (m *memoryCategories) GetByName(_ context.Context, name string) (*domain.Category, error) {
	for _, c := range m.items {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryCategories) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	if existing, err := m.GetByName(context.Background(), c.Name); err == nil {
		return existing, nil
	}
	c.ID = int64(len(m.items) + 1)
	m.items = append(m.items, c)
	return &c, nil
}

type stubSales struct {
	summary domain.SalesSummary
}

func (s stubSales) SalesSummary(context.Context, int64) (domain.SalesSummary, error) {
	return s.summary, nil
}

type directTx struct{ calls int }

func (d *directTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	d.calls++
	return fn(ctx)
}

type fixture struct {
	svc        *Service
	shops      *memoryShops
	products   *memoryProducts
	categories *memoryCategories
	tx         *directTx
}

const (
	sellerA int64 = 1
	sellerB int64 = 2
)

func newFixture() *fixture {
	shops := &memoryShops{items: map[int64]domain.Shop{
		1: {ID: 1, SellerID: sellerA, Name: "A's shop", IsActive: true},
		2: {ID: 2, SellerID: sellerB, Name: "B's shop", IsActive: true},
	}}
	products := &memoryProducts{shops: shops, items: map[int64]domain.Product{
		1: {ID: 1, ShopID: 1, Name: "Mug", Price: decimal.RequireFromString("10"), StockQuantity: 2, IsActive: true},
		2: {ID: 2, ShopID: 2, Name: "Bowl", Price: decimal.RequireFromString("20"), StockQuantity: 9, IsActive: true},
	}}
	f := &fixture{shops: shops, products: products, categories: &memoryCategories{}, tx: &directTx{}}
	f.svc = New(Deps{
		Shops:             shops,
		Products:          products,
		Categories:        f.categories,
		Stock:             products,
		Sales:             stubSales{summary: domain.SalesSummary{Orders: 2, UnitsSold: 5, Revenue: decimal.RequireFromString("42.50")}},
		Tx:                f.tx,
		LowStockThreshold: 5,
	}, nil)
	return f
}

func TestCreateShop(t *testing.T) {
	f := newFixture()
	shop, err := f.svc.CreateShop(context.Background(), sellerA, ShopInput{Name: "  Second ", Location: "Harbour"})
	require.NoError(t, err)
	assert.Equal(t, "Second", shop.Name)
	assert.Equal(t, sellerA, shop.SellerID)
	assert.True(t, shop.IsActive)

	_, err = f.svc.CreateShop(context.Background(), sellerA, ShopInput{})
	assert.True(t, domain.HasCode(err, domain.CodeMissingField))
}

func TestUpdateShop_OwnerOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inactive := false

	_, err := f.svc.UpdateShop(ctx, sellerB, 1, ShopPatch{IsActive: &inactive})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	shop, err := f.svc.UpdateShop(ctx, sellerA, 1, ShopPatch{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, shop.IsActive)

	_, err = f.svc.UpdateShop(ctx, sellerA, 99, ShopPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.svc.CreateProduct(ctx, sellerA, ProductInput{
		ShopID:        1,
		Category:      "Crafts",
		Name:          "Vase",
		Price:         decimal.RequireFromString("15.25"),
		StockQuantity: 4,
	})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	require.NotNil(t, p.CategoryID)
	assert.Len(t, f.categories.items, 1)

	_, err = f.svc.CreateProduct(ctx, sellerA, ProductInput{ShopID: 2, Name: "x", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CreateProduct(ctx, sellerA, ProductInput{ShopID: 1, Name: "x", Price: decimal.RequireFromString("1.001")})
	assert.True(t, domain.HasCode(err, domain.CodeInvalidField))

	_, err = f.svc.CreateProduct(ctx, sellerA, ProductInput{ShopID: 1, Name: "x", Price: decimal.NewFromInt(1), StockQuantity: -1})
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuantity))

	_, err = f.svc.CreateProduct(ctx, sellerA, ProductInput{Name: "x", Price: decimal.NewFromInt(1)})
	assert.True(t, domain.HasCode(err, domain.CodeMissingField))
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	price := decimal.RequireFromString("11.00")
	inactive := false

	p, err := f.svc.UpdateProduct(ctx, sellerA, 1, ProductPatch{Price: &price, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "11.00", p.Price.StringFixed(2))
	assert.False(t, p.IsActive)

	_, err = f.svc.UpdateProduct(ctx, sellerA, 2, ProductPatch{Price: &price})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSetStockAndLowStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	low, err := f.svc.LowStock(ctx, sellerA, -1)
	require.NoError(t, err)
	require.Len(t, low, 1)

	p, err := f.svc.SetStock(ctx, sellerA, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, p.StockQuantity)

	low, err = f.svc.LowStock(ctx, sellerA, -1)
	require.NoError(t, err)
	assert.Empty(t, low)

	low, err = f.svc.LowStock(ctx, sellerA, 30)
	require.NoError(t, err)
	assert.Len(t, low, 1)

	_, err = f.svc.SetStock(ctx, sellerA, 2, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.SetStock(ctx, sellerA, 1, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListProducts_IncludesInactive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inactive := false
	_, err := f.svc.UpdateProduct(ctx, sellerA, 1, ProductPatch{IsActive: &inactive})
	require.NoError(t, err)

	got, err := f.svc.ListProducts(ctx, sellerA)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsActive)
}

func TestBulkUpload(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	csv := "name,description,price,stock_quantity,category,is_active\n" +
		"Plate,Stoneware,14.00,8,Crafts,true\n" +
		"Jug,,22.50,1,crafts,false\n"

	created, err := f.svc.BulkUpload(ctx, sellerA, 1, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, 1, f.tx.calls)
	assert.Equal(t, int64(1), created[0].ShopID)
	assert.Len(t, f.categories.items, 1)

	_, err = f.svc.BulkUpload(ctx, sellerA, 2, strings.NewReader(csv))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSales(t *testing.T) {
	f := newFixture()
	got, err := f.svc.Sales(context.Background(), sellerA)
	require.NoError(t, err)
	assert.Equal(t, 5, got.UnitsSold)
	assert.Equal(t, "42.50", got.Revenue.StringFixed(2))
}
