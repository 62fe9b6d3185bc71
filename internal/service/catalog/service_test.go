package catalog

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

type memoryProducts struct {
	items      []domain.Product
	lastFilter domain.ProductFilter
}

func (m *memoryProducts) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	m.lastFilter = f
	var out []domain.Product
	for _, p := range m.items {
		if !f.IncludeInactive && !p.Purchasable() {
			continue
		}
		if f.ShopID != nil && p.ShopID != *f.ShopID {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.Name), q) &&
				!strings.Contains(strings.ToLower(p.Description), q) &&
				!strings.Contains(strings.ToLower(p.ShopName), q) {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	for _, p := range m.items {
		if p.ID == id {
			clone := p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memoryShops struct {
	items []domain.Shop
}

func (m *memoryShops) List(_ context.Context, f shoprepo.ListFilter) ([]domain.Shop, error) {
	var out []domain.Shop
	for _, s := range m.items {
		if !f.IncludeInactive && !s.IsActive {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(s.Location), strings.ToLower(f.Location)) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryShops) GetByID(_ context.Context, id int64) (*domain.Shop, error) {
	for _, s := range m.items {
		if s.ID == id {
			clone := s
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memoryCategories struct {
	items []domain.Category
}

func (m *memoryCategories) List(context.Context) ([]domain.Category, error) { return m.items, nil }

func (m *memoryCategories) GetByName(_ context.Context, name string) (*domain.Category, error) {
	for _, c := range m.items {
		if strings.EqualFold(c.Name, name) {
			clone := c
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryCategories) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	m.items = append(m.items, c)
	return &c, nil
}

func newService() (*Service, *memoryProducts) {
	products := &memoryProducts{items: []domain.Product{
		{ID: 1, ShopID: 10, ShopName: "Riverside Pottery", ShopActive: true, Name: "Mug", Description: "Hand thrown", Price: decimal.RequireFromString("12.50"), IsActive: true},
		{ID: 2, ShopID: 10, ShopName: "Riverside Pottery", ShopActive: true, Name: "Bowl", Description: "Glazed", Price: decimal.RequireFromString("20"), IsActive: false},
		{ID: 3, ShopID: 11, ShopName: "Closed Bakery", ShopActive: false, Name: "Bread", Description: "Sourdough", Price: decimal.RequireFromString("4"), IsActive: true},
		{ID: 4, ShopID: 12, ShopName: "Green Grocer", ShopActive: true, Name: "Honey", Description: "Raw pottery-jar honey", Price: decimal.RequireFromString("9"), IsActive: true},
	}}
	shops := &memoryShops{items: []domain.Shop{
		{ID: 10, Name: "Riverside Pottery", Location: "Old Town", IsActive: true},
		{ID: 11, Name: "Closed Bakery", Location: "Harbour", IsActive: false},
		{ID: 12, Name: "Green Grocer", Location: "old town market", IsActive: true},
	}}
	svc := New(nil, nil, &memoryCategories{items: []domain.Category{{ID: 1, Name: "Crafts"}}}, nil)
	svc.products = products
	svc.shops = shops
	return svc, products
}

func TestGetProduct_HidesInactive(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	p, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)

	_, err = svc.GetProduct(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetProduct(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound, "product of an inactive shop")
	_, err = svc.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLookup_ReturnsInactive(t *testing.T) {
	svc, _ := newService()
	p, err := svc.Lookup(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
}

func TestSearch_MatchesNameDescriptionOrShop(t *testing.T) {
	svc, products := newService()
	ctx := context.Background()

	got, err := svc.Search(ctx, "  POTTERY ")
	require.NoError(t, err)
	assert.Equal(t, "pottery", strings.ToLower(products.lastFilter.Search))
	ids := make([]int64, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{1, 4}, ids)
}

func TestSearch_BlankQueryReturnsNothing(t *testing.T) {
	svc, _ := newService()
	got, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestShopProducts(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	got, err := svc.ShopProducts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	_, err = svc.ShopProducts(ctx, 11)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListShops_ByLocation(t *testing.T) {
	svc, _ := newService()
	got, err := svc.ListShops(context.Background(), "old town")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(10), got[0].ID)
	assert.Equal(t, int64(12), got[1].ID)
}

func TestProductsByCategory_RequiresName(t *testing.T) {
	svc, _ := newService()
	_, err := svc.ProductsByCategory(context.Background(), " ")
	assert.True(t, domain.HasCode(err, domain.CodeMissingField))
}
