package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/shopping-cart/internal/core/domain"
	"github.com/rl1809/shopping-cart/internal/port"
)

// Mock CartRepository with the same uniqueness constraint the real store
// enforces on (owner, product).
type mockCartRepo struct {
	mu        sync.Mutex
	items     map[string]*domain.LineItem // by id
	order     []string                    // insertion order
	findCalls int
	hideOnce  bool // next FindByOwnerAndProduct reports no row, to simulate a lost race
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{items: make(map[string]*domain.LineItem)}
}

func (m *mockCartRepo) FindByOwnerAndProduct(_ context.Context, ownerID, productID string) (*domain.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.hideOnce {
		m.hideOnce = false
		return nil, nil
	}
	for _, id := range m.order {
		item := m.items[id]
		if item.OwnerID == ownerID && item.ProductID == productID {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockCartRepo) FindByID(_ context.Context, ownerID, itemID string) (*domain.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.OwnerID != ownerID {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (m *mockCartRepo) FindAllByOwner(_ context.Context, ownerID string) ([]domain.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LineItem
	for _, id := range m.order {
		if m.items[id].OwnerID == ownerID {
			out = append(out, *m.items[id])
		}
	}
	return out, nil
}

func (m *mockCartRepo) Insert(_ context.Context, item domain.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		existing := m.items[id]
		if existing.OwnerID == item.OwnerID && existing.ProductID == item.ProductID {
			return port.ErrDuplicateItem
		}
	}
	cp := item
	m.items[item.ID] = &cp
	m.order = append(m.order, item.ID)
	return nil
}

func (m *mockCartRepo) AddQuantity(_ context.Context, ownerID, productID string, delta int) (*domain.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		item := m.items[id]
		if item.OwnerID == ownerID && item.ProductID == productID {
			item.Quantity += delta
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockCartRepo) UpdateQuantity(_ context.Context, ownerID, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[itemID]; ok && item.OwnerID == ownerID {
		item.Quantity = quantity
	}
	return nil
}

func (m *mockCartRepo) DeleteByID(_ context.Context, ownerID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.OwnerID != ownerID {
		return port.ErrNotFound
	}
	delete(m.items, itemID)
	for i, id := range m.order {
		if id == itemID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockCartRepo) DeleteAllByOwner(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []string
	for _, id := range m.order {
		if m.items[id].OwnerID == ownerID {
			delete(m.items, id)
		} else {
			kept = append(kept, id)
		}
	}
	m.order = kept
	return nil
}

type mockCatalog struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{products: make(map[string]domain.Product)}
}

func (m *mockCatalog) put(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *mockCatalog) remove(productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, productID)
}

func (m *mockCatalog) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService() (*CartService, *mockCartRepo, *mockCatalog) {
	repo := newMockCartRepo()
	cat := newMockCatalog()
	cat.put(domain.Product{ID: "apple", Name: "Apple", Price: price("10.00"), Image: "apple.png"})
	cat.put(domain.Product{ID: "pear", Name: "Pear", Price: price("4.50"), Image: "pear.png"})
	return NewCartService(repo, cat), repo, cat
}

func TestAdd_CreatesItemWithSnapshot(t *testing.T) {
	svc, _, _ := newTestService()

	item, err := svc.Add(context.Background(), "alice", "apple", 2)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "alice", item.OwnerID)
	assert.Equal(t, "apple", item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.PriceSnapshot.Equal(price("10.00")), "snapshot %s", item.PriceSnapshot)
	assert.Equal(t, "Apple", item.ProductName)
	assert.True(t, item.UnitPrice.Equal(price("10.00")))
}

func TestAdd_MergesQuantityKeepsFirstSnapshot(t *testing.T) {
	svc, _, cat := newTestService()
	ctx := context.Background()

	first, err := svc.Add(ctx, "alice", "apple", 1)
	require.NoError(t, err)

	// Catalog price changes after the first add
	cat.put(domain.Product{ID: "apple", Name: "Apple", Price: price("15.00"), Image: "apple.png"})

	second, err := svc.Add(ctx, "alice", "apple", 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "repeated add must merge into the same row")
	assert.Equal(t, 4, second.Quantity)
	assert.True(t, second.PriceSnapshot.Equal(price("10.00")), "snapshot must stay at the first-add price")
	assert.True(t, second.UnitPrice.Equal(price("15.00")), "live price is for display")

	cart, err := svc.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
}

func TestAdd_InvalidQuantity(t *testing.T) {
	svc, repo, _ := newTestService()

	for _, q := range []int{0, -1, -100} {
		_, err := svc.Add(context.Background(), "alice", "apple", q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}

	assert.Zero(t, repo.findCalls, "validation failures must not touch the store")
	items, _ := repo.FindAllByOwner(context.Background(), "alice")
	assert.Empty(t, items)
}

func TestAdd_EmptyProductID(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Add(context.Background(), "alice", "", 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestAdd_ProductNotFound(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Add(context.Background(), "alice", "no-such-product", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	items, _ := repo.FindAllByOwner(context.Background(), "alice")
	assert.Empty(t, items)
}

func TestAdd_DuplicateRaceRecoversAsMerge(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice", "apple", 1)
	require.NoError(t, err)

	// Next read misses the existing row, so the insert hits the uniqueness
	// constraint and the add must retry as a merge.
	repo.mu.Lock()
	repo.hideOnce = true
	repo.mu.Unlock()

	item, err := svc.Add(ctx, "alice", "apple", 2)
	require.NoError(t, err, "duplicate conflict must never reach the caller")
	assert.Equal(t, 3, item.Quantity)

	items, _ := repo.FindAllByOwner(ctx, "alice")
	require.Len(t, items, 1)
}

func TestAdd_Concurrent(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	totalRequests := 50

	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, "alice", "apple", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, _ := repo.FindAllByOwner(ctx, "alice")
	require.Len(t, items, 1, "concurrent adds must not create duplicate rows")
	assert.Equal(t, totalRequests, items[0].Quantity)
}

func TestFetch_EmptyCart(t *testing.T) {
	svc, _, _ := newTestService()

	cart, err := svc.Fetch(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestFetch_TotalUsesSnapshotNotLivePrice(t *testing.T) {
	svc, _, cat := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice", "apple", 2)
	require.NoError(t, err)

	cat.put(domain.Product{ID: "apple", Name: "Apple", Price: price("15.00"), Image: "apple.png"})

	cart, err := svc.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	assert.True(t, cart.Items[0].UnitPrice.Equal(price("15.00")), "display price is live")
	assert.True(t, cart.Items[0].PriceSnapshot.Equal(price("10.00")))
	assert.True(t, cart.Total.Equal(price("20.00")), "total %s must use the snapshot", cart.Total)
}

func TestFetch_ProductGoneFromCatalog(t *testing.T) {
	svc, _, cat := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice", "apple", 1)
	require.NoError(t, err)

	cat.remove("apple")

	cart, err := svc.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Empty(t, cart.Items[0].ProductName)
	assert.True(t, cart.Items[0].PriceSnapshot.Equal(price("10.00")), "snapshot outlives the catalog entry")
}

func TestUpdateQuantity_SetsQuantity(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	added, err := svc.Add(ctx, "alice", "apple", 1)
	require.NoError(t, err)

	item, err := svc.UpdateQuantity(ctx, "alice", added.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 5, item.Quantity)
	assert.True(t, item.PriceSnapshot.Equal(price("10.00")))
}

func TestUpdateQuantity_ZeroRemovesItem(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	added, err := svc.Add(ctx, "alice", "apple", 3)
	require.NoError(t, err)

	item, err := svc.UpdateQuantity(ctx, "alice", added.ID, 0)
	require.NoError(t, err, "removal via the update path is not an error")
	assert.Nil(t, item)

	cart, err := svc.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestUpdateQuantity_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.UpdateQuantity(context.Background(), "alice", "missing-id", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateQuantity_CrossOwnerIsolation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	added, err := svc.Add(ctx, "alice", "apple", 2)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "bob", added.ID, 99)
	assert.ErrorIs(t, err, ErrItemNotFound, "another owner's item id must look absent")

	cart, err := svc.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity, "the foreign update must not touch the row")
}

func TestRemove_SecondCallNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	added, err := svc.Add(ctx, "alice", "apple", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "alice", added.ID))

	err = svc.Remove(ctx, "alice", added.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemove_CrossOwnerIsolation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	added, err := svc.Add(ctx, "alice", "apple", 1)
	require.NoError(t, err)

	err = svc.Remove(ctx, "bob", added.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	cart, _ := svc.Fetch(ctx, "alice")
	assert.Len(t, cart.Items, 1)
}

func TestClear_EmptyCartIsNoop(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Clear(ctx, "alice"))
	require.NoError(t, svc.Clear(ctx, "alice"), "clear is idempotent")

	cart, err := svc.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClear_RemovesOnlyOwnersItems(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice", "apple", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "alice", "pear", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "bob", "apple", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "alice"))

	aliceCart, _ := svc.Fetch(ctx, "alice")
	assert.Empty(t, aliceCart.Items)

	bobCart, _ := svc.Fetch(ctx, "bob")
	assert.Len(t, bobCart.Items, 1)
}
