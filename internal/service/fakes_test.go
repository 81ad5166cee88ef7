package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/cache"
	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/pricing"
	"github.com/robinhoot/robinhoot_api/internal/repository"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeProductStore is an in-memory product table.
type fakeProductStore struct {
	mu       sync.Mutex
	products map[int]models.Product
	nextID   int
}

func newFakeProductStore(products ...models.Product) *fakeProductStore {
	s := &fakeProductStore{products: map[int]models.Product{}, nextID: 1}
	for _, p := range products {
		s.products[p.ID] = p
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	return s
}

func (s *fakeProductStore) get(id int) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *fakeProductStore) GetByID(_ context.Context, id int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s *fakeProductStore) GetBySKUCode(_ context.Context, sku string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.SkuCode == sku {
			p := p
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeProductStore) sorted() []models.Product {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeProductStore) ListActive(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.sorted() {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeProductStore) List(_ context.Context, f *repository.ProductFilter) ([]models.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Product{}
	for _, p := range s.sorted() {
		if f.IsActive != nil && p.IsActive != *f.IsActive {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *fakeProductStore) GetDistinctCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range s.sorted() {
		if p.IsActive && p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeProductStore) UpdateCurrentPrice(_ context.Context, id int, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.CurrentPrice = price
	s.products[id] = p
	return nil
}

func (s *fakeProductStore) AdjustStock(_ context.Context, id, delta int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	p.CurrentStock += delta
	if p.CurrentStock < 0 {
		p.CurrentStock = 0
	}
	s.products[id] = p
	return &p, nil
}

func (s *fakeProductStore) Restock(_ context.Context, id, stock int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	p.InitialStock = stock
	p.CurrentStock = stock
	s.products[id] = p
	return &p, nil
}

func (s *fakeProductStore) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = *p
	return nil
}

func (s *fakeProductStore) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.products[p.ID]
	if !ok {
		return sql.ErrNoRows
	}
	p.CurrentPrice = stored.CurrentPrice
	p.InitialStock = stored.InitialStock
	p.CurrentStock = stored.CurrentStock
	p.UpdatedAt = time.Now()
	s.products[p.ID] = *p
	return nil
}

func (s *fakeProductStore) SetStockLevels(_ context.Context, id int, initial, current *int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if initial != nil {
		p.InitialStock = *initial
	}
	if current != nil {
		p.CurrentStock = *current
	}
	s.products[id] = p
	return &p, nil
}

func (s *fakeProductStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

// afterReadStore runs afterRead once, right after the first GetByID has
// read its row, to interleave a concurrent writer with a read-modify-write.
type afterReadStore struct {
	*fakeProductStore
	afterRead func(ctx context.Context, id int)
}

func (s *afterReadStore) GetByID(ctx context.Context, id int) (*models.Product, error) {
	p, err := s.fakeProductStore.GetByID(ctx, id)
	if err == nil && s.afterRead != nil {
		hook := s.afterRead
		s.afterRead = nil
		hook(ctx, id)
	}
	return p, err
}

// fakeHistory records appended prices.
type fakeHistory struct {
	mu      sync.Mutex
	entries []models.PriceHistoryEntry
}

func (h *fakeHistory) Append(_ context.Context, productID int, price decimal.Decimal) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, models.PriceHistoryEntry{
		ID: len(h.entries) + 1, ProductID: productID, Price: price, RecordedAt: time.Now(),
	})
	return nil
}

func (h *fakeHistory) ListByProduct(_ context.Context, productID, limit int) ([]models.PriceHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []models.PriceHistoryEntry{}
	for _, e := range h.entries {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (h *fakeHistory) count(productID int) int {
	entries, _ := h.ListByProduct(context.Background(), productID, 0)
	return len(entries)
}

// fakeQuoteCache is a map-backed quote cache with per-product generations.
type fakeQuoteCache struct {
	mu          sync.Mutex
	gens        map[int]int64
	quotes      map[quoteSlot]pricing.Quote
	gets, hits  int
	invalidated []int
}

type quoteSlot struct {
	productID  int
	generation int64
	quantity   int
}

func newFakeQuoteCache() *fakeQuoteCache {
	return &fakeQuoteCache{gens: map[int]int64{}, quotes: map[quoteSlot]pricing.Quote{}}
}

func (c *fakeQuoteCache) Generation(_ context.Context, productID int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[productID], nil
}

func (c *fakeQuoteCache) Get(_ context.Context, productID int, gen int64, qty int) (*pricing.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	q, ok := c.quotes[quoteSlot{productID, gen, qty}]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	c.hits++
	return &q, nil
}

func (c *fakeQuoteCache) Set(_ context.Context, productID int, gen int64, q *pricing.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[quoteSlot{productID, gen, q.Quantity}] = *q
	return nil
}

func (c *fakeQuoteCache) InvalidateProduct(_ context.Context, productID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[productID]++
	c.invalidated = append(c.invalidated, productID)
	return nil
}

// put stores q under the product's current generation.
func (c *fakeQuoteCache) put(productID int, q *pricing.Quote) {
	gen, _ := c.Generation(context.Background(), productID)
	_ = c.Set(context.Background(), productID, gen, q)
}

// live counts the product's quotes that can still be served.
func (c *fakeQuoteCache) live(productID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.quotes {
		if k.productID == productID && k.generation == c.gens[productID] {
			n++
		}
	}
	return n
}

// fakeNotifier records price events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []decimal.Decimal
}

func (n *fakeNotifier) NotifyPriceChanged(_ int, _ string, _, newPrice decimal.Decimal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, newPrice)
}

// fakeCartStore is an in-memory cart hash.
type fakeCartStore struct {
	mu    sync.Mutex
	carts map[int]map[int]int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[int]map[int]int{}}
}

func (s *fakeCartStore) Items(_ context.Context, userID int) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int]int{}
	for k, v := range s.carts[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *fakeCartStore) Quantity(_ context.Context, userID, productID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userID][productID], nil
}

func (s *fakeCartStore) SetQuantity(_ context.Context, userID, productID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[userID] == nil {
		s.carts[userID] = map[int]int{}
	}
	s.carts[userID][productID] = qty
	return nil
}

func (s *fakeCartStore) Remove(_ context.Context, userID, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts[userID], productID)
	return nil
}

func (s *fakeCartStore) Clear(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

// fakeUserStore is an in-memory users table.
type fakeUserStore struct {
	mu    sync.Mutex
	users []models.User
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, _ := s.GetByEmail(ctx, email)
	return u != nil, nil
}

func (s *fakeUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = len(s.users) + 1
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users = append(s.users, *u)
	return nil
}

// pricedProduct returns the reference product: base 1000, 100 units,
// up to 40% stock discount, three bulk tiers.
func pricedProduct(id int) models.Product {
	return models.Product{
		ID:                    id,
		SkuCode:               fmt.Sprintf("SKU-%d", id),
		Name:                  "Reference product",
		Category:              "gadgets",
		BasePrice:             dec("1000"),
		CurrentPrice:          dec("1000"),
		InitialStock:          100,
		CurrentStock:          100,
		MaxDiscountPercentage: dec("40"),
		QuantityThresholds: models.QuantityThresholds{
			{Quantity: 2, DiscountPercentage: dec("5")},
			{Quantity: 5, DiscountPercentage: dec("10")},
			{Quantity: 10, DiscountPercentage: dec("15")},
		},
		IsActive: true,
	}
}

type pricingFixture struct {
	products *fakeProductStore
	history  *fakeHistory
	cache    *fakeQuoteCache
	notifier *fakeNotifier
	svc      *PricingService
}

func newPricingFixture(products ...models.Product) *pricingFixture {
	calc, err := pricing.NewCalculator(pricing.DefaultConfig())
	if err != nil {
		panic(err)
	}
	f := &pricingFixture{
		products: newFakeProductStore(products...),
		history:  &fakeHistory{},
		cache:    newFakeQuoteCache(),
		notifier: &fakeNotifier{},
	}
	f.svc = NewPricingService(calc, f.products, f.history, f.cache, f.notifier)
	f.svc.now = func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) }
	return f
}
