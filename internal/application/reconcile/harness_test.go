package reconcile

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/cache"
	"github.com/erp/ledgersync/internal/infrastructure/moloni"
	"github.com/erp/ledgersync/internal/infrastructure/moloni/molonitest"
	"go.uber.org/zap"
)

const (
	testStoreID      = 1
	testBillingEmail = "billing@shop.example"
	portugalLocalID  = 42
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Storefront fake
// ---------------------------------------------------------------------------

type fakeHost struct {
	mu            sync.Mutex
	categories    map[int]storefront.Category
	products      map[int]storefront.Product
	inventory     map[int][]storefront.WarehouseInventory
	taxCategories map[int]storefront.TaxCategory
	customers     map[int]storefront.Customer
	addresses     map[int]storefront.Address
	countries     map[int]storefront.Country
	orderItems    map[int][]storefront.OrderItem
	createdTaxes  []string
}

func newFakeHost() *fakeHost {
	h := &fakeHost{
		categories:    map[int]storefront.Category{},
		products:      map[int]storefront.Product{},
		inventory:     map[int][]storefront.WarehouseInventory{},
		taxCategories: map[int]storefront.TaxCategory{1: {ID: 1, Name: "IVA 23", DisplayOrder: 2}},
		customers:     map[int]storefront.Customer{},
		addresses:     map[int]storefront.Address{},
		countries:     map[int]storefront.Country{},
		orderItems:    map[int][]storefront.OrderItem{},
	}
	for _, c := range []storefront.Country{
		{ID: portugalLocalID, Name: "Portugal"},
		{ID: storefront.DefaultCountryID, Name: "portugal"},
		{ID: 7, Name: "Atlantis"},
	} {
		h.countries[c.ID] = c
	}
	return h
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, shared.ErrNotFound)
}

func (h *fakeHost) addCategory(c storefront.Category) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.categories[c.ID] = c
}

func (h *fakeHost) addProduct(p storefront.Product) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.products[p.ID] = p
}

func (h *fakeHost) GetCategory(_ context.Context, id int) (*storefront.Category, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.categories[id]
	if !ok {
		return nil, notFound("category", id)
	}
	return &c, nil
}

func (h *fakeHost) ListCategories(context.Context) ([]storefront.Category, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]storefront.Category, 0, len(h.categories))
	for _, c := range h.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (h *fakeHost) GetProduct(_ context.Context, id int) (*storefront.Product, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.products[id]
	if !ok {
		return nil, notFound("product", id)
	}
	return &p, nil
}

func (h *fakeHost) ListProductsByCategory(_ context.Context, categoryID int) ([]storefront.Product, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []storefront.Product
	for _, p := range h.products {
		if slices.Contains(p.CategoryIDs, categoryID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (h *fakeHost) ListWarehouseInventory(_ context.Context, productID int) ([]storefront.WarehouseInventory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inventory[productID], nil
}

func (h *fakeHost) GetTaxCategory(_ context.Context, id int) (*storefront.TaxCategory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tc, ok := h.taxCategories[id]
	if !ok {
		return nil, notFound("tax category", id)
	}
	return &tc, nil
}

func (h *fakeHost) ListTaxCategories(context.Context) ([]storefront.TaxCategory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]storefront.TaxCategory, 0, len(h.taxCategories))
	for _, tc := range h.taxCategories {
		out = append(out, tc)
	}
	return out, nil
}

func (h *fakeHost) CreateTaxCategory(_ context.Context, name string, displayOrder int) (*storefront.TaxCategory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tc := storefront.TaxCategory{ID: len(h.taxCategories) + 100, Name: name, DisplayOrder: displayOrder}
	h.taxCategories[tc.ID] = tc
	h.createdTaxes = append(h.createdTaxes, name)
	return &tc, nil
}

func (h *fakeHost) GetCustomer(_ context.Context, id int) (*storefront.Customer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.customers[id]
	if !ok {
		return nil, notFound("customer", id)
	}
	return &c, nil
}

func (h *fakeHost) GetCustomerByEmail(_ context.Context, email string) (*storefront.Customer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.customers {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, notFound("customer", email)
}

func (h *fakeHost) GetAddress(_ context.Context, id int) (*storefront.Address, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.addresses[id]
	if !ok {
		return nil, notFound("address", id)
	}
	return &a, nil
}

func (h *fakeHost) GetCountry(_ context.Context, id int) (*storefront.Country, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.countries[id]
	if !ok {
		return nil, notFound("country", id)
	}
	return &c, nil
}

func (h *fakeHost) ListOrderItems(_ context.Context, orderID int) ([]storefront.OrderItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.orderItems[orderID], nil
}

var (
	_ storefront.Reader            = (*fakeHost)(nil)
	_ storefront.TaxCategoryWriter = (*fakeHost)(nil)
)

// ---------------------------------------------------------------------------
// Repository fakes
// ---------------------------------------------------------------------------

type memMappings struct {
	mu   sync.Mutex
	rows map[int]integration.CategoryMapping
}

func newMemMappings() *memMappings {
	return &memMappings{rows: map[int]integration.CategoryMapping{}}
}

func (m *memMappings) FindByLocalID(_ context.Context, _ int, localID int) (*integration.CategoryMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[localID]
	if !ok {
		return nil, integration.ErrMappingNotFound
	}
	return &row, nil
}

func (m *memMappings) FindAll(_ context.Context, _ int) ([]integration.CategoryMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]integration.CategoryMapping, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	return out, nil
}

func (m *memMappings) Save(_ context.Context, mapping *integration.CategoryMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[mapping.LocalID] = *mapping
	return nil
}

func (m *memMappings) Delete(_ context.Context, _ int, localID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, localID)
	return nil
}

type memRuns struct {
	mu   sync.Mutex
	runs []integration.SyncRun
}

func (r *memRuns) Save(_ context.Context, run *integration.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.runs {
		if r.runs[i].ID == run.ID {
			r.runs[i] = *run
			return nil
		}
	}
	r.runs = append(r.runs, *run)
	return nil
}

func (r *memRuns) FindByID(_ context.Context, id string) (*integration.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.ID == id {
			return &run, nil
		}
	}
	return nil, integration.ErrSyncRunNotFound
}

func (r *memRuns) FindRecent(_ context.Context, _ int, limit int) ([]integration.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.runs)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSettings struct {
	mu       sync.Mutex
	settings *integration.Settings
}

func (s *memSettings) Load(_ context.Context, _ int) (*integration.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return nil, integration.ErrSettingsNotFound
	}
	c := *s.settings
	return &c, nil
}

func (s *memSettings) Save(_ context.Context, settings *integration.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *settings
	s.settings = &c
	return nil
}

type stubGate struct {
	mu     sync.Mutex
	active bool
	emails []string
}

func (g *stubGate) Valid(_ context.Context, email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.emails = append(g.emails, email)
	return g.active
}

func (g *stubGate) set(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = active
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type fixedToken string

func (f fixedToken) AccessToken(context.Context) (string, bool) { return string(f), true }

// testClock starts at testNow and moves only when advanced
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	clock    *testClock
	srv      *molonitest.Server
	host     *fakeHost
	mappings *memMappings
	runs     *memRuns
	settings *memSettings
	gate     *stubGate
	engine   *Engine
}

func validSettings() *integration.Settings {
	return &integration.Settings{
		StoreID:       testStoreID,
		ClientID:      "client",
		ClientSecret:  "secret",
		Username:      "user@shop.example",
		Password:      "pass",
		CompanyID:     "5",
		EncryptionKey: "MDEyMzQ1Njc4OWFiY2RlZg==",
		EncryptionIV:  "ZmVkY2JhOTg3NjU0MzIxMA==",
		BillingEmail:  testBillingEmail,
	}
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	srv := molonitest.NewServer(t)
	gw := moloni.NewGateway(moloni.Config{BaseURL: srv.URL()}, srv.Client(), fixedToken(molonitest.AccessToken), zap.NewNop())

	h := &harness{
		clock:    &testClock{now: testNow},
		srv:      srv,
		host:     newFakeHost(),
		mappings: newMemMappings(),
		runs:     &memRuns{},
		settings: &memSettings{settings: validSettings()},
		gate:     &stubGate{active: true},
	}
	debounce := cache.NewInMemoryIdempotencyStore(cache.WithClock(h.clock.Now))
	t.Cleanup(func() { _ = debounce.Close() })

	cfg := DefaultConfig()
	cfg.StoreID = testStoreID
	for _, fn := range mutate {
		fn(&cfg)
	}

	seq := 0
	h.engine = NewEngine(Dependencies{
		Ledger:    moloni.NewClients(gw, RepositorySettings(h.settings, testStoreID), zap.NewNop()),
		Host:      h.host,
		TaxWriter: h.host,
		Settings:  h.settings,
		Mappings:  h.mappings,
		Runs:      h.runs,
		Gate:      h.gate,
		Debounce:  debounce,
	}, cfg, zap.NewNop(),
		WithClock(h.clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("run-%d", seq)
		}),
	)
	return h
}

// state returns a snapshot of the fake ledger
func (h *harness) state() molonitest.State {
	var st molonitest.State
	h.srv.Do(func(s *molonitest.State) { st = *s })
	return st
}
