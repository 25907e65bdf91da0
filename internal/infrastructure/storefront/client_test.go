package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/erp/ledgersync/internal/domain/shared"
	domain "github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "host-key"

// newHostServer serves fixed JSON bodies per path and rejects a wrong API key.
// The returned func lists the API keys received so far.
func newHostServer(t *testing.T, routes map[string]any) (*Client, func() []string) {
	t.Helper()
	var (
		mu   sync.Mutex
		keys []string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get(APIKeyHeader))
		mu.Unlock()
		if r.Header.Get(APIKeyHeader) != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.Method+" "+r.URL.RequestURI()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if status, isStatus := body.(int); isStatus {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("boom"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(config.StorefrontConfig{BaseURL: srv.URL + "/", APIKey: testAPIKey}, srv.Client(), zap.NewNop())
	require.NoError(t, err)
	return client, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), keys...)
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(config.StorefrontConfig{}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestClient_Catalog(t *testing.T) {
	client, _ := newHostServer(t, map[string]any{
		"GET /api/categories/3":          domain.Category{ID: 3, ParentCategoryID: 1, Name: "Novels"},
		"GET /api/categories":            []domain.Category{{ID: 1, Name: "Books"}, {ID: 3, ParentCategoryID: 1, Name: "Novels"}},
		"GET /api/products/9":            domain.Product{ID: 9, Sku: "BK-9", CategoryIDs: []int{3}},
		"GET /api/categories/3/products": []domain.Product{{ID: 9, Sku: "BK-9"}},
		"GET /api/products/9/inventory":  []domain.WarehouseInventory{{ProductID: 9, WarehouseID: 2, StockQuantity: 5}},
		"GET /api/tax-categories":        []domain.TaxCategory{{ID: 1, Name: "IVA 23"}},
		"GET /api/tax-categories/1":      domain.TaxCategory{ID: 1, Name: "IVA 23"},
	})
	ctx := context.Background()

	category, err := client.GetCategory(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, category.ParentCategoryID)

	categories, err := client.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)

	product, err := client.GetProduct(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, product.PrimaryCategoryID())

	products, err := client.ListProductsByCategory(ctx, 3)
	require.NoError(t, err)
	require.Len(t, products, 1)

	inventory, err := client.ListWarehouseInventory(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 5, inventory[0].StockQuantity)

	taxes, err := client.ListTaxCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "IVA 23", taxes[0].Name)

	tax, err := client.GetTaxCategory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, tax.ID)
}

func TestClient_CustomersAndOrders(t *testing.T) {
	client, receivedKeys := newHostServer(t, map[string]any{
		"GET /api/customers/4":                       domain.Customer{ID: 4, Email: "ana@example.com"},
		"GET /api/customers?email=ana%40example.com": domain.Customer{ID: 4, Email: "ana@example.com"},
		"GET /api/addresses/8":                       domain.Address{ID: 8, City: "Porto", CountryID: 179},
		"GET /api/countries/179":                     domain.Country{ID: 179, Name: "Portugal"},
		"GET /api/orders/12/items":                   []domain.OrderItem{{ID: 1, OrderID: 12, Sku: "BK-9", Quantity: 2}},
	})
	ctx := context.Background()

	customer, err := client.GetCustomer(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", customer.Email)

	byEmail, err := client.GetCustomerByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, byEmail.ID)

	address, err := client.GetAddress(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "Porto", address.City)

	country, err := client.GetCountry(ctx, 179)
	require.NoError(t, err)
	assert.Equal(t, "Portugal", country.Name)

	items, err := client.ListOrderItems(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)

	keys := receivedKeys()
	assert.Len(t, keys, 5)
	for _, key := range keys {
		assert.Equal(t, testAPIKey, key)
	}
}

func TestClient_CreateTaxCategory(t *testing.T) {
	var received domain.TaxCategory
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tax-categories", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(domain.TaxCategory{ID: 40, Name: received.Name, DisplayOrder: received.DisplayOrder})
	}))
	defer srv.Close()

	client, err := NewClient(config.StorefrontConfig{BaseURL: srv.URL, APIKey: testAPIKey}, srv.Client(), zap.NewNop())
	require.NoError(t, err)

	created, err := client.CreateTaxCategory(context.Background(), "IVA 6", 2)
	require.NoError(t, err)
	assert.Equal(t, 40, created.ID)
	assert.Equal(t, "IVA 6", received.Name)
	assert.Equal(t, 2, received.DisplayOrder)
}

func TestClient_Errors(t *testing.T) {
	client, _ := newHostServer(t, map[string]any{
		"GET /api/products/5": http.StatusInternalServerError,
	})
	ctx := context.Background()

	t.Run("404 is not found", func(t *testing.T) {
		_, err := client.GetCategory(ctx, 77)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("5xx wraps the host sentinel", func(t *testing.T) {
		_, err := client.GetProduct(ctx, 5)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrHostRequestFailed))
		assert.Contains(t, err.Error(), "HTTP 500")
	})

	t.Run("wrong api key", func(t *testing.T) {
		client.apiKey = "wrong"
		defer func() { client.apiKey = testAPIKey }()

		_, err := client.ListCategories(ctx)
		assert.ErrorIs(t, err, ErrHostRequestFailed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.ListCategories(cancelled)
		assert.ErrorIs(t, err, ErrHostRequestFailed)
	})
}
