// Package storefront is the REST adapter for the storefront host API. It
// serves the read ports of the reconciliation engine and creates tax
// categories during setup.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erp/ledgersync/internal/domain/shared"
	domain "github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/config"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// APIKeyHeader carries the host API key
const APIKeyHeader = "X-Api-Key"

const maxResponseSize = 5 << 20

// ErrHostRequestFailed wraps every non-2xx answer except 404
var ErrHostRequestFailed = errors.New("storefront request failed")

// Client implements domain.Reader and domain.TaxCategoryWriter over HTTP
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a host API client. A nil httpClient gets a traced client
// with cfg.Timeout.
func NewClient(cfg config.StorefrontConfig, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("storefront base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid storefront base url: %w", err)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     log.Named("storefront"),
	}, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// GetCategory returns a category, or shared.ErrNotFound
func (c *Client) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	return getOne[domain.Category](ctx, c, "/api/categories/"+strconv.Itoa(id))
}

// ListCategories returns every category
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return getList[domain.Category](ctx, c, "/api/categories")
}

// GetProduct returns a product with its category ids
func (c *Client) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	return getOne[domain.Product](ctx, c, "/api/products/"+strconv.Itoa(id))
}

// ListProductsByCategory returns the products placed in a category
func (c *Client) ListProductsByCategory(ctx context.Context, categoryID int) ([]domain.Product, error) {
	return getList[domain.Product](ctx, c, "/api/categories/"+strconv.Itoa(categoryID)+"/products")
}

// ListWarehouseInventory returns the per-warehouse stock rows of a product
func (c *Client) ListWarehouseInventory(ctx context.Context, productID int) ([]domain.WarehouseInventory, error) {
	return getList[domain.WarehouseInventory](ctx, c, "/api/products/"+strconv.Itoa(productID)+"/inventory")
}

// GetTaxCategory returns a tax category
func (c *Client) GetTaxCategory(ctx context.Context, id int) (*domain.TaxCategory, error) {
	return getOne[domain.TaxCategory](ctx, c, "/api/tax-categories/"+strconv.Itoa(id))
}

// ListTaxCategories returns every tax category
func (c *Client) ListTaxCategories(ctx context.Context) ([]domain.TaxCategory, error) {
	return getList[domain.TaxCategory](ctx, c, "/api/tax-categories")
}

// CreateTaxCategory creates a tax category
func (c *Client) CreateTaxCategory(ctx context.Context, name string, displayOrder int) (*domain.TaxCategory, error) {
	body := domain.TaxCategory{Name: name, DisplayOrder: displayOrder}
	var created domain.TaxCategory
	if err := c.do(ctx, http.MethodPost, "/api/tax-categories", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// GetCustomer returns a customer
func (c *Client) GetCustomer(ctx context.Context, id int) (*domain.Customer, error) {
	return getOne[domain.Customer](ctx, c, "/api/customers/"+strconv.Itoa(id))
}

// GetCustomerByEmail returns the customer registered with email
func (c *Client) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return getOne[domain.Customer](ctx, c, "/api/customers?"+url.Values{"email": {email}}.Encode())
}

// GetAddress returns an address
func (c *Client) GetAddress(ctx context.Context, id int) (*domain.Address, error) {
	return getOne[domain.Address](ctx, c, "/api/addresses/"+strconv.Itoa(id))
}

// GetCountry returns a country
func (c *Client) GetCountry(ctx context.Context, id int) (*domain.Country, error) {
	return getOne[domain.Country](ctx, c, "/api/countries/"+strconv.Itoa(id))
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// ListOrderItems returns the lines of an order
func (c *Client) ListOrderItems(ctx context.Context, orderID int) ([]domain.OrderItem, error) {
	return getList[domain.OrderItem](ctx, c, "/api/orders/"+strconv.Itoa(orderID)+"/items")
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func getOne[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	out := make([]T, 0)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := logger.WithLogger(ctx, c.logger).With(zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("Storefront request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrHostRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		log.Warn("Storefront returned an error", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: HTTP %d: %s", ErrHostRequestFailed, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

var (
	_ domain.Reader            = (*Client)(nil)
	_ domain.TaxCategoryWriter = (*Client)(nil)
)
