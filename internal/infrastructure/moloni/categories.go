package moloni

import (
	"context"
	"net/url"
	"strconv"

	"github.com/erp/ledgersync/internal/domain/ledger"
)

// CategoryClient implements ledger.CategoryClient
type CategoryClient struct{ resource }

var _ ledger.CategoryClient = (*CategoryClient)(nil)

// GetAll lists the categories directly under parentID (0 for the root)
func (c *CategoryClient) GetAll(ctx context.Context, parentID int) []ledger.Category {
	resp := c.postForm(ctx, "productCategories/getAll/", func(f url.Values) {
		f.Set("parent_id", strconv.Itoa(parentID))
	})
	return Decode[[]ledger.Category](resp)
}

// GetOne returns a category by id, nil when absent
func (c *CategoryClient) GetOne(ctx context.Context, categoryID int) *ledger.Category {
	resp := c.postForm(ctx, "productCategories/getOne/", func(f url.Values) {
		f.Set("category_id", strconv.Itoa(categoryID))
	})
	cat, ok := DecodeOK[ledger.Category](resp)
	if !ok || cat.CategoryID == 0 {
		return nil
	}
	return &cat
}

// Insert creates a category and returns its id
func (c *CategoryClient) Insert(ctx context.Context, parentID int, name, description string) int {
	resp := c.postForm(ctx, "productCategories/insert/", func(f url.Values) {
		f.Set("parent_id", strconv.Itoa(parentID))
		f.Set("name", name)
		setString(f, "description", description)
	})
	return intField(resp, "category_id")
}

// Update renames or moves a category and returns its id
func (c *CategoryClient) Update(ctx context.Context, categoryID, parentID int, name string) int {
	resp := c.postForm(ctx, "productCategories/update/", func(f url.Values) {
		f.Set("category_id", strconv.Itoa(categoryID))
		f.Set("parent_id", strconv.Itoa(parentID))
		f.Set("name", name)
	})
	return intField(resp, "category_id")
}

// Delete removes a category
func (c *CategoryClient) Delete(ctx context.Context, categoryID int) bool {
	resp := c.postForm(ctx, "productCategories/delete/", func(f url.Values) {
		f.Set("category_id", strconv.Itoa(categoryID))
	})
	return valid(resp)
}
