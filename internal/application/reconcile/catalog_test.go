package reconcile

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/moloni/molonitest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTree(h *harness) {
	h.host.addCategory(storefront.Category{ID: 1, Name: "Books"})
	h.host.addCategory(storefront.Category{ID: 2, ParentCategoryID: 1, Name: "Novels"})
	h.host.addCategory(storefront.Category{ID: 3, ParentCategoryID: 2, Name: "Sci-Fi"})
}

func remoteCategoryByRef(t *testing.T, h *harness, localID int) ledger.Category {
	t.Helper()
	for _, c := range h.state().Categories {
		if c.HasBackReference(localID) {
			return c
		}
	}
	t.Fatalf("no remote category for %d", localID)
	return ledger.Category{}
}

// ---------------------------------------------------------------------------
// Category hierarchy
// ---------------------------------------------------------------------------

func TestEnsureHierarchy(t *testing.T) {
	ctx := context.Background()

	t.Run("creates ancestors root first", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)

		remoteID, err := h.engine.EnsureHierarchy(ctx, 3)
		require.NoError(t, err)

		books := remoteCategoryByRef(t, h, 1)
		novels := remoteCategoryByRef(t, h, 2)
		scifi := remoteCategoryByRef(t, h, 3)
		assert.Equal(t, scifi.CategoryID, remoteID)
		assert.Equal(t, 0, books.ParentID)
		assert.Equal(t, books.CategoryID, novels.ParentID)
		assert.Equal(t, novels.CategoryID, scifi.ParentID)

		inserts := h.srv.Calls("productCategories/insert/")
		require.Len(t, inserts, 3)
		assert.Equal(t, "Books", inserts[0].Form.Get("name"))
		assert.Equal(t, "Sci-Fi", inserts[2].Form.Get("name"))

		mapping, err := h.mappings.FindByLocalID(ctx, testStoreID, 3)
		require.NoError(t, err)
		assert.Equal(t, scifi.CategoryID, mapping.RemoteID)
		assert.Equal(t, novels.CategoryID, mapping.RemoteParentID)
	})

	t.Run("second pass uses the mapping table", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)

		first, err := h.engine.EnsureHierarchy(ctx, 3)
		require.NoError(t, err)
		h.srv.ResetCalls()

		second, err := h.engine.EnsureHierarchy(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Zero(t, h.srv.CallCount("productCategories/insert/"))
		assert.Zero(t, h.srv.CallCount("productCategories/getAll/"))
	})

	t.Run("matches an unmapped remote category by back-reference", func(t *testing.T) {
		h := newHarness(t)
		h.host.addCategory(storefront.Category{ID: 1, Name: "Books"})
		h.srv.Do(func(st *molonitest.State) {
			st.Categories = append(st.Categories,
				ledger.Category{CategoryID: 500, Name: "Books", Description: ledger.BackReference(12)},
				ledger.Category{CategoryID: 501, Name: "Livros", Description: "imported NopID:1"},
			)
		})

		remoteID, err := h.engine.EnsureHierarchy(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 501, remoteID)
		assert.Zero(t, h.srv.CallCount("productCategories/insert/"))

		mapping, err := h.mappings.FindByLocalID(ctx, testStoreID, 1)
		require.NoError(t, err)
		assert.Equal(t, 501, mapping.RemoteID)
	})

	t.Run("rejects a cycle before creating anything", func(t *testing.T) {
		h := newHarness(t)
		h.host.addCategory(storefront.Category{ID: 1, ParentCategoryID: 2, Name: "A"})
		h.host.addCategory(storefront.Category{ID: 2, ParentCategoryID: 1, Name: "B"})

		_, err := h.engine.EnsureHierarchy(ctx, 1)
		assert.ErrorIs(t, err, ErrCategoryCycle)
		assert.Zero(t, h.srv.CallCount("productCategories/insert/"))
	})

	t.Run("rejects a hierarchy deeper than the limit", func(t *testing.T) {
		h := newHarness(t, func(c *Config) { c.MaxCategoryDepth = 2 })
		seedTree(h)

		_, err := h.engine.EnsureHierarchy(ctx, 3)
		assert.ErrorIs(t, err, ErrCategoryTooDeep)
		assert.Zero(t, h.srv.CallCount("productCategories/insert/"))

		_, err = h.engine.EnsureHierarchy(ctx, 2)
		assert.NoError(t, err)
	})

	t.Run("remote failure stops the walk", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)
		h.srv.Fail("productCategories/insert/", http.StatusInternalServerError)

		_, err := h.engine.EnsureHierarchy(ctx, 3)
		assert.ErrorIs(t, err, ledger.ErrTransport)
		assert.Equal(t, 1, h.srv.CallCount("productCategories/insert/"))
	})
}

func TestCategoryEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("update renames and keeps the remote parent", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)
		require.NoError(t, h.engine.CategoryInserted(ctx, storefront.Category{ID: 2}))

		require.NoError(t, h.engine.CategoryUpdated(ctx, storefront.Category{ID: 2, ParentCategoryID: 1, Name: "Fiction"}))

		novels := remoteCategoryByRef(t, h, 2)
		books := remoteCategoryByRef(t, h, 1)
		assert.Equal(t, "Fiction", novels.Name)
		assert.Equal(t, books.CategoryID, novels.ParentID)
		assert.True(t, novels.HasBackReference(2))
		update := h.srv.Calls("productCategories/update/")
		require.Len(t, update, 1)
		assert.NotContains(t, update[0].Form, "description", "only the name is rewritten")

		mapping, err := h.mappings.FindByLocalID(ctx, testStoreID, 2)
		require.NoError(t, err)
		assert.Equal(t, "Fiction", mapping.Name)
	})

	t.Run("delete uses the mapping", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)
		require.NoError(t, h.engine.CategoryInserted(ctx, storefront.Category{ID: 1}))

		require.NoError(t, h.engine.CategoryDeleted(ctx, storefront.Category{ID: 1, Name: "Books"}))
		assert.Empty(t, h.state().Categories)
		_, err := h.mappings.FindByLocalID(ctx, testStoreID, 1)
		assert.Error(t, err)
	})

	t.Run("delete falls back to a root category with the same name", func(t *testing.T) {
		h := newHarness(t)
		h.srv.Do(func(st *molonitest.State) {
			st.Categories = append(st.Categories, ledger.Category{CategoryID: 600, Name: "Toys"})
		})

		require.NoError(t, h.engine.CategoryDeleted(ctx, storefront.Category{ID: 9, Name: "Toys"}))
		assert.Empty(t, h.state().Categories)
	})

	t.Run("delete without a remote mirror is a no-op", func(t *testing.T) {
		h := newHarness(t)

		require.NoError(t, h.engine.CategoryDeleted(ctx, storefront.Category{ID: 9, Name: "Toys"}))
		assert.Zero(t, h.srv.CallCount("productCategories/delete/"))
	})

	t.Run("rejected delete is reported", func(t *testing.T) {
		h := newHarness(t)
		h.srv.Do(func(st *molonitest.State) {
			st.Categories = append(st.Categories, ledger.Category{CategoryID: 600, Name: "Toys"})
		})
		h.srv.Fail("productCategories/delete/", http.StatusBadGateway)

		err := h.engine.CategoryDeleted(ctx, storefront.Category{ID: 9, Name: "Toys"})
		assert.ErrorIs(t, err, ErrRemoteRejected)
	})

	t.Run("skipped without subscription", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)
		h.gate.set(false)

		err := h.engine.CategoryInserted(ctx, storefront.Category{ID: 1})
		assert.ErrorIs(t, err, ErrSkipped)
		assert.Empty(t, h.srv.Calls(""))
	})
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func sampleProduct() storefront.Product {
	return storefront.Product{
		ID:               10,
		Name:             "Dune",
		ShortDescription: "Paperback",
		Sku:              "BK-10",
		Price:            decimal.RequireFromString("12.50"),
		StockQuantity:    4,
		MinStockQuantity: 1,
		TaxCategoryID:    1,
		CategoryIDs:      []int{3},
		UpdatedOnUtc:     testNow,
	}
}

func remoteProduct(t *testing.T, h *harness, sku string) ledger.Product {
	t.Helper()
	for _, p := range h.state().Products {
		if p.Reference == sku {
			return p
		}
	}
	t.Fatalf("no remote product %q", sku)
	return ledger.Product{}
}

func TestBuildProduct(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.srv.Do(func(st *molonitest.State) {
		st.Warehouses = append(st.Warehouses, ledger.Warehouse{WarehouseID: 200, Code: "3", Title: "Porto"})
	})
	cc, err := h.engine.loadCatalogContext(ctx)
	require.NoError(t, err)

	t.Run("single warehouse fallback and tax line", func(t *testing.T) {
		p := sampleProduct()
		out, err := h.engine.buildProduct(ctx, cc, &p, 900)
		require.NoError(t, err)

		assert.Equal(t, 900, out.CategoryID)
		assert.Equal(t, "BK-10", out.Reference)
		assert.Equal(t, 12.5, out.Price)
		assert.Equal(t, molonitest.UnitID, out.UnitID)
		assert.Equal(t, 1, out.HasStock)
		assert.Equal(t, ledger.ATProductCategoryGoods, out.ATProductCategory)
		assert.Equal(t, []ledger.ProductWarehouse{{WarehouseID: molonitest.DefaultWarehouseID, Stock: 4}}, out.Warehouses)
		assert.Equal(t, float64(1), out.MinimumStock)
		assert.Equal(t, []ledger.ProductTax{{TaxID: molonitest.VATTaxID, Value: 12.5, Order: 2}}, out.Taxes)
		assert.Equal(t, "10", out.PropertyValue(molonitest.ReferencePropertyID))
	})

	t.Run("product warehouse code wins over the default", func(t *testing.T) {
		p := sampleProduct()
		p.WarehouseID = 3
		out, err := h.engine.buildProduct(ctx, cc, &p, 900)
		require.NoError(t, err)
		assert.Equal(t, 200, out.Warehouses[0].WarehouseID)
	})

	t.Run("per-warehouse inventory rows", func(t *testing.T) {
		p := sampleProduct()
		p.ID = 11
		h.host.inventory[11] = []storefront.WarehouseInventory{
			{ProductID: 11, WarehouseID: 3, StockQuantity: 5, ReservedQuantity: 2},
		}
		out, err := h.engine.buildProduct(ctx, cc, &p, 900)
		require.NoError(t, err)
		assert.Equal(t, []ledger.ProductWarehouse{{WarehouseID: 200, Stock: 5}}, out.Warehouses)
		assert.Equal(t, float64(2), out.MinimumStock)
	})

	t.Run("inventory in an unknown warehouse", func(t *testing.T) {
		p := sampleProduct()
		p.ID = 12
		h.host.inventory[12] = []storefront.WarehouseInventory{{ProductID: 12, WarehouseID: 99, StockQuantity: 1}}
		_, err := h.engine.buildProduct(ctx, cc, &p, 900)
		assert.ErrorIs(t, err, ledger.ErrPrecondition)
	})

	t.Run("tax exempt product", func(t *testing.T) {
		p := sampleProduct()
		p.IsTaxExempt = true
		out, err := h.engine.buildProduct(ctx, cc, &p, 900)
		require.NoError(t, err)
		assert.Equal(t, ledger.ExemptionReasonNotTaxed, out.ExemptionReason)
		assert.Empty(t, out.Taxes)
	})

	t.Run("unknown remote tax", func(t *testing.T) {
		h.host.taxCategories[2] = storefront.TaxCategory{ID: 2, Name: "Luxury"}
		p := sampleProduct()
		p.TaxCategoryID = 2
		_, err := h.engine.buildProduct(ctx, cc, &p, 900)
		assert.ErrorIs(t, err, ledger.ErrPrecondition)
	})
}

func TestLoadCatalogContext_MissingReferenceProperty(t *testing.T) {
	h := newHarness(t)
	h.srv.Do(func(st *molonitest.State) { st.Properties = nil })

	_, err := h.engine.loadCatalogContext(context.Background())
	assert.ErrorIs(t, err, ledger.ErrPrecondition)
}

func TestProductCategoryInserted(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the product under its mirrored category", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)
		h.host.addProduct(sampleProduct())

		require.NoError(t, h.engine.ProductCategoryInserted(ctx, storefront.ProductCategory{ProductID: 10, CategoryID: 3}))

		p := remoteProduct(t, h, "BK-10")
		assert.Equal(t, remoteCategoryByRef(t, h, 3).CategoryID, p.CategoryID)
		assert.Equal(t, "Dune", p.Name)
	})

	t.Run("existing product is left alone", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)
		h.host.addProduct(sampleProduct())
		pc := storefront.ProductCategory{ProductID: 10, CategoryID: 3}

		require.NoError(t, h.engine.ProductCategoryInserted(ctx, pc))
		require.NoError(t, h.engine.ProductCategoryInserted(ctx, pc))
		assert.Equal(t, 1, h.srv.CallCount("products/insert/"))
	})

	t.Run("empty SKU is created next to an unreferenced product", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)
		h.srv.Do(func(st *molonitest.State) {
			st.Products = append(st.Products, ledger.Product{ProductID: 800, Reference: ""})
		})
		p := sampleProduct()
		p.Sku = ""
		h.host.addProduct(p)
		pc := storefront.ProductCategory{ProductID: 10, CategoryID: 3}

		require.NoError(t, h.engine.ProductCategoryInserted(ctx, pc))
		require.NoError(t, h.engine.ProductCategoryInserted(ctx, pc))

		assert.Equal(t, 1, h.srv.CallCount("products/insert/"))
		assert.Zero(t, h.srv.CallCount("products/getByReference/"))
		assert.Len(t, h.state().Products, 2)
	})

	t.Run("deleted product is ignored", func(t *testing.T) {
		h := newHarness(t)
		seedTree(h)

		require.NoError(t, h.engine.ProductCategoryInserted(ctx, storefront.ProductCategory{ProductID: 77, CategoryID: 3}))
		assert.Zero(t, h.srv.CallCount("products/insert/"))
	})
}

func TestProductUpdated(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *harness {
		h := newHarness(t)
		seedTree(h)
		h.host.addProduct(sampleProduct())
		require.NoError(t, h.engine.ProductCategoryInserted(ctx, storefront.ProductCategory{ProductID: 10, CategoryID: 3}))
		h.srv.ResetCalls()
		return h
	}

	t.Run("stock delta becomes a movement", func(t *testing.T) {
		h := setup(t)
		p := sampleProduct()
		p.StockQuantity = 9
		p.Price = decimal.RequireFromString("14")

		require.NoError(t, h.engine.ProductUpdated(ctx, p))

		moves := h.state().StockMovements
		require.Len(t, moves, 1)
		assert.Equal(t, float64(5), moves[0].Qty)
		assert.Equal(t, molonitest.DefaultWarehouseID, moves[0].WarehouseID)
		assert.Equal(t, "2026-03-10", moves[0].MovementDate)

		remote := remoteProduct(t, h, "BK-10")
		assert.Equal(t, float64(14), remote.Price)
		assert.Equal(t, float64(9), remote.WarehouseStock(molonitest.DefaultWarehouseID))
	})

	t.Run("unchanged stock issues no movement", func(t *testing.T) {
		h := setup(t)

		require.NoError(t, h.engine.ProductUpdated(ctx, sampleProduct()))
		assert.Zero(t, h.srv.CallCount("productStocks/insert/"))
		assert.Equal(t, 1, h.srv.CallCount("products/update/"))
	})

	t.Run("repeats inside the debounce window are dropped", func(t *testing.T) {
		h := setup(t)

		require.NoError(t, h.engine.ProductUpdated(ctx, sampleProduct()))
		require.NoError(t, h.engine.ProductUpdated(ctx, sampleProduct()))
		assert.Equal(t, 1, h.srv.CallCount("products/update/"))
	})

	t.Run("window reopens after it expires", func(t *testing.T) {
		h := setup(t)

		require.NoError(t, h.engine.ProductUpdated(ctx, sampleProduct()))
		h.clock.Advance(6 * time.Second)
		p := sampleProduct()
		p.UpdatedOnUtc = h.clock.Now()
		require.NoError(t, h.engine.ProductUpdated(ctx, p))

		assert.Equal(t, 2, h.srv.CallCount("products/update/"))
	})

	t.Run("different products debounce independently", func(t *testing.T) {
		h := setup(t)
		other := sampleProduct()
		other.ID = 11
		other.Sku = "BK-11"
		h.host.addProduct(other)
		require.NoError(t, h.engine.ProductCategoryInserted(ctx, storefront.ProductCategory{ProductID: 11, CategoryID: 3}))
		h.srv.ResetCalls()

		require.NoError(t, h.engine.ProductUpdated(ctx, sampleProduct()))
		require.NoError(t, h.engine.ProductUpdated(ctx, other))

		assert.Equal(t, 2, h.srv.CallCount("products/update/"))
	})

	t.Run("stale snapshot is dropped", func(t *testing.T) {
		h := setup(t)
		p := sampleProduct()
		p.UpdatedOnUtc = testNow.Add(-11 * time.Second)

		require.NoError(t, h.engine.ProductUpdated(ctx, p))
		assert.Zero(t, h.srv.CallCount("products/update/"))
	})

	t.Run("renamed SKU is found by the reference property", func(t *testing.T) {
		h := setup(t)
		p := sampleProduct()
		p.Sku = "BK-10-B"

		require.NoError(t, h.engine.ProductUpdated(ctx, p))
		products := h.state().Products
		require.Len(t, products, 1)
		assert.Equal(t, "BK-10-B", products[0].Reference)
	})

	t.Run("product without category", func(t *testing.T) {
		h := setup(t)
		p := sampleProduct()
		p.ID = 20
		p.CategoryIDs = nil

		err := h.engine.ProductUpdated(ctx, p)
		assert.ErrorIs(t, err, ledger.ErrPrecondition)
	})

	t.Run("product unknown remotely", func(t *testing.T) {
		h := setup(t)
		p := sampleProduct()
		p.ID = 21
		p.Sku = "NEW-1"

		require.NoError(t, h.engine.ProductUpdated(ctx, p))
		assert.Zero(t, h.srv.CallCount("products/update/"))
	})
}

func TestProductDeleted(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the product with the same SKU", func(t *testing.T) {
		h := newHarness(t)
		h.srv.Do(func(st *molonitest.State) {
			st.Products = append(st.Products, ledger.Product{ProductID: 700, Reference: "BK-10"})
		})

		require.NoError(t, h.engine.ProductDeleted(ctx, storefront.Product{ID: 10, Sku: "BK-10"}))
		assert.Empty(t, h.state().Products)

		require.NoError(t, h.engine.ProductDeleted(ctx, storefront.Product{ID: 10, Sku: "BK-10"}))
		assert.Equal(t, 1, h.srv.CallCount("products/delete/"))
	})

	t.Run("empty SKU never matches an unreferenced product", func(t *testing.T) {
		h := newHarness(t)
		h.srv.Do(func(st *molonitest.State) {
			st.Products = append(st.Products, ledger.Product{ProductID: 800, Reference: ""})
		})

		require.NoError(t, h.engine.ProductDeleted(ctx, storefront.Product{ID: 10, Sku: ""}))
		assert.Zero(t, h.srv.CallCount("products/getByReference/"))
		assert.Zero(t, h.srv.CallCount("products/delete/"))
		assert.Len(t, h.state().Products, 1)
	})

	t.Run("empty SKU is resolved by the reference property", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.mappings.Save(ctx, &integration.CategoryMapping{StoreID: testStoreID, LocalID: 3, RemoteID: 900}))
		h.srv.Do(func(st *molonitest.State) {
			st.Products = append(st.Products,
				ledger.Product{ProductID: 800, CategoryID: 900},
				ledger.Product{ProductID: 801, CategoryID: 900, Properties: []ledger.ProductProperty{
					{PropertyID: molonitest.ReferencePropertyID, Value: "10"},
				}},
			)
		})

		require.NoError(t, h.engine.ProductDeleted(ctx, storefront.Product{ID: 10, CategoryIDs: []int{3}}))
		products := h.state().Products
		require.Len(t, products, 1)
		assert.Equal(t, 800, products[0].ProductID)
	})
}
