package moloni

import (
	"context"
	"net/url"
	"strconv"

	"github.com/erp/ledgersync/internal/domain/ledger"
)

// PaymentMethodClient implements ledger.PaymentMethodClient
type PaymentMethodClient struct{ resource }

var _ ledger.PaymentMethodClient = (*PaymentMethodClient)(nil)

// GetByName returns the payment method whose name matches case-insensitively
func (c *PaymentMethodClient) GetByName(ctx context.Context, name string) *ledger.PaymentMethod {
	for _, pm := range Decode[[]ledger.PaymentMethod](c.postForm(ctx, "paymentMethods/getAll/", nil)) {
		if ledger.SameName(pm.Name, name) {
			return &pm
		}
	}
	return nil
}

// Insert creates a payment method and returns its id
func (c *PaymentMethodClient) Insert(ctx context.Context, name string) int {
	resp := c.postForm(ctx, "paymentMethods/insert/", func(f url.Values) {
		f.Set("name", name)
	})
	return intField(resp, "payment_method_id")
}

// DocumentSetClient implements ledger.DocumentSetClient
type DocumentSetClient struct{ resource }

var _ ledger.DocumentSetClient = (*DocumentSetClient)(nil)

// GetAll lists every document set
func (c *DocumentSetClient) GetAll(ctx context.Context) []ledger.DocumentSet {
	return Decode[[]ledger.DocumentSet](c.postForm(ctx, "documentSets/getAll/", nil))
}

// Insert creates a document set and returns its id
func (c *DocumentSetClient) Insert(ctx context.Context, name string) int {
	resp := c.postForm(ctx, "documentSets/insert/", func(f url.Values) {
		f.Set("name", name)
	})
	return intField(resp, "document_set_id")
}

// RegisterAT registers a set with the fiscal authority for one document
// type. The manual code fields are sent only when reg carries a code.
func (c *DocumentSetClient) RegisterAT(ctx context.Context, documentSetID, documentTypeID int, reg *ledger.ATRegistration) bool {
	resp := c.postForm(ctx, "documentSets/ATInsertCode/", func(f url.Values) {
		f.Set("document_set_id", strconv.Itoa(documentSetID))
		f.Set("document_type_id", strconv.Itoa(documentTypeID))
		if reg.Manual() {
			f.Set("document_set_at_code", reg.ATCode)
			setInt(f, "initial_num", reg.InitialNum)
			if !reg.InitialDate.IsZero() {
				f.Set("initial_date", ledger.FormatDate(reg.InitialDate))
			}
		}
	})
	return valid(resp)
}

// LookupClient implements ledger.LookupClient
type LookupClient struct{ resource }

var _ ledger.LookupClient = (*LookupClient)(nil)

// MeasurementUnits lists the units of measure
func (c *LookupClient) MeasurementUnits(ctx context.Context) []ledger.MeasurementUnit {
	return Decode[[]ledger.MeasurementUnit](c.postForm(ctx, "measurementUnits/getAll/", nil))
}

// Properties lists the custom product properties
func (c *LookupClient) Properties(ctx context.Context) []ledger.PropertyDefinition {
	return Decode[[]ledger.PropertyDefinition](c.postForm(ctx, "productProperties/getAll/", nil))
}

// InsertProperty creates a custom product property and returns its id
func (c *LookupClient) InsertProperty(ctx context.Context, title string) int {
	resp := c.postForm(ctx, "productProperties/insert/", func(f url.Values) {
		f.Set("title", title)
	})
	return intField(resp, "property_id")
}

// Taxes lists the taxes of the company
func (c *LookupClient) Taxes(ctx context.Context) []ledger.Tax {
	return Decode[[]ledger.Tax](c.postForm(ctx, "taxes/getAll/", nil))
}

// Countries lists the countries known to the ledger
func (c *LookupClient) Countries(ctx context.Context) []ledger.Country {
	return Decode[[]ledger.Country](c.postForm(ctx, "countries/getAll/", nil))
}

// Currencies lists the currencies known to the ledger
func (c *LookupClient) Currencies(ctx context.Context) []ledger.Currency {
	return Decode[[]ledger.Currency](c.postForm(ctx, "currencies/getAll/", nil))
}
