package moloni

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/erp/ledgersync/internal/domain/ledger"
)

// CustomerClient implements ledger.CustomerClient
type CustomerClient struct{ resource }

var _ ledger.CustomerClient = (*CustomerClient)(nil)

// GetByEmail returns the customer whose email matches case-insensitively
func (c *CustomerClient) GetByEmail(ctx context.Context, email string) *ledger.Customer {
	resp := c.postForm(ctx, "customers/getByEmail/", func(f url.Values) {
		f.Set("email", email)
	})
	for _, cust := range Decode[[]ledger.Customer](resp) {
		if strings.EqualFold(cust.Email, email) {
			return &cust
		}
	}
	return nil
}

// GetByVAT returns the first customer with the VAT number
func (c *CustomerClient) GetByVAT(ctx context.Context, vat string) *ledger.Customer {
	resp := c.postForm(ctx, "customers/getByVat/", func(f url.Values) {
		f.Set("vat", vat)
	})
	return first(Decode[[]ledger.Customer](resp))
}

// Count returns the number of customers, or the transport sentinel
func (c *CustomerClient) Count(ctx context.Context) int {
	return intField(c.postForm(ctx, "customers/count/", nil), "count")
}

// NextNumber returns the next free customer number
func (c *CustomerClient) NextNumber(ctx context.Context) int {
	count := c.Count(ctx)
	if count < 0 {
		return count
	}
	finalConsumer := c.GetByVAT(ctx, ledger.FinalConsumerVAT) != nil
	return ledger.NextCustomerNumber(count, finalConsumer)
}

// Insert creates a customer and returns its id
func (c *CustomerClient) Insert(ctx context.Context, cust *ledger.Customer) int {
	resp := c.postJSON(ctx, "customers/insert/", func(companyID int) any {
		return customerBody(companyID, cust, false)
	})
	return intField(resp, "customer_id")
}

// Update replaces a customer and returns its id
func (c *CustomerClient) Update(ctx context.Context, cust *ledger.Customer) int {
	if cust.CustomerID <= 0 {
		return ledger.IDPreconditionFailed
	}
	resp := c.postJSON(ctx, "customers/update/", func(companyID int) any {
		return customerBody(companyID, cust, true)
	})
	return intField(resp, "customer_id")
}

// customerBody renders every value as a string, as the customer endpoints
// expect. Empty phone and notes are left out.
func customerBody(companyID int, c *ledger.Customer, withID bool) map[string]string {
	body := map[string]string{
		"company_id":         strconv.Itoa(companyID),
		"vat":                c.VAT,
		"number":             c.Number,
		"name":               c.Name,
		"language_id":        "1",
		"address":            c.Address,
		"zip_code":           c.ZipCode,
		"city":               c.City,
		"country_id":         strconv.Itoa(c.CountryID),
		"email":              c.Email,
		"maturity_date_id":   strconv.Itoa(c.MaturityDateID),
		"payment_method_id":  strconv.Itoa(c.PaymentMethodID),
		"salesman_id":        strconv.Itoa(c.SalesmanID),
		"payment_day":        strconv.Itoa(c.PaymentDay),
		"discount":           formatQty(c.Discount),
		"credit_limit":       formatQty(c.CreditLimit),
		"delivery_method_id": strconv.Itoa(c.DeliveryMethodID),
	}
	if c.Phone != "" {
		body["phone"] = c.Phone
	}
	if c.Notes != "" {
		body["notes"] = c.Notes
	}
	if withID {
		body["customer_id"] = strconv.Itoa(c.CustomerID)
	}
	return body
}
