package moloni

import (
	"context"
	"net/url"

	"github.com/erp/ledgersync/internal/domain/ledger"
)

// documentStatusClosed makes a document final on insert
const documentStatusClosed = 1

// documents queries a document resource (purchaseOrder, invoiceReceipts)
type documents struct {
	resource
	name string
}

func (d *documents) getOne(ctx context.Context, q ledger.DocumentQuery) *ledger.Document {
	resp := d.postForm(ctx, d.name+"/getOne/", func(f url.Values) {
		setInt(f, "document_id", q.DocumentID)
		setInt(f, "customer_id", q.CustomerID)
		if q.Date != nil {
			f.Set("date", ledger.FormatDate(*q.Date))
		}
		setInt(f, "number", q.Number)
		setString(f, "your_reference", q.YourReference)
	})
	doc, ok := DecodeOK[ledger.Document](resp)
	if !ok || doc.DocumentID == 0 {
		return nil
	}
	return &doc
}

func (d *documents) count(ctx context.Context, q ledger.DocumentQuery) int {
	resp := d.postForm(ctx, d.name+"/count/", func(f url.Values) {
		setInt(f, "customer_id", q.CustomerID)
		if q.Date != nil {
			f.Set("date", ledger.FormatDate(*q.Date))
		}
		setInt(f, "year", q.Year)
	})
	return intField(resp, "count")
}

// PurchaseOrderClient implements ledger.PurchaseOrderClient
type PurchaseOrderClient struct{ documents }

var _ ledger.PurchaseOrderClient = (*PurchaseOrderClient)(nil)

type purchaseOrderBody struct {
	CompanyID                  int                   `json:"company_id"`
	Date                       string                `json:"date"`
	ExpirationDate             string                `json:"expiration_date"`
	MaturityDateID             int                   `json:"maturity_date_id"`
	DocumentSetID              int                   `json:"document_set_id"`
	CustomerID                 int                   `json:"customer_id"`
	YourReference              string                `json:"your_reference"`
	SpecialDiscount            float64               `json:"special_discount"`
	Products                   []ledger.DocumentLine `json:"products"`
	DeliveryDestinationAddress string                `json:"delivery_destination_address"`
	DeliveryDestinationCity    string                `json:"delivery_destination_city"`
	DeliveryDestinationZipCode string                `json:"delivery_destination_zip_code"`
	DeliveryDestinationCountry int                   `json:"delivery_destination_country"`
	ExchangeCurrencyID         int                   `json:"exchange_currency_id,omitempty"`
	Notes                      string                `json:"notes"`
	Status                     int                   `json:"status"`
}

// Insert creates a purchase order and returns the document id. The delivery
// destination is taken from the customer.
func (c *PurchaseOrderClient) Insert(ctx context.Context, po *ledger.PurchaseOrder) int {
	if po.Customer == nil {
		return ledger.IDPreconditionFailed
	}
	resp := c.postJSON(ctx, c.name+"/insert/", func(companyID int) any {
		return purchaseOrderBody{
			CompanyID:                  companyID,
			Date:                       ledger.FormatDate(po.Date),
			ExpirationDate:             ledger.FormatDate(po.Date.AddDate(0, 0, ledger.PurchaseOrderValidityDays)),
			MaturityDateID:             po.Customer.MaturityDateID,
			DocumentSetID:              po.DocumentSetID,
			CustomerID:                 po.Customer.CustomerID,
			YourReference:              po.YourReference,
			SpecialDiscount:            po.SpecialDiscount,
			Products:                   po.Lines,
			DeliveryDestinationAddress: po.Customer.Address,
			DeliveryDestinationCity:    po.Customer.City,
			DeliveryDestinationZipCode: po.Customer.ZipCode,
			DeliveryDestinationCountry: po.Customer.CountryID,
			ExchangeCurrencyID:         po.ExchangeCurrencyID,
			Status:                     documentStatusClosed,
		}
	})
	return intField(resp, "document_id")
}

// GetOne returns the first purchase order matching q
func (c *PurchaseOrderClient) GetOne(ctx context.Context, q ledger.DocumentQuery) *ledger.Document {
	return c.getOne(ctx, q)
}

// Count returns the number of purchase orders matching q
func (c *PurchaseOrderClient) Count(ctx context.Context, q ledger.DocumentQuery) int {
	return c.count(ctx, q)
}

// InvoiceReceiptClient implements ledger.InvoiceReceiptClient
type InvoiceReceiptClient struct{ documents }

var _ ledger.InvoiceReceiptClient = (*InvoiceReceiptClient)(nil)

type invoiceReceiptBody struct {
	CompanyID           int                         `json:"company_id"`
	Date                string                      `json:"date"`
	ExpirationDate      string                      `json:"expiration_date"`
	MaturityDateID      int                         `json:"maturity_date_id"`
	DocumentSetID       int                         `json:"document_set_id"`
	CustomerID          int                         `json:"customer_id"`
	YourReference       string                      `json:"your_reference"`
	FinancialDiscount   float64                     `json:"financial_discount"`
	SpecialDiscount     float64                     `json:"special_discount"`
	Products            []ledger.DocumentLine       `json:"products"`
	Payments            []ledger.Payment            `json:"payments"`
	Notes               string                      `json:"notes"`
	Status              int                         `json:"status"`
	AssociatedDocuments []ledger.AssociatedDocument `json:"associated_documents"`
}

// Insert creates an invoice receipt linked to its purchase order
func (c *InvoiceReceiptClient) Insert(ctx context.Context, ir *ledger.InvoiceReceipt) int {
	if ir.Customer == nil {
		return ledger.IDPreconditionFailed
	}
	resp := c.postJSON(ctx, c.name+"/insert/", func(companyID int) any {
		return invoiceReceiptBody{
			CompanyID:           companyID,
			Date:                ledger.FormatDate(ir.Date),
			ExpirationDate:      ledger.FormatDate(ir.Date.AddDate(0, 0, ledger.PurchaseOrderValidityDays)),
			MaturityDateID:      ir.Customer.MaturityDateID,
			DocumentSetID:       ir.DocumentSetID,
			CustomerID:          ir.Customer.CustomerID,
			YourReference:       ir.YourReference,
			FinancialDiscount:   ir.FinancialDiscount,
			SpecialDiscount:     ir.SpecialDiscount,
			Products:            ir.Lines,
			Payments:            ir.Payments,
			Status:              documentStatusClosed,
			AssociatedDocuments: []ledger.AssociatedDocument{ir.Associated},
		}
	})
	return intField(resp, "document_id")
}

// GetOne returns the first invoice receipt matching q
func (c *InvoiceReceiptClient) GetOne(ctx context.Context, q ledger.DocumentQuery) *ledger.Document {
	return c.getOne(ctx, q)
}

// Count returns the number of invoice receipts matching q
func (c *InvoiceReceiptClient) Count(ctx context.Context, q ledger.DocumentQuery) int {
	return c.count(ctx, q)
}

// PaymentReturnClient implements ledger.PaymentReturnClient
type PaymentReturnClient struct{ resource }

var _ ledger.PaymentReturnClient = (*PaymentReturnClient)(nil)

type paymentReturnBody struct {
	CompanyID           int                         `json:"company_id"`
	Date                string                      `json:"date"`
	DocumentSetID       int                         `json:"document_set_id"`
	CustomerID          int                         `json:"customer_id"`
	NetValue            float64                     `json:"net_value"`
	AssociatedDocuments []ledger.AssociatedDocument `json:"associated_documents"`
	Payments            []ledger.Payment            `json:"payments"`
	ExchangeCurrencyID  int                         `json:"exchange_currency_id,omitempty"`
	Notes               string                      `json:"notes"`
	Status              int                         `json:"status"`
}

// Insert creates a payment return and returns its document id
func (c *PaymentReturnClient) Insert(ctx context.Context, pr *ledger.PaymentReturn) int {
	if pr.Customer == nil {
		return ledger.IDPreconditionFailed
	}
	resp := c.postJSON(ctx, "paymentReturns/insert/", func(companyID int) any {
		return paymentReturnBody{
			CompanyID:           companyID,
			Date:                ledger.FormatDate(pr.Date),
			DocumentSetID:       pr.DocumentSetID,
			CustomerID:          pr.Customer.CustomerID,
			NetValue:            pr.NetValue,
			AssociatedDocuments: []ledger.AssociatedDocument{pr.Associated},
			Payments:            pr.Payments,
			ExchangeCurrencyID:  pr.ExchangeCurrencyID,
			Notes:               pr.Notes,
			Status:              documentStatusClosed,
		}
	})
	return intField(resp, "document_id")
}
