package ledger

import (
	"fmt"
	"time"
)

// DocumentType names a document set family
type DocumentType string

const (
	DocumentTypePurchaseOrder  DocumentType = "PurchaseOrder"
	DocumentTypeInvoiceReceipt DocumentType = "InvoiceReceipt"
	DocumentTypeReturnPayment  DocumentType = "ReturnPayment"
)

// ATDocumentTypeID returns the fiscal authority document type id, false when
// the type is not registered with the authority
func (t DocumentType) ATDocumentTypeID() (int, bool) {
	switch t {
	case DocumentTypePurchaseOrder:
		return 28, true
	case DocumentTypeInvoiceReceipt:
		return 27, true
	default:
		return 0, false
	}
}

// SetName returns the yearly document set name, e.g. PurchaseOrder2026
func (t DocumentType) SetName(year int) string {
	return fmt.Sprintf("%s%d", t, year)
}

// PurchaseOrderReference tags the purchase order of a storefront order
func PurchaseOrderReference(orderID int) string {
	return fmt.Sprintf("PO%d", orderID)
}

// InvoiceReceiptReference tags the invoice receipt of a storefront order
func InvoiceReceiptReference(orderID int) string {
	return fmt.Sprintf("IR%d", orderID)
}

// DateLayout is the remote date format
const DateLayout = "2006-01-02"

// FormatDate formats t in the remote date layout
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DocumentSet is a numbering series for documents
type DocumentSet struct {
	DocumentSetID   int    `json:"document_set_id"`
	Name            string `json:"name"`
	TemplateID      int    `json:"template_id,omitempty"`
	ActiveByDefault int    `json:"active_by_default,omitempty"`
}

// ATRegistration is the optional manual fiscal registration of a set
type ATRegistration struct {
	ATCode      string
	InitialNum  int
	InitialDate time.Time
}

// Manual reports whether a manual code was configured
func (r *ATRegistration) Manual() bool {
	return r != nil && r.ATCode != ""
}

// DocumentLine is one product line of a document
type DocumentLine struct {
	ProductID       int          `json:"product_id"`
	Name            string       `json:"name"`
	Summary         string       `json:"summary,omitempty"`
	Qty             float64      `json:"qty"`
	Price           float64      `json:"price"`
	Discount        float64      `json:"discount,omitempty"`
	Order           int          `json:"order,omitempty"`
	ExemptionReason string       `json:"exemption_reason,omitempty"`
	Taxes           []ProductTax `json:"taxes,omitempty"`
}

// NewDocumentLine builds a document line from a remote product
func NewDocumentLine(p *Product, qty float64, order int) DocumentLine {
	return DocumentLine{
		ProductID:       p.ProductID,
		Name:            p.Name,
		Summary:         p.Summary,
		Qty:             qty,
		Price:           p.Price,
		Order:           order,
		ExemptionReason: p.ExemptionReason,
		Taxes:           p.Taxes,
	}
}

// Payment is a payment line
type Payment struct {
	PaymentMethodID int     `json:"payment_method_id"`
	Date            string  `json:"date"`
	Value           float64 `json:"value"`
	Notes           string  `json:"notes,omitempty"`
}

// AssociatedDocument links a document to the one it derives from
type AssociatedDocument struct {
	AssociatedID int     `json:"associated_id"`
	Value        float64 `json:"value"`
}

// Document is a remote document as returned by getOne
type Document struct {
	DocumentID         int     `json:"document_id"`
	DocumentTypeID     int     `json:"document_type_id"`
	DocumentSetID      int     `json:"document_set_id"`
	DocumentSetName    string  `json:"document_set_name"`
	CustomerID         int     `json:"customer_id"`
	Number             int     `json:"number"`
	Date               string  `json:"date"`
	YourReference      string  `json:"your_reference"`
	NetValue           float64 `json:"net_value"`
	ExchangeCurrencyID int     `json:"exchange_currency_id"`
	ExchangeTotalValue float64 `json:"exchange_total_value"`
	Status             int     `json:"status"`
}

// Association returns the link a follow-up document uses
func (d *Document) Association() AssociatedDocument {
	return AssociatedDocument{AssociatedID: d.DocumentID, Value: d.ExchangeTotalValue}
}

// DocumentQuery filters getOne and count calls. Zero fields are omitted.
type DocumentQuery struct {
	DocumentID    int
	CustomerID    int
	Date          *time.Time
	Number        int
	Year          int
	YourReference string
}

// PurchaseOrder is a purchase-order create request
type PurchaseOrder struct {
	Date               time.Time
	DocumentSetID      int
	Customer           *Customer
	YourReference      string
	SpecialDiscount    float64
	Lines              []DocumentLine
	ExchangeCurrencyID int
}

// InvoiceReceipt is an invoice-receipt create request
type InvoiceReceipt struct {
	Date              time.Time
	DocumentSetID     int
	Customer          *Customer
	YourReference     string
	FinancialDiscount float64
	SpecialDiscount   float64
	Lines             []DocumentLine
	Payments          []Payment
	Associated        AssociatedDocument
}

// PaymentReturn is a payment-return create request
type PaymentReturn struct {
	Date               time.Time
	DocumentSetID      int
	Customer           *Customer
	NetValue           float64
	Associated         AssociatedDocument
	Payments           []Payment
	ExchangeCurrencyID int
	Notes              string
}
