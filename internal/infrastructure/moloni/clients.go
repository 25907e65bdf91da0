package moloni

import (
	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/erp/ledgersync/internal/domain/ledger"
	"go.uber.org/zap"
)

// NewClients builds every resource client on one gateway
func NewClients(gw *Gateway, settings integration.SettingsProvider, log *zap.Logger) ledger.Clients {
	base := resource{gw: gw, settings: settings, logger: log.Named("moloni.clients")}
	return ledger.Clients{
		Categories:      &CategoryClient{base},
		Products:        &ProductClient{base},
		Stocks:          &StockClient{base},
		Warehouses:      &WarehouseClient{base},
		Customers:       &CustomerClient{base},
		PurchaseOrders:  &PurchaseOrderClient{documents{resource: base, name: "purchaseOrder"}},
		InvoiceReceipts: &InvoiceReceiptClient{documents{resource: base, name: "invoiceReceipts"}},
		PaymentReturns:  &PaymentReturnClient{base},
		PaymentMethods:  &PaymentMethodClient{base},
		DocumentSets:    &DocumentSetClient{base},
		Lookups:         &LookupClient{base},
	}
}
