package storefront

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentMethodPrefix prefixes storefront payment plugin system names
const PaymentMethodPrefix = "Payments."

// Order is a storefront order snapshot
type Order struct {
	ID                      int             `json:"id"`
	CustomerID              int             `json:"customer_id"`
	CustomerCurrencyCode    string          `json:"customer_currency_code"`
	PaymentMethodSystemName string          `json:"payment_method_system_name"`
	OrderTotal              decimal.Decimal `json:"order_total"`
}

// PaymentMethodName returns the payment method name without the plugin prefix
func (o *Order) PaymentMethodName() string {
	return strings.TrimPrefix(o.PaymentMethodSystemName, PaymentMethodPrefix)
}

// OrderItem is one line of an order
type OrderItem struct {
	ID        int             `json:"id"`
	OrderID   int             `json:"order_id"`
	ProductID int             `json:"product_id"`
	Sku       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
