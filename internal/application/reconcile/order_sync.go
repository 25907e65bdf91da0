package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"github.com/erp/ledgersync/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderContext is what every order document needs: the remote customer and
// the order lines resolved to remote products
type orderContext struct {
	customer *ledger.Customer
	lines    []ledger.DocumentLine
}

func (e *Engine) loadOrderContext(ctx context.Context, o *storefront.Order) (*orderContext, error) {
	local, err := e.host.GetCustomer(ctx, o.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer %d: %w", o.CustomerID, err)
	}
	customer := e.ledger.Customers.GetByEmail(ctx, local.Email)
	if customer == nil {
		return nil, preconditionf("no remote customer for order %d", o.ID)
	}

	items, err := e.host.ListOrderItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load items of order %d: %w", o.ID, err)
	}
	lines := make([]ledger.DocumentLine, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		product := e.ledger.Products.GetByReference(ctx, item.Sku)
		if product == nil {
			return nil, preconditionf("no remote product with reference %q for order %d", item.Sku, o.ID)
		}
		lines = append(lines, ledger.NewDocumentLine(product, float64(item.Quantity), i))
	}
	return &orderContext{customer: customer, lines: lines}, nil
}

// remoteCurrency maps an ISO 4217 code to the remote currency id
func (e *Engine) remoteCurrency(ctx context.Context, code string) (int, error) {
	for _, c := range e.ledger.Lookups.Currencies(ctx) {
		if strings.EqualFold(c.ISO4217, code) {
			return c.CurrencyID, nil
		}
	}
	return 0, preconditionf("no remote currency %q", code)
}

// OrderPlaced creates the purchase order of a storefront order
func (e *Engine) OrderPlaced(ctx context.Context, o storefront.Order) error {
	if _, err := e.admit(ctx, "order placed"); err != nil {
		return err
	}
	ctx, span := telemetry.StartSpan(ctx, "reconcile.OrderPlaced", "order.id", o.ID)
	defer span.End()

	err := e.placeOrder(ctx, &o)
	telemetry.RecordError(span, err)
	return err
}

func (e *Engine) placeOrder(ctx context.Context, o *storefront.Order) error {
	oc, err := e.loadOrderContext(ctx, o)
	if err != nil {
		return err
	}
	currencyID, err := e.remoteCurrency(ctx, o.CustomerCurrencyCode)
	if err != nil {
		return err
	}
	setID, err := e.SetID(ctx, ledger.DocumentTypePurchaseOrder)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	reference := ledger.PurchaseOrderReference(o.ID)
	docID := e.ledger.PurchaseOrders.Insert(ctx, &ledger.PurchaseOrder{
		Date:               e.now(),
		DocumentSetID:      setID,
		Customer:           oc.customer,
		YourReference:      reference,
		Lines:              oc.lines,
		ExchangeCurrencyID: currencyID,
	})
	if err := idErr(docID, "create purchase order %s", reference); err != nil {
		return err
	}
	logger.WithLogger(ctx, e.logger).Info("Created purchase order",
		zap.Int("order_id", o.ID), zap.Int("document_id", docID))
	return nil
}

// OrderPaid creates the invoice receipt of a paid order, linked to its
// purchase order. A missing payment method is created.
func (e *Engine) OrderPaid(ctx context.Context, o storefront.Order) error {
	if _, err := e.admit(ctx, "order paid"); err != nil {
		return err
	}
	ctx, span := telemetry.StartSpan(ctx, "reconcile.OrderPaid", "order.id", o.ID)
	defer span.End()

	err := e.invoiceOrder(ctx, &o)
	telemetry.RecordError(span, err)
	return err
}

func (e *Engine) invoiceOrder(ctx context.Context, o *storefront.Order) error {
	oc, err := e.loadOrderContext(ctx, o)
	if err != nil {
		return err
	}

	methodName := o.PaymentMethodName()
	var methodID int
	if pm := e.ledger.PaymentMethods.GetByName(ctx, methodName); pm != nil {
		methodID = pm.PaymentMethodID
	} else {
		methodID = e.ledger.PaymentMethods.Insert(ctx, methodName)
		if err := idErr(methodID, "create payment method %q", methodName); err != nil {
			return err
		}
	}

	order := e.ledger.PurchaseOrders.GetOne(ctx, ledger.DocumentQuery{
		CustomerID:    oc.customer.CustomerID,
		YourReference: ledger.PurchaseOrderReference(o.ID),
	})
	if order == nil {
		return preconditionf("no purchase order for order %d", o.ID)
	}

	setID, err := e.SetID(ctx, ledger.DocumentTypeInvoiceReceipt)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	now := e.now()
	reference := ledger.InvoiceReceiptReference(o.ID)
	docID := e.ledger.InvoiceReceipts.Insert(ctx, &ledger.InvoiceReceipt{
		Date:          now,
		DocumentSetID: setID,
		Customer:      oc.customer,
		YourReference: reference,
		Lines:         oc.lines,
		Payments:      []ledger.Payment{payment(methodID, now, o.OrderTotal)},
		Associated:    order.Association(),
	})
	if err := idErr(docID, "create invoice receipt %s", reference); err != nil {
		return err
	}
	logger.WithLogger(ctx, e.logger).Info("Created invoice receipt",
		zap.Int("order_id", o.ID), zap.Int("document_id", docID))
	return nil
}

// OrderRefunded creates a payment return against the order's invoice
// receipt for the refunded amount. The payment method must already exist.
func (e *Engine) OrderRefunded(ctx context.Context, o storefront.Order, amount decimal.Decimal) error {
	if _, err := e.admit(ctx, "order refunded"); err != nil {
		return err
	}
	ctx, span := telemetry.StartSpan(ctx, "reconcile.OrderRefunded", "order.id", o.ID)
	defer span.End()

	err := e.refundOrder(ctx, &o, amount)
	telemetry.RecordError(span, err)
	return err
}

func (e *Engine) refundOrder(ctx context.Context, o *storefront.Order, amount decimal.Decimal) error {
	local, err := e.host.GetCustomer(ctx, o.CustomerID)
	if err != nil {
		return fmt.Errorf("load customer %d: %w", o.CustomerID, err)
	}
	customer := e.ledger.Customers.GetByEmail(ctx, local.Email)
	if customer == nil {
		return preconditionf("no remote customer for order %d", o.ID)
	}

	currencyID, err := e.remoteCurrency(ctx, o.CustomerCurrencyCode)
	if err != nil {
		return err
	}
	pm := e.ledger.PaymentMethods.GetByName(ctx, o.PaymentMethodName())
	if pm == nil {
		return preconditionf("no remote payment method %q", o.PaymentMethodName())
	}

	receipt := e.ledger.InvoiceReceipts.GetOne(ctx, ledger.DocumentQuery{
		CustomerID:    customer.CustomerID,
		YourReference: ledger.InvoiceReceiptReference(o.ID),
	})
	if receipt == nil {
		return preconditionf("no invoice receipt for order %d", o.ID)
	}

	setID, err := e.SetID(ctx, ledger.DocumentTypeReturnPayment)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	now := e.now()
	docID := e.ledger.PaymentReturns.Insert(ctx, &ledger.PaymentReturn{
		Date:               now,
		DocumentSetID:      setID,
		Customer:           customer,
		NetValue:           amount.InexactFloat64(),
		Associated:         receipt.Association(),
		Payments:           []ledger.Payment{payment(pm.PaymentMethodID, now, amount)},
		ExchangeCurrencyID: currencyID,
	})
	if err := idErr(docID, "create payment return for order %d", o.ID); err != nil {
		return err
	}
	logger.WithLogger(ctx, e.logger).Info("Created payment return",
		zap.Int("order_id", o.ID), zap.Int("document_id", docID), zap.String("amount", amount.String()))
	return nil
}

func payment(methodID int, at time.Time, value decimal.Decimal) ledger.Payment {
	return ledger.Payment{
		PaymentMethodID: methodID,
		Date:            ledger.FormatDate(at),
		Value:           value.InexactFloat64(),
	}
}
