package storefront

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_PrimaryCategoryID(t *testing.T) {
	p := &Product{}
	assert.Equal(t, 0, p.PrimaryCategoryID())

	p.CategoryIDs = []int{4, 9}
	assert.Equal(t, 4, p.PrimaryCategoryID())
}

func TestOrder_PaymentMethodName(t *testing.T) {
	tests := []struct {
		systemName string
		want       string
	}{
		{"Payments.Cash", "Cash"},
		{"Payments.PayPal", "PayPal"},
		{"BankTransfer", "BankTransfer"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.systemName, func(t *testing.T) {
			o := &Order{PaymentMethodSystemName: tt.systemName}
			assert.Equal(t, tt.want, o.PaymentMethodName())
		})
	}
}

func TestCustomer_FullName(t *testing.T) {
	c := &Customer{FirstName: "Ana", LastName: "Silva"}
	assert.Equal(t, "Ana Silva", c.FullName())

	c = &Customer{FirstName: "Ana"}
	assert.Equal(t, "Ana", c.FullName())
}

func TestDefaultAddress(t *testing.T) {
	a := DefaultAddress()
	assert.Equal(t, "Morada Padrão", a.Address1)
	assert.Equal(t, "0000-000", a.ZipPostalCode)
	assert.Equal(t, "Cidade Padrão", a.City)
	assert.Equal(t, 179, a.CountryID)
}

func TestNewOrderRefundedEvent(t *testing.T) {
	o := Order{ID: 55, OrderTotal: decimal.RequireFromString("19.99")}
	e := NewOrderRefundedEvent(1, o, decimal.RequireFromString("5.00"))

	assert.Equal(t, EventTypeOrderRefunded, e.EventType())
	assert.Equal(t, 55, e.AggregateID())
	assert.Equal(t, 1, e.StoreID())
	assert.True(t, e.RefundedAmount.Equal(decimal.NewFromInt(5)))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", e.EventID().String())
}
