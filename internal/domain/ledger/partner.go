package ledger

// Customer is a remote customer. Numeric fields are sent as strings on
// insert and update, see the customer client.
type Customer struct {
	CustomerID       int     `json:"customer_id"`
	Number           string  `json:"number"`
	Name             string  `json:"name"`
	VAT              string  `json:"vat"`
	Email            string  `json:"email"`
	Address          string  `json:"address"`
	ZipCode          string  `json:"zip_code"`
	City             string  `json:"city"`
	CountryID        int     `json:"country_id"`
	Phone            string  `json:"phone"`
	Notes            string  `json:"notes"`
	LanguageID       int     `json:"language_id"`
	MaturityDateID   int     `json:"maturity_date_id"`
	PaymentMethodID  int     `json:"payment_method_id"`
	SalesmanID       int     `json:"salesman_id"`
	PaymentDay       int     `json:"payment_day"`
	Discount         float64 `json:"discount"`
	CreditLimit      float64 `json:"credit_limit"`
	DeliveryMethodID int     `json:"delivery_method_id"`
}

// NextCustomerNumber applies the numbering policy to the remote customer
// count. The final consumer is counted but carries no number, so when it
// exists the count already is the next free number. The reserved number
// 9999 is never handed out.
func NextCustomerNumber(count int, finalConsumerExists bool) int {
	next := count + 1
	if finalConsumerExists {
		next = count
	}
	if next == ReservedCustomerNumber {
		next++
	}
	return next
}
