package ledger

import (
	"strings"

	"golang.org/x/text/cases"
)

// SameName reports whether two remote or storefront names match after
// trimming and full Unicode case folding. A Caser holds state, so each
// call builds its own.
func SameName(a, b string) bool {
	return cases.Fold().String(strings.TrimSpace(a)) == cases.Fold().String(strings.TrimSpace(b))
}

// MeasurementUnit is a remote unit of measure
type MeasurementUnit struct {
	UnitID    int    `json:"unit_id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// PropertyDefinition is a custom product property definition
type PropertyDefinition struct {
	PropertyID int    `json:"property_id"`
	Title      string `json:"title"`
}

// Tax is a remote tax or fee
type Tax struct {
	TaxID           int     `json:"tax_id"`
	Type            int     `json:"type"`
	SaftType        int     `json:"saft_type"`
	VatType         string  `json:"vat_type"`
	StampTax        string  `json:"stamp_tax"`
	Name            string  `json:"name"`
	Value           float64 `json:"value"`
	FiscalZone      string  `json:"fiscal_zone"`
	ActiveByDefault int     `json:"active_by_default"`
}

// Country is a remote country
type Country struct {
	CountryID int    `json:"country_id"`
	Name      string `json:"name"`
	ISO3166   string `json:"iso_3166_1"`
}

// Currency is a remote currency
type Currency struct {
	CurrencyID int    `json:"currency_id"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	ISO4217    string `json:"iso4217"`
}

// PaymentMethod is a remote payment method
type PaymentMethod struct {
	PaymentMethodID int    `json:"payment_method_id"`
	Name            string `json:"name"`
}
