package storefront

import "strings"

// Customer is a registered storefront customer
type Customer struct {
	ID               int    `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	VatNumber        string `json:"vat_number,omitempty"`
	Phone            string `json:"phone,omitempty"`
	BillingAddressID int    `json:"billing_address_id,omitempty"`
}

// FullName joins first and last name
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Address is a postal address
type Address struct {
	ID            int    `json:"id"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Email         string `json:"email,omitempty"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2,omitempty"`
	ZipPostalCode string `json:"zip_postal_code"`
	City          string `json:"city"`
	CountryID     int    `json:"country_id"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	FaxNumber     string `json:"fax_number,omitempty"`
}

// Default address values used when a customer has no billing address yet
const (
	DefaultAddressLine = "Morada Padrão"
	DefaultZipCode     = "0000-000"
	DefaultCity        = "Cidade Padrão"
	DefaultCountryID   = 179
)

// DefaultAddress returns the placeholder address for customers without one
func DefaultAddress() *Address {
	return &Address{
		Address1:      DefaultAddressLine,
		ZipPostalCode: DefaultZipCode,
		City:          DefaultCity,
		CountryID:     DefaultCountryID,
	}
}

// Country is a storefront country
type Country struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	TwoLetterIsoCode   string `json:"two_letter_iso_code,omitempty"`
	ThreeLetterIsoCode string `json:"three_letter_iso_code,omitempty"`
}

// Warehouse is a storefront warehouse with its address inlined
type Warehouse struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Address Address `json:"address"`
}
