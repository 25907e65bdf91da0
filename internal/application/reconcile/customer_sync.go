package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/erp/ledgersync/internal/domain/ledger"
	"github.com/erp/ledgersync/internal/domain/shared"
	"github.com/erp/ledgersync/internal/domain/storefront"
	"github.com/erp/ledgersync/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CustomerChanged mirrors a registered or updated customer using its billing
// address, or the default address when it has none
func (e *Engine) CustomerChanged(ctx context.Context, c storefront.Customer) error {
	if _, err := e.admit(ctx, "customer changed"); err != nil {
		return err
	}

	address := storefront.DefaultAddress()
	if c.BillingAddressID > 0 {
		a, err := e.host.GetAddress(ctx, c.BillingAddressID)
		switch {
		case err == nil:
			address = a
		case !errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("load address %d: %w", c.BillingAddressID, err)
		}
	}
	return e.syncCustomer(ctx, &c, address)
}

// AddressChanged mirrors the customer owning an inserted or updated address.
// Addresses are linked to customers by email; an address with no matching
// customer is ignored.
func (e *Engine) AddressChanged(ctx context.Context, a storefront.Address) error {
	if _, err := e.admit(ctx, "address changed"); err != nil {
		return err
	}
	log := logger.WithLogger(ctx, e.logger).With(zap.Int("address_id", a.ID))

	if strings.TrimSpace(a.Email) == "" {
		log.Debug("Address has no email, no customer to update")
		return nil
	}
	c, err := e.host.GetCustomerByEmail(ctx, a.Email)
	if errors.Is(err, shared.ErrNotFound) {
		log.Debug("No customer owns the address")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load customer by email: %w", err)
	}
	return e.syncCustomer(ctx, c, &a)
}

// syncCustomer inserts or updates the remote customer matched by email, or
// by VAT when the email is unknown remotely. An update keeps the remote id
// and number.
func (e *Engine) syncCustomer(ctx context.Context, c *storefront.Customer, address *storefront.Address) error {
	log := logger.WithLogger(ctx, e.logger).With(zap.Int("customer_id", c.ID))

	countryID, err := e.remoteCountry(ctx, address.CountryID)
	if err != nil {
		return err
	}

	phone := c.Phone
	if address.PhoneNumber != "" {
		phone = address.PhoneNumber
	}
	payload := &ledger.Customer{
		Name:      c.FullName(),
		VAT:       c.VatNumber,
		Email:     c.Email,
		Address:   address.Address1,
		ZipCode:   address.ZipPostalCode,
		City:      address.City,
		CountryID: countryID,
		Phone:     phone,
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	existing := e.findRemoteCustomer(ctx, c)
	if existing == nil {
		next := e.ledger.Customers.NextNumber(ctx)
		if err := idErr(next, "next customer number"); err != nil {
			return err
		}
		payload.Number = strconv.Itoa(next)
		remoteID := e.ledger.Customers.Insert(ctx, payload)
		if err := idErr(remoteID, "create remote customer for %d", c.ID); err != nil {
			return err
		}
		log.Info("Created remote customer", zap.Int("remote_id", remoteID), zap.String("number", payload.Number))
		return nil
	}

	payload.CustomerID = existing.CustomerID
	payload.Number = existing.Number
	if err := idErr(e.ledger.Customers.Update(ctx, payload), "update remote customer %d", existing.CustomerID); err != nil {
		return err
	}
	log.Info("Updated remote customer", zap.Int("remote_id", existing.CustomerID))
	return nil
}

// findRemoteCustomer joins on email first. The final consumer VAT is shared
// by anonymous buyers and never used as a join key.
func (e *Engine) findRemoteCustomer(ctx context.Context, c *storefront.Customer) *ledger.Customer {
	if existing := e.ledger.Customers.GetByEmail(ctx, c.Email); existing != nil {
		return existing
	}
	vat := strings.TrimSpace(c.VatNumber)
	if vat == "" || vat == ledger.FinalConsumerVAT || ctx.Err() != nil {
		return nil
	}
	return e.ledger.Customers.GetByVAT(ctx, vat)
}

// remoteCountry maps a storefront country id to the remote country with the
// same name
func (e *Engine) remoteCountry(ctx context.Context, localID int) (int, error) {
	country, err := e.host.GetCountry(ctx, localID)
	if err != nil {
		return 0, fmt.Errorf("load country %d: %w", localID, err)
	}
	for _, rc := range e.ledger.Lookups.Countries(ctx) {
		if ledger.SameName(rc.Name, country.Name) {
			return rc.CountryID, nil
		}
	}
	return 0, preconditionf("no remote country named %q", country.Name)
}
