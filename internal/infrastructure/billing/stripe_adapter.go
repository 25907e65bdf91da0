package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/subscription"
	"go.uber.org/zap"
)

// StripeAdapter looks up store subscriptions in Stripe
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeAdapter{
		config: config,
		logger: logger.Named("stripe"),
	}, nil
}

// ProductID returns the product the subscription must include
func (a *StripeAdapter) ProductID() string {
	return a.config.ProductID
}

// FindCustomerID returns the id of the first customer with email
func (a *StripeAdapter) FindCustomerID(ctx context.Context, email string) (string, error) {
	a.logger.Debug("Looking up Stripe customer", zap.String("email", email))

	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	iter := customer.List(params)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		a.logger.Error("Failed to list Stripe customers", zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("stripe: failed to list customers: %w", err)
	}
	return "", ErrCustomerNotFound
}

// ActiveSubscription returns the first active subscription of a customer
func (a *StripeAdapter) ActiveSubscription(ctx context.Context, customerID string) (*SubscriptionInfo, error) {
	a.logger.Debug("Listing Stripe subscriptions", zap.String("customer_id", customerID))

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	iter := subscription.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		if sub.Status != stripe.SubscriptionStatusActive {
			continue
		}
		info := &SubscriptionInfo{
			CustomerID:       customerID,
			SubscriptionID:   sub.ID,
			Status:           mapStripeSubscriptionStatus(sub.Status),
			CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0),
		}
		if sub.Items != nil {
			for _, item := range sub.Items.Data {
				if item.Price != nil && item.Price.Product != nil {
					info.ProductIDs = append(info.ProductIDs, item.Price.Product.ID)
				}
			}
		}
		return info, nil
	}

	if err := iter.Err(); err != nil {
		a.logger.Error("Failed to list Stripe subscriptions",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to list subscriptions: %w", err)
	}
	return nil, ErrNoActiveSubscription
}

// HasActiveSubscription reports whether the customer with email holds an
// active subscription that includes the configured product. A false result
// comes with the reason as error.
func (a *StripeAdapter) HasActiveSubscription(ctx context.Context, email string) (bool, error) {
	customerID, err := a.FindCustomerID(ctx, email)
	if err != nil {
		return false, err
	}
	sub, err := a.ActiveSubscription(ctx, customerID)
	if err != nil {
		return false, err
	}
	if !sub.Includes(a.config.ProductID) {
		return false, ErrProductNotSubscribed
	}

	a.logger.Info("Active subscription confirmed",
		zap.String("customer_id", customerID),
		zap.String("subscription_id", sub.SubscriptionID))
	return true, nil
}
