package billing

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v81"
)

// SubscriptionStatus represents the status of a Stripe subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
	SubscriptionStatusUnknown  SubscriptionStatus = "unknown"
)

// String returns the string representation of SubscriptionStatus
func (s SubscriptionStatus) String() string {
	return string(s)
}

// Lookup errors
var (
	ErrCustomerNotFound     = errors.New("stripe: no customer with this email")
	ErrNoActiveSubscription = errors.New("stripe: customer has no active subscription")
	ErrProductNotSubscribed = errors.New("stripe: active subscription does not include the product")
)

// SubscriptionInfo describes the first active subscription of a customer
type SubscriptionInfo struct {
	CustomerID       string
	SubscriptionID   string
	Status           SubscriptionStatus
	ProductIDs       []string
	CurrentPeriodEnd time.Time
}

// Includes reports whether one of the subscription items sells productID
func (s *SubscriptionInfo) Includes(productID string) bool {
	for _, id := range s.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// ErrorMessage returns the message Stripe attached to err, or err's text
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}

// mapStripeSubscriptionStatus maps Stripe subscription status to our internal status
func mapStripeSubscriptionStatus(status stripe.SubscriptionStatus) SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue:
		return SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return SubscriptionStatusCanceled
	case stripe.SubscriptionStatusTrialing:
		return SubscriptionStatusTrialing
	case stripe.SubscriptionStatusUnpaid:
		return SubscriptionStatusUnpaid
	case stripe.SubscriptionStatusPaused:
		return SubscriptionStatusPaused
	default:
		return SubscriptionStatusUnknown
	}
}
