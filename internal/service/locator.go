package service

import (
	"context"
	"strings"

	"github.com/keygate/keygate/internal/domain/billing"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
)

// SubscriptionLocator resolves a caller-supplied identifier to exactly one
// subscription. Read-only against the provider.
type SubscriptionLocator struct {
	gateway billing.Gateway
	logger  *logger.Logger
}

func NewSubscriptionLocator(gateway billing.Gateway, logger *logger.Logger) *SubscriptionLocator {
	return &SubscriptionLocator{
		gateway: gateway,
		logger:  logger,
	}
}

// Locate resolves by subscription id when given, otherwise by email.
// Email matching is case-insensitive with surrounding whitespace trimmed.
// When several customers share the email, the first subscription in active
// or trialing status wins.
func (l *SubscriptionLocator) Locate(ctx context.Context, subscriptionID, email string) (*billing.Subscription, error) {
	if subscriptionID != "" {
		return l.gateway.GetSubscription(ctx, subscriptionID)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ierr.NewError("missing identifier").
			WithHint("Either a subscription id or an email is required").
			Mark(ierr.ErrValidation)
	}

	customers, err := l.gateway.ListCustomersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(customers) > 1 {
		l.logger.Warnw("multiple customers share the same email, selecting first entitled subscription",
			"email", email,
			"customer_count", len(customers),
		)
	}

	for _, customer := range customers {
		subs, err := l.gateway.ListSubscriptionsByCustomer(ctx, customer.ID)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			if sub.Status.IsEntitled() {
				if sub.CustomerID == "" {
					sub.CustomerID = customer.ID
				}
				if sub.CustomerEmail == "" {
					sub.CustomerEmail = customer.Email
				}
				return sub, nil
			}
		}
	}

	return nil, ierr.NewError("no active subscription found").
		WithHint("No active or trialing subscription exists for the given email").
		WithReportableDetails(map[string]interface{}{
			"email": email,
		}).
		Mark(ierr.ErrNotFound)
}
