package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/keygate/keygate/internal/domain/billing"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/types"
)

// InMemoryBillingGateway implements billing.Gateway against in-memory state.
// Mutations follow provider semantics: cancel-now flips status to canceled,
// period-end cancellation only sets the flag.
type InMemoryBillingGateway struct {
	mu sync.Mutex

	subscriptions map[string]*billing.Subscription
	customers     []*billing.Customer
	customerSubs  map[string][]string // customer id -> subscription ids, insertion order
	invoices      map[string][]*billing.Invoice
	sessions      map[string]*billing.CheckoutSession

	refunds   []*billing.Refund
	refundSeq int

	// Failure switches for exercising degraded paths
	FailRefund        bool
	FailInvoiceLookup bool
	FailCancelNow     bool
}

func NewInMemoryBillingGateway() *InMemoryBillingGateway {
	return &InMemoryBillingGateway{
		subscriptions: make(map[string]*billing.Subscription),
		customerSubs:  make(map[string][]string),
		invoices:      make(map[string][]*billing.Invoice),
		sessions:      make(map[string]*billing.CheckoutSession),
	}
}

// AddSubscription seeds a subscription and its owning customer.
func (g *InMemoryBillingGateway) AddSubscription(sub *billing.Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()

	copied := *sub
	g.subscriptions[sub.ID] = &copied

	if sub.CustomerID != "" {
		found := false
		for _, c := range g.customers {
			if c.ID == sub.CustomerID {
				found = true
				break
			}
		}
		if !found {
			g.customers = append(g.customers, &billing.Customer{
				ID:    sub.CustomerID,
				Email: sub.CustomerEmail,
			})
		}
		g.customerSubs[sub.CustomerID] = append(g.customerSubs[sub.CustomerID], sub.ID)
	}
}

// AddInvoice seeds a paid invoice for a subscription.
func (g *InMemoryBillingGateway) AddInvoice(inv *billing.Invoice) {
	g.mu.Lock()
	defer g.mu.Unlock()
	copied := *inv
	g.invoices[inv.SubscriptionID] = append(g.invoices[inv.SubscriptionID], &copied)
}

// AddSession seeds a checkout session.
func (g *InMemoryBillingGateway) AddSession(session *billing.CheckoutSession) {
	g.mu.Lock()
	defer g.mu.Unlock()
	copied := *session
	g.sessions[session.ID] = &copied
}

// Refunds returns all refunds issued so far.
func (g *InMemoryBillingGateway) Refunds() []*billing.Refund {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*billing.Refund, len(g.refunds))
	copy(out, g.refunds)
	return out
}

// Subscription returns the current state of a seeded subscription.
func (g *InMemoryBillingGateway) Subscription(id string) *billing.Subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sub, ok := g.subscriptions[id]; ok {
		copied := *sub
		return &copied
	}
	return nil
}

func (g *InMemoryBillingGateway) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sub, ok := g.subscriptions[subscriptionID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription exists for the given identifier").
			Mark(ierr.ErrNotFound)
	}
	copied := *sub
	return &copied, nil
}

func (g *InMemoryBillingGateway) ListCustomersByEmail(ctx context.Context, email string) ([]*billing.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []*billing.Customer
	for _, c := range g.customers {
		if strings.EqualFold(c.Email, email) {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (g *InMemoryBillingGateway) ListSubscriptionsByCustomer(ctx context.Context, customerID string) ([]*billing.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []*billing.Subscription
	for _, id := range g.customerSubs[customerID] {
		if sub, ok := g.subscriptions[id]; ok {
			copied := *sub
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (g *InMemoryBillingGateway) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*billing.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sub, ok := g.subscriptions[subscriptionID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription exists for the given identifier").
			Mark(ierr.ErrNotFound)
	}
	sub.CancelAtPeriodEnd = cancel
	copied := *sub
	return &copied, nil
}

func (g *InMemoryBillingGateway) CancelSubscriptionNow(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailCancelNow {
		return nil, ierr.NewError("provider rejected cancellation").
			WithHint("The payment provider call failed").
			Mark(ierr.ErrProvider)
	}

	sub, ok := g.subscriptions[subscriptionID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription exists for the given identifier").
			Mark(ierr.ErrNotFound)
	}
	sub.Status = types.SubscriptionStatusCanceled
	sub.CancelAtPeriodEnd = false
	copied := *sub
	return &copied, nil
}

func (g *InMemoryBillingGateway) LatestPaidInvoice(ctx context.Context, subscriptionID string) (*billing.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailInvoiceLookup {
		return nil, ierr.NewError("invoice lookup failed").
			WithHint("The payment provider call failed").
			Mark(ierr.ErrProvider)
	}

	invoices := g.invoices[subscriptionID]
	if len(invoices) == 0 {
		return nil, ierr.NewError("no paid invoice found").
			WithHint("The subscription has never been charged").
			Mark(ierr.ErrNotFound)
	}

	sorted := make([]*billing.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	copied := *sorted[0]
	return &copied, nil
}

func (g *InMemoryBillingGateway) CreateRefund(ctx context.Context, params billing.RefundParams) (*billing.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailRefund {
		return nil, ierr.NewError("refund rejected").
			WithHint("The payment provider call failed").
			Mark(ierr.ErrProvider)
	}

	if params.ChargeID == "" && params.PaymentIntentID == "" {
		return nil, ierr.NewError("refund target missing").
			WithHint("A charge or payment intent is required to issue a refund").
			Mark(ierr.ErrInvalidOperation)
	}

	// Refund the full amount of the invoice backing the charge.
	var amount int64
	var currency string
	for _, invoices := range g.invoices {
		for _, inv := range invoices {
			if (params.ChargeID != "" && inv.ChargeID == params.ChargeID) ||
				(params.PaymentIntentID != "" && inv.PaymentIntentID == params.PaymentIntentID) {
				amount = inv.AmountPaid
				currency = inv.Currency
			}
		}
	}

	g.refundSeq++
	refund := &billing.Refund{
		ID:       fmt.Sprintf("re_%03d", g.refundSeq),
		Amount:   amount,
		Currency: currency,
		ChargeID: params.ChargeID,
		Reason:   params.Reason,
	}
	g.refunds = append(g.refunds, refund)

	copied := *refund
	return &copied, nil
}

func (g *InMemoryBillingGateway) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session := &billing.CheckoutSession{
		ID:            fmt.Sprintf("cs_%03d", len(g.sessions)+1),
		URL:           "https://checkout.example.com/" + fmt.Sprintf("cs_%03d", len(g.sessions)+1),
		Status:        billing.CheckoutSessionStatusOpen,
		CustomerEmail: params.CustomerEmail,
	}
	g.sessions[session.ID] = session

	copied := *session
	return &copied, nil
}

func (g *InMemoryBillingGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*billing.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, ierr.NewError("checkout session not found").
			WithHint("The requested resource does not exist at the payment provider").
			Mark(ierr.ErrNotFound)
	}
	copied := *session
	return &copied, nil
}
