package types

// ProviderEventType identifies inbound payment-provider webhook events this
// service reacts to. Unknown event types are acknowledged and ignored so the
// provider can add new ones without breaking us.
type ProviderEventType string

const (
	ProviderEventCheckoutSessionCompleted ProviderEventType = "checkout.session.completed"
	ProviderEventSubscriptionUpdated      ProviderEventType = "customer.subscription.updated"
	ProviderEventSubscriptionDeleted      ProviderEventType = "customer.subscription.deleted"
)
