package domain

import "context"

// SubscriptionStore owns the durable set of push subscriptions. Every
// mutation rewrites the backing file; implementations serialize mutations
// internally.
type SubscriptionStore interface {
	// Add inserts or overwrites a subscription by endpoint. Returns
	// ErrInvalidSubscription when the endpoint is empty.
	Add(sub Subscription) error
	// Remove deletes a subscription if present; removing an unknown
	// endpoint is a no-op.
	Remove(endpoint string) error
	// RemoveBatch deletes every listed endpoint and persists at most once,
	// regardless of how many were present.
	RemoveBatch(endpoints []string) error
	// All returns a snapshot of the current subscription set.
	All() []Subscription
	Count() int
}

// History is the bounded in-memory log of recent messages.
type History interface {
	Append(msg Message)
	// Recent returns up to the last n messages in chronological order.
	Recent(n int) []Message
	Len() int
}

// Broadcaster fans a message out to all live realtime connections.
// Delivery is best-effort and connection-scoped.
type Broadcaster interface {
	Broadcast(msg Message)
}

// Dispatcher delivers a push notification for a message to every stored
// subscription. Per-subscriber failures are handled internally (by pruning)
// and never reported to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message)
}
