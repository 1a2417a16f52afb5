package domain

// SubscriptionKeys holds the browser-generated encryption material that the
// push service requires for payload encryption.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one browser push channel, keyed by its endpoint URL.
// Re-subscribing the same endpoint overwrites the previous record.
type Subscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}
