package domain

import "time"

// Message is a single broadcast item. Immutable once created: intake stamps
// the ID and timestamp, and the history buffer only ever copies it.
type Message struct {
	ID           string    `json:"id"`
	Sender       string    `json:"sender"`
	Text         string    `json:"text"`
	ImageDataURL string    `json:"imageDataUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}
