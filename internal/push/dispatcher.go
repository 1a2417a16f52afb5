// Package push implements best-effort web-push fan-out with self-healing.
//
// Every stored subscription gets exactly one delivery attempt per message,
// all attempts run concurrently and are awaited jointly. A failed attempt
// prunes its subscription; the batch persists the pruned set once.
package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"notifyd/internal/domain"
	"notifyd/internal/metrics"
)

// prunerStore is the slice of the subscription store the dispatcher needs.
type prunerStore interface {
	All() []domain.Subscription
	RemoveBatch(endpoints []string) error
}

// notificationPayload is the JSON the service worker receives. The browser
// treats it as opaque; the background handler reads title/body/image and
// navigates to data.url on click.
type notificationPayload struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Image string      `json:"image,omitempty"`
	Data  payloadData `json:"data"`
}

type payloadData struct {
	URL     string         `json:"url"`
	Message domain.Message `json:"message"`
}

func buildPayload(msg domain.Message) notificationPayload {
	body := msg.Text
	if body == "" {
		body = "Sent an image"
	}
	return notificationPayload{
		Title: msg.Sender + " sent a notification",
		Body:  body,
		Image: msg.ImageDataURL,
		Data: payloadData{
			URL:     "/",
			Message: msg,
		},
	}
}

// Dispatcher fans a message out to every stored subscription.
type Dispatcher struct {
	sender Sender
	store  prunerStore
}

// NewDispatcher creates a dispatcher delivering through sender and pruning
// failed endpoints from store.
func NewDispatcher(sender Sender, store prunerStore) *Dispatcher {
	return &Dispatcher{sender: sender, store: store}
}

// Dispatch attempts one delivery per stored subscription and returns once
// every attempt has settled. Any delivery error prunes that subscription;
// when at least one was pruned, the store is persisted exactly once after
// the batch. Failures are contained here and never reach the sender of the
// message.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.Message) {
	subs := d.store.All()
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(buildPayload(msg))
	if err != nil {
		slog.Error("Failed to marshal push payload", "message_id", msg.ID, "error", err)
		return
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub domain.Subscription) {
			defer wg.Done()

			if err := d.sender.Send(ctx, sub, payload); err != nil {
				metrics.PushDeliveriesTotal.WithLabelValues("error").Inc()
				slog.Debug("Push delivery failed, pruning subscription",
					"message_id", msg.ID,
					"endpoint", sub.Endpoint,
					"error", err,
				)
				mu.Lock()
				failed = append(failed, sub.Endpoint)
				mu.Unlock()
				return
			}
			metrics.PushDeliveriesTotal.WithLabelValues("ok").Inc()
		}(sub)
	}
	wg.Wait()

	if len(failed) == 0 {
		return
	}

	if err := d.store.RemoveBatch(failed); err != nil {
		slog.Error("Failed to persist pruned subscriptions", "pruned", len(failed), "error", err)
		return
	}
	metrics.PushSubscriptionsPrunedTotal.Add(float64(len(failed)))
	slog.Info("Pruned dead subscriptions", "message_id", msg.ID, "pruned", len(failed), "attempted", len(subs))
}
