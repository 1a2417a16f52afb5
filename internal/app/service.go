package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"notifyd/internal/domain"
	"notifyd/internal/metrics"
)

// anonymousSender is the fallback used when the sender field is blank.
const anonymousSender = "Anonymous"

// Service is the message intake. It owns no state beyond a mutex that keeps
// the append-then-broadcast pair atomic, so realtime delivery order equals
// message creation order even under concurrent requests.
type Service struct {
	mu          sync.Mutex
	history     domain.History
	broadcaster domain.Broadcaster
	dispatcher  domain.Dispatcher
	clock       clockwork.Clock
}

// NewService wires intake to its three fan-out targets.
func NewService(history domain.History, broadcaster domain.Broadcaster, dispatcher domain.Dispatcher, clock clockwork.Clock) *Service {
	return &Service{
		history:     history,
		broadcaster: broadcaster,
		dispatcher:  dispatcher,
		clock:       clock,
	}
}

// Send validates and stamps a message, appends it to history, broadcasts it
// to live connections, and dispatches push notifications in the background.
// Returns domain.ErrEmptyMessage when both text and image are blank after
// trimming. Push delivery failures never surface here: once validation
// passes, the send has succeeded from the caller's point of view.
func (s *Service) Send(ctx context.Context, sender, text, imageDataURL string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	imageDataURL = strings.TrimSpace(imageDataURL)
	if text == "" && imageDataURL == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}

	sender = strings.TrimSpace(sender)
	if sender == "" {
		sender = anonymousSender
	}

	msg := domain.Message{
		ID:           uuid.NewString(),
		Sender:       sender,
		Text:         text,
		ImageDataURL: imageDataURL,
		CreatedAt:    s.clock.Now().UTC(),
	}

	s.mu.Lock()
	s.history.Append(msg)
	s.broadcaster.Broadcast(msg)
	s.mu.Unlock()

	metrics.MessagesCreatedTotal.Inc()
	slog.Debug("Message accepted", "message_id", msg.ID, "sender", msg.Sender)

	// Push delivery is detached from the request: the batch settles on its
	// own and prunes dead subscriptions, the sender already got its ack.
	go s.dispatcher.Dispatch(context.WithoutCancel(ctx), msg)

	return msg, nil
}
