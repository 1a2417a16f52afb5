package push

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"notifyd/internal/domain"
)

// Sender delivers one encrypted payload to one subscription. The production
// implementation talks to the platform push service; tests inject failures.
type Sender interface {
	Send(ctx context.Context, sub domain.Subscription, payload []byte) error
}

// pushTTL is how long the push service may hold an undelivered notification.
const pushTTL = 60

type webpushSender struct {
	keys       VAPIDKeys
	subscriber string
}

// NewWebpushSender returns a Sender that encrypts and signs payloads with
// the given VAPID key pair. subscriber is the contact URI (mailto:) that the
// push service can use to attribute requests.
func NewWebpushSender(keys VAPIDKeys, subscriber string) Sender {
	return &webpushSender{keys: keys, subscriber: subscriber}
}

func (s *webpushSender) Send(ctx context.Context, sub domain.Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.keys.Public,
		VAPIDPrivateKey: s.keys.Private,
		TTL:             pushTTL,
	})
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push service responded with status %d", resp.StatusCode)
	}
	return nil
}
