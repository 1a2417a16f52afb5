package push

import (
	"fmt"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// VAPIDKeys is the asymmetric key pair used to authenticate all outgoing
// push requests for the lifetime of the process.
type VAPIDKeys struct {
	Public  string
	Private string
}

// ResolveKeys returns the configured key pair, or generates a fresh one when
// none is supplied. The second return value reports whether the keys were
// generated: generated keys do not survive a restart, which invalidates every
// previously issued subscription, so callers should warn loudly.
func ResolveKeys(publicKey, privateKey string) (VAPIDKeys, bool, error) {
	if publicKey != "" && privateKey != "" {
		return VAPIDKeys{Public: publicKey, Private: privateKey}, false, nil
	}

	generatedPrivate, generatedPublic, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPIDKeys{}, false, fmt.Errorf("failed to generate VAPID keys: %w", err)
	}
	return VAPIDKeys{Public: generatedPublic, Private: generatedPrivate}, true, nil
}
