package channel

import (
	"fmt"
	"net/url"
)

// EventPath is the fixed path of the gateway's event channel endpoint.
const EventPath = "/api/v1/events"

// Resolver derives the websocket endpoint for the event channel from the
// console's own origin, or from an explicit override address. The scheme
// mirrors the origin's transport: https becomes wss, http becomes ws.
type Resolver struct {
	// Origin is the base URL the console itself is served from,
	// e.g. "https://console.example.com".
	Origin string

	// Override, when set, replaces Origin entirely. It may use an
	// http(s) or ws(s) scheme.
	Override string
}

// Resolve returns the full endpoint URL with the bearer token attached as
// the "token" query parameter.
func (r Resolver) Resolve(token string) (string, error) {
	base := r.Origin
	if r.Override != "" {
		base = r.Override
	}
	if base == "" {
		return "", fmt.Errorf("no origin or override configured")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", base, err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q in endpoint %q", u.Scheme, base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", base)
	}

	u.Path = EventPath
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
