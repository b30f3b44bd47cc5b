// Package channel maintains the persistent event channel between the console
// and the gateway: a single long-lived websocket connection that is
// authenticated at handshake time, kept alive with periodic ping envelopes,
// reconnected within a bounded retry policy, and fanned out to any number of
// local subscribers keyed by envelope kind.
//
// Exactly one connection generation is live at a time. All inbound dispatch
// runs on that generation's read goroutine, so handlers never observe
// interleaved deliveries from a stale and a fresh socket.
package channel
