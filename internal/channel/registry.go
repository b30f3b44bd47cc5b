package channel

import (
	"sync"

	"github.com/google/uuid"
)

// Handler consumes one dispatched envelope. Handlers for a given channel run
// sequentially on the connection's read goroutine and must not block for
// long.
type Handler func(Envelope)

// Subscription is the opaque token returned by Subscribe. It identifies one
// (kind, handler) registration; handlers themselves are not comparable.
type Subscription struct {
	kind Kind
	id   uuid.UUID
}

// Kind returns the kind this subscription is registered under.
func (s Subscription) Kind() Kind { return s.kind }

type registration struct {
	id uuid.UUID
	fn Handler
}

// registry maps envelope kinds to their handlers in registration order.
// Dispatch iterates a snapshot taken at call start, so a handler may
// subscribe or unsubscribe from inside its own invocation without skipping
// or double-invoking a sibling of the same pass. A handler added mid-pass
// does not see the in-flight delivery.
type registry struct {
	mu       sync.Mutex
	handlers map[Kind][]registration
}

func newRegistry() *registry {
	return &registry{handlers: make(map[Kind][]registration)}
}

func (r *registry) subscribe(kind Kind, fn Handler) Subscription {
	sub := Subscription{kind: kind, id: uuid.New()}
	r.mu.Lock()
	r.handlers[kind] = append(r.handlers[kind], registration{id: sub.id, fn: fn})
	r.mu.Unlock()
	return sub
}

func (r *registry) unsubscribe(sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.handlers[sub.kind]
	for i, reg := range regs {
		if reg.id == sub.id {
			r.handlers[sub.kind] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(r.handlers[sub.kind]) == 0 {
		delete(r.handlers, sub.kind)
	}
}

func (r *registry) clear() {
	r.mu.Lock()
	r.handlers = make(map[Kind][]registration)
	r.mu.Unlock()
}

// snapshot returns the current handler list for kind. The returned slice is
// not mutated by later subscribe/unsubscribe calls.
func (r *registry) snapshot(kind Kind) []registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.handlers[kind]
	if len(regs) == 0 {
		return nil
	}
	out := make([]registration, len(regs))
	copy(out, regs)
	return out
}

// dispatch delivers env to all handlers registered for its kind, in
// registration order. Envelopes of a kind outside the known set are also
// delivered to KindUnrecognized subscribers.
func (r *registry) dispatch(env Envelope) {
	for _, reg := range r.snapshot(env.Kind) {
		reg.fn(env)
	}
	if !env.Kind.Known() {
		for _, reg := range r.snapshot(KindUnrecognized) {
			reg.fn(env)
		}
	}
}
