package bridge

import (
	"sort"
	"sync"
)

// Scope groups the subscriptions of one owner, such as a screen. It holds at
// most one subscription per event name: subscribing again replaces the
// previous handler. Close releases everything the scope holds.
type Scope struct {
	bridge *Bridge
	name   string

	mu      sync.Mutex
	handles map[string]Handle
	closed  bool
}

func (b *Bridge) NewScope(name string) *Scope {
	return &Scope{bridge: b, name: name, handles: make(map[string]Handle)}
}

func (s *Scope) Name() string { return s.name }

// Subscribe binds handler to eventName for this scope, releasing any handler
// the scope already had for that name. It is a no-op on a closed scope.
func (s *Scope) Subscribe(eventName string, handler Handler) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Handle{}
	}
	if prev, ok := s.handles[eventName]; ok {
		s.bridge.Unsubscribe(prev)
		delete(s.handles, eventName)
	}
	h := s.bridge.Subscribe(eventName, handler)
	if !h.IsZero() {
		s.handles[eventName] = h
	}
	return h
}

// Unsubscribe releases the scope's subscription to eventName, if any.
func (s *Scope) Unsubscribe(eventName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[eventName]
	if !ok {
		return false
	}
	delete(s.handles, eventName)
	return s.bridge.Unsubscribe(h)
}

// Events lists the event names the scope is subscribed to.
func (s *Scope) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.handles))
	for name := range s.handles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close releases every subscription of the scope. Calling it again is a no-op.
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for name, h := range s.handles {
		s.bridge.Unsubscribe(h)
		delete(s.handles, name)
	}
}
