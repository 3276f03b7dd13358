// Package bridge delivers collaborator push events to subscribed handlers.
//
// Every subscription owns an unbounded FIFO mailbox drained by its own
// goroutine: the emitter never waits on a handler, events of one name reach a
// subscription in emission order, and nothing is promised across names.
package bridge

import (
	"encoding/json"
	"fmt"
	"sync"

	"healthkit-bridge/internal/common/logger"
	"healthkit-bridge/internal/common/metrics"

	"github.com/google/uuid"
)

// Handler consumes one event payload.
type Handler func(payload json.RawMessage)

// Handle identifies one subscription. The zero Handle refers to nothing.
type Handle struct {
	id    string
	event string
}

func (h Handle) ID() string    { return h.id }
func (h Handle) Event() string { return h.event }
func (h Handle) IsZero() bool  { return h.id == "" }

type Bridge struct {
	logger logger.Logger

	mu      sync.Mutex
	subs    map[string]*subscription
	byEvent map[string][]*subscription
	closed  bool

	wg sync.WaitGroup
}

func New(log logger.Logger) *Bridge {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Bridge{
		logger:  log.WithFields(map[string]interface{}{"component": "bridge"}),
		subs:    make(map[string]*subscription),
		byEvent: make(map[string][]*subscription),
	}
}

// Subscribe registers handler for eventName. On a closed bridge, or with a nil
// handler, it returns the zero Handle.
func (b *Bridge) Subscribe(eventName string, handler Handler) Handle {
	if handler == nil {
		return Handle{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Warn("subscribe on closed bridge", map[string]interface{}{"event": eventName})
		return Handle{}
	}

	sub := newSubscription(uuid.NewString(), eventName, handler)
	b.subs[sub.id] = sub
	b.byEvent[eventName] = append(b.byEvent[eventName], sub)
	metrics.BridgeSubscriptionsActive.WithLabelValues(eventName).Inc()

	b.wg.Add(1)
	go b.deliver(sub)

	b.logger.Debug("subscribed", map[string]interface{}{
		"event":          eventName,
		"subscriptionId": sub.id,
	})
	return Handle{id: sub.id, event: eventName}
}

// Unsubscribe releases h. It reports whether a live subscription was released;
// releasing twice, or releasing an unknown handle, is a no-op.
func (b *Bridge) Unsubscribe(h Handle) bool {
	if h.IsZero() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[h.id]
	if !ok {
		return false
	}
	b.removeLocked(sub)
	return true
}

func (b *Bridge) removeLocked(sub *subscription) {
	delete(b.subs, sub.id)
	list := b.byEvent[sub.event]
	for i, s := range list {
		if s == sub {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(b.byEvent, sub.event)
	} else {
		b.byEvent[sub.event] = list
	}
	sub.stop()
	metrics.BridgeSubscriptionsActive.WithLabelValues(sub.event).Dec()
}

// Emit queues payload for every current subscriber of name. It implements
// collaborator.Emitter and never blocks on handlers.
func (b *Bridge) Emit(name string, payload json.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	metrics.BridgeEventsEmitted.WithLabelValues(name).Inc()
	for _, sub := range b.byEvent[name] {
		sub.push(payload)
	}
}

// SubscriberCount returns the live subscriptions for name.
func (b *Bridge) SubscriberCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byEvent[name])
}

// Close releases every subscription and waits for in-flight handlers to
// return. It must not be called from a handler.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		b.removeLocked(sub)
	}
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bridge) deliver(sub *subscription) {
	defer b.wg.Done()
	for {
		payload, ok := sub.pop()
		if !ok {
			return
		}
		b.invoke(sub, payload)
	}
}

func (b *Bridge) invoke(sub *subscription, payload json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", map[string]interface{}{
				"event":          sub.event,
				"subscriptionId": sub.id,
				"panic":          fmt.Sprint(r),
			})
		}
	}()
	sub.handler(payload)
	metrics.BridgeEventsDelivered.WithLabelValues(sub.event).Inc()
}

type subscription struct {
	id      string
	event   string
	handler Handler

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []json.RawMessage
	stopped bool
}

func newSubscription(id, event string, handler Handler) *subscription {
	s := &subscription{id: id, event: event, handler: handler}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscription) push(payload json.RawMessage) {
	s.mu.Lock()
	if !s.stopped {
		s.queue = append(s.queue, payload)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// pop blocks until a payload is queued or the subscription stops. Pending
// payloads are dropped once stopped.
func (s *subscription) pop() (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.stopped {
		s.cond.Wait()
	}
	if s.stopped {
		s.queue = nil
		return nil, false
	}
	p := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return p, true
}

func (s *subscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.queue = nil
	s.cond.Signal()
	s.mu.Unlock()
}
