package event

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Handler receives published events.
type Handler interface {
	Handle(ctx context.Context, ev Envelope) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Envelope) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev Envelope) error {
	return f(ctx, ev)
}

// Priority orders handlers. Lower values run first.
type Priority int

// Handler priorities.
const (
	PriorityHigh   Priority = 100
	PriorityNormal Priority = 200
	PriorityLow    Priority = 300
)

// Subscription is a registered handler.
type Subscription struct {
	ID       string
	Pattern  Topic
	Priority Priority
	handler  Handler
	seq      uint64
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*Subscription)

// WithPriority sets the handler priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *Subscription) {
		s.Priority = p
	}
}

// Bus is a synchronous publish/subscribe hub.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
	seq  uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*Subscription)}
}

// Subscribe registers handler for topics matching pattern and returns the
// subscription id.
func (b *Bus) Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (string, error) {
	if pattern == "" {
		return "", ErrInvalidTopic
	}
	if handler == nil {
		return "", ErrNilHandler
	}

	sub := &Subscription{
		ID:       uuid.NewString(),
		Pattern:  pattern,
		Priority: PriorityNormal,
		handler:  handler,
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	b.seq++
	sub.seq = b.seq
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	return sub.ID, nil
}

// SubscribeFunc registers fn for topics matching pattern.
func (b *Bus) SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (string, error) {
	if fn == nil {
		return "", ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(b.subs, id)
	return nil
}

// Publish delivers ev to every matching handler in priority order, then
// subscription order. All handlers run; their failures are joined.
func (b *Bus) Publish(ctx context.Context, ev Envelope) error {
	if ev == nil || ev.EventTopic() == "" {
		return ErrInvalidTopic
	}

	var errs []error
	for _, sub := range b.matching(ev.EventTopic()) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := deliver(ctx, sub, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) matching(t Topic) []*Subscription {
	b.mu.RLock()
	out := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if t.Matches(sub.Pattern) {
			out = append(out, sub)
		}
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

func deliver(ctx context.Context, sub *Subscription, ev Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{SubscriptionID: sub.ID, Topic: ev.EventTopic(), Value: r}
		}
	}()

	if herr := sub.handler.Handle(ctx, ev); herr != nil {
		return &HandlerError{SubscriptionID: sub.ID, Topic: ev.EventTopic(), Err: herr}
	}
	return nil
}
