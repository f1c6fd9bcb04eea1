// Package collector implements a bounded, one-shot wait for a follow-up
// message from a specific user in a specific channel.
//
// A command registers a wait with Await and suspends; the gateway feeds
// every inbound message through Offer. The wait resolves with the first
// message that matches its scope and predicate, or reports a timeout.
// Exactly one wait may be pending per (channel, responder) pair.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"maika/internal/event"
)

// ErrAlreadyPending is a configuration error returned when a second wait is
// registered for a (channel, responder) pair that already has one.
var ErrAlreadyPending = errors.New("collector: reply already pending for this channel and responder")

// Outcomes reported to the observer.
const (
	OutcomeMatched   = "matched"
	OutcomeTimedOut  = "timed_out"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
)

// Scope keys a pending wait.
type Scope struct {
	ChannelID   string
	ResponderID string
}

// Predicate filters messages already inside the scope. A nil predicate
// accepts any message from the responder.
type Predicate func(event.Message) bool

// Result of a wait. TimedOut is set when no message matched in time.
type Result struct {
	Message  event.Message
	TimedOut bool
}

// Content is the matched message content, empty on timeout.
func (r Result) Content() string {
	if r.TimedOut {
		return ""
	}
	return r.Message.Content
}

type waiter struct {
	pred Predicate
	ch   chan event.Message
}

// Collector tracks pending waits. The zero value is not usable; call New.
type Collector struct {
	mu      sync.Mutex
	pending map[Scope]*waiter

	after   func(time.Duration) <-chan time.Time
	observe func(outcome string)
}

// Option configures a Collector.
type Option func(*Collector)

// WithAfter replaces time.After, mostly for tests.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Collector) { c.after = after }
}

// WithObserver registers a callback invoked once per Await with its outcome.
func WithObserver(fn func(outcome string)) Option {
	return func(c *Collector) { c.observe = fn }
}

func New(opts ...Option) *Collector {
	c := &Collector{
		pending: make(map[Scope]*waiter),
		after:   time.After,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Await blocks until a message in scope satisfies pred, the timeout
// elapses, or ctx is done. The registration is removed on every path.
func (c *Collector) Await(ctx context.Context, scope Scope, timeout time.Duration, pred Predicate) (Result, error) {
	if timeout <= 0 {
		return Result{}, fmt.Errorf("collector: timeout must be positive, got %s", timeout)
	}
	if scope.ChannelID == "" || scope.ResponderID == "" {
		return Result{}, errors.New("collector: scope requires channel and responder")
	}

	w := &waiter{pred: pred, ch: make(chan event.Message, 1)}

	c.mu.Lock()
	if _, exists := c.pending[scope]; exists {
		c.mu.Unlock()
		c.report(OutcomeRejected)
		return Result{}, ErrAlreadyPending
	}
	c.pending[scope] = w
	c.mu.Unlock()

	select {
	case msg := <-w.ch:
		c.report(OutcomeMatched)
		return Result{Message: msg}, nil

	case <-c.after(timeout):
		if msg, ok := c.release(scope, w); ok {
			c.report(OutcomeMatched)
			return Result{Message: msg}, nil
		}
		c.report(OutcomeTimedOut)
		return Result{TimedOut: true}, nil

	case <-ctx.Done():
		if msg, ok := c.release(scope, w); ok {
			c.report(OutcomeMatched)
			return Result{Message: msg}, nil
		}
		c.report(OutcomeCancelled)
		return Result{}, ctx.Err()
	}
}

// release deregisters w. If Offer already claimed it, the delivered message
// is returned instead.
func (c *Collector) release(scope Scope, w *waiter) (event.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[scope] == w {
		delete(c.pending, scope)
		return event.Message{}, false
	}
	return <-w.ch, true
}

// Offer hands an inbound message to the wait registered for its channel and
// author, if any. It reports whether the message resolved a wait.
// Predicates run under the collector lock and must not call back into it.
func (c *Collector) Offer(msg event.Message) bool {
	scope := Scope{ChannelID: msg.Channel.ID, ResponderID: msg.Author.ID}

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.pending[scope]
	if !ok {
		return false
	}
	if w.pred != nil && !w.pred(msg) {
		return false
	}
	delete(c.pending, scope)
	w.ch <- msg
	return true
}

// Pending returns the number of registered waits.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Collector) report(outcome string) {
	if c.observe != nil {
		c.observe(outcome)
	}
}
