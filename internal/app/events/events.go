// Package events carries the facts the ledger emits for external observers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
)

// Topic names one ledger fact stream.
type Topic string

const (
	TopicAppRegistered          Topic = "app.registered"
	TopicAppUpdated             Topic = "app.updated"
	TopicReviewSubmitted        Topic = "review.submitted"
	TopicReviewEdited           Topic = "review.edited"
	TopicReviewDeleted          Topic = "review.deleted"
	TopicHelpfulVoted           Topic = "review.helpful_voted"
	TopicDeveloperResponded     Topic = "review.developer_responded"
	TopicReviewDisputed         Topic = "review.disputed"
	TopicDisputeResolved        Topic = "dispute.resolved"
	TopicAppVerificationChanged Topic = "app.verification_changed"
	TopicScamConfirmed          Topic = "app.scam_confirmed"
	TopicConfigUpdated          Topic = "config.updated"
)

// VerificationChange is the payload every TopicAppVerificationChanged
// publisher sends, so subscribers decode a single shape.
type VerificationChange struct {
	App            miniapp.MiniApp `json:"app"`
	ProofContentID string          `json:"proofContentId,omitempty"`
}

// Event is one emitted fact.
type Event struct {
	Topic     Topic       `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Handler consumes events. Handlers run synchronously on the publishing
// goroutine, in subscription order, so observers see facts in commit order.
type Handler func(ctx context.Context, ev Event)

// Bus is an in-process pub/sub fan-out for ledger facts.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Topic]map[int]Handler
	all    map[int]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Topic]map[int]Handler),
		all:  make(map[int]Handler),
	}
}

// Publish delivers the event to topic subscribers and catch-all subscribers.
func (b *Bus) Publish(ctx context.Context, topic Topic, data interface{}) {
	ev := Event{Topic: topic, Timestamp: time.Now().UTC(), Data: data}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic])+len(b.all))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	for _, h := range b.all {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
}

// Subscribe registers a handler for one topic and returns an unsubscribe
// function.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// SubscribeAll registers a handler for every topic.
func (b *Bus) SubscribeAll(handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.all[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}
