package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/robinhoot/robinhoot_api/internal/metrics"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventPriceChanged EventType = "price.changed"
)

// subscriptionBuffer is how many undelivered events a subscriber may lag
// behind before new events are dropped for it.
const subscriptionBuffer = 64

// PriceEvent is the payload broadcast to storefront SSE clients.
type PriceEvent struct {
	Event     EventType       `json:"event"`
	ProductID int             `json:"productId"`
	SkuCode   string          `json:"skuCode"`
	OldPrice  decimal.Decimal `json:"oldPrice"`
	NewPrice  decimal.Decimal `json:"newPrice"`
	Timestamp time.Time       `json:"timestamp"`
}

// Subscription is one storefront stream. It receives every price event, or
// only those of its watched products when it was opened with a filter.
type Subscription struct {
	ID     string
	events chan []byte

	watched map[int]struct{}
	dropped int
}

// Events yields encoded PriceEvents. It is closed by Hub.Unsubscribe.
func (s *Subscription) Events() <-chan []byte {
	return s.events
}

// Dropped returns how many events were skipped because the subscriber lagged.
func (s *Subscription) Dropped() int {
	return s.dropped
}

func (s *Subscription) wants(productID int) bool {
	if len(s.watched) == 0 {
		return true
	}
	_, ok := s.watched[productID]
	return ok
}

// Hub fans price events out to subscriptions. Delivery never blocks the
// publisher: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscription)}
}

// Subscribe opens a subscription. With no productIDs it receives the whole
// catalog's price changes.
func (h *Hub) Subscribe(productIDs ...int) *Subscription {
	sub := &Subscription{
		ID:     "shopper-" + uuid.NewString(),
		events: make(chan []byte, subscriptionBuffer),
	}
	if len(productIDs) > 0 {
		sub.watched = make(map[int]struct{}, len(productIDs))
		for _, id := range productIDs {
			sub.watched[id] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	n := len(h.subs)
	h.mu.Unlock()

	metrics.SetSSESubscribers(n)
	log.Debug().Str("client_id", sub.ID).Int("watched", len(productIDs)).Int("subscribers", n).Msg("SSE client subscribed")
	return sub
}

// Unsubscribe removes sub and closes its event channel. Calling it twice is safe.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[sub.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, sub.ID)
	close(sub.events)
	n := len(h.subs)
	h.mu.Unlock()

	metrics.SetSSESubscribers(n)
	log.Debug().Str("client_id", sub.ID).Int("dropped", sub.dropped).Int("subscribers", n).Msg("SSE client unsubscribed")
}

// Publish delivers event to every subscription interested in its product
// and returns how many received it.
func (h *Hub) Publish(event *PriceEvent) int {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return 0
	}

	// Write lock: dropped counters are updated while fanning out.
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, sub := range h.subs {
		if !sub.wants(event.ProductID) {
			continue
		}
		select {
		case sub.events <- data:
			delivered++
		default:
			sub.dropped++
			metrics.RecordSSEDrop()
		}
	}
	return delivered
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
