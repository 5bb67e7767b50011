/**
 * @description
 * PriceStreamHub fans one Redis pub/sub subscription out to many SSE clients,
 * so a dashboard watching live prices doesn't cost one Redis connection per tab.
 * Subscribers may restrict their stream to a single retailer.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 * - backend/internal/models (PriceUpdate payload)
 */

package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/superprecios/backend/internal/models"
)

type streamSubscriber struct {
	ch       chan []byte
	retailer string // empty = all retailers
}

// PriceStreamHub multiplexes price updates published during ingestion
type PriceStreamHub struct {
	redis   *redis.Client
	channel string

	mu          sync.RWMutex
	subscribers map[*streamSubscriber]struct{}
}

// NewPriceStreamHub starts the hub's single Redis subscription loop
func NewPriceStreamHub(rdb *redis.Client, channel string) *PriceStreamHub {
	hub := &PriceStreamHub{
		redis:       rdb,
		channel:     channel,
		subscribers: make(map[*streamSubscriber]struct{}),
	}

	go hub.run()

	return hub
}

func (h *PriceStreamHub) run() {
	ctx := context.Background()

	for {
		pubsub := h.redis.Subscribe(ctx, h.channel)
		for msg := range pubsub.Channel(redis.WithChannelSize(4096)) {
			h.dispatch([]byte(msg.Payload))
		}
		_ = pubsub.Close()

		// Subscription dropped; avoid a tight reconnect loop
		time.Sleep(time.Second)
	}
}

func (h *PriceStreamHub) dispatch(payload []byte) {
	var update models.PriceUpdate
	filterable := json.Unmarshal(payload, &update) == nil

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if sub.retailer != "" && filterable && update.Retailer != sub.retailer {
			continue
		}
		select {
		case sub.ch <- payload:
		default:
			// Slow client: drop one queued message and retry once, never block the hub
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- payload:
			default:
			}
		}
	}
}

// Subscribe registers a listener, optionally filtered to one retailer, and
// returns its channel plus a cleanup function.
func (h *PriceStreamHub) Subscribe(retailer string) (<-chan []byte, func()) {
	sub := &streamSubscriber{
		ch:       make(chan []byte, 256),
		retailer: retailer,
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[sub]; ok {
			delete(h.subscribers, sub)
			close(sub.ch)
		}
		h.mu.Unlock()
	}

	return sub.ch, unsubscribe
}

// SubscriberCount reports how many SSE clients are attached
func (h *PriceStreamHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
