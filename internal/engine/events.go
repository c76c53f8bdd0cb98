package engine

import (
	"sync"
	"sync/atomic"

	"github.com/alienxp03/santa/internal/draw"
)

// GameEvent is a draw event tagged with its game and a sequence number that
// orders events across all games.
type GameEvent struct {
	draw.Event
	GameID string `json:"game_id"`
	Seq    uint64 `json:"seq"`
}

// Hub fans game events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[chan GameEvent]struct{}
	sequence atomic.Uint64
	buffer   int
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 50
	}
	return &Hub{
		subs:   make(map[string]map[chan GameEvent]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns a channel of events for gameID and a function that
// unsubscribes and closes it. The channel is also closed when the game is
// dropped from the hub.
func (h *Hub) Subscribe(gameID string) (<-chan GameEvent, func()) {
	ch := make(chan GameEvent, h.buffer)

	h.mu.Lock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[chan GameEvent]struct{})
	}
	h.subs[gameID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[gameID][ch]; ok {
				delete(h.subs[gameID], ch)
				close(ch)
			}
			if len(h.subs[gameID]) == 0 {
				delete(h.subs, gameID)
			}
		})
	}
}

// Publish delivers ev to every subscriber of gameID.
func (h *Hub) Publish(gameID string, ev draw.Event) {
	ge := GameEvent{Event: ev, GameID: gameID, Seq: h.sequence.Add(1)}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[gameID] {
		select {
		case ch <- ge:
		default:
		}
	}
}

// Drop closes every subscription to gameID.
func (h *Hub) Drop(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[gameID] {
		close(ch)
	}
	delete(h.subs, gameID)
}

// Subscribers returns how many subscriptions gameID has.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[gameID])
}
