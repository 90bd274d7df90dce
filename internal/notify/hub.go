package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
)

// Observer is one connected client. Frames arrive on C until the observer
// leaves the hub, at which point C is closed.
type Observer struct {
	ID   string
	send chan []byte
}

// C returns the observer's frame channel.
func (o *Observer) C() <-chan []byte { return o.send }

// Hub is the set of connected observers. Join, Leave and Publish may be
// called concurrently.
type Hub struct {
	mu        sync.RWMutex
	observers map[*Observer]struct{}
	buffer    int
	dropped   atomic.Int64
}

// NewHub creates a hub whose observers buffer up to buffer frames.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{observers: make(map[*Observer]struct{}), buffer: buffer}
}

// Join registers a new observer.
func (h *Hub) Join() *Observer {
	o := &Observer{ID: uuid.NewString(), send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.observers[o] = struct{}{}
	n := len(h.observers)
	h.mu.Unlock()
	logger.Debug("observer joined", "observer", o.ID, "total", n)
	return o
}

// Leave unregisters the observer and closes its channel. Calling it more
// than once is harmless.
func (h *Hub) Leave(o *Observer) {
	h.mu.Lock()
	if _, ok := h.observers[o]; ok {
		delete(h.observers, o)
		close(o.send)
	}
	n := len(h.observers)
	h.mu.Unlock()
	logger.Debug("observer left", "observer", o.ID, "total", n)
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Dropped returns how many frames were discarded because an observer's
// buffer was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Publish encodes ev once and pushes it to every observer connected right
// now.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	frame, err := ev.encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	h.Broadcast(frame)
	return nil
}

// Broadcast pushes an encoded frame without blocking. An observer whose
// buffer is full misses the frame. Returns the number of observers reached.
func (h *Hub) Broadcast(frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for o := range h.observers {
		select {
		case o.send <- frame:
			sent++
		default:
			h.dropped.Add(1)
			logger.Warn("observer buffer full, frame dropped", "observer", o.ID)
		}
	}
	return sent
}
