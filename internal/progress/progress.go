// Package progress streams stage-by-stage updates out of a running plan
// without ever blocking the pipeline on a slow consumer.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status classifies a progress event.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event is one progress update from the workflow.
type Event struct {
	Stage   string `json:"stage"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	// Progress is the overall pipeline completion fraction in [0, 1].
	Progress float64   `json:"progress"`
	At       time.Time `json:"at"`
}

// Emitter receives progress events. Implementations must not block.
type Emitter interface {
	Emit(event Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(Event) {}

// ChannelEmitter forwards events to a buffered channel. When the consumer
// falls behind and the buffer fills, events are dropped, never queued
// unboundedly and never allowed to stall a stage.
type ChannelEmitter struct {
	ch      chan Event
	dropped int
	mu      sync.Mutex
	closed  bool
}

// NewChannel creates an emitter with the given buffer size.
func NewChannel(buffer int) *ChannelEmitter {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelEmitter{ch: make(chan Event, buffer)}
}

// Events returns the consumer side of the emitter.
func (e *ChannelEmitter) Events() <-chan Event {
	return e.ch
}

// Emit forwards the event if there is room and drops it otherwise.
func (e *ChannelEmitter) Emit(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	select {
	case e.ch <- event:
	default:
		e.dropped++
		zap.L().Debug("progress: buffer full, dropping event",
			zap.String("stage", event.Stage),
			zap.Int("dropped_total", e.dropped),
		)
	}
}

// Dropped reports how many events were discarded due to a full buffer.
func (e *ChannelEmitter) Dropped() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// Close closes the event channel. Emit becomes a no-op afterwards.
func (e *ChannelEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
