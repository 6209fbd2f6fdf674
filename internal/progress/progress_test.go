package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelEmitter_Delivers(t *testing.T) {
	e := NewChannel(4)
	e.Emit(Event{Stage: "scout_venues", Status: StatusCompleted, Message: "found 6 venues", Progress: 0.5})

	got := <-e.Events()
	assert.Equal(t, "scout_venues", got.Stage)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 0.5, got.Progress)
	assert.False(t, got.At.IsZero())
}

func TestChannelEmitter_DropsWhenFull(t *testing.T) {
	e := NewChannel(2)
	for i := 0; i < 5; i++ {
		e.Emit(Event{Stage: "research_venues"})
	}

	assert.Equal(t, 3, e.Dropped())
	assert.Len(t, e.ch, 2)
}

func TestChannelEmitter_NeverBlocks(t *testing.T) {
	e := NewChannel(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			e.Emit(Event{Stage: "compose_adventures"})
		}
		close(done)
	}()

	// No consumer at all; the producer must still finish.
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Emit blocked with no consumer")
	}
}

func TestChannelEmitter_CloseIsIdempotent(t *testing.T) {
	e := NewChannel(1)
	e.Close()
	e.Close()

	// Emitting after close must not panic on the closed channel.
	e.Emit(Event{Stage: "done"})

	_, open := <-e.Events()
	assert.False(t, open)
}

func TestChannelEmitter_ConcurrentEmit(t *testing.T) {
	e := NewChannel(8)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.Emit(Event{Stage: "research_venues"})
			}
		}()
	}
	wg.Wait()
	e.Close()

	delivered := 0
	for range e.Events() {
		delivered++
	}
	require.Equal(t, 500, delivered+e.Dropped())
}
