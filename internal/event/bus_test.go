package event

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// run starts the bus and returns a function that stops it and waits for
// the buffer to drain.
func run(bus *Bus) func() {
	done := make(chan struct{})
	go func() {
		bus.Start()
		close(done)
	}()
	return func() {
		bus.Stop()
		<-done
	}
}

// collector records events under a lock.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) kinds() []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Kind, len(c.events))
	for i, e := range c.events {
		out[i] = e.Kind
	}
	return out
}

func TestSubscribeByKind(t *testing.T) {
	bus := NewBus(testLogger(), 16)
	stop := run(bus)

	var failed collector
	bus.Subscribe(ItemFailed, failed.handle)

	bus.Publish(Event{Kind: ItemResolved, JobID: "job-1", Path: "/media/pulse.mkv"})
	bus.Publish(Event{Kind: ItemFailed, JobID: "job-1", Path: "/media/unknown.mkv", Reason: "no provider matched", Processed: 2, Total: 2})
	stop()

	require.Len(t, failed.events, 1)
	got := failed.events[0]
	assert.Equal(t, "/media/unknown.mkv", got.Path)
	assert.Equal(t, "no provider matched", got.Reason)
	assert.Equal(t, 2, got.Processed)
	assert.False(t, got.At.IsZero(), "publish stamps the event")
}

func TestPublishKeepsExplicitTimestamp(t *testing.T) {
	bus := NewBus(testLogger(), 4)
	stop := run(bus)

	var c collector
	bus.SubscribeAll(c.handle)
	at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	bus.Publish(Event{Kind: BatchStarted, At: at})
	stop()

	require.Len(t, c.events, 1)
	assert.Equal(t, at, c.events[0].At)
}

func TestSubscribeAllPreservesOrder(t *testing.T) {
	bus := NewBus(testLogger(), 16)
	stop := run(bus)

	var c collector
	bus.SubscribeAll(c.handle)

	bus.Publish(Event{Kind: BatchStarted})
	bus.Publish(Event{Kind: ItemFailed})
	bus.Publish(Event{Kind: ItemResolved})
	bus.Publish(Event{Kind: BatchCompleted})
	stop()

	assert.Equal(t, []Kind{BatchStarted, ItemFailed, ItemResolved, BatchCompleted}, c.kinds())
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus(testLogger(), 16)
	stop := run(bus)

	var a, b collector
	bus.Subscribe(BatchCompleted, a.handle)
	bus.Subscribe(BatchCompleted, b.handle)
	bus.SubscribeAll(b.handle)

	bus.Publish(Event{Kind: BatchCompleted})
	stop()

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 2, "kind and catch-all subscriptions both fire")
}

func TestNoSubscribers(t *testing.T) {
	bus := NewBus(testLogger(), 16)
	stop := run(bus)
	bus.Publish(Event{Kind: ItemFailed})
	stop()
}

func TestBufferFull(t *testing.T) {
	bus := NewBus(testLogger(), 2)
	// not started: events accumulate in the channel
	for range 3 {
		bus.Publish(Event{Kind: ItemResolved})
	}
	assert.Equal(t, 1, bus.Dropped())
}

func TestDefaultBufferSize(t *testing.T) {
	bus := NewBus(testLogger(), 0)
	assert.Equal(t, DefaultBufferSize, cap(bus.ch))
}

func TestHandlerPanicRecovery(t *testing.T) {
	bus := NewBus(testLogger(), 16)
	stop := run(bus)

	var after collector
	bus.Subscribe(ItemFailed, func(Event) { panic("printer broke") })
	bus.Subscribe(ItemFailed, after.handle)

	bus.Publish(Event{Kind: ItemFailed})
	stop()

	assert.Len(t, after.events, 1, "later handlers still run after a panic")
}

func TestStopDrainsBuffer(t *testing.T) {
	bus := NewBus(testLogger(), 16)

	var c collector
	bus.Subscribe(ItemResolved, c.handle)
	bus.Publish(Event{Kind: ItemResolved})
	bus.Publish(Event{Kind: ItemResolved})

	bus.Stop()
	bus.Stop()
	done := make(chan struct{})
	go func() {
		bus.Start()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.Len(t, c.events, 2, "buffered events are delivered before Start returns")
}
