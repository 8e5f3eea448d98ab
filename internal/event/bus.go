// Package event carries batch progress from the executor to observers such
// as the CLI progress printer.
package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Kind identifies a category of event.
type Kind string

// Known event kinds.
const (
	BatchStarted   Kind = "batch.started"
	ItemResolved   Kind = "item.resolved"
	ItemFailed     Kind = "item.failed"
	BatchCompleted Kind = "batch.completed"
)

// Event is one progress notification. The item fields are empty on batch
// events, and Status is set only on BatchCompleted. Processed and Total
// count items across the whole batch.
type Event struct {
	Kind      Kind      `json:"kind"`
	JobID     string    `json:"job_id"`
	At        time.Time `json:"at"`
	Path      string    `json:"path,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	Title     string    `json:"title,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status,omitempty"`
	Fields    int       `json:"fields,omitempty"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
}

// Handler processes an event on the bus goroutine.
type Handler func(Event)

// Bus fans events out to subscribers from a single goroutine, so handlers
// never run concurrently with each other.
type Bus struct {
	ch      chan Event
	done    chan struct{}
	dropped atomic.Int64
	logger  *slog.Logger

	mu      sync.RWMutex
	byKind  map[Kind][]Handler
	all     []Handler
	stopped bool
}

// DefaultBufferSize is used when NewBus is given a non-positive size.
const DefaultBufferSize = 256

// NewBus creates an event bus with the given buffer size.
func NewBus(logger *slog.Logger, bufSize int) *Bus {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Bus{
		ch:     make(chan Event, bufSize),
		done:   make(chan struct{}),
		byKind: make(map[Kind][]Handler),
		logger: logger.With(slog.String("component", "event-bus")),
	}
}

// Subscribe registers a handler for one kind of event.
func (b *Bus) Subscribe(k Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byKind[k] = append(b.byKind[k], h)
}

// SubscribeAll registers a handler that receives every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish queues an event without blocking. When the buffer is full the
// event is dropped and counted.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case b.ch <- e:
	default:
		b.dropped.Add(1)
		b.logger.Warn("event bus full, dropping event",
			slog.String("kind", string(e.Kind)),
			slog.String("job_id", e.JobID))
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (b *Bus) Dropped() int {
	return int(b.dropped.Load())
}

// Start dispatches events until Stop is called, then drains whatever is
// still buffered and returns. Run it on its own goroutine.
func (b *Bus) Start() {
	for {
		select {
		case e := <-b.ch:
			b.dispatch(e)
		case <-b.done:
			b.drain()
			return
		}
	}
}

func (b *Bus) drain() {
	for {
		select {
		case e := <-b.ch:
			b.dispatch(e)
		default:
			return
		}
	}
}

// Stop asks Start to return once the buffer is empty. Safe to call twice.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	close(b.done)
}

func (b *Bus) dispatch(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.byKind[e.Kind])+len(b.all))
	handlers = append(handlers, b.byKind[e.Kind]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.call(h, e)
	}
}

// call runs one handler; a panicking handler is logged and skipped.
func (b *Bus) call(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("kind", string(e.Kind)),
				slog.Any("panic", r))
		}
	}()
	h(e)
}
