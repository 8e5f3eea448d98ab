package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sydlexius/encore/internal/event"
)

// DefaultItemDelay spaces consecutive items handled by the same worker.
const DefaultItemDelay = 2100 * time.Millisecond

// Options controls the worker pool.
type Options struct {
	// Workers bounds the number of items in flight. Values below 1 mean 1.
	Workers int
	// ItemDelay is the pause a worker takes after an item before taking the next.
	ItemDelay time.Duration
}

// Executor runs batches. Only one batch runs at a time.
type Executor struct {
	resolver Resolver
	sink     Sink
	recorder Recorder
	eventBus *event.Bus
	opts     Options
	logger   *slog.Logger

	mu        sync.Mutex
	cancelFn  context.CancelFunc
	currentID string
}

// NewExecutor creates an Executor. sink may be nil.
func NewExecutor(resolver Resolver, sink Sink, opts Options, logger *slog.Logger) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ItemDelay < 0 {
		opts.ItemDelay = 0
	}
	return &Executor{
		resolver: resolver,
		sink:     sink,
		opts:     opts,
		logger:   logger.With(slog.String("component", "batch-executor")),
	}
}

// SetEventBus sets the event bus for publishing batch events.
func (e *Executor) SetEventBus(bus *event.Bus) {
	e.eventBus = bus
}

// SetRecorder sets the store that records job progress.
func (e *Executor) SetRecorder(r Recorder) {
	e.recorder = r
}

// Running returns the ID of the batch in progress, or "".
func (e *Executor) Running() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentID
}

// Cancel stops scheduling new items. Items already in flight run to
// completion.
func (e *Executor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancelFn == nil {
		return fmt.Errorf("no batch is running")
	}
	e.cancelFn()
	return nil
}

// Run processes items and blocks until every started item has finished.
// Canceling ctx, or calling Cancel, stops new items from starting; the
// report then has status canceled and counts the skipped items.
func (e *Executor) Run(ctx context.Context, items []Item) (*Report, error) {
	report := &Report{
		JobID:     uuid.New().String(),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		Total:     len(items),
	}

	e.mu.Lock()
	if e.currentID != "" {
		e.mu.Unlock()
		return nil, fmt.Errorf("a batch is already running: %s", e.currentID)
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancelFn = cancel
	e.currentID = report.JobID
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		e.cancelFn = nil
		e.currentID = ""
		e.mu.Unlock()
	}()

	if e.recorder != nil {
		if err := e.recorder.StartJob(ctx, report); err != nil {
			e.logger.Warn("recording job start", slog.String("job_id", report.JobID), slog.String("error", err.Error()))
		}
	}
	e.publish(event.Event{Kind: event.BatchStarted, JobID: report.JobID, Total: report.Total})
	e.logger.Info("batch started",
		slog.String("job_id", report.JobID),
		slog.Int("items", len(items)),
		slog.Int("workers", e.opts.Workers))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.opts.Workers)

	// record folds one result into the report and returns the running
	// processed count.
	record := func(res ItemResult) int {
		mu.Lock()
		switch res.Status {
		case ItemResolved:
			report.Processed++
			report.Resolved++
		case ItemFailed:
			report.Processed++
			report.Failed++
			report.Failures = append(report.Failures, Failure{
				Path:   res.Item.Path,
				Artist: res.Item.Artist,
				Title:  res.Item.Title,
				Reason: res.Reason,
			})
		case ItemCanceled:
			report.Canceled++
		}
		processed := report.Processed
		mu.Unlock()

		if e.recorder != nil && res.Status != ItemCanceled {
			if err := e.recorder.RecordItem(context.WithoutCancel(ctx), report.JobID, res); err != nil {
				e.logger.Warn("recording job item", slog.String("path", res.Item.Path), slog.String("error", err.Error()))
			}
		}
		return processed
	}

	for i, item := range items {
		if runCtx.Err() != nil {
			record(ItemResult{Item: item, Status: ItemCanceled})
			continue
		}
		last := i == len(items)-1
		g.Go(func() error {
			// a slot may free up after cancellation
			if runCtx.Err() != nil {
				record(ItemResult{Item: item, Status: ItemCanceled})
				return nil
			}

			res := e.processItem(context.WithoutCancel(runCtx), item)
			processed := record(res)
			e.publishItem(report.JobID, res, processed, report.Total)

			if !last {
				e.pause(runCtx)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	report.Status = StatusCompleted
	if report.Canceled > 0 {
		report.Status = StatusCanceled
	}

	if e.recorder != nil {
		if err := e.recorder.FinishJob(context.WithoutCancel(ctx), report); err != nil {
			e.logger.Warn("recording job finish", slog.String("job_id", report.JobID), slog.String("error", err.Error()))
		}
	}
	e.publish(event.Event{
		Kind:      event.BatchCompleted,
		JobID:     report.JobID,
		Status:    report.Status,
		Processed: report.Processed,
		Total:     report.Total,
	})
	e.logger.Info("batch finished",
		slog.String("job_id", report.JobID),
		slog.String("status", report.Status),
		slog.Int("resolved", report.Resolved),
		slog.Int("failed", report.Failed),
		slog.Int("canceled", report.Canceled))

	return report, nil
}

// processItem runs the waterfall and sink for one item. The gated pick is
// saved as the waterfall left it; enrichment belongs to the manual path.
// ctx is detached from batch cancellation so a started item reaches its
// conclusion.
func (e *Executor) processItem(ctx context.Context, item Item) ItemResult {
	res := ItemResult{Item: item}
	q := item.Query()
	if q.Artist == "" || q.Title == "" {
		res.Status = ItemFailed
		res.Reason = "missing artist or title"
		return res
	}

	result, err := e.resolver.Resolve(ctx, q)
	if err != nil {
		res.Status = ItemFailed
		res.Reason = err.Error()
		return res
	}
	if result == nil || result.Record == nil {
		res.Status = ItemFailed
		res.Reason = "resolver returned no record"
		return res
	}

	res.Sources = result.Sources

	if e.sink != nil {
		if err := e.sink.Save(ctx, item, result); err != nil {
			res.Status = ItemFailed
			res.Reason = fmt.Sprintf("saving: %v", err)
			return res
		}
	}

	res.Status = ItemResolved
	return res
}

func (e *Executor) pause(ctx context.Context) {
	if e.opts.ItemDelay <= 0 {
		return
	}
	t := time.NewTimer(e.opts.ItemDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (e *Executor) publishItem(jobID string, res ItemResult, processed, total int) {
	ev := event.Event{
		JobID:     jobID,
		Path:      res.Item.Path,
		Artist:    res.Item.Artist,
		Title:     res.Item.Title,
		Processed: processed,
		Total:     total,
	}
	if res.Status == ItemFailed {
		e.logger.Warn("item failed",
			slog.String("path", res.Item.Path),
			slog.String("artist", res.Item.Artist),
			slog.String("title", res.Item.Title),
			slog.String("reason", res.Reason))
		ev.Kind = event.ItemFailed
		ev.Reason = res.Reason
		e.publish(ev)
		return
	}
	ev.Kind = event.ItemResolved
	ev.Fields = len(res.Sources)
	e.publish(ev)
}

func (e *Executor) publish(ev event.Event) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.Publish(ev)
}
