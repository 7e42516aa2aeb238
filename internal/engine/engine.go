package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gyaneshwarpardhi/blockwatch/internal/config"
	"github.com/gyaneshwarpardhi/blockwatch/internal/event"
	"github.com/gyaneshwarpardhi/blockwatch/internal/metrics"
)

const defaultInterval = 5 * time.Minute

// Writer persists a batch atomically: on error nothing of the batch was stored.
type Writer interface {
	Write(ctx context.Context, batch []event.Event) error
}

// Mirror is a best-effort secondary sink. It returns how many events it wrote.
type Mirror interface {
	Mirror(batch []event.Event) int
}

// FlushResult is the outcome of one flush cycle.
type FlushResult struct {
	CycleID    string    `json:"cycle_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	Drained    int       `json:"drained"`
	Persisted  int       `json:"persisted"`
	Requeued   int       `json:"requeued"`
	Mirrored   int       `json:"mirrored"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Failed reports whether the relational write of this cycle failed.
func (r FlushResult) Failed() bool { return r.Error != "" }

// Stats is a point-in-time view of the pipeline.
type Stats struct {
	QueueDepth int          `json:"queue_depth"`
	Persisted  int64        `json:"persisted"`
	Mirroring  bool         `json:"mirroring"`
	Interval   string       `json:"interval"`
	LastFlush  *FlushResult `json:"last_flush,omitempty"`
}

// Engine owns the event queue and runs flush cycles against its sinks.
type Engine struct {
	queue   *Queue
	writer  Writer
	mirror  Mirror
	metrics *metrics.Metrics

	mirroring atomic.Bool
	persisted atomic.Int64
	interval  atomic.Int64 // nanoseconds
	last      atomic.Pointer[FlushResult]

	// flushMu serializes cycles, whether fired by the ticker or by Flush.
	flushMu sync.Mutex

	resetC   chan time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	wg       sync.WaitGroup
}

// New creates an Engine. mirror may be nil, in which case mirroring stays off
// regardless of conf.FlatLog. A nil mt gets a private registry.
func New(w Writer, mirror Mirror, conf config.PipelineConf, mt *metrics.Metrics) *Engine {
	if mt == nil {
		mt = metrics.New(prometheus.NewRegistry())
	}
	e := &Engine{
		queue:   NewQueue(),
		writer:  w,
		mirror:  mirror,
		metrics: mt,
		resetC:  make(chan time.Duration, 1),
		stop:    make(chan struct{}),
	}
	interval := conf.FlushInterval()
	if interval <= 0 {
		interval = defaultInterval
	}
	e.interval.Store(int64(interval))
	e.SetMirroring(conf.FlatLog)
	return e
}

// Submit queues ev for the next flush cycle. It never blocks and never fails.
func (e *Engine) Submit(ev event.Event) {
	e.queue.Push(ev)
	e.metrics.EventsSubmitted.Inc()
	e.metrics.QueueDepth.Inc()
}

// SubmitAll queues every event of evs.
func (e *Engine) SubmitAll(evs []event.Event) {
	e.queue.PushAll(evs)
	e.metrics.EventsSubmitted.Add(float64(len(evs)))
	e.metrics.QueueDepth.Add(float64(len(evs)))
}

// Start runs flush cycles every Interval until Shutdown or ctx is done.
// Calling Start more than once has no effect.
func (e *Engine) Start(ctx context.Context) {
	if !e.started.CompareAndSwap(false, true) {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.Interval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Flush(ctx)
			case d := <-e.resetC:
				ticker.Reset(d)
			case <-e.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	slog.Info("flush scheduler started", "interval", e.Interval(), "mirroring", e.Mirroring())
}

// Shutdown stops scheduling cycles and waits for one in flight to finish.
// Queued events are not flushed; call Flush first to keep them.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()
	if n := e.queue.Len(); n > 0 {
		slog.Warn("shutting down with unflushed events", "events", n)
	}
}

// Flush runs one cycle now: drain, write, mirror, then requeue or count.
// Cancelling ctx does not interrupt a cycle that has started.
func (e *Engine) Flush(ctx context.Context) FlushResult {
	ctx = context.WithoutCancel(ctx)
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	batch := e.queue.DrainAll()
	if len(batch) == 0 {
		e.metrics.FlushCycles.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return FlushResult{StartedAt: time.Now()}
	}

	res := FlushResult{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
		Drained:   len(batch),
	}

	err := e.writer.Write(ctx, batch)

	// Mirroring happens whatever the relational outcome was.
	if e.mirror != nil && e.mirroring.Load() {
		res.Mirrored = e.mirror.Mirror(batch)
		e.metrics.FlatFileLines.Add(float64(res.Mirrored))
		if missed := len(batch) - res.Mirrored; missed > 0 {
			e.metrics.FlatFileErrors.Add(float64(missed))
		}
	}

	if err != nil {
		e.queue.PushAll(batch)
		res.Requeued = len(batch)
		res.Error = err.Error()
		e.metrics.EventsRequeued.Add(float64(len(batch)))
		e.metrics.FlushCycles.WithLabelValues(metrics.OutcomeFailure).Inc()
		slog.Warn("relational write failed, keeping batch for next cycle",
			"cycle", res.CycleID, "events", len(batch), "queued", e.queue.Len(), "err", err)
	} else {
		e.persisted.Add(int64(len(batch)))
		res.Persisted = len(batch)
		e.metrics.EventsPersisted.Add(float64(len(batch)))
		e.metrics.FlushCycles.WithLabelValues(metrics.OutcomeSuccess).Inc()
		slog.Debug("flush cycle committed", "cycle", res.CycleID, "events", len(batch))
	}

	res.DurationMs = time.Since(res.StartedAt).Milliseconds()
	e.metrics.FlushDuration.Observe(float64(res.DurationMs))
	e.metrics.QueueDepth.Set(float64(e.queue.Len()))
	e.last.Store(&res)
	return res
}

// SetInterval changes the flush period. A running scheduler picks it up on
// its next loop iteration.
func (e *Engine) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	e.interval.Store(int64(d))
	select {
	case <-e.resetC:
	default:
	}
	select {
	case e.resetC <- d:
	default:
	}
}

// Interval returns the current flush period.
func (e *Engine) Interval() time.Duration { return time.Duration(e.interval.Load()) }

// SetMirroring toggles the flat-file mirror.
func (e *Engine) SetMirroring(on bool) { e.mirroring.Store(on && e.mirror != nil) }

// Mirroring reports whether the flat-file mirror is active.
func (e *Engine) Mirroring() bool { return e.mirroring.Load() }

// QueueLen returns the number of events waiting for a flush.
func (e *Engine) QueueLen() int { return e.queue.Len() }

// Persisted returns the number of events committed so far.
func (e *Engine) Persisted() int64 { return e.persisted.Load() }

// LastFlush returns the most recent non-empty cycle, if any.
func (e *Engine) LastFlush() (FlushResult, bool) {
	r := e.last.Load()
	if r == nil {
		return FlushResult{}, false
	}
	return *r, true
}

// Stats returns a snapshot of the pipeline.
func (e *Engine) Stats() Stats {
	s := Stats{
		QueueDepth: e.QueueLen(),
		Persisted:  e.Persisted(),
		Mirroring:  e.Mirroring(),
		Interval:   e.Interval().String(),
	}
	if r, ok := e.LastFlush(); ok {
		s.LastFlush = &r
	}
	return s
}
