package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/orderpulse/orderpulse/internal/config"
	"github.com/orderpulse/orderpulse/internal/derive"
	"github.com/orderpulse/orderpulse/internal/export"
	"github.com/orderpulse/orderpulse/internal/metrics"
	"github.com/orderpulse/orderpulse/internal/order"
	"github.com/orderpulse/orderpulse/internal/store"
)

// PassSummary is the outcome of one derivation pass over the whole store.
// Status totals are weighted sums, so they read as order counts.
type PassSummary struct {
	PassID        string    `json:"pass_id"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
	Records       int       `json:"records"`
	Confirmed     float64   `json:"confirmed"`
	Delivered     float64   `json:"delivered"`
	Cancelled     float64   `json:"cancelled"`
	InProcess     float64   `json:"in_process"`
	PartDelivered float64   `json:"part_delivered"`
	OnTime        float64   `json:"on_time"`
	// BreachInFlight counts In Process orders already past their promise.
	BreachInFlight int    `json:"breach_inflight"`
	DurationMs     int64  `json:"duration_ms"`
	ExportError    string `json:"export_error,omitempty"`
}

// Engine evaluates the order store. A pass captures one instant, derives a
// metrics row per stored record on a worker pool, and hands the batch to the
// export sinks. Passes are serialized; ingestion keeps running because the
// store is only read here.
type Engine struct {
	store    store.Store
	exporter export.Writer
	conf     atomic.Pointer[config.EngineConf]
	nowFn    func() time.Time

	mu     sync.Mutex
	onPass []func(PassSummary)

	last atomic.Pointer[PassSummary]
	pool atomic.Pointer[workerPool[order.Record, derive.Record]]
}

// New creates an Engine. exporter may be nil when no sink is configured.
func New(st store.Store, exporter export.Writer, conf config.EngineConf) *Engine {
	e := &Engine{
		store:    st,
		exporter: exporter,
		nowFn:    time.Now,
	}
	e.conf.Store(&conf)
	return e
}

// SwapConfig atomically replaces the engine tunables (used on hot-reload).
// The new worker count and interval apply from the next pass.
func (e *Engine) SwapConfig(conf config.EngineConf) {
	e.conf.Store(&conf)
}

// OnPass registers a callback invoked after every completed pass.
func (e *Engine) OnPass(fn func(PassSummary)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPass = append(e.onPass, fn)
}

// Last returns the most recent pass summary, or nil before the first pass.
func (e *Engine) Last() *PassSummary {
	return e.last.Load()
}

// QueueUtilization returns queue used / capacity (0–1) of the running pass,
// or 0 when no pass is in flight.
func (e *Engine) QueueUtilization() float64 {
	p := e.pool.Load()
	if p == nil || p.QueueCap() == 0 {
		return 0
	}
	return float64(p.QueueLen()) / float64(p.QueueCap())
}

// Evaluate derives the metrics row for one stored record at the current
// instant. The second return is false when the key is not in the store.
func (e *Engine) Evaluate(key string) (derive.Record, bool, error) {
	rec, ok, err := e.store.Get(key)
	if err != nil || !ok {
		return derive.Record{}, ok, err
	}
	return derive.Derive(rec, e.nowFn().UTC()), true, nil
}

// Pass evaluates every stored record against a single captured instant.
// Concurrent calls are serialized so summaries never interleave.
func (e *Engine) Pass(ctx context.Context) (PassSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	now := e.nowFn().UTC()
	conf := e.conf.Load()

	// Snapshot first: the walk holds the store's read lock, so per-record
	// work happens after it is released and ingestion never stalls.
	var snapshot []order.Record
	if err := e.store.Range(func(rec order.Record) bool {
		snapshot = append(snapshot, rec)
		return true
	}); err != nil {
		return PassSummary{}, fmt.Errorf("store range: %w", err)
	}

	pool := newWorkerPool(ctx, conf.Workers, conf.QueueDepth, func(rec order.Record) derive.Record {
		return derive.Derive(rec, now)
	})
	e.pool.Store(pool)
	defer e.pool.Store(nil)

	go func() {
		for _, rec := range snapshot {
			if !pool.Submit(ctx, rec) {
				break
			}
		}
		pool.Drain()
	}()

	sum := PassSummary{PassID: uuid.New().String(), EvaluatedAt: now}
	results := make([]derive.Record, 0, len(snapshot))
	for r := range pool.results {
		results = append(results, r)
		sum.Records++
		sum.Confirmed += r.Confirmed
		sum.Delivered += r.Delivered
		sum.Cancelled += r.Cancelled
		sum.InProcess += r.InProcess
		sum.PartDelivered += r.PartDelivered
		sum.OnTime += r.OnTimeDeliveries
		if r.Status == order.StatusInProcess && r.BreachMins != nil && *r.BreachMins > 0 {
			sum.BreachInFlight++
		}
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	sum.DurationMs = time.Since(start).Milliseconds()

	if e.exporter != nil && len(results) > 0 {
		// A failed export does not fail the pass: the sinks count their own
		// errors and the summary carries the message for /v1/passes/latest.
		if err := e.exporter.WriteBatch(ctx, results); err != nil {
			sum.ExportError = err.Error()
		}
	}

	metrics.Passes.Inc()
	metrics.PassDuration.Observe(time.Since(start).Seconds())
	metrics.RecordsEvaluated.Add(float64(sum.Records))
	metrics.StoreRecords.Set(float64(e.store.Len()))
	metrics.BreachInFlight.Set(float64(sum.BreachInFlight))

	e.last.Store(&sum)
	for _, fn := range e.onPass {
		fn(sum)
	}
	return sum, nil
}

// Run triggers a pass on every tick until ctx ends. The interval is re-read
// each cycle so a config reload takes effect without a restart; an interval
// of 0 disables periodic passes until a reload turns them back on.
func (e *Engine) Run(ctx context.Context) {
	for {
		interval := time.Duration(e.conf.Load().PassIntervalSec) * time.Second
		enabled := interval > 0
		if !enabled {
			interval = time.Minute
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			if !enabled {
				continue
			}
			if _, err := e.Pass(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("derivation pass failed", "err", err)
			}
		}
	}
}
