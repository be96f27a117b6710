package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/BearBump/ShipBox/internal/services/trackings"
)

const DefaultSchedule = "@every 30m"

type BatchSyncer interface {
	BatchSync(ctx context.Context) (trackings.BatchResult, error)
}

// Poller запускает пакетную синхронизацию по cron-расписанию и по Trigger.
// Прогоны идут строго по одному: расписание и ручной запуск
// кладут сигнал в один канал, который читает Run.
type Poller struct {
	syncer   BatchSyncer
	schedule string

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalRuns           atomic.Int64
	totalSynced         atomic.Int64
	totalErrors         atomic.Int64
	totalWithUpdates    atomic.Int64
	running             atomic.Bool

	lastMu     sync.Mutex
	lastError  string
	lastResult *trackings.BatchResult
}

func New(syncer BatchSyncer, schedule string) *Poller {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Poller{
		syncer:            syncer,
		schedule:          schedule,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (p *Poller) Schedule() string { return p.schedule }

func (p *Poller) enqueue() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Trigger forces an immediate batch sync (best-effort, non-blocking).
func (p *Poller) Trigger() {
	p.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	p.enqueue()
}

type Stats struct {
	StartedAt        time.Time              `json:"startedAt"`
	Schedule         string                 `json:"schedule"`
	Running          bool                   `json:"running"`
	LastCycleAt      *time.Time             `json:"lastCycleAt,omitempty"`
	LastTriggerAt    *time.Time             `json:"lastTriggerAt,omitempty"`
	TotalRuns        int64                  `json:"totalRuns"`
	TotalSynced      int64                  `json:"totalSynced"`
	TotalErrors      int64                  `json:"totalErrors"`
	TotalWithUpdates int64                  `json:"totalWithUpdates"`
	LastError        string                 `json:"lastError,omitempty"`
	LastResult       *trackings.BatchResult `json:"lastResult,omitempty"`
}

func (p *Poller) Stats() Stats {
	st := Stats{
		StartedAt:        time.Unix(0, p.startedAtUnixNano).UTC(),
		Schedule:         p.schedule,
		Running:          p.running.Load(),
		TotalRuns:        p.totalRuns.Load(),
		TotalSynced:      p.totalSynced.Load(),
		TotalErrors:      p.totalErrors.Load(),
		TotalWithUpdates: p.totalWithUpdates.Load(),
	}
	if n := p.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := p.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	p.lastMu.Lock()
	st.LastError = p.lastError
	st.LastResult = p.lastResult
	p.lastMu.Unlock()
	return st
}

func (p *Poller) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(p.schedule, p.enqueue); err != nil {
		return errors.Wrapf(err, "invalid sync schedule %q", p.schedule)
	}
	c.Start()
	defer c.Stop()
	slog.Info("tracking sync scheduled", "schedule", p.schedule)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.triggerCh:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	p.running.Store(true)
	defer p.running.Store(false)
	p.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())
	p.totalRuns.Add(1)

	res, err := p.syncer.BatchSync(ctx)
	p.totalSynced.Add(int64(res.Updated))
	p.totalErrors.Add(int64(res.Errors))
	p.totalWithUpdates.Add(int64(res.WithUpdates))

	p.lastMu.Lock()
	p.lastResult = &res
	if err != nil {
		p.lastError = err.Error()
	} else {
		p.lastError = ""
	}
	p.lastMu.Unlock()

	if err != nil {
		slog.Error("batch sync", "error", err.Error())
	}
}
