package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
	"github.com/empirf/mdingest/internal/core/ports/driving"
	"github.com/empirf/mdingest/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driving.Watcher = (*Watcher)(nil)

const (
	// DefaultInterval is the default time between passes.
	DefaultInterval = 10 * time.Second

	// DefaultHistoryLimit is the number of pass reports kept.
	DefaultHistoryLimit = 100
)

// WatchOptions tune a Watcher.
type WatchOptions struct {
	// Interval between passes. Zero or negative disables the ticker, leaving
	// only change notifications.
	Interval time.Duration

	// HistoryLimit is how many pass reports the run store keeps.
	HistoryLimit int

	// OnPass, if set, is called after every pass.
	OnPass func(report *domain.PassReport, err error)
}

// Watcher runs passes immediately, then on every tick or change
// notification. It is the background loop of "run --watch".
type Watcher struct {
	ingestor driving.Ingestor
	runs     driven.RunStore
	trigger  driven.ChangeTrigger
	opts     WatchOptions

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher. runs and trigger may be nil.
func NewWatcher(
	ingestor driving.Ingestor,
	runs driven.RunStore,
	trigger driven.ChangeTrigger,
	opts WatchOptions,
) *Watcher {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	return &Watcher{
		ingestor: ingestor,
		runs:     runs,
		trigger:  trigger,
		opts:     opts,
	}
}

// Run blocks until ctx is done. Passes run one at a time on this goroutine,
// so ticks and notifications that arrive during a pass collapse into a
// single follow-up pass.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	var events <-chan struct{}
	if w.trigger != nil {
		ch, err := w.trigger.Events(ctx)
		if err != nil {
			logger.Warn("change notifications unavailable: %v", err)
		} else {
			events = ch
		}
	}

	var tick <-chan time.Time
	if w.opts.Interval > 0 {
		ticker := time.NewTicker(w.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	w.runPass(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			w.runPass(ctx)
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			logger.Debug("change notification received")
			w.runPass(ctx)
		}
	}
}

// Once runs a single pass and records its report.
func (w *Watcher) Once(ctx context.Context) (*domain.PassReport, error) {
	report, err := w.ingestor.RunOnce(ctx)
	if errors.Is(err, domain.ErrPassInProgress) {
		return report, err
	}

	if w.runs != nil && report != nil {
		// Record even on shutdown so the history shows the canceled pass.
		recordCtx := context.WithoutCancel(ctx)
		if recordErr := w.runs.RecordRun(recordCtx, report); recordErr != nil {
			logger.Warn("failed to record pass %s: %v", report.RunID, recordErr)
		}
		if pruneErr := w.runs.PruneRuns(recordCtx, w.opts.HistoryLimit); pruneErr != nil {
			logger.Warn("failed to prune pass history: %v", pruneErr)
		}
	}

	if w.opts.OnPass != nil {
		w.opts.OnPass(report, err)
	}
	return report, err
}

func (w *Watcher) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := w.Once(ctx); errors.Is(err, domain.ErrPassInProgress) {
		logger.Debug("pass already in progress, skipping")
	}
}
