package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/pkg/observability"
)

// PollLoop drives periodic fetch-and-reconcile on a fixed interval. A tick is
// skipped entirely, not deferred, while a save is in flight, while the
// post-save cooldown holds, or while any edit is active; a refetch must not
// race or clobber in-progress work. Fetch failures are logged and the loop
// carries on; transient network trouble self-heals on the next tick.
type PollLoop struct {
	interval time.Duration
	sched    *SaveScheduler
	edits    editGate
	tick     func(ctx context.Context) error
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewPollLoop creates a poll loop invoking tick every interval
func NewPollLoop(
	tick func(ctx context.Context) error,
	sched *SaveScheduler,
	edits editGate,
	timings Timings,
	metrics *observability.Collector,
	logger *zap.Logger,
) *PollLoop {
	return &PollLoop{
		interval: timings.PollInterval,
		sched:    sched,
		edits:    edits,
		tick:     tick,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, ticking at the fixed interval. No
// backoff: the interval never changes and the loop is never cancelled by a
// failed tick.
func (p *PollLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one poll pass, honoring the skip conditions
func (p *PollLoop) Tick(ctx context.Context) {
	if p.sched != nil && p.sched.PollSuspended() {
		p.metrics.ObservePollTick("skipped")
		p.logger.Debug("poll tick skipped", zap.String("reason", "save in flight or cooldown"))
		return
	}
	if p.edits != nil && p.edits.HasActiveEdits() {
		p.metrics.ObservePollTick("skipped")
		p.logger.Debug("poll tick skipped", zap.String("reason", "active edits"))
		return
	}

	if err := p.tick(ctx); err != nil {
		p.metrics.ObservePollTick("error")
		p.logger.Warn("poll tick failed", zap.Error(err))
		return
	}
	p.metrics.ObservePollTick("ok")
}
