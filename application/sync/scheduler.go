package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/pkg/extensions"
	"github.com/silv3rmat/tainted-journal/pkg/observability"
)

// Status is the externally observable state of the save pipeline
type Status string

const (
	StatusSaved  Status = "saved"
	StatusSaving Status = "saving"
	StatusError  Status = "error"
)

// SaveScheduler owns the outbound save pipeline: it throttles non-immediate
// requests, queues requests that arrive while a save is in flight, defers
// while edits are active, and retries failing immediate saves with bounded
// backoff. Exactly one remote write happens per executed save; the local
// cache is written through only on success.
type SaveScheduler struct {
	store      *graph.Store
	remote     RemoteStore
	cache      SnapshotCache
	edits      editGate
	hooks      *extensions.Registry
	metrics    *observability.Collector
	timings    Timings
	logger     *zap.Logger
	locationID int64

	mu          sync.Mutex
	location    graph.Location
	status      Status
	dirty       bool
	saving      bool
	lastSuccess time.Time
	pausedUntil time.Time
	queue       []bool // immediate flags, FIFO; immediates jump the queue
	pending     *time.Timer
	retryTimer  *time.Timer
	requeue     *time.Timer
	closed      bool
}

// NewSaveScheduler creates a scheduler for one location session. Call
// BindEdits before use; the tracker and the scheduler reference each other.
func NewSaveScheduler(
	store *graph.Store,
	remote RemoteStore,
	cache SnapshotCache,
	locationID int64,
	timings Timings,
	metrics *observability.Collector,
	logger *zap.Logger,
) *SaveScheduler {
	return &SaveScheduler{
		store:      store,
		remote:     remote,
		cache:      cache,
		locationID: locationID,
		timings:    timings,
		metrics:    metrics,
		logger:     logger,
		status:     StatusSaved,
	}
}

// BindEdits wires the edit gate used to defer saves while edits are active
func (s *SaveScheduler) BindEdits(edits editGate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = edits
}

// BindHooks wires the lifecycle hook registry. A nil registry is fine.
func (s *SaveScheduler) BindHooks(hooks *extensions.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = hooks
}

// SetLocation records the location metadata written through to the cache
func (s *SaveScheduler) SetLocation(loc graph.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
}

// Status returns the save status
func (s *SaveScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Dirty reports whether unsaved local changes exist
func (s *SaveScheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkDirty records that a local mutation happened since the last save
func (s *SaveScheduler) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// Saving reports whether a save is currently in flight
func (s *SaveScheduler) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// PollSuspended reports whether the poll loop must skip its tick: a save is
// in flight, or the post-save cooldown has not elapsed yet.
func (s *SaveScheduler) PollSuspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving || time.Now().Before(s.pausedUntil)
}

// ScheduleIn arms the pending-save timer; an existing one is replaced. The
// timer fires a non-immediate request, which re-enters the usual gating.
func (s *SaveScheduler) ScheduleIn(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.scheduleLocked(d)
}

// CancelScheduled stops the pending-save timer if armed. It never touches an
// executing save or a retry of an immediate one.
func (s *SaveScheduler) CancelScheduled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// RequestSave asks for the current graph to be persisted. Immediate requests
// bypass the throttle and the editing defer; destructive operations use them
// so the deletion cannot be lost.
func (s *SaveScheduler) RequestSave(immediate bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if s.saving {
		// FIFO among queued requests, but a newer immediate may execute
		// ahead of queued non-immediate ones.
		if immediate {
			s.queue = append([]bool{true}, s.queue...)
		} else {
			s.queue = append(s.queue, false)
		}
		s.mu.Unlock()
		return
	}

	if !immediate {
		if s.edits != nil && s.edits.HasActiveEdits() {
			s.scheduleLocked(s.timings.EditDefer)
			s.mu.Unlock()
			return
		}
		if !s.lastSuccess.IsZero() {
			if wait := s.timings.ThrottleWindow - time.Since(s.lastSuccess); wait > 0 {
				s.scheduleLocked(wait)
				s.mu.Unlock()
				return
			}
		}
	}

	snap := s.beginSaveLocked()
	s.mu.Unlock()

	go s.execute(snap, immediate, 1)
}

// beginSaveLocked transitions into the saving state and takes the snapshot
// to persist. The root node is not part of the persisted payload.
func (s *SaveScheduler) beginSaveLocked() graph.Snapshot {
	s.saving = true
	s.status = StatusSaving
	s.dirty = false
	return s.store.Snapshot(false)
}

func (s *SaveScheduler) scheduleLocked(d time.Duration) {
	if s.pending != nil {
		s.pending.Stop()
	}
	s.pending = time.AfterFunc(d, func() {
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		s.RequestSave(false)
	})
}

// execute performs the single remote write of one save attempt. In-flight
// writes are not force-cancelled on teardown; a late result against a closed
// scheduler is dropped.
func (s *SaveScheduler) execute(snap graph.Snapshot, immediate bool, attempt int) {
	s.hooks.Fire(extensions.HookStatusChanged, StatusSaving)
	s.hooks.Fire(extensions.HookSaveStarted, snap)

	err := s.remote.SaveGraph(context.Background(), s.locationID, snap)
	if err == nil {
		s.finishSuccess(snap)
		return
	}
	s.finishFailure(err, immediate, attempt)
}

func (s *SaveScheduler) finishSuccess(snap graph.Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	s.saving = false
	s.status = StatusSaved
	s.lastSuccess = now
	s.pausedUntil = now.Add(s.timings.SaveCooldown)
	loc := s.location

	var dequeued *bool
	if len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		dequeued = &next
	}
	s.mu.Unlock()

	s.hooks.Fire(extensions.HookStatusChanged, StatusSaved)
	s.hooks.Fire(extensions.HookSaveSucceeded, snap)
	s.metrics.ObserveSave(true)
	s.logger.Info("graph saved",
		zap.Int64("location", s.locationID),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)),
	)

	if s.cache != nil {
		if err := s.cache.Store(context.Background(), s.locationID, loc, snap); err != nil {
			s.logger.Warn("cache write-through failed", zap.Error(err))
		}
	}

	if dequeued != nil {
		imm := *dequeued
		s.mu.Lock()
		if !s.closed {
			s.requeue = time.AfterFunc(s.timings.RequeueDelay, func() {
				s.RequestSave(imm)
			})
		}
		s.mu.Unlock()
	}
}

func (s *SaveScheduler) finishFailure(err error, immediate bool, attempt int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.saving = false
	s.status = StatusError
	s.dirty = true
	s.pausedUntil = time.Now().Add(s.timings.SaveCooldown)
	retry := immediate && attempt < s.timings.MaxSaveAttempts
	if retry {
		delay := time.Duration(attempt) * s.timings.RetryBase
		next := attempt + 1
		s.retryTimer = time.AfterFunc(delay, func() {
			s.retry(next)
		})
	}
	s.mu.Unlock()

	s.hooks.Fire(extensions.HookStatusChanged, StatusError)
	s.hooks.Fire(extensions.HookSaveFailed, err)
	s.metrics.ObserveSave(false)
	s.logger.Error("graph save failed",
		zap.Int64("location", s.locationID),
		zap.Int("attempt", attempt),
		zap.Bool("willRetry", retry),
		zap.Error(err),
	)
}

// retry re-executes a failed immediate save with a fresh snapshot, keeping
// the attempt counter across executions
func (s *SaveScheduler) retry(attempt int) {
	s.mu.Lock()
	if s.closed || s.saving {
		s.mu.Unlock()
		return
	}
	snap := s.beginSaveLocked()
	s.mu.Unlock()

	s.metrics.ObserveSaveRetry()
	go s.execute(snap, true, attempt)
}

// Close cancels every pending timer. In-flight writes finish on their own;
// their results are ignored.
func (s *SaveScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, t := range []*time.Timer{s.pending, s.retryTimer, s.requeue} {
		if t != nil {
			t.Stop()
		}
	}
	s.pending, s.retryTimer, s.requeue = nil, nil, nil
}
