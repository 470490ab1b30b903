package sync

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ElementKind distinguishes node from edge ids in the edit set
type ElementKind string

const (
	KindNode ElementKind = "node"
	KindEdge ElementKind = "edge"
)

// EditingTracker records which elements are under exclusive local interactive
// edit. Membership is a cooperative advisory lock: reconciliation must not
// overwrite a member, and the poll loop and scheduler suppress themselves
// while any edit is active. Nothing enforces this at the data-structure
// level.
type EditingTracker struct {
	mu    sync.Mutex
	nodes map[string]struct{}
	edges map[string]struct{}

	saves  savePlanner
	settle time.Duration
	logger *zap.Logger
}

// NewEditingTracker creates a tracker wired to the scheduler. Editing and
// saving are mutually exclusive windows: beginning an edit cancels any
// pending scheduled save, ending one schedules a save after the settle delay.
func NewEditingTracker(saves savePlanner, timings Timings, logger *zap.Logger) *EditingTracker {
	return &EditingTracker{
		nodes:  make(map[string]struct{}),
		edges:  make(map[string]struct{}),
		saves:  saves,
		settle: timings.SettleDelay,
		logger: logger,
	}
}

// BeginEdit marks an element as under edit and cancels any pending scheduled
// save
func (t *EditingTracker) BeginEdit(kind ElementKind, id string) {
	t.mu.Lock()
	t.set(kind)[id] = struct{}{}
	t.mu.Unlock()

	if t.saves != nil {
		t.saves.CancelScheduled()
	}
	t.logger.Debug("edit began", zap.String("kind", string(kind)), zap.String("id", id))
}

// EndEdit removes an element from the edit set and schedules a save after
// the settle delay, so the final mutation lands before the save snapshot is
// taken.
func (t *EditingTracker) EndEdit(kind ElementKind, id string) {
	t.mu.Lock()
	delete(t.set(kind), id)
	t.mu.Unlock()

	if t.saves != nil {
		t.saves.ScheduleIn(t.settle)
	}
	t.logger.Debug("edit ended", zap.String("kind", string(kind)), zap.String("id", id))
}

// HasActiveEdits reports whether any element is currently under edit
func (t *EditingTracker) HasActiveEdits() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes) > 0 || len(t.edges) > 0
}

// IsEditing reports whether a specific element is under edit
func (t *EditingTracker) IsEditing(kind ElementKind, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.set(kind)[id]
	return ok
}

// Forget drops an id from the edit set without scheduling a save, for
// elements that were deleted mid-edit
func (t *EditingTracker) Forget(kind ElementKind, id string) {
	t.mu.Lock()
	delete(t.set(kind), id)
	t.mu.Unlock()
}

func (t *EditingTracker) set(kind ElementKind) map[string]struct{} {
	if kind == KindEdge {
		return t.edges
	}
	return t.nodes
}
