// Package extensions provides lifecycle hook points for observing a sync
// session. A UI layer registers hooks to drive its save-status indicator and
// refresh the rendered graph; nothing in the engine depends on a hook being
// present.
package extensions

import "sync"

// HookPoint represents a point in the session lifecycle where hooks run
type HookPoint string

const (
	// Save pipeline
	HookSaveStarted   HookPoint = "save_started"
	HookSaveSucceeded HookPoint = "save_succeeded"
	HookSaveFailed    HookPoint = "save_failed"

	// Status pill transitions
	HookStatusChanged HookPoint = "status_changed"

	// Reconciliation
	HookSnapshotApplied HookPoint = "snapshot_applied"
)

// Hook is a callback invoked at a hook point. Hooks run inline on the firing
// goroutine and must not block.
type Hook func(data interface{})

// Registry holds registered hooks per point. The zero value and a nil
// registry are both usable: Fire on them is a no-op.
type Registry struct {
	mu    sync.RWMutex
	hooks map[HookPoint][]Hook
}

// NewRegistry creates an empty hook registry
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[HookPoint][]Hook)}
}

// Register adds a hook at a point. Hooks at the same point run in
// registration order.
func (r *Registry) Register(point HookPoint, hook Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks == nil {
		r.hooks = make(map[HookPoint][]Hook)
	}
	r.hooks[point] = append(r.hooks[point], hook)
}

// Fire invokes every hook registered at a point
func (r *Registry) Fire(point HookPoint, data interface{}) {
	if r == nil {
		return
	}
	r.mu.RLock()
	hooks := r.hooks[point]
	r.mu.RUnlock()

	for _, hook := range hooks {
		hook(data)
	}
}

// Clear removes all hooks at a point
func (r *Registry) Clear(point HookPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hooks, point)
}
