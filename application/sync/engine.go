package sync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/pkg/extensions"
	"github.com/silv3rmat/tainted-journal/pkg/observability"
)

// Engine is one location's sync session: it owns the graph store, the edit
// set, the reconciler, the save pipeline and the poll loop, and exposes the
// mutation surface the graph view drives. The in-memory graph is rebuilt from
// cache and remote on every session start; it is never the sole copy of
// truth.
type Engine struct {
	locationID int64
	store      *graph.Store
	edits      *EditingTracker
	sched      *SaveScheduler
	rec        *Reconciler
	poll       *PollLoop
	conn       *ConnectionBuilder
	hooks      *extensions.Registry
	remote     RemoteStore
	cache      SnapshotCache
	metrics    *observability.Collector
	timings    Timings
	logger     *zap.Logger

	mu       sync.Mutex
	location graph.Location
	notes    []graph.Note
	empty    bool
	started  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine assembles a session for one location
func NewEngine(
	locationID int64,
	remote RemoteStore,
	cache SnapshotCache,
	timings Timings,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Engine {
	store := graph.NewStore()
	sched := NewSaveScheduler(store, remote, cache, locationID, timings, metrics, logger)
	edits := NewEditingTracker(sched, timings, logger)
	sched.BindEdits(edits)
	hooks := extensions.NewRegistry()
	sched.BindHooks(hooks)

	e := &Engine{
		locationID: locationID,
		store:      store,
		edits:      edits,
		sched:      sched,
		rec:        NewReconciler(store, edits, logger),
		conn:       NewConnectionBuilder(store),
		hooks:      hooks,
		remote:     remote,
		cache:      cache,
		metrics:    metrics,
		timings:    timings,
		logger:     logger,
		done:       make(chan struct{}),
	}
	e.poll = NewPollLoop(e.refresh, sched, edits, timings, metrics, logger)
	return e
}

// Start populates the graph and runs the poll loop until Close. The cache
// loads first for an instant, stale-tolerant view; the remote fetch then
// supplies the authoritative copy. A failed first fetch is not fatal: the
// session degrades to the cached (or empty) view until a tick succeeds.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()

	if e.cache != nil {
		loc, snap, storedAt, ok, err := e.cache.Load(ctx, e.locationID)
		if err != nil {
			e.logger.Warn("cache load failed", zap.Error(err))
		}
		e.metrics.ObserveCacheRead(ok)
		if ok {
			e.applyLocation(loc, nil)
			e.rec.Apply(snap, SourceCache)
			e.hooks.Fire(extensions.HookSnapshotApplied, SourceCache)
			e.logger.Info("graph loaded from cache",
				zap.Int64("location", e.locationID),
				zap.Time("cachedAt", storedAt),
			)
		}
	}

	if err := e.refresh(ctx); err != nil {
		e.logger.Warn("initial fetch failed, serving cached view until next poll", zap.Error(err))
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	go func() {
		defer close(e.done)
		e.poll.Run(pollCtx)
	}()
	return nil
}

// refresh is one fetch-and-reconcile pass against the remote store
func (e *Engine) refresh(ctx context.Context) error {
	loc, notes, snap, err := e.remote.FetchLocation(ctx, e.locationID)
	if err != nil {
		return err
	}

	e.applyLocation(loc, notes)
	e.rec.Apply(snap, SourceRemote)
	e.hooks.Fire(extensions.HookSnapshotApplied, SourceRemote)

	if e.cache != nil {
		if err := e.cache.Store(ctx, e.locationID, loc, snap); err != nil {
			e.logger.Warn("cache write-through failed", zap.Error(err))
		}
	}
	return nil
}

// applyLocation records location metadata and keeps the synthesized root in
// step with it. A location with no metadata yields no root; with an empty
// graph that is the signalled empty-state.
func (e *Engine) applyLocation(loc graph.Location, notes []graph.Note) {
	e.mu.Lock()
	e.location = loc
	if notes != nil {
		e.notes = notes
	}
	e.mu.Unlock()

	e.sched.SetLocation(loc)

	root, ok := graph.RootNode(loc)
	if !ok {
		e.mu.Lock()
		e.empty = e.store.NodeCount() == 0 && e.store.EdgeCount() == 0
		e.mu.Unlock()
		return
	}

	if current, exists := e.store.Node(graph.RootID); !exists {
		if err := e.store.AddNode(root); err != nil {
			e.logger.Warn("root synthesis failed", zap.Error(err))
		}
	} else if current.Data.Text != root.Data.Text {
		text := root.Data.Text
		if err := e.store.UpdateNode(graph.RootID, graph.NodePatch{Text: &text}); err != nil {
			e.logger.Warn("root title refresh failed", zap.Error(err))
		}
	}
	e.mu.Lock()
	e.empty = false
	e.mu.Unlock()
}

// Store exposes the underlying graph store
func (e *Engine) Store() *graph.Store {
	return e.store
}

// Hooks exposes the lifecycle hook registry. Register hooks before Start.
func (e *Engine) Hooks() *extensions.Registry {
	return e.hooks
}

// Location returns the location metadata of this session
func (e *Engine) Location() graph.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.location
}

// Notes returns the location notes carried on the last fetch
func (e *Engine) Notes() []graph.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notes
}

// EmptyState reports the no-root, no-graph condition for a metadata-less
// location
func (e *Engine) EmptyState() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.empty
}

// Status returns the save status
func (e *Engine) Status() Status {
	return e.sched.Status()
}

// Dirty reports whether unsaved local changes exist
func (e *Engine) Dirty() bool {
	return e.sched.Dirty()
}

// BeginEdit marks an element as under interactive edit
func (e *Engine) BeginEdit(kind ElementKind, id string) {
	e.edits.BeginEdit(kind, id)
}

// EndEdit releases an element from interactive edit
func (e *Engine) EndEdit(kind ElementKind, id string) {
	e.edits.EndEdit(kind, id)
}

// UpdateNode applies a partial node update and schedules a save
func (e *Engine) UpdateNode(id string, patch graph.NodePatch) error {
	if err := e.store.UpdateNode(id, patch); err != nil {
		return err
	}
	e.sched.MarkDirty()
	e.sched.RequestSave(false)
	return nil
}

// UpdateEdge applies a partial edge update and schedules a save
func (e *Engine) UpdateEdge(id string, patch graph.EdgePatch) error {
	if err := e.store.UpdateEdge(id, patch); err != nil {
		return err
	}
	e.sched.MarkDirty()
	e.sched.RequestSave(false)
	return nil
}

// DeleteNode removes a node and its transitive descendants and requests an
// immediate save; a deletion must not be lost to the throttle
func (e *Engine) DeleteNode(id string) (removedNodes, removedEdges []string) {
	removedNodes, removedEdges = e.store.RemoveNodes(id)
	if len(removedNodes) == 0 && len(removedEdges) == 0 {
		return nil, nil
	}
	for _, n := range removedNodes {
		e.edits.Forget(KindNode, n)
	}
	for _, ed := range removedEdges {
		e.edits.Forget(KindEdge, ed)
	}
	e.sched.MarkDirty()
	e.sched.RequestSave(true)
	return removedNodes, removedEdges
}

// DeleteEdge removes a single edge and requests an immediate save
func (e *Engine) DeleteEdge(id string) {
	e.store.RemoveEdges(id)
	e.edits.Forget(KindEdge, id)
	e.sched.MarkDirty()
	e.sched.RequestSave(true)
}

// ConnectDrag resolves a drag gesture into graph mutations and applies them
func (e *Engine) ConnectDrag(sourceID string, release graph.Position, targetID string) (Connection, error) {
	conn, err := e.conn.FromDrag(sourceID, release, targetID)
	if err != nil {
		return Connection{}, err
	}
	return conn, e.applyConnection(conn)
}

// SpawnChild creates a child node under a parent and applies it
func (e *Engine) SpawnChild(parentID string) (Connection, error) {
	conn, err := e.conn.SpawnChild(parentID)
	if err != nil {
		return Connection{}, err
	}
	return conn, e.applyConnection(conn)
}

func (e *Engine) applyConnection(conn Connection) error {
	if conn.Node != nil {
		if err := e.store.AddNode(*conn.Node); err != nil {
			return err
		}
	}
	if err := e.store.AddEdge(conn.Edge); err != nil {
		if conn.Node != nil {
			e.store.RemoveNodes(conn.Node.ID)
		}
		return err
	}
	e.sched.MarkDirty()
	e.sched.RequestSave(false)
	return nil
}

// Close tears the session down: the poll loop and pending save timers are
// cancelled; in-flight network calls finish on their own and their results
// are dropped
func (e *Engine) Close() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()

	e.sched.Close()
	if cancel != nil {
		cancel()
		<-e.done
	}
}
