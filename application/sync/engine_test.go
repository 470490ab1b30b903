package sync

import (
	"context"
	"errors"
	"net/http/httptest"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/infrastructure/persistence/memory"
	"github.com/silv3rmat/tainted-journal/infrastructure/remote"
	"github.com/silv3rmat/tainted-journal/interfaces/http/rest"
	"github.com/silv3rmat/tainted-journal/pkg/extensions"
	"github.com/silv3rmat/tainted-journal/pkg/observability"
)

func intPtr(n int) *int { return &n }

// engineTimings keeps the poll far away so tests control reconciliation
// explicitly
func engineTimings() Timings {
	tm := testTimings()
	tm.PollInterval = time.Hour
	return tm
}

func newTestEngine(t *testing.T, remoteStore RemoteStore, cache SnapshotCache) *Engine {
	t.Helper()
	e := NewEngine(1, remoteStore, cache, engineTimings(), observability.NewCollector("test"), zap.NewNop())
	t.Cleanup(e.Close)
	return e
}

func TestEngineStartSynthesizesRoot(t *testing.T) {
	rm := &fakeRemote{
		loc:  graph.Location{ID: 1, Number: intPtr(12), Name: "Forest Path", HasData: true},
		snap: remoteSnapshot(),
	}
	cache := newFakeCache()
	e := newTestEngine(t, rm, cache)

	require.NoError(t, e.Start(context.Background()))

	root, ok := e.Store().Node(graph.RootID)
	require.True(t, ok)
	assert.Equal(t, graph.NodeTypeRoot, root.Type)
	assert.Equal(t, "#12: Forest Path", root.Data.Text)

	assert.Equal(t, 3, e.Store().NodeCount())
	assert.False(t, e.EmptyState())
	assert.Equal(t, StatusSaved, e.Status())

	_, ok = cache.get(1)
	assert.True(t, ok, "fetched snapshot is written through to the cache")
}

func TestEngineRefreshUpdatesRootTitle(t *testing.T) {
	rm := &fakeRemote{
		loc:  graph.Location{ID: 1, Number: intPtr(12), Name: "Forest Path", HasData: true},
		snap: remoteSnapshot(),
	}
	e := newTestEngine(t, rm, newFakeCache())
	require.NoError(t, e.Start(context.Background()))

	rm.mu.Lock()
	rm.loc.Name = "Burnt Forest Path"
	rm.mu.Unlock()

	require.NoError(t, e.refresh(context.Background()))

	root, ok := e.Store().Node(graph.RootID)
	require.True(t, ok)
	assert.Equal(t, "#12: Burnt Forest Path", root.Data.Text)
}

func TestEngineStartServesCacheWhenRemoteDown(t *testing.T) {
	cache := newFakeCache()
	require.NoError(t, cache.Store(context.Background(), 1,
		graph.Location{ID: 1, Number: intPtr(3), Name: "Old Mill", HasData: true},
		remoteSnapshot(),
	))

	rm := &fakeRemote{fetchErr: errors.New("connection refused")}
	e := newTestEngine(t, rm, cache)

	require.NoError(t, e.Start(context.Background()), "a failed first fetch is not fatal")

	assert.Equal(t, 3, e.Store().NodeCount(), "cached view serves until a poll succeeds")
	assert.Equal(t, "#3: Old Mill", e.Location().Title())
}

func TestEngineEmptyState(t *testing.T) {
	rm := &fakeRemote{loc: graph.Location{ID: 1}}
	e := newTestEngine(t, rm, newFakeCache())

	require.NoError(t, e.Start(context.Background()))

	assert.True(t, e.EmptyState())
	assert.Equal(t, 0, e.Store().NodeCount(), "no metadata means no synthesized root")
}

func TestEngineUpdateNodeSchedulesSave(t *testing.T) {
	rm := &fakeRemote{
		loc:  graph.Location{ID: 1, Name: "Spire", HasData: true},
		snap: remoteSnapshot(),
	}
	e := newTestEngine(t, rm, newFakeCache())
	require.NoError(t, e.Start(context.Background()))

	text := "take the ford"
	require.NoError(t, e.UpdateNode("node-1", graph.NodePatch{Text: &text}))

	require.Eventually(t, func() bool {
		return e.Status() == StatusSaved && !e.Dirty()
	}, time.Second, 5*time.Millisecond)

	snap, ok := rm.lastSaved()
	require.True(t, ok)
	var found bool
	for _, n := range snap.Nodes {
		if n.ID == "node-1" {
			found = true
			assert.Equal(t, "take the ford", n.Data.Text)
		}
		assert.NotEqual(t, graph.RootID, n.ID)
	}
	assert.True(t, found)
}

func TestEngineDeleteNodeCascadesAndSavesImmediately(t *testing.T) {
	rm := &fakeRemote{
		loc: graph.Location{ID: 1, Name: "Spire", HasData: true},
		snap: graph.Snapshot{
			Nodes: []graph.Node{
				{ID: "node-1", Type: graph.NodeTypeOutcome},
				{ID: "node-2", Type: graph.NodeTypeOutcome},
			},
			Edges: []graph.Edge{
				{ID: "edge-root-node-1", Source: graph.RootID, Target: "node-1"},
				{ID: "edge-node-1-node-2", Source: "node-1", Target: "node-2"},
			},
		},
	}
	e := newTestEngine(t, rm, newFakeCache())
	require.NoError(t, e.Start(context.Background()))

	e.BeginEdit(KindNode, "node-2")
	removedNodes, removedEdges := e.DeleteNode("node-1")

	assert.ElementsMatch(t, []string{"node-1", "node-2"}, removedNodes)
	assert.ElementsMatch(t, []string{"edge-root-node-1", "edge-node-1-node-2"}, removedEdges)
	assert.False(t, e.edits.HasActiveEdits(), "deleted elements leave the edit set")

	require.Eventually(t, func() bool {
		snap, ok := rm.lastSaved()
		return ok && len(snap.Nodes) == 0 && len(snap.Edges) == 0
	}, time.Second, 5*time.Millisecond, "a deletion saves immediately")
}

func TestEngineConnectDragAndSpawnChild(t *testing.T) {
	rm := &fakeRemote{
		loc:  graph.Location{ID: 1, Name: "Spire", HasData: true},
		snap: remoteSnapshot(),
	}
	e := newTestEngine(t, rm, newFakeCache())
	require.NoError(t, e.Start(context.Background()))

	conn, err := e.ConnectDrag("node-1", graph.Position{X: 500, Y: 300}, "")
	require.NoError(t, err)
	require.NotNil(t, conn.Node)

	_, ok := e.Store().Node(conn.Node.ID)
	assert.True(t, ok)
	_, ok = e.Store().Edge(conn.Edge.ID)
	assert.True(t, ok)

	child, err := e.SpawnChild(graph.RootID)
	require.NoError(t, err)
	_, ok = e.Store().Node(child.Node.ID)
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		return e.Status() == StatusSaved && !e.Dirty()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEngineDuplicateConnectionRollsBack(t *testing.T) {
	rm := &fakeRemote{
		loc:  graph.Location{ID: 1, Name: "Spire", HasData: true},
		snap: remoteSnapshot(),
	}
	e := newTestEngine(t, rm, newFakeCache())
	require.NoError(t, e.Start(context.Background()))

	before := e.Store().NodeCount()
	_, err := e.ConnectDrag(graph.RootID, graph.Position{}, "node-1")
	require.Error(t, err, "the root already connects to node-1")
	assert.Equal(t, before, e.Store().NodeCount())
}

func TestEngineFiresLifecycleHooks(t *testing.T) {
	rm := &fakeRemote{
		loc:  graph.Location{ID: 1, Name: "Spire", HasData: true},
		snap: remoteSnapshot(),
	}
	e := newTestEngine(t, rm, newFakeCache())

	var mu stdsync.Mutex
	var statuses []Status
	applied := 0
	e.Hooks().Register(extensions.HookStatusChanged, func(data interface{}) {
		mu.Lock()
		statuses = append(statuses, data.(Status))
		mu.Unlock()
	})
	e.Hooks().Register(extensions.HookSnapshotApplied, func(data interface{}) {
		mu.Lock()
		applied++
		mu.Unlock()
	})

	require.NoError(t, e.Start(context.Background()))
	mu.Lock()
	assert.Equal(t, 1, applied, "the initial fetch fires a snapshot hook")
	mu.Unlock()

	text := "updated"
	require.NoError(t, e.UpdateNode("node-1", graph.NodePatch{Text: &text}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) >= 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []Status{StatusSaving, StatusSaved}, statuses[:2])
	mu.Unlock()
}

// TestEngineRoundTrip drives a full session against the dev overwrite store
// over real HTTP: fetch, mutate, save, and verify a second session observes
// the saved graph.
func TestEngineRoundTrip(t *testing.T) {
	store := memory.NewLocationStore()
	store.Seed(graph.Location{ID: 1, Number: intPtr(7), Name: "Crossroads", HasData: true}, []graph.Note{
		{ID: 1, Text: "Need the brass key", Author: "Anonymous"},
	})

	srv := httptest.NewServer(rest.NewRouter(store, zap.NewNop()).Setup())
	t.Cleanup(srv.Close)

	client := remote.NewClient(srv.URL, srv.Client(), zap.NewNop())

	first := newTestEngine(t, client, newFakeCache())
	require.NoError(t, first.Start(context.Background()))
	assert.Equal(t, "#7: Crossroads", first.Location().Title())
	require.Len(t, first.Notes(), 1)

	_, err := first.SpawnChild(graph.RootID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return first.Status() == StatusSaved && !first.Dirty()
	}, 2*time.Second, 5*time.Millisecond)
	first.Close()

	second := newTestEngine(t, client, newFakeCache())
	require.NoError(t, second.Start(context.Background()))

	want := first.Store().Snapshot(false)
	got := second.Store().Snapshot(false)
	assert.Equal(t, want, got, "a new session sees exactly what was saved")

	root, ok := second.Store().Node(graph.RootID)
	require.True(t, ok)
	assert.Equal(t, "#7: Crossroads", root.Data.Text, "root is synthesized, never fetched")
}
