package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/silv3rmat/tainted-journal/domain/graph"
)

// testTimings compresses the production scheduling constants so the suite
// stays fast
func testTimings() Timings {
	return Timings{
		PollInterval:    50 * time.Millisecond,
		SettleDelay:     10 * time.Millisecond,
		EditDefer:       60 * time.Millisecond,
		ThrottleWindow:  150 * time.Millisecond,
		SaveCooldown:    40 * time.Millisecond,
		RetryBase:       20 * time.Millisecond,
		MaxSaveAttempts: 3,
		RequeueDelay:    5 * time.Millisecond,
	}
}

// fakeRemote is an in-memory RemoteStore recording every call
type fakeRemote struct {
	mu           stdsync.Mutex
	loc          graph.Location
	notes        []graph.Note
	snap         graph.Snapshot
	fetchErr     error
	fetchCalls   int
	saveFailures int // fail this many saves before succeeding
	saveDelay    time.Duration
	saveCalls    int
	saveTimes    []time.Time
	saved        []graph.Snapshot
}

func (f *fakeRemote) FetchLocation(ctx context.Context, locationID int64) (graph.Location, []graph.Note, graph.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return graph.Location{}, nil, graph.Snapshot{}, f.fetchErr
	}
	return f.loc, f.notes, f.snap, nil
}

func (f *fakeRemote) SaveGraph(ctx context.Context, locationID int64, snap graph.Snapshot) error {
	f.mu.Lock()
	delay := f.saveDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	f.saveTimes = append(f.saveTimes, time.Now())
	if f.saveCalls <= f.saveFailures {
		return errors.New("remote store rejected the write")
	}
	f.saved = append(f.saved, snap)
	f.snap = snap
	return nil
}

func (f *fakeRemote) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCalls
}

func (f *fakeRemote) lastSaved() (graph.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return graph.Snapshot{}, false
	}
	return f.saved[len(f.saved)-1], true
}

// fakeCache is an in-memory SnapshotCache
type fakeCache struct {
	mu      stdsync.Mutex
	entries map[int64]cachedEntry
}

type cachedEntry struct {
	loc      graph.Location
	snap     graph.Snapshot
	storedAt time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int64]cachedEntry)}
}

func (c *fakeCache) Load(ctx context.Context, locationID int64) (graph.Location, graph.Snapshot, time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[locationID]
	if !ok {
		return graph.Location{}, graph.Snapshot{}, time.Time{}, false, nil
	}
	return e.loc, e.snap, e.storedAt, true, nil
}

func (c *fakeCache) Store(ctx context.Context, locationID int64, loc graph.Location, snap graph.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[locationID] = cachedEntry{loc: loc, snap: snap, storedAt: time.Now()}
	return nil
}

func (c *fakeCache) get(locationID int64) (cachedEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[locationID]
	return e, ok
}

// stubEdits is a switchable edit gate
type stubEdits struct {
	active atomic.Bool
}

func (s *stubEdits) HasActiveEdits() bool {
	return s.active.Load()
}
