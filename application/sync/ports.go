package sync

import (
	"context"
	"time"

	"github.com/silv3rmat/tainted-journal/domain/graph"
)

// RemoteStore is the opaque request/response boundary to the authoritative
// copy. The server is a dumb overwrite store: no conflict protocol, a save
// replaces the whole graph for the location.
type RemoteStore interface {
	FetchLocation(ctx context.Context, locationID int64) (graph.Location, []graph.Note, graph.Snapshot, error)
	SaveGraph(ctx context.Context, locationID int64, snap graph.Snapshot) error
}

// SnapshotCache is the durable local cache keyed by location, used for
// instant load on restart and as a backup written through on save.
type SnapshotCache interface {
	// Load returns the cached snapshot for a location. ok is false on a miss;
	// stale and corrupt entries are misses.
	Load(ctx context.Context, locationID int64) (loc graph.Location, snap graph.Snapshot, storedAt time.Time, ok bool, err error)
	Store(ctx context.Context, locationID int64, loc graph.Location, snap graph.Snapshot) error
}

// editGate is the view of the EditingTracker the scheduler and poller need
type editGate interface {
	HasActiveEdits() bool
}

// savePlanner is the view of the SaveScheduler the EditingTracker needs:
// begin-edit cancels any scheduled save, end-edit schedules one after the
// settle delay.
type savePlanner interface {
	CancelScheduled()
	ScheduleIn(d time.Duration)
}
