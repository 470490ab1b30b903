// Package cache is the durable local snapshot cache. It plays the role the
// browser's local storage played for the original client: an instant,
// stale-tolerant copy of the last known graph per location, written through
// on every successful save and fetch.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/pkg/errors"
)

// MaxAge is how long a cached snapshot stays usable. Older entries are
// treated as absent and purged on the next read.
const MaxAge = 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS graph_cache (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// entry is the stored value: the snapshot wrapped with its location and the
// time it was taken
type entry struct {
	Location  graph.Location `json:"location"`
	Graph     graph.Snapshot `json:"graph"`
	Timestamp time.Time      `json:"timestamp"`
}

// Cache is a key-value snapshot cache on a local SQLite file
type Cache struct {
	db     *sql.DB
	maxAge time.Duration
	logger *zap.Logger
}

// Open opens (creating if needed) the cache database at path. ":memory:"
// gives an ephemeral cache for tests.
func Open(path string, logger *zap.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open cache database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize cache schema")
	}
	return &Cache{db: db, maxAge: MaxAge, logger: logger}, nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

func key(locationID int64) string {
	return fmt.Sprintf("graph_%d", locationID)
}

// Load returns the cached snapshot for a location. Entries older than MaxAge
// and entries that fail to decode are treated as misses and deleted; cache
// corruption never propagates past this boundary.
func (c *Cache) Load(ctx context.Context, locationID int64) (graph.Location, graph.Snapshot, time.Time, bool, error) {
	k := key(locationID)

	var payload string
	var updatedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM graph_cache WHERE key = ?`, k,
	).Scan(&payload, &updatedAt)
	if err == sql.ErrNoRows {
		return graph.Location{}, graph.Snapshot{}, time.Time{}, false, nil
	}
	if err != nil {
		return graph.Location{}, graph.Snapshot{}, time.Time{}, false, errors.Wrap(err, "read cache entry")
	}

	storedAt := time.Unix(updatedAt, 0)
	if time.Since(storedAt) > c.maxAge {
		c.purge(ctx, k)
		c.logger.Debug("stale cache entry purged", zap.String("key", k), zap.Time("storedAt", storedAt))
		return graph.Location{}, graph.Snapshot{}, time.Time{}, false, nil
	}

	var e entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		c.purge(ctx, k)
		c.logger.Warn("corrupt cache entry discarded",
			zap.String("key", k),
			zap.Error(errors.NewCacheCorruptError(k, err)),
		)
		return graph.Location{}, graph.Snapshot{}, time.Time{}, false, nil
	}

	return e.Location, e.Graph, e.Timestamp, true, nil
}

// Store upserts the snapshot for a location, stamped with the current time
func (c *Cache) Store(ctx context.Context, locationID int64, loc graph.Location, snap graph.Snapshot) error {
	now := time.Now()
	payload, err := json.Marshal(entry{Location: loc, Graph: snap, Timestamp: now})
	if err != nil {
		return errors.Wrap(err, "encode cache entry")
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO graph_cache (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key(locationID), string(payload), now.Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "write cache entry")
	}
	return nil
}

func (c *Cache) purge(ctx context.Context, k string) {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM graph_cache WHERE key = ?`, k); err != nil {
		c.logger.Warn("cache purge failed", zap.String("key", k), zap.Error(err))
	}
}
