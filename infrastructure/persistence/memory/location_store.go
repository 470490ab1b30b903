// Package memory is the in-memory backing store of the development server.
// It implements the overwrite-store contract: a graph save deletes whatever
// was there and writes the new snapshot, no merging, no versioning.
package memory

import (
	"sync"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/pkg/errors"
)

// Record is everything the store holds for one location
type Record struct {
	Location graph.Location
	Notes    []graph.Note
	Graph    graph.Snapshot
}

// LocationStore holds location records keyed by id
type LocationStore struct {
	mu      sync.RWMutex
	records map[int64]*Record
}

// NewLocationStore creates an empty store
func NewLocationStore() *LocationStore {
	return &LocationStore{records: make(map[int64]*Record)}
}

// Seed inserts or replaces a location record
func (s *LocationStore) Seed(loc graph.Location, notes []graph.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[loc.ID] = &Record{
		Location: loc,
		Notes:    notes,
		Graph:    graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}},
	}
}

// Get returns a copy of the record for a location
func (s *LocationStore) Get(id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, errors.NewNotFoundError("location")
	}
	return copyRecord(rec), nil
}

// SaveGraph overwrites the graph for a location. Any node carrying the root
// sentinel id is skipped; the root is synthesized client-side and never
// persisted.
func (s *LocationStore) SaveGraph(id int64, snap graph.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return errors.NewNotFoundError("location")
	}

	stored := graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	for _, n := range snap.Nodes {
		if n.ID == graph.RootID {
			continue
		}
		if n.Type == "" {
			n.Type = graph.NodeTypeOutcome
		}
		stored.Nodes = append(stored.Nodes, n)
	}
	stored.Edges = append(stored.Edges, snap.Edges...)

	rec.Graph = stored
	return nil
}

func copyRecord(rec *Record) Record {
	out := Record{Location: rec.Location}
	out.Notes = append([]graph.Note{}, rec.Notes...)
	out.Graph.Nodes = append([]graph.Node{}, rec.Graph.Nodes...)
	out.Graph.Edges = append([]graph.Edge{}, rec.Graph.Edges...)
	return out
}
