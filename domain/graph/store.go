package graph

import (
	"sort"
	"sync"

	"github.com/silv3rmat/tainted-journal/pkg/errors"
)

// Store owns the canonical in-memory node and edge collections for one
// location session, together with the monotonic id counter. It performs pure
// data operations only; fetching, caching and saving live in application/sync.
type Store struct {
	mu      sync.RWMutex
	nodes   map[string]Node
	edges   map[string]Edge
	counter int
}

// NewStore creates an empty store with the counter at 1
func NewStore() *Store {
	return &Store{
		nodes:   make(map[string]Node),
		edges:   make(map[string]Edge),
		counter: 1,
	}
}

// NodePatch carries a partial node update, nil fields untouched
type NodePatch struct {
	Text      *string
	Cost      *string
	Completed *bool
	Position  *Position
}

// EdgePatch carries a partial edge update, nil fields untouched
type EdgePatch struct {
	Text      *string
	Completed *bool
}

// AddNode inserts a node. Adding an id that already exists is a conflict.
func (s *Store) AddNode(n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		return errors.NewValidationError("node id required")
	}
	if _, exists := s.nodes[n.ID]; exists {
		return errors.NewConflictError("node already exists: " + n.ID)
	}
	if n.Type == "" {
		n.Type = NodeTypeOutcome
	}
	s.nodes[n.ID] = n
	if k, ok := NodeIDSuffix(n.ID); ok && k+1 > s.counter {
		s.counter = k + 1
	}
	return nil
}

// UpdateNode applies a partial update to an existing node
func (s *Store) UpdateNode(id string, patch NodePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.nodes[id]
	if !exists {
		return errors.NewNotFoundError("node " + id)
	}
	if patch.Text != nil {
		n.Data.Text = *patch.Text
	}
	if patch.Cost != nil {
		n.Data.Cost = *patch.Cost
	}
	if patch.Completed != nil {
		n.Data.Completed = *patch.Completed
	}
	if patch.Position != nil {
		n.Position = *patch.Position
	}
	s.nodes[id] = n
	return nil
}

// RemoveNodes deletes the given nodes together with every transitive
// descendant reachable over outgoing edges, and every edge touching a removed
// node, in one logical operation. The root node is exempt: it is skipped both
// as a requested id and as a walk target. Returns the ids actually removed.
func (s *Store) RemoveNodes(ids ...string) (removedNodes, removedEdges []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Adjacency index over the current edge set
	children := make(map[string][]string, len(s.edges))
	for _, e := range s.edges {
		children[e.Source] = append(children[e.Source], e.Target)
	}

	// Depth-first reachability with a visited set; the edge set is not
	// supposed to contain cycles but the walk must not hang if it does.
	doomed := make(map[string]struct{})
	var walk func(id string)
	walk = func(id string) {
		if id == RootID {
			return
		}
		if _, seen := doomed[id]; seen {
			return
		}
		if _, exists := s.nodes[id]; !exists {
			return
		}
		doomed[id] = struct{}{}
		for _, child := range children[id] {
			walk(child)
		}
	}
	for _, id := range ids {
		walk(id)
	}

	for id := range doomed {
		delete(s.nodes, id)
		removedNodes = append(removedNodes, id)
	}
	for id, e := range s.edges {
		_, srcDoomed := doomed[e.Source]
		_, dstDoomed := doomed[e.Target]
		if srcDoomed || dstDoomed {
			delete(s.edges, id)
			removedEdges = append(removedEdges, id)
		}
	}
	sort.Strings(removedNodes)
	sort.Strings(removedEdges)
	return removedNodes, removedEdges
}

// AddEdge inserts an edge. The id is deterministic in the endpoints, so a
// duplicate connection between the same ordered pair is a conflict.
func (s *Store) AddEdge(e Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Source == "" || e.Target == "" {
		return errors.NewValidationError("edge endpoints required")
	}
	if e.ID == "" {
		e.ID = EdgeID(e.Source, e.Target)
	}
	if _, exists := s.edges[e.ID]; exists {
		return errors.NewConflictError("edge already exists: " + e.ID)
	}
	s.edges[e.ID] = e
	return nil
}

// UpdateEdge applies a partial update to an existing edge
func (s *Store) UpdateEdge(id string, patch EdgePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.edges[id]
	if !exists {
		return errors.NewNotFoundError("edge " + id)
	}
	if patch.Text != nil {
		e.Data.Text = *patch.Text
	}
	if patch.Completed != nil {
		e.Data.Completed = *patch.Completed
	}
	s.edges[id] = e
	return nil
}

// RemoveEdges deletes the given edges, ignoring unknown ids
func (s *Store) RemoveEdges(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.edges, id)
	}
}

// Node returns a node by id
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// Edge returns an edge by id
func (s *Store) Edge(id string) (Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.edges[id]
	return e, ok
}

// OutgoingEdges returns the edges whose source is the given node
func (s *Store) OutgoingEdges(sourceID string) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Edge
	for _, e := range s.edges {
		if e.Source == sourceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeCount returns the number of nodes, root included
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// NextID returns a fresh generated node id and advances the counter
func (s *Store) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := NodeID(s.counter)
	s.counter++
	return id
}

// Counter returns the current counter value without advancing it
func (s *Store) Counter() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter
}

// SeedCounter recomputes the counter as max(numeric suffix)+1 across the
// current nodes, so generated ids never collide with server-assigned ones
// after a reload. Never moves the counter backwards.
func (s *Store) SeedCounter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seedCounterLocked()
}

func (s *Store) seedCounterLocked() {
	next := 1
	for id := range s.nodes {
		if n, ok := NodeIDSuffix(id); ok && n+1 > next {
			next = n + 1
		}
	}
	if next > s.counter {
		s.counter = next
	}
}

// Snapshot returns a deterministic copy of the current graph. The root node
// is excluded when includeRoot is false, matching the persisted payload.
func (s *Store) Snapshot(includeRoot bool) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Nodes: make([]Node, 0, len(s.nodes)),
		Edges: make([]Edge, 0, len(s.edges)),
	}
	for _, n := range s.nodes {
		if !includeRoot && n.IsRoot() {
			continue
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	for _, e := range s.edges {
		snap.Edges = append(snap.Edges, e)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return nodeLess(snap.Nodes[i].ID, snap.Nodes[j].ID) })
	sort.Slice(snap.Edges, func(i, j int) bool { return snap.Edges[i].ID < snap.Edges[j].ID })
	return snap
}

// Replace swaps the whole graph for the given snapshot. The existing root
// entry survives when keepRoot is set and the snapshot carries no root of its
// own. The counter is reseeded from the new node set.
func (s *Store) Replace(snap Snapshot, keepRoot bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, hadRoot := s.nodes[RootID]

	s.nodes = make(map[string]Node, len(snap.Nodes)+1)
	s.edges = make(map[string]Edge, len(snap.Edges))
	for _, n := range snap.Nodes {
		if n.Type == "" {
			n.Type = NodeTypeOutcome
		}
		s.nodes[n.ID] = n
	}
	for _, e := range snap.Edges {
		s.edges[e.ID] = e
	}
	if keepRoot && hadRoot {
		if _, replaced := s.nodes[RootID]; !replaced {
			s.nodes[RootID] = root
		}
	}
	s.seedCounterLocked()
}

// nodeLess orders the root first, then generated ids by numeric suffix, then
// anything else lexicographically.
func nodeLess(a, b string) bool {
	if a == RootID || b == RootID {
		return a == RootID && b != RootID
	}
	na, aok := NodeIDSuffix(a)
	nb, bok := NodeIDSuffix(b)
	switch {
	case aok && bok:
		return na < nb
	case aok:
		return true
	case bok:
		return false
	default:
		return a < b
	}
}
