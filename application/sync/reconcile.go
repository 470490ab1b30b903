package sync

import (
	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/domain/graph"
)

// Source identifies where a fetched snapshot came from
type Source int

const (
	// SourceRemote is the authoritative store
	SourceRemote Source = iota
	// SourceCache is the local durable cache, used for instant load
	SourceCache
)

func (s Source) String() string {
	if s == SourceCache {
		return "cache"
	}
	return "remote"
}

// Reconciler merges a fetched snapshot into the live store without losing
// in-flight local edits or the locally synthesized root node.
//
// The merge policy is deliberately weak: remote wins per element except for
// elements under active edit, where the locally held version is kept. This is
// not a 3-way merge and not a CRDT; the domain tolerates brief staleness and
// a single interactive editor per element at a time.
type Reconciler struct {
	store  *graph.Store
	edits  *EditingTracker
	logger *zap.Logger
}

// NewReconciler creates a reconciler over the given store and edit set
func NewReconciler(store *graph.Store, edits *EditingTracker, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, edits: edits, logger: logger}
}

// Apply merges the snapshot into the store.
//
// The first reconciliation of a session (store holds at most the root) and
// any cache-sourced snapshot are wholesale replacements: there is no local
// work to protect yet, so the fetched copy is trusted completely, preserving
// only the existing root entry. In steady state the merge keeps the current
// version of every element whose id is in the edit set and takes the incoming
// version of everything else. The id counter is reseeded on the wholesale
// path.
func (r *Reconciler) Apply(snap graph.Snapshot, source Source) {
	snap = normalize(snap)

	if source == SourceCache || r.store.NodeCount() <= 1 {
		r.store.Replace(snap, true)
		r.logger.Debug("snapshot applied wholesale",
			zap.Stringer("source", source),
			zap.Int("nodes", len(snap.Nodes)),
			zap.Int("edges", len(snap.Edges)),
		)
		return
	}

	current := r.store.Snapshot(true)
	merged := graph.Snapshot{}
	kept := 0

	currentNodes := make(map[string]graph.Node, len(current.Nodes))
	for _, n := range current.Nodes {
		currentNodes[n.ID] = n
	}
	seen := make(map[string]struct{}, len(snap.Nodes))
	for _, n := range snap.Nodes {
		seen[n.ID] = struct{}{}
		if r.edits.IsEditing(KindNode, n.ID) {
			if cur, ok := currentNodes[n.ID]; ok {
				merged.Nodes = append(merged.Nodes, cur)
				kept++
				continue
			}
		}
		merged.Nodes = append(merged.Nodes, n)
	}
	// An element under edit survives even if the snapshot no longer carries
	// it; the editing window makes it immune to overwrite, deletion included.
	for _, n := range current.Nodes {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		if !n.IsRoot() && r.edits.IsEditing(KindNode, n.ID) {
			merged.Nodes = append(merged.Nodes, n)
			kept++
		}
	}

	currentEdges := make(map[string]graph.Edge, len(current.Edges))
	for _, e := range current.Edges {
		currentEdges[e.ID] = e
	}
	seenEdges := make(map[string]struct{}, len(snap.Edges))
	for _, e := range snap.Edges {
		seenEdges[e.ID] = struct{}{}
		if r.edits.IsEditing(KindEdge, e.ID) {
			if cur, ok := currentEdges[e.ID]; ok {
				merged.Edges = append(merged.Edges, cur)
				kept++
				continue
			}
		}
		merged.Edges = append(merged.Edges, e)
	}
	for _, e := range current.Edges {
		if _, ok := seenEdges[e.ID]; ok {
			continue
		}
		if r.edits.IsEditing(KindEdge, e.ID) {
			merged.Edges = append(merged.Edges, e)
			kept++
		}
	}

	r.store.Replace(merged, true)
	r.logger.Debug("snapshot merged",
		zap.Stringer("source", source),
		zap.Int("nodes", len(merged.Nodes)),
		zap.Int("edges", len(merged.Edges)),
		zap.Int("keptLocal", kept),
	)
}

// normalize resets the non-persisted presentation state of fetched elements
// and defaults missing node types, purely additive to identity
func normalize(snap graph.Snapshot) graph.Snapshot {
	for i := range snap.Nodes {
		if snap.Nodes[i].Type == "" {
			snap.Nodes[i].Type = graph.NodeTypeOutcome
		}
	}
	return snap
}
