package sync

import (
	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/pkg/errors"
)

// siblingOffset is the horizontal spacing applied per existing sibling when a
// child is spawned directly from a parent, so new nodes do not stack. Layout
// heuristic only.
const siblingOffset = 220

// childDrop is the vertical distance a spawned child sits below its parent
const childDrop = 120

// Connection is the product of a connection gesture: a new edge, and a new
// node when the gesture landed on empty canvas.
type Connection struct {
	Node *graph.Node
	Edge graph.Edge
}

// ConnectionBuilder derives graph mutations from user connection gestures.
// It only produces elements; applying them to the store and requesting the
// save is the engine's job.
type ConnectionBuilder struct {
	store *graph.Store
}

// NewConnectionBuilder creates a builder over the given store
func NewConnectionBuilder(store *graph.Store) *ConnectionBuilder {
	return &ConnectionBuilder{store: store}
}

// FromDrag classifies a drag gesture released at the given point. An empty
// targetID means the release landed on empty canvas: a new outcome node is
// synthesized at the release coordinates together with the connecting edge.
// A non-empty targetID means the release landed on an existing node or
// handle: only the edge is created. The operation is rejected when the source
// cannot be resolved or the connection would duplicate an existing one.
func (b *ConnectionBuilder) FromDrag(sourceID string, release graph.Position, targetID string) (Connection, error) {
	if _, ok := b.store.Node(sourceID); !ok {
		return Connection{}, errors.NewNotFoundError("source node " + sourceID)
	}

	if targetID != "" {
		// Direct-connect path: both endpoints already exist
		if _, ok := b.store.Node(targetID); !ok {
			return Connection{}, errors.NewNotFoundError("target node " + targetID)
		}
		if sourceID == targetID {
			return Connection{}, errors.NewValidationError("cannot connect a node to itself")
		}
		id := graph.EdgeID(sourceID, targetID)
		if _, exists := b.store.Edge(id); exists {
			return Connection{}, errors.NewConflictError("connection already exists: " + id)
		}
		return Connection{Edge: graph.Edge{ID: id, Source: sourceID, Target: targetID}}, nil
	}

	node := graph.NewOutcomeNode(b.store.NextID(), release)
	return Connection{
		Node: &node,
		Edge: graph.Edge{
			ID:     graph.EdgeID(sourceID, node.ID),
			Source: sourceID,
			Target: node.ID,
		},
	}, nil
}

// SpawnChild synthesizes a child node directly under a parent, as the
// palette/keyboard path does, offset horizontally per existing sibling
func (b *ConnectionBuilder) SpawnChild(parentID string) (Connection, error) {
	parent, ok := b.store.Node(parentID)
	if !ok {
		return Connection{}, errors.NewNotFoundError("parent node " + parentID)
	}

	siblings := len(b.store.OutgoingEdges(parentID))
	pos := graph.Position{
		X: parent.Position.X + float64(siblings)*siblingOffset,
		Y: parent.Position.Y + childDrop,
	}

	node := graph.NewOutcomeNode(b.store.NextID(), pos)
	return Connection{
		Node: &node,
		Edge: graph.Edge{
			ID:     graph.EdgeID(parentID, node.ID),
			Source: parentID,
			Target: node.ID,
		},
	}, nil
}
