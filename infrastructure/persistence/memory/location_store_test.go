package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/pkg/errors"
)

func TestLocationStoreGetUnknown(t *testing.T) {
	s := NewLocationStore()

	_, err := s.Get(1)
	assert.True(t, errors.IsNotFound(err))
}

func TestLocationStoreSaveOverwrites(t *testing.T) {
	s := NewLocationStore()
	s.Seed(graph.Location{ID: 1, Name: "Ford"}, nil)

	first := graph.Snapshot{
		Nodes: []graph.Node{{ID: "node-1"}, {ID: "node-2"}},
		Edges: []graph.Edge{{ID: "edge-node-1-node-2", Source: "node-1", Target: "node-2"}},
	}
	require.NoError(t, s.SaveGraph(1, first))

	second := graph.Snapshot{Nodes: []graph.Node{{ID: "node-3"}}}
	require.NoError(t, s.SaveGraph(1, second))

	rec, err := s.Get(1)
	require.NoError(t, err)
	require.Len(t, rec.Graph.Nodes, 1, "a save replaces the whole graph")
	assert.Equal(t, "node-3", rec.Graph.Nodes[0].ID)
	assert.Empty(t, rec.Graph.Edges)
	assert.Equal(t, graph.NodeTypeOutcome, rec.Graph.Nodes[0].Type, "missing types are defaulted")
}

func TestLocationStoreSaveSkipsRootSentinel(t *testing.T) {
	s := NewLocationStore()
	s.Seed(graph.Location{ID: 1, Name: "Ford"}, nil)

	require.NoError(t, s.SaveGraph(1, graph.Snapshot{
		Nodes: []graph.Node{
			{ID: graph.RootID, Type: graph.NodeTypeRoot},
			{ID: "node-1", Type: graph.NodeTypeOutcome},
		},
	}))

	rec, err := s.Get(1)
	require.NoError(t, err)
	require.Len(t, rec.Graph.Nodes, 1)
	assert.Equal(t, "node-1", rec.Graph.Nodes[0].ID)
}

func TestLocationStoreGetReturnsCopies(t *testing.T) {
	s := NewLocationStore()
	s.Seed(graph.Location{ID: 1, Name: "Ford"}, []graph.Note{{ID: 1, Text: "original"}})

	rec, err := s.Get(1)
	require.NoError(t, err)
	rec.Notes[0].Text = "mutated"

	again, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Notes[0].Text)
}

func TestLocationStoreSaveUnknownLocation(t *testing.T) {
	s := NewLocationStore()
	err := s.SaveGraph(42, graph.Snapshot{})
	assert.True(t, errors.IsNotFound(err))
}
