package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// RootID is the sentinel id of the locally synthesized root node. The root is
// derived from location metadata and is never part of the persisted graph
// payload.
const RootID = "root"

// Node types as they appear on the wire.
const (
	NodeTypeRoot    = "rootNode"
	NodeTypeOutcome = "outcomeNode"
)

// Position is a canvas coordinate pair
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the user-editable content of a node
type NodeData struct {
	Text      string `json:"text"`
	Cost      string `json:"cost"`
	Completed bool   `json:"completed"`
}

// Node is a single element of the decision graph. The JSON layout matches the
// remote store's wire format, with the editable fields nested under "data".
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// IsRoot reports whether this is the synthesized root node
func (n Node) IsRoot() bool {
	return n.ID == RootID
}

// EdgeData carries the user-editable content of an edge
type EdgeData struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Edge is a directed connection between two nodes
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Data   EdgeData `json:"data"`
}

// Snapshot is the serializable {nodes, edges} pair exchanged with the remote
// store and the local cache.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeID formats a generated node id from the monotonic counter
func NodeID(n int) string {
	return fmt.Sprintf("node-%d", n)
}

// EdgeID derives the deterministic edge id for an ordered endpoint pair.
// At most one edge may exist between a given ordered pair.
func EdgeID(source, target string) string {
	return fmt.Sprintf("edge-%s-%s", source, target)
}

// NodeIDSuffix extracts the numeric suffix of a generated node id.
// Returns false for the root sentinel and any id not of the "node-<n>" form.
func NodeIDSuffix(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "node-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NewOutcomeNode creates an outcome node at the given canvas position
func NewOutcomeNode(id string, pos Position) Node {
	return Node{
		ID:       id,
		Type:     NodeTypeOutcome,
		Position: pos,
	}
}
