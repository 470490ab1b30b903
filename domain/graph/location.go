package graph

import "fmt"

// Location is the map location a decision graph is attached to. The sync
// engine only reads this metadata; location CRUD lives elsewhere.
type Location struct {
	ID      int64  `json:"id"`
	Number  *int   `json:"number"`
	Name    string `json:"name"`
	CoordX  int    `json:"coord_x"`
	CoordY  int    `json:"coord_y"`
	HasData bool   `json:"has_data"`
	IsEmpty bool   `json:"is_empty"`
}

// Title renders the location the way it is labelled on the map
func (l Location) Title() string {
	switch {
	case l.Number != nil && l.Name != "":
		return fmt.Sprintf("#%d: %s", *l.Number, l.Name)
	case l.Number != nil:
		return fmt.Sprintf("#%d", *l.Number)
	case l.Name != "":
		return l.Name
	default:
		return "Location"
	}
}

// RootNode synthesizes the root node for a location. The root is not part of
// the remote graph snapshot; it is prepended locally from location metadata.
// Returns false when the location carries no metadata to build a root from,
// which is the empty-state for the graph view.
func RootNode(l Location) (Node, bool) {
	if l.Name == "" && l.Number == nil {
		return Node{}, false
	}
	return Node{
		ID:   RootID,
		Type: NodeTypeRoot,
		Data: NodeData{Text: l.Title()},
	}, true
}

// Note is a location note, carried opaquely on fetch. A note may be assigned
// to a decision edge as a requirement.
type Note struct {
	ID             int64   `json:"id"`
	Text           string  `json:"text"`
	Author         string  `json:"author"`
	Completed      bool    `json:"completed"`
	AssignedEdgeID *string `json:"assigned_edge_id"`
}

// IsRequirement reports whether the note is assigned to an edge
func (n Note) IsRequirement() bool {
	return n.AssignedEdgeID != nil && *n.AssignedEdgeID != ""
}
