package graph

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// Relationship Types
// =============================================================================

// RelationshipType is the kind of edge between two genres. The set is closed.
type RelationshipType int

const (
	// Derivative links a stylistic origin to the genre derived from it.
	Derivative RelationshipType = iota
	// Subgenre links a genre to one of its subgenres.
	Subgenre
	// FusionGenre links a contributing genre to a fusion of it.
	FusionGenre
)

var relationshipNames = [...]string{
	Derivative:  "Derivative",
	Subgenre:    "Subgenre",
	FusionGenre: "FusionGenre",
}

var relationshipLabels = [...]string{
	Derivative:  "Derivative",
	Subgenre:    "Subgenre",
	FusionGenre: "Fusion Genre",
}

// RelationshipTypes returns every relationship type in declaration order.
func RelationshipTypes() []RelationshipType {
	return []RelationshipType{Derivative, Subgenre, FusionGenre}
}

// Valid reports whether t is one of the declared relationship types.
func (t RelationshipType) Valid() bool {
	return t >= Derivative && t <= FusionGenre
}

// String returns the wire name ("Derivative", "Subgenre", "FusionGenre").
func (t RelationshipType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("RelationshipType(%d)", int(t))
	}
	return relationshipNames[t]
}

// Label returns the human-readable name shown in legends.
func (t RelationshipType) Label() string {
	if !t.Valid() {
		return t.String()
	}
	return relationshipLabels[t]
}

// ParseRelationshipType converts a wire name into a RelationshipType.
func ParseRelationshipType(s string) (RelationshipType, error) {
	for i, name := range relationshipNames {
		if name == s {
			return RelationshipType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown relationship type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t RelationshipType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid relationship type %d", int(t))
	}
	return []byte(relationshipNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names fail.
func (t *RelationshipType) UnmarshalText(b []byte) error {
	v, err := ParseRelationshipType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalJSON rejects anything but one of the three wire names.
func (t *RelationshipType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("relationship type must be a string: %w", err)
	}
	return t.UnmarshalText([]byte(s))
}

// =============================================================================
// Dataset - Genre Graph Wire Format
// =============================================================================

// Dataset is the genre graph as served to renderers (data.json).
//
// MaxDegree is supplied by the producer and trusted by consumers; it is not
// recomputed on load.
type Dataset struct {
	DumpDate  string `json:"dump_date,omitempty" bson:"dump_date,omitempty"`
	Nodes     []Node `json:"nodes" bson:"nodes" validate:"dive"`
	Links     []Link `json:"links" bson:"links" validate:"dive"`
	MaxDegree int    `json:"max_degree" bson:"max_degree" validate:"gte=0"`
}

// Node is one genre.
type Node struct {
	ID     string `json:"id" bson:"id" validate:"required"`
	Label  string `json:"label" bson:"label"`
	Degree int    `json:"degree" bson:"degree" validate:"gte=0"`

	PageTitle           string     `json:"page_title,omitempty" bson:"page_title,omitempty"`
	WikitextDescription *string    `json:"wikitext_description,omitempty" bson:"wikitext_description,omitempty"`
	LastRevisionDate    *time.Time `json:"last_revision_date,omitempty" bson:"last_revision_date,omitempty"`
	Links               []int      `json:"links,omitempty" bson:"links,omitempty"` // indices into Dataset.Links
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Description returns the raw wikitext description, or "" if there is none.
func (n *Node) Description() string {
	if n.WikitextDescription == nil {
		return ""
	}
	return *n.WikitextDescription
}

// Link is a directed, typed edge between two node ids.
type Link struct {
	Source string           `json:"source" bson:"source" validate:"required"`
	Target string           `json:"target" bson:"target" validate:"required"`
	Type   RelationshipType `json:"ty" bson:"ty" validate:"reltype"`
}

// Compare orders links by source, target and type.
func (l Link) Compare(o Link) int {
	switch {
	case l.Source != o.Source:
		return compareIDs(l.Source, o.Source)
	case l.Target != o.Target:
		return compareIDs(l.Target, o.Target)
	default:
		return int(l.Type) - int(o.Type)
	}
}

// Empty returns the dataset used when nothing could be loaded.
func Empty() *Dataset {
	return &Dataset{Nodes: []Node{}, Links: []Link{}}
}

// IsEmpty reports whether the dataset has no nodes and no links.
func (d *Dataset) IsEmpty() bool {
	return len(d.Nodes) == 0 && len(d.Links) == 0
}

// NodeByID returns the node with the given id.
func (d *Dataset) NodeByID(id string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// Index maps node ids to their position in Nodes.
func (d *Dataset) Index() map[string]int {
	idx := make(map[string]int, len(d.Nodes))
	for i, n := range d.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// LinksOf returns the links incident to id, outgoing first.
func (d *Dataset) LinksOf(id string) (out, in []Link) {
	for _, l := range d.Links {
		if l.Source == id {
			out = append(out, l)
		}
		if l.Target == id {
			in = append(in, l)
		}
	}
	return out, in
}

// Stats summarises a dataset.
type Stats struct {
	Nodes     int                      `json:"nodes"`
	Links     int                      `json:"links"`
	MaxDegree int                      `json:"max_degree"`
	ByType    map[RelationshipType]int `json:"by_type"`
}

// Stats counts nodes and links.
func (d *Dataset) Stats() Stats {
	s := Stats{
		Nodes:     len(d.Nodes),
		Links:     len(d.Links),
		MaxDegree: d.MaxDegree,
		ByType:    make(map[RelationshipType]int, 3),
	}
	for _, l := range d.Links {
		s.ByType[l.Type]++
	}
	return s
}
