package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Dataset Serialization API
// =============================================================================

// ErrMissingField is returned by [Read] when a required field is absent.
var ErrMissingField = errors.New("required field missing")

// Marshal encodes a dataset as indented JSON.
func Marshal(d *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a dataset.
func Unmarshal(data []byte) (*Dataset, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes a dataset as indented JSON to w.
func Write(d *Dataset, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(d)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a dataset to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(d *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(d, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a JSON dataset from r. Fields of the wrong type and unknown
// relationship types fail; trailing data after the object fails as well.
// max_degree, every node's id, label and degree, and every link's source,
// target and ty must be present. nodes and links may be omitted.
func Read(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var d Dataset
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode: unexpected data after dataset")
	}
	if err := checkRequired(data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return normalize(&d), nil
}

// requiredFields mirrors the wire format with pointers, so an absent key
// (or an explicit null) can be told apart from a zero value.
type requiredFields struct {
	Nodes []struct {
		ID     *string `json:"id"`
		Label  *string `json:"label"`
		Degree *int    `json:"degree"`
	} `json:"nodes"`
	Links []struct {
		Source *string           `json:"source"`
		Target *string           `json:"target"`
		Type   *RelationshipType `json:"ty"`
	} `json:"links"`
	MaxDegree *int `json:"max_degree"`
}

// checkRequired reports the first required field missing from data.
func checkRequired(data []byte) error {
	var f requiredFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.MaxDegree == nil {
		return missingField("max_degree")
	}
	for i, n := range f.Nodes {
		switch {
		case n.ID == nil:
			return missingField(fmt.Sprintf("nodes[%d].id", i))
		case n.Label == nil:
			return missingField(fmt.Sprintf("nodes[%d].label", i))
		case n.Degree == nil:
			return missingField(fmt.Sprintf("nodes[%d].degree", i))
		}
	}
	for i, l := range f.Links {
		switch {
		case l.Source == nil:
			return missingField(fmt.Sprintf("links[%d].source", i))
		case l.Target == nil:
			return missingField(fmt.Sprintf("links[%d].target", i))
		case l.Type == nil:
			return missingField(fmt.Sprintf("links[%d].ty", i))
		}
	}
	return nil
}

func missingField(path string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, path)
}

// ReadFile reads and decodes a JSON dataset file.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// normalize replaces nil slices so that encoded datasets always carry
// "nodes": [] and "links": [].
func normalize(d *Dataset) *Dataset {
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Links == nil {
		d.Links = []Link{}
	}
	return d
}
