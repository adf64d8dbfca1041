package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestRelationshipTypeJSON(t *testing.T) {
	for _, ty := range RelationshipTypes() {
		data, err := json.Marshal(Link{Source: "0", Target: "1", Type: ty})
		if err != nil {
			t.Fatalf("marshal %v: %v", ty, err)
		}
		if !strings.Contains(string(data), `"ty":"`+ty.String()+`"`) {
			t.Errorf("marshal %v = %s", ty, data)
		}

		var l Link
		if err := json.Unmarshal(data, &l); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if l.Type != ty {
			t.Errorf("round trip = %v, want %v", l.Type, ty)
		}
	}
}

func TestRelationshipTypeRejectsUnknown(t *testing.T) {
	tests := []string{
		`{"source":"0","target":"1","ty":"Influence"}`,
		`{"source":"0","target":"1","ty":"derivative"}`,
		`{"source":"0","target":"1","ty":1}`,
		`{"source":"0","target":"1","ty":null}`,
	}
	for _, in := range tests {
		var l Link
		if err := json.Unmarshal([]byte(in), &l); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", in)
		}
	}

	if _, err := json.Marshal(Link{Type: RelationshipType(7)}); err == nil {
		t.Error("Marshal of out-of-range type succeeded, want error")
	}
}

func TestRelationshipTypeLabels(t *testing.T) {
	tests := []struct {
		ty    RelationshipType
		name  string
		label string
	}{
		{Derivative, "Derivative", "Derivative"},
		{Subgenre, "Subgenre", "Subgenre"},
		{FusionGenre, "FusionGenre", "Fusion Genre"},
		{RelationshipType(9), "RelationshipType(9)", "RelationshipType(9)"},
	}
	for _, tt := range tests {
		if got := tt.ty.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.ty.Label(); got != tt.label {
			t.Errorf("Label() = %q, want %q", got, tt.label)
		}
	}
}

const sampleJSON = `{
  "dump_date": "2025-01-23",
  "nodes": [
    {"id": "0", "label": "Blues", "degree": 1, "page_title": "Blues",
     "wikitext_description": "'''Blues''' is a music genre.",
     "last_revision_date": "2024-12-01T10:00:00Z", "links": [0]},
    {"id": "1", "label": "Rock", "degree": 1}
  ],
  "links": [{"source": "0", "target": "1", "ty": "Derivative"}],
  "max_degree": 99
}`

func TestUnmarshal(t *testing.T) {
	ds, err := Unmarshal([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if ds.DumpDate != "2025-01-23" {
		t.Errorf("DumpDate = %q", ds.DumpDate)
	}
	if len(ds.Nodes) != 2 || len(ds.Links) != 1 {
		t.Fatalf("got %d nodes, %d links", len(ds.Nodes), len(ds.Links))
	}
	if ds.MaxDegree != 99 {
		t.Errorf("MaxDegree = %d, want the producer's 99", ds.MaxDegree)
	}

	blues := ds.Nodes[0]
	if blues.Description() != "'''Blues''' is a music genre." {
		t.Errorf("Description() = %q", blues.Description())
	}
	if blues.LastRevisionDate == nil || !blues.LastRevisionDate.Equal(time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("LastRevisionDate = %v", blues.LastRevisionDate)
	}
	if ds.Nodes[1].Description() != "" {
		t.Errorf("missing description = %q, want empty", ds.Nodes[1].Description())
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `nodes: []`},
		{"degree wrong type", `{"nodes":[{"id":"0","label":"x","degree":"many"}],"links":[],"max_degree":1}`},
		{"links wrong type", `{"nodes":[],"links":{},"max_degree":0}`},
		{"unknown ty", `{"nodes":[],"links":[{"source":"0","target":"1","ty":"Cover"}],"max_degree":0}`},
		{"trailing data", `{"nodes":[],"links":[],"max_degree":0} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.in)); err == nil {
				t.Error("Unmarshal succeeded, want error")
			}
		})
	}
}

func TestUnmarshalMissingFields(t *testing.T) {
	const (
		nodes = `"nodes":[{"id":"0","label":"A","degree":1},{"id":"1","label":"B","degree":1}]`
		links = `"links":[{"source":"0","target":"1","ty":"Subgenre"}]`
	)
	tests := []struct {
		name  string
		in    string
		field string
	}{
		{"link without ty", `{` + nodes + `,"links":[{"source":"0","target":"1"}],"max_degree":1}`, "links[0].ty"},
		{"link with null ty", `{` + nodes + `,"links":[{"source":"0","target":"1","ty":null}],"max_degree":1}`, ""},
		{"link without source", `{` + nodes + `,"links":[{"target":"1","ty":"Subgenre"}],"max_degree":1}`, "links[0].source"},
		{"link without target", `{` + nodes + `,"links":[{"source":"0","ty":"Subgenre"}],"max_degree":1}`, "links[0].target"},
		{"dataset without max_degree", `{` + nodes + `,` + links + `}`, "max_degree"},
		{"node without degree", `{"nodes":[{"id":"0","label":"A"}],"links":[],"max_degree":0}`, "nodes[0].degree"},
		{"node without label", `{"nodes":[{"id":"0","degree":0}],"links":[],"max_degree":0}`, "nodes[0].label"},
		{"second node without id", `{"nodes":[{"id":"0","label":"A","degree":0},{"label":"B","degree":0}],"links":[],"max_degree":0}`, "nodes[1].id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Unmarshal([]byte(tt.in))
			if err == nil {
				t.Fatalf("Unmarshal succeeded with %d links, want error", len(ds.Links))
			}
			if tt.field == "" {
				return
			}
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("error %v is not ErrMissingField", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestUnmarshalNormalizesEmpty(t *testing.T) {
	ds, err := Unmarshal([]byte(`{"max_degree": 0}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ds.Nodes == nil || ds.Links == nil {
		t.Error("nil slices after decode, want empty")
	}

	data, err := Marshal(Empty())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Contains(data, []byte(`"nodes": []`)) || !bytes.Contains(data, []byte(`"links": []`)) {
		t.Errorf("empty dataset encoded as %s", data)
	}
}

func TestReadWriteFile(t *testing.T) {
	ds, err := Unmarshal([]byte(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "data.json")
	if err := WriteFile(ds, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got.Nodes) != 2 || got.Links[0] != ds.Links[0] || got.MaxDegree != 99 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) = %v, want os.ErrNotExist", err)
	}
}

func TestDatasetQueries(t *testing.T) {
	ds, err := Unmarshal([]byte(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}

	n, ok := ds.NodeByID("1")
	if !ok || n.DisplayLabel() != "Rock" {
		t.Errorf("NodeByID(1) = %v, %v", n, ok)
	}
	if _, ok := ds.NodeByID("7"); ok {
		t.Error("NodeByID(7) found a node")
	}

	out, in := ds.LinksOf("0")
	if len(out) != 1 || len(in) != 0 {
		t.Errorf("LinksOf(0) = %v, %v", out, in)
	}

	s := ds.Stats()
	if s.Nodes != 2 || s.Links != 1 || s.ByType[Derivative] != 1 {
		t.Errorf("Stats() = %+v", s)
	}

	if (&Node{ID: "3"}).DisplayLabel() != "3" {
		t.Error("DisplayLabel should fall back to the id")
	}
	if !Empty().IsEmpty() || ds.IsEmpty() {
		t.Error("IsEmpty mismatch")
	}
}

func TestBuild(t *testing.T) {
	genres := map[string]ProcessedGenre{
		"Blues": {
			Name:        "Blues",
			Derivatives: []string{"Rock music"},
		},
		"Rock music": {
			Name:             "Rock",
			StylisticOrigins: []string{"Blues"},
			Subgenres:        []string{"Punk rock"},
		},
		"Punk rock": {Name: "Punk"},
		"Jazz fusion": {
			Name:         "Jazz fusion",
			FusionGenres: []string{"Rock music"},
		},
		"List of genres": {Name: "List"},
	}

	ds, err := Build(genres, BuildOptions{Ignore: []string{"List of genres"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var pages []string
	for _, n := range ds.Nodes {
		pages = append(pages, n.PageTitle)
	}
	want := []string{"Blues", "Jazz fusion", "Punk rock", "Rock music"}
	if !slices.Equal(pages, want) {
		t.Fatalf("page order = %v, want %v", pages, want)
	}
	for i, n := range ds.Nodes {
		if n.ID != []string{"0", "1", "2", "3"}[i] {
			t.Errorf("node %d id = %q", i, n.ID)
		}
	}

	// Blues->Rock is produced twice (origin and derivative) and collapses.
	wantLinks := []Link{
		{Source: "0", Target: "3", Type: Derivative},
		{Source: "3", Target: "1", Type: FusionGenre},
		{Source: "3", Target: "2", Type: Subgenre},
	}
	if !slices.Equal(ds.Links, wantLinks) {
		t.Errorf("links = %v, want %v", ds.Links, wantLinks)
	}

	degrees := map[string]int{"0": 1, "1": 1, "2": 1, "3": 3}
	for _, n := range ds.Nodes {
		if n.Degree != degrees[n.ID] {
			t.Errorf("degree(%s) = %d, want %d", n.ID, n.Degree, degrees[n.ID])
		}
		if len(n.Links) != n.Degree {
			t.Errorf("node %s has %d link indices, degree %d", n.ID, len(n.Links), n.Degree)
		}
	}
	if ds.MaxDegree != 3 {
		t.Errorf("MaxDegree = %d, want 3", ds.MaxDegree)
	}
	if ds.DumpDate != "" {
		t.Errorf("DumpDate = %q, want empty", ds.DumpDate)
	}
	if err := Validate(ds); err != nil {
		t.Errorf("built dataset does not validate: %v", err)
	}
}

func TestBuildEmpty(t *testing.T) {
	ds, err := Build(nil, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ds.MaxDegree != 0 || !ds.IsEmpty() || ds.Nodes == nil {
		t.Errorf("Build(nil) = %+v", ds)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		genres map[string]ProcessedGenre
		want   string
	}{
		{
			name: "duplicate genre name",
			genres: map[string]ProcessedGenre{
				"Rock":       {Name: "Rock"},
				"Rock music": {Name: "Rock"},
			},
			want: "duplicate genre",
		},
		{
			name: "unknown reference",
			genres: map[string]ProcessedGenre{
				"Rock music": {Name: "Rock", Subgenres: []string{"Nonexistent"}},
			},
			want: "unknown page",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.genres, BuildOptions{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Build() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestBuildSelfLoopCountsOnce(t *testing.T) {
	ds, err := Build(map[string]ProcessedGenre{
		"Loop": {Name: "Loop", Subgenres: []string{"Loop"}},
	}, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Nodes[0].Degree != 1 || ds.MaxDegree != 1 {
		t.Errorf("self loop degree = %d, max %d", ds.Nodes[0].Degree, ds.MaxDegree)
	}
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"9", "10", -1},
		{"10", "9", 1},
		{"3", "3", 0},
		{"a", "b", -1},
		{"b", "10", 1},
		{"1a", "2", 1},
		{"10", "1a", -1},
		{"01", "1", -1},
	}
	for _, tt := range tests {
		got := compareIDs(tt.a, tt.b)
		if (got < 0) != (tt.want < 0) || (got > 0) != (tt.want > 0) {
			t.Errorf("compareIDs(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareIDsIsTotal(t *testing.T) {
	ids := []string{"2", "10", "1a", "b", "01", "1", "a10", "0"}
	for _, a := range ids {
		for _, b := range ids {
			ab, ba := compareIDs(a, b), compareIDs(b, a)
			if (ab < 0) != (ba > 0) || (ab == 0) != (a == b) {
				t.Errorf("compareIDs(%q, %q) = %d but compareIDs(%q, %q) = %d", a, b, ab, b, a, ba)
			}
			for _, c := range ids {
				if ab < 0 && compareIDs(b, c) < 0 && compareIDs(a, c) >= 0 {
					t.Errorf("not transitive: %q < %q < %q but not %q < %q", a, b, c, a, c)
				}
			}
		}
	}

	links := []Link{{Source: "1a"}, {Source: "10"}, {Source: "2"}, {Source: "b"}}
	slices.SortFunc(links, Link.Compare)
	var got []string
	for _, l := range links {
		got = append(got, l.Source)
	}
	if want := "2,10,1a,b"; strings.Join(got, ",") != want {
		t.Errorf("sorted sources = %s, want %s", strings.Join(got, ","), want)
	}
}

func TestRecompute(t *testing.T) {
	ds := &Dataset{
		Nodes: []Node{{ID: "0"}, {ID: "1"}, {ID: "2"}},
		Links: []Link{
			{Source: "0", Target: "1", Type: Derivative},
			{Source: "0", Target: "2", Type: Subgenre},
			{Source: "0", Target: "ghost", Type: Subgenre},
		},
		MaxDegree: 42,
	}
	ds.Recompute()
	if ds.Nodes[0].Degree != 3 || ds.Nodes[1].Degree != 1 || ds.MaxDegree != 3 {
		t.Errorf("Recompute() = %+v", ds)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Dataset {
		return &Dataset{
			Nodes:     []Node{{ID: "0", Label: "a", Degree: 1}, {ID: "1", Label: "b", Degree: 1}},
			Links:     []Link{{Source: "0", Target: "1", Type: FusionGenre}},
			MaxDegree: 1,
		}
	}

	if err := Validate(valid()); err != nil {
		t.Fatalf("Validate(valid) = %v", err)
	}
	if err := Validate(Empty()); err != nil {
		t.Fatalf("Validate(empty) = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Dataset)
		want   string
	}{
		{"empty id", func(d *Dataset) { d.Nodes[0].ID = ""; d.Links = nil }, "Nodes[0].ID is required"},
		{"negative degree", func(d *Dataset) { d.Nodes[1].Degree = -1 }, "Nodes[1].Degree must be at least 0"},
		{"bad type", func(d *Dataset) { d.Links[0].Type = RelationshipType(5) }, "Links[0].Type is not a relationship type"},
		{"duplicate id", func(d *Dataset) { d.Nodes[1].ID = "0"; d.Links = nil }, `duplicate node id "0"`},
		{"dangling target", func(d *Dataset) { d.Links[0].Target = "9" }, `target "9" is not a node`},
		{"dangling source", func(d *Dataset) { d.Links[0].Source = "8" }, `source "8" is not a node`},
		{"max degree too small", func(d *Dataset) { d.MaxDegree = 0 }, "exceeds max_degree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			err := Validate(d)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSanitizePageName(t *testing.T) {
	tests := []struct {
		page, stem string
	}{
		{"Rock music", "Rock music"},
		{"AC/DC", "AC⧸DC"},
		{"a/b/c", "a⧸b⧸c"},
	}
	for _, tt := range tests {
		if got := SanitizePageName(tt.page); got != tt.stem {
			t.Errorf("SanitizePageName(%q) = %q, want %q", tt.page, got, tt.stem)
		}
		if got := UnsanitizePageName(tt.stem); got != tt.page {
			t.Errorf("UnsanitizePageName(%q) = %q, want %q", tt.stem, got, tt.page)
		}
	}
}

func TestProcessedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	desc := "Some '''genre'''."
	rev := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	in := ProcessedGenre{
		Name:                "Slash genre",
		WikitextDescription: &desc,
		LastRevisionDate:    rev,
		StylisticOrigins:    []string{"Blues"},
		Subgenres:           []string{"A/B"},
	}
	if err := WriteProcessed(dir, "Slash/genre", in); err != nil {
		t.Fatalf("WriteProcessed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Slash⧸genre.toml")); err != nil {
		t.Fatalf("sanitised file missing: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadProcessedDir(dir)
	if err != nil {
		t.Fatalf("ReadProcessedDir: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d genres, want 1", len(got))
	}
	g, ok := got["Slash/genre"]
	if !ok {
		t.Fatalf("page name not unsanitised: %v", got)
	}
	if g.Name != in.Name || *g.WikitextDescription != desc || !g.LastRevisionDate.Equal(rev) {
		t.Errorf("round trip = %+v", g)
	}
	if !slices.Equal(g.Subgenres, in.Subgenres) || !slices.Equal(g.StylisticOrigins, in.StylisticOrigins) {
		t.Errorf("relations = %v / %v", g.StylisticOrigins, g.Subgenres)
	}
}

func TestReadProcessedDirErrors(t *testing.T) {
	if _, err := ReadProcessedDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing dir: want error")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Bad.toml"), []byte("name = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadProcessedDir(dir); err == nil {
		t.Error("malformed toml: want error")
	}
}

func TestParseDumpDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"enwiki-20250123-pages-articles-multistream", "2025-01-23", true},
		{"/dumps/enwiki-20240901-pages-articles-multistream.xml.bz2", "2024-09-01", true},
		{"enwiki-20250123.xml", "2025-01-23", true},
		{"enwiki-2025012-pages", "", false},
		{"enwiki-20251341-pages", "", false},
		{"dewiki-20250123-pages", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDumpDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDumpDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format(time.DateOnly) != tt.want {
			t.Errorf("ParseDumpDate(%q) = %s, want %s", tt.in, got.Format(time.DateOnly), tt.want)
		}
	}
}
