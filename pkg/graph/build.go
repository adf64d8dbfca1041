package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Dataset Builder
// =============================================================================

// ProcessedGenre is the extracted infobox data for one genre page.
type ProcessedGenre struct {
	Name                string    `toml:"name"`
	WikitextDescription *string   `toml:"wikitext_description,omitempty"`
	LastRevisionDate    time.Time `toml:"last_revision_date"`
	StylisticOrigins    []string  `toml:"stylistic_origins"`
	Derivatives         []string  `toml:"derivatives"`
	Subgenres           []string  `toml:"subgenres"`
	FusionGenres        []string  `toml:"fusion_genres"`
}

// BuildOptions controls [Build].
type BuildOptions struct {
	DumpDate time.Time // zero omits dump_date
	Ignore   []string  // page names dropped before building
}

// Build turns processed genres, keyed by page name, into a dataset.
//
// Node ids are positions in page-name order. Links are derived as follows:
//
//	stylistic origin -> genre   Derivative
//	genre -> derivative         Derivative
//	genre -> subgenre           Subgenre
//	fusion genre -> genre       FusionGenre
//
// Duplicate links collapse, degree counts incident links and MaxDegree is the
// largest degree (0 for an empty input). Two pages with the same genre name,
// or a reference to a page that is not in the input, are errors.
func Build(genres map[string]ProcessedGenre, opts BuildOptions) (*Dataset, error) {
	ignored := make(map[string]bool, len(opts.Ignore))
	for _, p := range opts.Ignore {
		ignored[p] = true
	}

	pages := make([]string, 0, len(genres))
	for p := range genres {
		if !ignored[p] {
			pages = append(pages, p)
		}
	}
	slices.Sort(pages)

	if err := checkDuplicateNames(genres, pages); err != nil {
		return nil, err
	}

	ds := Empty()
	if !opts.DumpDate.IsZero() {
		ds.DumpDate = opts.DumpDate.Format(time.DateOnly)
	}

	ids := make(map[string]string, len(pages))
	for i, p := range pages {
		g := genres[p]
		id := strconv.Itoa(i)
		ids[p] = id

		rev := g.LastRevisionDate
		node := Node{
			ID:                  id,
			Label:               g.Name,
			PageTitle:           p,
			WikitextDescription: g.WikitextDescription,
		}
		if !rev.IsZero() {
			node.LastRevisionDate = &rev
		}
		ds.Nodes = append(ds.Nodes, node)
	}

	resolve := func(from, ref string) (string, error) {
		id, ok := ids[ref]
		if !ok {
			return "", fmt.Errorf("page %q references unknown page %q", from, ref)
		}
		return id, nil
	}

	seen := make(map[Link]bool)
	add := func(l Link) {
		if !seen[l] {
			seen[l] = true
			ds.Links = append(ds.Links, l)
		}
	}

	for _, p := range pages {
		g := genres[p]
		self := ids[p]

		for _, rel := range []struct {
			refs     []string
			ty       RelationshipType
			incoming bool
		}{
			{g.StylisticOrigins, Derivative, true},
			{g.Derivatives, Derivative, false},
			{g.Subgenres, Subgenre, false},
			{g.FusionGenres, FusionGenre, true},
		} {
			for _, ref := range rel.refs {
				other, err := resolve(p, ref)
				if err != nil {
					return nil, err
				}
				if rel.incoming {
					add(Link{Source: other, Target: self, Type: rel.ty})
				} else {
					add(Link{Source: self, Target: other, Type: rel.ty})
				}
			}
		}
	}

	slices.SortFunc(ds.Links, Link.Compare)
	computeDegrees(ds)
	return ds, nil
}

func checkDuplicateNames(genres map[string]ProcessedGenre, pages []string) error {
	byName := make(map[string]string, len(pages))
	for _, p := range pages {
		name := genres[p].Name
		if prev, ok := byName[name]; ok {
			return fmt.Errorf("duplicate genre %q on pages %q and %q", name, prev, p)
		}
		byName[name] = p
	}
	return nil
}

// computeDegrees fills Node.Links, Node.Degree and Dataset.MaxDegree from
// the dataset's links. Links to unknown ids are skipped.
func computeDegrees(ds *Dataset) {
	idx := ds.Index()
	for i := range ds.Nodes {
		ds.Nodes[i].Links = nil
	}
	for li, l := range ds.Links {
		if i, ok := idx[l.Source]; ok {
			ds.Nodes[i].Links = append(ds.Nodes[i].Links, li)
		}
		if l.Target != l.Source {
			if i, ok := idx[l.Target]; ok {
				ds.Nodes[i].Links = append(ds.Nodes[i].Links, li)
			}
		}
	}
	ds.MaxDegree = 0
	for i := range ds.Nodes {
		ds.Nodes[i].Degree = len(ds.Nodes[i].Links)
		ds.MaxDegree = max(ds.MaxDegree, ds.Nodes[i].Degree)
	}
}

// Recompute recalculates degrees and MaxDegree from the links. Loaders never
// call it; the producer's max_degree is trusted as-is.
func (d *Dataset) Recompute() {
	computeDegrees(d)
}

// compareIDs orders numeric ids numerically, before every non-numeric id.
// Non-numeric ids, and numeric ids of equal value ("1", "01"), compare
// bytewise, so the order is total.
func compareIDs(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
