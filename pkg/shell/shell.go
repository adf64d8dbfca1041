// Package shell composes a loaded dataset with description parsing,
// truncation and visual encoding.
//
// A [Shell] loads its dataset exactly once. If the load fails the shell keeps
// an empty dataset and exposes the failure through [Shell.LoadError]; callers
// decide how to surface it (a banner, a 503, a non-zero exit). Reloading
// means building a new Shell, which also starts a new document generation so
// that any truncation state keyed by [Shell.DocID] resets.
package shell

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/truncate"
	"github.com/matzehuels/genregraph/pkg/visual"
	"github.com/matzehuels/genregraph/pkg/wikitext"
)

// Loader fetches a dataset. *fetch.Client satisfies it.
type Loader interface {
	Load(ctx context.Context, source string, refresh bool) (*graph.Dataset, error)
}

// LoaderFunc adapts a function to [Loader].
type LoaderFunc func(ctx context.Context, source string, refresh bool) (*graph.Dataset, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, source string, refresh bool) (*graph.Dataset, error) {
	return f(ctx, source, refresh)
}

// Options configures a [Shell].
type Options struct {
	Source   string          // dataset path or URL
	Refresh  bool            // bypass cached HTTP responses
	Strict   bool            // run graph.Validate after decoding
	BaseSize float64         // node base size; 0 means visual.DefaultBaseSize
	Parser   wikitext.Parser // nil means wikitext.LineParser
	Logger   *log.Logger     // nil means log.Default()
}

// Shell is safe for concurrent use once [Shell.Load] has returned.
type Shell struct {
	loader Loader
	opts   Options
	logger *log.Logger

	once       sync.Once
	generation string
	dataset    *graph.Dataset
	index      map[string]int
	scheme     visual.Scheme
	loadErr    error

	mu   sync.Mutex
	docs map[string]wikitext.Sequence
}

// New creates an unloaded shell.
func New(loader Loader, opts Options) *Shell {
	if opts.Parser == nil {
		opts.Parser = wikitext.LineParser{}
	}
	if opts.BaseSize <= 0 {
		opts.BaseSize = visual.DefaultBaseSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Shell{
		loader:     loader,
		opts:       opts,
		logger:     logger,
		generation: uuid.NewString(),
		dataset:    graph.Empty(),
		index:      map[string]int{},
		scheme:     visual.Scheme{BaseSize: opts.BaseSize},
		docs:       make(map[string]wikitext.Sequence),
	}
}

// Load performs the one-shot dataset load and returns its error. Later calls
// do nothing and return the same error.
func (s *Shell) Load(ctx context.Context) error {
	s.once.Do(func() {
		start := time.Now()
		ds, err := s.load(ctx)
		if err != nil {
			s.loadErr = err
			s.logger.Error("dataset load failed", "source", s.opts.Source, "err", err)
			return
		}
		s.dataset = ds
		s.index = ds.Index()
		s.scheme = visual.Scheme{MaxDegree: ds.MaxDegree, BaseSize: s.opts.BaseSize}
		s.logger.Info("loaded dataset",
			"source", s.opts.Source,
			"nodes", len(ds.Nodes),
			"links", len(ds.Links),
			"max_degree", ds.MaxDegree,
			"elapsed", time.Since(start).Round(time.Millisecond))
	})
	return s.loadErr
}

func (s *Shell) load(ctx context.Context) (*graph.Dataset, error) {
	ds, err := s.loader.Load(ctx, s.opts.Source, s.opts.Refresh)
	if err != nil {
		return nil, err
	}
	if s.opts.Strict {
		if err := graph.Validate(ds); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidDataset, err, "dataset %s failed validation", s.opts.Source)
		}
	}
	return ds, nil
}

// Dataset returns the loaded dataset, or an empty one if loading failed or
// has not happened.
func (s *Shell) Dataset() *graph.Dataset { return s.dataset }

// LoadError returns the load failure, if any.
func (s *Shell) LoadError() error { return s.loadErr }

// Generation identifies this shell's load. It changes on every reload.
func (s *Shell) Generation() string { return s.generation }

// Scheme returns the visual encoding bound to the loaded dataset.
func (s *Shell) Scheme() visual.Scheme { return s.scheme }

// DocID returns the truncation identity of a node's description. It differs
// between shells even for the same node id and content.
func (s *Shell) DocID(nodeID string) truncate.DocID {
	return truncate.DocID(s.generation + "/" + nodeID)
}

// Node looks up a node by id.
func (s *Shell) Node(id string) (*graph.Node, error) {
	if s.loadErr != nil {
		return nil, apperr.Wrap(apperr.ErrCodeUnavailable, s.loadErr, "dataset unavailable")
	}
	i, ok := s.index[id]
	if !ok {
		return nil, apperr.New(apperr.ErrCodeNodeNotFound, "no node with id %q", id)
	}
	return &s.dataset.Nodes[i], nil
}

// Description returns the parsed description of a node. Parsing happens at
// most once per node per shell.
func (s *Shell) Description(id string) (wikitext.Sequence, error) {
	n, err := s.Node(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq, ok := s.docs[id]; ok {
		return seq, nil
	}
	seq := s.opts.Parser.ParseAndSimplify(n.Description())
	s.docs[id] = seq
	return seq, nil
}

// DescriptionView is a node description after truncation.
type DescriptionView struct {
	NodeID      string            `json:"node_id"`
	Label       string            `json:"label"`
	DocID       truncate.DocID    `json:"doc_id"`
	Visible     wikitext.Sequence `json:"visible"`
	HasBoundary bool              `json:"has_boundary"`
	Expanded    bool              `json:"expanded"`
	ToggleLabel string            `json:"toggle_label,omitempty"`
}

// Describe applies st to a node's description. The toggle label is only set
// when the description has a boundary and expandable is true.
func (s *Shell) Describe(id string, st truncate.State, expandable bool) (DescriptionView, error) {
	seq, err := s.Description(id)
	if err != nil {
		return DescriptionView{}, err
	}
	n, _ := s.Node(id)

	if !expandable {
		st = truncate.State{}
	}
	v := truncate.ComputeView(seq, st)
	out := DescriptionView{
		NodeID:      id,
		Label:       n.DisplayLabel(),
		DocID:       s.DocID(id),
		Visible:     v.Visible,
		HasBoundary: v.HasBoundary,
		Expanded:    v.HasBoundary && st.Expanded,
	}
	if truncate.Toggleable(v, expandable) {
		out.ToggleLabel = truncate.Label(st)
	}
	if out.Visible == nil {
		out.Visible = wikitext.Sequence{}
	}
	return out, nil
}

// NodeStyle is the visual encoding of one node.
type NodeStyle struct {
	Color string  `json:"color"`
	Hex   string  `json:"hex"`
	Size  float64 `json:"size"`
}

// Style returns the colour and size of a node.
func (s *Shell) Style(n graph.Node) NodeStyle {
	c := s.scheme.NodeColor(n)
	return NodeStyle{Color: c.CSS(), Hex: c.Hex(), Size: s.scheme.NodeSize(n)}
}
