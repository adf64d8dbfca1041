package cache

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	// DatasetKey keys a fetched dataset by its source (URL or path).
	DatasetKey(source string) string
	// DescriptionKey keys a parsed description by parser and raw text.
	DescriptionKey(parser, text string) string
	// RenderKey keys a rendered artifact by dataset content and options.
	RenderKey(datasetHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the options that change a rendered artifact.
type RenderKeyOpts struct {
	Format   string  `json:"format"`
	Engine   string  `json:"engine"`
	BaseSize float64 `json:"base_size"`
	Labels   bool    `json:"labels"`
	Scale    float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DatasetKey implements [Keyer].
func (DefaultKeyer) DatasetKey(source string) string {
	return hashKey("dataset", source)
}

// DescriptionKey implements [Keyer].
func (DefaultKeyer) DescriptionKey(parser, text string) string {
	return hashKey("description", parser, text)
}

// RenderKey implements [Keyer].
func (DefaultKeyer) RenderKey(datasetHash string, opts RenderKeyOpts) string {
	return hashKey("render", datasetHash, opts)
}
