package cache

// ScopedKeyer prefixes every key of an inner [Keyer], so that several
// deployments can share one cache backend.
//
//	keyer := cache.NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DatasetKey implements [Keyer].
func (k *ScopedKeyer) DatasetKey(source string) string {
	return k.prefix + k.inner.DatasetKey(source)
}

// DescriptionKey implements [Keyer].
func (k *ScopedKeyer) DescriptionKey(parser, text string) string {
	return k.prefix + k.inner.DescriptionKey(parser, text)
}

// RenderKey implements [Keyer].
func (k *ScopedKeyer) RenderKey(datasetHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(datasetHash, opts)
}
