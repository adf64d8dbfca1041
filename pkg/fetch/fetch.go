package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/matzehuels/genregraph/pkg/cache"
	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/observability"
)

const (
	httpTimeout = 30 * time.Second

	// MaxBodySize bounds a dataset download.
	MaxBodySize = 256 << 20
)

var (
	// ErrNotFound is returned when the dataset does not exist at the source.
	ErrNotFound = errors.New("dataset not found")

	// ErrNetwork is returned for transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("network error")
)

// Client loads datasets. The zero value is not usable; call [NewClient].
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	headers map[string]string
}

// NewClient creates a Client. A nil cache disables caching; ttl applies to
// cached HTTP responses. Headers are sent with every request.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   c,
		keyer:   cache.NewDefaultKeyer(),
		ttl:     ttl,
		headers: headers,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// WithKeyer replaces the cache keyer.
func (c *Client) WithKeyer(k cache.Keyer) *Client {
	if k != nil {
		c.keyer = k
	}
	return c
}

// Load fetches and decodes a dataset. If refresh is true, cached HTTP
// responses are ignored (and replaced on success).
func (c *Client) Load(ctx context.Context, source string, refresh bool) (*graph.Dataset, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	ds, err := c.load(ctx, source, refresh)
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, source, len(ds.Nodes), len(ds.Links), time.Since(start), nil)
	return ds, nil
}

func (c *Client) load(ctx context.Context, source string, refresh bool) (*graph.Dataset, error) {
	data, err := c.Fetch(ctx, source, refresh)
	if err != nil {
		return nil, err
	}
	ds, err := graph.Unmarshal(data)
	if err != nil {
		if apperr.IsURL(source) {
			_ = c.cache.Delete(ctx, c.keyer.DatasetKey(source))
		}
		return nil, apperr.Wrap(apperr.ErrCodeInvalidDataset, err, "decode dataset from %s", source)
	}
	return ds, nil
}

// Fetch returns the raw bytes at source.
func (c *Client) Fetch(ctx context.Context, source string, refresh bool) ([]byte, error) {
	if source == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "no dataset source configured")
	}
	if !apperr.IsURL(source) {
		return readFile(source)
	}

	key := c.keyer.DatasetKey(source)
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, "dataset")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "dataset")
	}

	data, err := c.get(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "dataset", len(data))
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, fmt.Errorf("%w: %s", ErrNotFound, path), "dataset file %s does not exist", path)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "read %s", path)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid dataset URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid dataset URL %q", rawURL)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		code := apperr.ErrCodeNetwork
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = apperr.ErrCodeTimeout
		}
		return nil, apperr.Wrap(code, fmt.Errorf("%w: %v", ErrNetwork, err), "fetch %s", rawURL)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		code := apperr.ErrCodeNetwork
		if errors.Is(err, ErrNotFound) {
			code = apperr.ErrCodeNotFound
		}
		return nil, apperr.Wrap(code, err, "fetch %s", rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "read response from %s", rawURL)
	}
	if len(data) > MaxBodySize {
		return nil, apperr.New(apperr.ErrCodeInvalidDataset, "dataset at %s exceeds %d bytes", rawURL, MaxBodySize)
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, code)
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
