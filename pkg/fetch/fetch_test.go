package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/genregraph/pkg/cache"
	apperr "github.com/matzehuels/genregraph/pkg/errors"
)

const dataset = `{"nodes":[{"id":"0","label":"Blues","degree":1},{"id":"1","label":"Rock","degree":1}],` +
	`"links":[{"source":"0","target":"1","ty":"Derivative"}],"max_degree":1}`

func serve(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(dataset), 0o644))

	ds, err := NewClient(nil, 0, nil).Load(context.Background(), path, false)
	require.NoError(t, err)
	assert.Len(t, ds.Nodes, 2)
	assert.Equal(t, 1, ds.MaxDegree)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewClient(nil, 0, nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, apperr.Is(err, apperr.ErrCodeFileNotFound))
}

func TestLoadEmptySource(t *testing.T) {
	_, err := NewClient(nil, 0, nil).Load(context.Background(), "", false)
	assert.True(t, apperr.Is(err, apperr.ErrCodeInvalidInput))
}

func TestLoadHTTP(t *testing.T) {
	srv, calls := serve(t, http.StatusOK, dataset)

	c := NewClient(nil, 0, map[string]string{"X-Test": "1"})
	ds, err := c.Load(context.Background(), srv.URL+"/data.json", false)
	require.NoError(t, err)
	assert.Len(t, ds.Links, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoadHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
		code     apperr.Code
	}{
		{"not found", http.StatusNotFound, ErrNotFound, apperr.ErrCodeNotFound},
		{"server error", http.StatusInternalServerError, ErrNetwork, apperr.ErrCodeNetwork},
		{"forbidden", http.StatusForbidden, ErrNetwork, apperr.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := serve(t, tt.status, "nope")
			_, err := NewClient(nil, 0, nil).Load(context.Background(), srv.URL, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, apperr.Is(err, tt.code), "code = %s", apperr.GetCode(err))
			assert.Equal(t, int32(1), calls.Load(), "a failed load is never retried")
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":     `<html>`,
		"unknown ty":   `{"nodes":[],"links":[{"source":"0","target":"1","ty":"Cover"}],"max_degree":0}`,
		"bad degree":   `{"nodes":[{"id":"0","label":"x","degree":"high"}],"links":[],"max_degree":0}`,
		"nodes object": `{"nodes":{},"links":[],"max_degree":0}`,
		"missing ty":   `{"nodes":[],"links":[{"source":"0","target":"1"}],"max_degree":0}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv, _ := serve(t, http.StatusOK, body)
			_, err := NewClient(nil, 0, nil).Load(context.Background(), srv.URL, false)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.ErrCodeInvalidDataset))
		})
	}
}

func TestLoadNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(nil, 0, nil).Load(context.Background(), url, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestLoadTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(nil, 0, nil).Load(ctx, srv.URL, false)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrCodeTimeout), "code = %s", apperr.GetCode(err))
}

func TestFetchCachesHTTP(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	srv, calls := serve(t, http.StatusOK, dataset)
	ctx := context.Background()

	c := NewClient(fc, time.Hour, nil)
	_, err = c.Load(ctx, srv.URL, false)
	require.NoError(t, err)
	_, err = c.Load(ctx, srv.URL, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second load served from cache")

	_, err = c.Load(ctx, srv.URL, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "refresh bypasses the cache")
}

func TestMalformedResponseIsEvicted(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	srv, _ := serve(t, http.StatusOK, `{"nodes": 1}`)
	ctx := context.Background()

	c := NewClient(fc, time.Hour, nil)
	_, err = c.Load(ctx, srv.URL, false)
	require.Error(t, err)

	_, hit, err := fc.Get(ctx, cache.NewDefaultKeyer().DatasetKey(srv.URL))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, checkStatus(200))
	assert.NoError(t, checkStatus(204))
	assert.True(t, errors.Is(checkStatus(404), ErrNotFound))
	assert.True(t, errors.Is(checkStatus(503), ErrNetwork))
	assert.True(t, errors.Is(checkStatus(301), ErrNetwork))
}
