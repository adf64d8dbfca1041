// Package fetch loads the genre graph dataset from a file or an HTTP URL.
//
// A load happens once per call: there are no retries and no streaming. A
// failed load returns an error and leaves recovery to the caller; the
// composition shell, for example, falls back to an empty dataset.
//
// # Sources
//
// A source starting with http:// or https:// is fetched with GET; anything
// else is read from the local filesystem. HTTP responses are cached through
// [cache.Cache] under [cache.Keyer.DatasetKey]; local files are never cached.
//
// # Errors
//
// Failures carry a code from pkg/errors and wrap one of the sentinels:
//
//	ErrNotFound   missing file or HTTP 404     (FILE_NOT_FOUND / NOT_FOUND)
//	ErrNetwork    transport failure or non-2xx (NETWORK_ERROR / TIMEOUT)
//
// Decoding failures are reported as INVALID_DATASET.
package fetch
