package server

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/shell"
)

// accessLog logs one line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logf := s.logger.Debug
		if status >= 500 {
			logf = s.logger.Warn
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type shellKey struct{}

// requireDataset pins the current shell for the request and answers 503
// when it failed to load.
func (s *Server) requireDataset(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sh := s.holder.Current()
		if sh == nil {
			s.respondError(w, apperr.New(apperr.ErrCodeUnavailable, "dataset not loaded yet"))
			return
		}
		if err := sh.LoadError(); err != nil {
			s.respondError(w, apperr.Wrap(apperr.ErrCodeUnavailable, err, "dataset unavailable: %s", apperr.UserMessage(err)))
			return
		}
		w.Header().Set("X-Dataset-Generation", sh.Generation())
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), shellKey{}, sh)))
	})
}

func shellFrom(r *http.Request) *shell.Shell {
	return r.Context().Value(shellKey{}).(*shell.Shell)
}

// =============================================================================
// Rate Limiting
// =============================================================================

const limiterIdle = 10 * time.Minute

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientBucket
	sweep   time.Time
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = int(math.Ceil(perSecond))
	}
	return &clientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*clientBucket),
		sweep:   time.Now(),
	}
}

func (l *clientLimiter) allow(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweep) > limiterIdle {
		for k, b := range l.clients {
			if now.Sub(b.seen) > limiterIdle {
				delete(l.clients, k)
			}
		}
		l.sweep = now
	}

	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}

func (l *clientLimiter) retryAfter() int {
	return max(1, int(math.Ceil(1/float64(l.limit))))
}

// Middleware answers 429 once a client exceeds its rate.
func (l *clientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.allow(clientAddr(r), time.Now()) {
			next.ServeHTTP(w, r)
			return
		}
		rl := &apperr.RateLimitedError{RetryAfter: l.retryAfter(), Message: "too many requests"}
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		writeJSON(w, http.StatusTooManyRequests, errorBody{
			Error:   string(rl.Code()),
			Message: rl.Error(),
		})
	})
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
