package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
	headerUserRole  = "X-User-Role"
)

type actorKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func WithMetrics(next http.Handler, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		metrics.requestStarted(r.Context())
		defer metrics.requestFinished(r.Context())

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		metrics.RecordRequest(r.Context(), r.Method, routePattern(r), rw.statusCode, duration)
	})
}

// routePattern keeps path parameters out of metric labels. The pattern is
// only known once chi has routed the request.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// RequireIdentity reads the caller from the identity headers set by the
// upstream gateway and rejects anonymous requests.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(headerUserID))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+headerUserID+" header")
			return
		}

		role := domain.RoleCustomer
		if strings.EqualFold(strings.TrimSpace(r.Header.Get(headerUserRole)), string(domain.RoleAdmin)) {
			role = domain.RoleAdmin
		}

		actor := domain.Actor{
			UserID: userID,
			Email:  strings.TrimSpace(r.Header.Get(headerUserEmail)),
			Role:   role,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

// RequireAdmin must run after RequireIdentity.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !actorFrom(r).IsAdmin() {
			writeError(w, http.StatusForbidden, "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func actorFrom(r *http.Request) domain.Actor {
	actor, _ := r.Context().Value(actorKey{}).(domain.Actor)
	return actor
}

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

// UserLimiter hands out one token bucket per user. Buckets idle for longer
// than limiterIdleTTL are dropped on the next sweep.
type UserLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*userBucket
	lastSweep time.Time
	now       func() time.Time
}

type userBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewUserLimiter(perSecond float64, burst int) *UserLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &UserLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*userBucket),
		now:      time.Now,
	}
}

func (l *UserLimiter) Allow(userID string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= limiterSweepInterval {
		l.sweep(now)
	}
	bucket, ok := l.limiters[userID]
	if !ok {
		bucket = &userBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = bucket
	}
	bucket.lastSeen = now
	l.mu.Unlock()
	return bucket.limiter.AllowN(now, 1)
}

// sweep must be called with mu held.
func (l *UserLimiter) sweep(now time.Time) {
	for userID, bucket := range l.limiters {
		if now.Sub(bucket.lastSeen) > limiterIdleTTL {
			delete(l.limiters, userID)
		}
	}
	l.lastSweep = now
}

// Tracked reports how many users currently hold a bucket.
func (l *UserLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware rejects callers that exceed their budget with 429.
func (l *UserLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(actorFrom(r).UserID) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
