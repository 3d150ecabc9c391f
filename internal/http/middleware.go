package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

type ctxKey int

const buyerIDKey ctxKey = iota

const UserIDHeader = "X-User-ID"

// RequestIDMiddleware stores the request id chi assigned (or the caller
// sent) where the logger can find it, and echoes it back.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(middleware.RequestIDHeader)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = "req-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		}

		w.Header().Set(middleware.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
	})
}

// BuyerIdentityMiddleware takes the caller's id from X-User-ID. Token
// validation happens upstream of this service.
func BuyerIdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithBuyerID(r.Context(), userID)))
	})
}

func WithBuyerID(ctx context.Context, buyerID string) context.Context {
	return context.WithValue(ctx, buyerIDKey, buyerID)
}

func buyerIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(buyerIDKey).(string); ok {
		return id
	}
	return ""
}

// AccessLog writes one zerolog line per request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logger.FromContext(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// Metrics records request counts and latency labelled by chi route pattern.
func Metrics(m *metrics.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// BuyerRateLimiter keeps one token bucket per buyer. Buckets idle for longer
// than expiresIn are dropped.
type BuyerRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	expiresIn time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewBuyerRateLimiter(perSecond float64, burst int, expiresIn time.Duration) *BuyerRateLimiter {
	return &BuyerRateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (l *BuyerRateLimiter) Allow(buyerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.expiresIn {
		for id, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.expiresIn {
				delete(l.visitors, id)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[buyerID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[buyerID] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *BuyerRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(buyerIDFromContext(r.Context())) {
			respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
