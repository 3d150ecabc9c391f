package http

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuyerRateLimiter_Allow(t *testing.T) {
	l := NewBuyerRateLimiter(0.001, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("buyer-1"), "request %d should pass", i)
	}
	assert.False(t, l.Allow("buyer-1"))
	assert.True(t, l.Allow("buyer-2"))
}

func TestBuyerRateLimiter_Concurrent(t *testing.T) {
	l := NewBuyerRateLimiter(0.001, 5, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("buyer-1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
}

func TestBuyerIdentityMiddleware(t *testing.T) {
	var seen string
	h := BuyerIdentityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = buyerIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "buyer-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "buyer-9", seen)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuyerRateLimiter_ExpiresIdleBuckets(t *testing.T) {
	now := time.Now()
	l := NewBuyerRateLimiter(0.001, 1, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("buyer-1"))
	assert.False(t, l.Allow("buyer-1"))

	now = now.Add(2 * time.Minute)
	assert.True(t, l.Allow("buyer-1"))
}
