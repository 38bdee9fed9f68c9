package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rateRouter(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, m := range pre {
		r.Use(m)
	}
	r.Use(rl.Handler())
	r.POST("/contacts", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestRateLimiter_BurstThen429(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2, KeyByClientIP()) // effectively no refill
	r := rateRouter(rl)

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contacts", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	if w := post(); w.Code != http.StatusCreated {
		t.Fatalf("first -> %d", w.Code)
	}
	if w := post(); w.Code != http.StatusCreated {
		t.Fatalf("second -> %d", w.Code)
	}

	w := post()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over burst -> %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("missing Retry-After, headers=%v", w.Header())
	}
	if !strings.Contains(w.Body.String(), "rate_limited") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRateLimiter_PerKeyIsolation(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, KeyByClientIP())
	r := rateRouter(rl)

	post := func(addr string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contacts", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post("10.0.0.1:1"); code != http.StatusCreated {
		t.Fatalf("a first -> %d", code)
	}
	if code := post("10.0.0.1:1"); code != http.StatusTooManyRequests {
		t.Fatalf("a second -> %d", code)
	}
	// A different client gets its own bucket.
	if code := post("10.0.0.2:1"); code != http.StatusCreated {
		t.Fatalf("b first -> %d", code)
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, KeyByClientIP())

	// Lookup says every key replays a stored registration.
	alwaysReplay := func(ctx context.Context, key string, now time.Time) (bool, error) {
		return true, nil
	}
	r := rateRouter(rl, IdempotencyValidator(IdempotencyOptions{}, alwaysReplay))

	post := func(withKey bool) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contacts", nil)
		req.RemoteAddr = "10.0.0.9:1"
		if withKey {
			req.Header.Set(HeaderIdempotencyKey, "retry-1")
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Exhaust the single token.
	if code := post(false); code != http.StatusCreated {
		t.Fatalf("first -> %d", code)
	}
	if code := post(false); code != http.StatusTooManyRequests {
		t.Fatalf("second -> %d", code)
	}
	// A replayed registration is never throttled.
	if code := post(true); code != http.StatusCreated {
		t.Fatalf("replay bypass -> %d", code)
	}
}

func TestRateLimiter_BurstCoercion_and_GC(t *testing.T) {
	rl := NewRateLimiter(1000, 0, KeyByClientIP())
	if rl.burst != 1 {
		t.Fatalf("burst coerced to %d", rl.burst)
	}

	// Force the opportunistic GC pass over an idle bucket.
	rl.ttl = time.Nanosecond
	rl.getVisitor("ip:old")
	time.Sleep(time.Millisecond)
	rl.cleanupN = 4999
	rl.getVisitor("ip:new")

	rl.mu.Lock()
	_, oldAlive := rl.visitors["ip:old"]
	_, newAlive := rl.visitors["ip:new"]
	rl.mu.Unlock()
	if oldAlive {
		t.Fatal("idle bucket not evicted")
	}
	if !newAlive {
		t.Fatal("fresh bucket missing")
	}
}

func TestIsRateBypass_Default(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IsRateBypass(c) {
		t.Fatal("bypass without flag")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatal("bypass flag ignored")
	}
}
