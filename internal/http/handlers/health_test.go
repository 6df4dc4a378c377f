package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Unreachable backends: pool construction is lazy, pings fail fast on
// connection refused.
func unreachableHealthHandler(t *testing.T) *HealthHandler {
	t.Helper()
	db, err := pgxpool.New(context.Background(), "postgres://127.0.0.1:1/health_test")
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}
	t.Cleanup(db.Close)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewHealthHandler(db, rdb, "test")
}

func TestHealthLiveness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := unreachableHealthHandler(t)

	r := gin.New()
	r.GET("/healthz", h.Liveness)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	// Liveness never touches the backends.
	if w.Code != http.StatusOK {
		t.Fatalf("liveness status = %d; want 200", w.Code)
	}
}

func TestHealthReadinessChecksBothStores(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := unreachableHealthHandler(t)

	r := gin.New()
	r.GET("/readyz", h.Readiness)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness status = %d; want 503", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Fatalf("status = %q; want unhealthy", resp.Status)
	}
	for _, check := range []string{"database", "redis"} {
		val, ok := resp.Checks[check]
		if !ok {
			t.Fatalf("checks missing %q: %v", check, resp.Checks)
		}
		if !strings.HasPrefix(val, "unhealthy") {
			t.Fatalf("checks[%s] = %q; want unhealthy with unreachable backend", check, val)
		}
	}
}

func TestHealthCombinedUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := unreachableHealthHandler(t)

	r := gin.New()
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status = %d; want 503", w.Code)
	}
}
