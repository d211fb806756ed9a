package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/bizbooks_backend/offlinesync"
	"github.com/mmdatafocus/bizbooks_backend/syncapi"
	"github.com/sirupsen/logrus"
)

func TestRouterReadinessGate(t *testing.T) {
	t.Setenv("SYNC_STORE_DRIVER", "memory")
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := offlinesync.NewService(offlinesync.NewMemoryQueueStore(nil), offlinesync.NewExecutor(offlinesync.EntityStores{}, nil))
	r := newRouter(logger, syncapi.NewAPI(svc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("healthz status=%d", w.Code)
	}
	if w.Header().Get("x-correlation-id") == "" {
		t.Fatalf("expected a generated correlation id")
	}

	// Redis is not connected, so application routes are not ready yet.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/status", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status route status=%d, want 503", w.Code)
	}
}

func TestRecoveryCoversLaterMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newEngine()
	r.Use(func(c *gin.Context) { panic("session lookup exploded") })
	r.GET("/api/sync/status", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/status", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", w.Code)
	}
	if w.Header().Get("x-correlation-id") == "" {
		t.Fatalf("expected correlation id on recovered response")
	}
}

func TestSplitAndTrim(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"https://a.example", []string{"https://a.example"}},
		{" https://a.example , ,https://b.example ", []string{"https://a.example", "https://b.example"}},
	}
	for _, tc := range cases {
		if got := splitAndTrim(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitAndTrim(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "25")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "bogus")
	got := rateLimitFromEnv()
	if got.limit != 25 || got.window.Seconds() != 60 {
		t.Fatalf("got %+v", got)
	}
}
