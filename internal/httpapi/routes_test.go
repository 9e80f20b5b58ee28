package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmylchreest/eroom-api/internal/http/mw"
	"github.com/jmylchreest/eroom-api/internal/models"
)

func TestNewRouter_PublicRoutesNeedNoAuth(t *testing.T) {
	h, _, _ := newTestHandlers(t, &stubRunner{result: &models.ResultDocument{Success: true}})
	router := NewRouter(h, RouterConfig{
		BearerToken:        "secret",
		RequestTimeout:     time.Second,
		RateLimitPerMinute: 1000,
	})

	for _, path := range []string{"/", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestNewRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	h, _, _ := newTestHandlers(t, &stubRunner{result: &models.ResultDocument{Success: true}})
	router := NewRouter(h, RouterConfig{
		BearerToken:        "secret",
		RequestTimeout:     time.Second,
		RateLimitPerMinute: 1000,
	})

	req := httptest.NewRequest(http.MethodGet, "/queue/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodGet, "/queue/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authorized status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestNewRouter_BlocklistRejectsBeforeAuth(t *testing.T) {
	h, _, _ := newTestHandlers(t, &stubRunner{result: &models.ResultDocument{Success: true}})
	blocklist := mw.NewIPBlocklist([]string{"203.0.113.9"}, discardLogger())
	router := NewRouter(h, RouterConfig{
		BearerToken:        "secret",
		Blocklist:          blocklist,
		RequestTimeout:     time.Second,
		RateLimitPerMinute: 1000,
	})

	req := httptest.NewRequest(http.MethodGet, "/queue/status", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
