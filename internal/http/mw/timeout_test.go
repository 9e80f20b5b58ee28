package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeoutConfig_Fields(t *testing.T) {
	cfg := TimeoutConfig{Default: 30 * time.Second}

	if cfg.Default != 30*time.Second {
		t.Errorf("Default = %v, want 30s", cfg.Default)
	}
}

func TestTimeout_CompletesWithinDeadline(t *testing.T) {
	cfg := TimeoutConfig{Default: 50 * time.Millisecond}

	handler := Timeout(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/room/result", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestTimeout_DeadlineExceeded(t *testing.T) {
	cfg := TimeoutConfig{Default: 10 * time.Millisecond}

	handler := Timeout(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/room/create", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want %d (should timeout)", rec.Code, http.StatusGatewayTimeout)
	}
}

func TestTimeout_PropagatesPanic(t *testing.T) {
	cfg := TimeoutConfig{Default: time.Second}

	handler := Timeout(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	defer func() {
		if recover() == nil {
			t.Error("want the handler panic to propagate out of Timeout")
		}
	}()

	req := httptest.NewRequest(http.MethodGet, "/room/create", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}
