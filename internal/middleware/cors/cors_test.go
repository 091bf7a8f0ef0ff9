package cors

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestPreflightAnyOrigin(t *testing.T) {
	h := Middleware(DefaultConfig())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/transactions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Errorf("allow methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
	if rec.Header().Get("Access-Control-Max-Age") != "3600" {
		t.Errorf("max age = %q", rec.Header().Get("Access-Control-Max-Age"))
	}
}

func TestExplicitOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = ParseOrigins("https://app.example, https://admin.example")
	h := Middleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example" || rec.Header().Get("Vary") != "Origin" {
		t.Errorf("headers = %v", rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("foreign origin got code=%d allow=%q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestPlainOptionsReachesHandler(t *testing.T) {
	h := Middleware(DefaultConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/transactions", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestParseOrigins(t *testing.T) {
	got := ParseOrigins(" a , ,b,")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("ParseOrigins = %v", got)
	}
}
