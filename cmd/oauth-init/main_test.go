package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

func TestCallbackHandler(t *testing.T) {
	codeCh := make(chan string, 1)
	h := callbackHandler("s3cret", codeCh)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"provider error", "?error=access_denied", http.StatusBadRequest},
		{"wrong state", "?state=nope&code=abc", http.StatusBadRequest},
		{"missing code", "?state=s3cret", http.StatusBadRequest},
		{"ok", "?state=s3cret&code=abc", http.StatusOK},
		{"second delivery", "?state=s3cret&code=def", http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
	if code := <-codeCh; code != "abc" {
		t.Errorf("code = %q", code)
	}
}

func TestWriteToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := writeToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("writeToken: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}
	data, _ := os.ReadFile(path)
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil || tok.RefreshToken != "r" {
		t.Errorf("token = %+v, %v", tok, err)
	}
}

func TestNewState(t *testing.T) {
	a, err := newState()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newState()
	if len(a) != 32 || a == b {
		t.Errorf("states %q %q", a, b)
	}
}
