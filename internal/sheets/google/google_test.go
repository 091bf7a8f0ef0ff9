package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
)

func TestNewFromOAuthInvalidClient(t *testing.T) {
	_, err := NewFromOAuth(context.Background(), "sheet-id", []byte("invalid-json"), []byte(`{"access_token":"test"}`))
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("err = %v, want oauth config error", err)
	}
}

func TestNewFromOAuthInvalidToken(t *testing.T) {
	client := `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	_, err := NewFromOAuth(context.Background(), "sheet-id", []byte(client), []byte("nope"))
	if err == nil || !strings.Contains(err.Error(), "oauth token") {
		t.Fatalf("err = %v, want oauth token error", err)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), " ", goption.WithoutAuthentication()); err == nil {
		t.Fatal("expected error for empty spreadsheet ID")
	}
}

func TestReadCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if b, err := ReadCredential(`{"from":"inline"}`, path); err != nil || !strings.Contains(string(b), "inline") {
		t.Errorf("inline should win: %s, %v", b, err)
	}
	if b, err := ReadCredential("", path); err != nil || !strings.Contains(string(b), "file") {
		t.Errorf("file: %s, %v", b, err)
	}
	if _, err := ReadCredential("", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := ReadCredential("", ""); err == nil {
		t.Error("nothing provided should fail")
	}
}

func TestClientUnconfigured(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if err := c.Clear(context.Background(), "T"); err == nil {
		t.Error("Clear without service should fail")
	}
	if err := c.Update(context.Background(), "T!A1", nil); err == nil {
		t.Error("Update without service should fail")
	}
}

type recordedCall struct {
	method string
	path   string
	query  string
	body   []byte
}

func TestClearAndUpdateRequests(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recordedCall{r.Method, r.URL.Path, r.URL.RawQuery, body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), "sheet-id",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := c.Clear(ctx, "Transactions"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := c.Update(ctx, "Transactions!A1", [][]any{{"id", "amount"}, {"t1", "10000"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	clr := calls[0]
	if clr.method != http.MethodPost || !strings.HasSuffix(clr.path, ":clear") || !strings.Contains(clr.path, "sheet-id") {
		t.Errorf("clear call = %+v", clr)
	}

	update := calls[1]
	if update.method != http.MethodPut || !strings.Contains(update.query, "valueInputOption=USER_ENTERED") {
		t.Errorf("update call = %+v", update)
	}
	var vr struct {
		Values [][]string `json:"values"`
	}
	if err := json.Unmarshal(update.body, &vr); err != nil {
		t.Fatalf("decode update body: %v", err)
	}
	if len(vr.Values) != 2 || vr.Values[1][0] != "t1" {
		t.Errorf("update values = %v", vr.Values)
	}
}
