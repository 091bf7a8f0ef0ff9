//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"
)

// Run with: go test -tags=integration ./internal/sheets/google
//
// Needs GOOGLE_SPREADSHEET_ID plus the OAuth client and token, either inline
// (GOOGLE_OAUTH_CLIENT_JSON, GOOGLE_OAUTH_TOKEN_JSON) or as files
// (GOOGLE_OAUTH_CLIENT_FILE, GOOGLE_OAUTH_TOKEN_FILE). The test writes to the
// tab named by GOOGLE_TEST_SHEET_NAME, default "IntegrationTest", which must exist.
func TestIntegrationClearAndUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	clientJSON, err := ReadCredential(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"), os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
	if err != nil {
		t.Skipf("OAuth client not available: %v", err)
	}
	tokenJSON, err := ReadCredential(os.Getenv("GOOGLE_OAUTH_TOKEN_JSON"), os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"))
	if err != nil {
		t.Skipf("OAuth token not available: %v", err)
	}
	sheet := os.Getenv("GOOGLE_TEST_SHEET_NAME")
	if sheet == "" {
		sheet = "IntegrationTest"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := NewFromOAuth(ctx, spreadsheetID, clientJSON, tokenJSON)
	if err != nil {
		t.Fatalf("NewFromOAuth: %v", err)
	}

	t.Run("Clear", func(t *testing.T) {
		if err := client.Clear(ctx, sheet); err != nil {
			t.Fatalf("Clear: %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		rows := [][]any{
			{"id", "amount", "description", "date", "category"},
			{"it-1", "10000", "Integration lunch", "2024-01-05T00:00:00.000Z", "Food"},
		}
		if err := client.Update(ctx, sheet+"!A1", rows); err != nil {
			t.Fatalf("Update: %v", err)
		}
	})

	t.Run("ClearAgain", func(t *testing.T) {
		if err := client.Clear(ctx, sheet); err != nil {
			t.Fatalf("Clear: %v", err)
		}
	})
}
