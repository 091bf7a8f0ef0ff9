package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteServiceErrorCancellation(t *testing.T) {
	cause := fmt.Errorf("list transactions: %w", context.Canceled)

	t.Run("client gone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := httptest.NewRequest(http.MethodGet, "/transactions", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		writeServiceError(rec, r, cause, msgFetchTransactions)
		if rec.Code != statusClientClosedRequest {
			t.Errorf("status = %d, want %d", rec.Code, statusClientClosedRequest)
		}
		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != msgFetchTransactions {
			t.Errorf("body = %q (%v)", rec.Body.String(), err)
		}
	})

	t.Run("client still waiting", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/transactions", nil)
		rec := httptest.NewRecorder()
		writeServiceError(rec, r, cause, msgFetchTransactions)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != msgFetchTransactions {
			t.Errorf("body = %q (%v)", rec.Body.String(), err)
		}
	})
}
