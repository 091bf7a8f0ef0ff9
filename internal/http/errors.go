package http

import (
	"context"
	"errors"
	"net/http"

	"dompet/internal/core"
	applog "dompet/internal/log"
)

// Messages returned to clients. Internal error details are logged, never
// sent.
const (
	msgFetchTransactions  = "Failed to fetch transactions"
	msgProcessRequest     = "Failed to process request"
	msgUpdateTransaction  = "Failed to update transaction"
	msgDeleteTransactions = "Failed to delete transaction(s)"
	msgFetchCategories    = "Failed to fetch categories"
	msgCreateCategory     = "Failed to create category"
	msgDeleteCategory     = "Failed to delete category"
	msgSummary            = "Failed to build summary"
	msgInternal           = "Internal server error"
	msgUnsupportedType    = "Unsupported content type"
	msgInvalidFile        = "Invalid file uploaded"
	msgRateLimited        = "Rate limit exceeded. Please try again later."
	msgRouteNotFound      = "Not found"

	msgAllDeleted = "All transactions deleted successfully"
	msgDeleted    = "Transaction deleted successfully"
	msgIDRequired = "Transaction ID is required"
)

// statusClientClosedRequest answers a request whose client went away.
const statusClientClosedRequest = 499

// writeServiceError maps a service error onto the API's error taxonomy.
// Anything that is not a typed domain error is logged and answered with
// fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var nf *core.NotFoundError
	switch {
	case core.IsValidation(err):
		BadRequestError(err.Error()).Write(w)
	case errors.As(err, &nf):
		NotFoundError(notFoundMessage(nf)).Write(w)
	case core.IsConflict(err):
		ConflictError(err.Error()).Write(w)
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		ErrorResponse(statusClientClosedRequest, fallback).Write(w)
	default:
		logger := applog.FromContext(r.Context())
		applog.NewStructuredLogger(logger).LogError(r.Context(), fallback, err,
			applog.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
		InternalServerError(fallback).Write(w)
	}
}

func notFoundMessage(nf *core.NotFoundError) string {
	switch nf.Entity {
	case "transaction":
		return "Transaction not found"
	case "category":
		return "Category not found"
	}
	return "Not found"
}
