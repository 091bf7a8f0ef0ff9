package http

import (
	"bytes"
	"net/http"
	"strings"

	"dompet/internal/core"
)

// handleTransactions dispatches /transactions by method.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodPut:
		s.handleUpdateTransaction(w, r)
	case http.MethodDelete:
		s.handleDeleteTransactions(w, r)
	default:
		MethodNotAllowedError("GET, POST, PUT, DELETE").Write(w)
	}
}

// handleListTransactions serves the enriched list as JSON, or as a CSV
// attachment with ?format=csv. ?category=<id> narrows the JSON list.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	if query.Get("format") == "csv" {
		// Buffer so a failure halfway is still a clean 500.
		var buf bytes.Buffer
		if err := s.transactions.Export(ctx, &buf); err != nil {
			writeServiceError(w, r, err, msgFetchTransactions)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=transactions.csv")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	var (
		txs []core.EnrichedTransaction
		err error
	)
	if cat := strings.TrimSpace(query.Get("category")); cat != "" {
		txs, err = s.transactions.ListByCategory(ctx, cat)
	} else {
		txs, err = s.transactions.ListEnriched(ctx)
	}
	if err != nil {
		writeServiceError(w, r, err, msgFetchTransactions)
		return
	}
	if txs == nil {
		txs = []core.EnrichedTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// handleCreateTransaction creates one transaction from JSON, or imports a
// CSV upload from multipart/form-data.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	switch mediaType(r) {
	case "application/json":
		var req transactionRequest
		if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
			writeServiceError(w, r, err, msgProcessRequest)
			return
		}
		nt, err := req.newTransaction()
		if err != nil {
			writeServiceError(w, r, err, msgProcessRequest)
			return
		}
		tx, err := s.transactions.Create(r.Context(), nt)
		if err != nil {
			writeServiceError(w, r, err, msgProcessRequest)
			return
		}
		writeJSON(w, http.StatusCreated, tx)

	case "multipart/form-data":
		f, err := uploadedFile(w, r, s.maxUploadBytes)
		if err != nil {
			writeServiceError(w, r, err, msgProcessRequest)
			return
		}
		defer f.Close()

		result, err := s.transactions.Import(r.Context(), f)
		if err != nil {
			writeServiceError(w, r, err, msgProcessRequest)
			return
		}
		if result.Transactions == nil {
			result.Transactions = []core.EnrichedTransaction{}
		}
		writeJSON(w, http.StatusOK, result)

	default:
		ErrorResponse(http.StatusUnsupportedMediaType, msgUnsupportedType).Write(w)
	}
}

// handleUpdateTransaction applies the fields present in the body to the
// transaction named by "id".
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeServiceError(w, r, err, msgUpdateTransaction)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		BadRequestError(msgIDRequired).Write(w)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeServiceError(w, r, err, msgUpdateTransaction)
		return
	}
	tx, err := s.transactions.Update(r.Context(), req.ID, patch)
	if err != nil {
		writeServiceError(w, r, err, msgUpdateTransaction)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// handleDeleteTransactions deletes everything with ?all=true, otherwise the
// transaction named by the body's "id".
func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		n, err := s.transactions.DeleteAll(r.Context())
		if err != nil {
			writeServiceError(w, r, err, msgDeleteTransactions)
			return
		}
		writeJSON(w, http.StatusOK, deleteAllResponse{Message: msgAllDeleted, Deleted: n})
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeServiceError(w, r, err, msgDeleteTransactions)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		BadRequestError(msgIDRequired).Write(w)
		return
	}
	if err := s.transactions.Delete(r.Context(), req.ID); err != nil {
		writeServiceError(w, r, err, msgDeleteTransactions)
		return
	}
	NewJSONResponse().Message(msgDeleted).Write(w)
}

type deleteAllResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// handleSummary serves the month view: ?year=&month= pick the month
// (default current), ?filter=largest orders by amount, ?q= searches
// descriptions.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	loc := s.transactions.Location()
	query := r.URL.Query()
	params := ParseMonthParams(query, s.now().In(loc))

	summary, err := s.transactions.Summary(r.Context(), params.Reference(loc), query.Get("filter"), query.Get("q"))
	if err != nil {
		writeServiceError(w, r, err, msgSummary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
