package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dompet/internal/core"
)

// uploadField is the multipart field carrying the CSV file.
const uploadField = "file"

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, falling
// back to the current month in loc. Out of range values are ignored.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}
	return params
}

// Reference returns a mid-month instant for the parsed month in loc.
func (p MonthParams) Reference(loc *time.Location) time.Time {
	return time.Date(p.Year, time.Month(p.Month), 15, 12, 0, 0, 0, loc)
}

// transactionRequest is the body of POST, PUT and DELETE /transactions.
// Pointer fields distinguish absent keys from zero values.
type transactionRequest struct {
	ID          string           `json:"id"`
	Amount      *core.JSONAmount `json:"amount"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
	CategoryID  *string          `json:"categoryId"`
}

// newTransaction validates the fields a create needs.
func (req transactionRequest) newTransaction() (core.NewTransaction, error) {
	if req.Amount == nil {
		return core.NewTransaction{}, core.Validation("Transaction amount is required")
	}
	if req.Date == nil {
		return core.NewTransaction{}, core.Validation("Transaction date is required")
	}
	date, err := core.ParseTimestamp(*req.Date)
	if err != nil {
		return core.NewTransaction{}, err
	}
	nt := core.NewTransaction{
		Amount: float64(*req.Amount),
		Date:   date,
	}
	if req.Description != nil {
		nt.Description = *req.Description
	}
	if req.CategoryID != nil {
		nt.CategoryID = *req.CategoryID
	}
	return nt, nt.Validate()
}

// patch maps the present fields onto a TransactionPatch.
func (req transactionRequest) patch() (core.TransactionPatch, error) {
	var p core.TransactionPatch
	if req.Amount != nil {
		amount := float64(*req.Amount)
		p.Amount = &amount
	}
	p.Description = req.Description
	if req.Date != nil {
		date, err := core.ParseTimestamp(*req.Date)
		if err != nil {
			return p, err
		}
		p.Date = &date
	}
	p.CategoryID = req.CategoryID
	return p, p.Validate()
}

type categoryRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// decodeJSON reads a single JSON document from the body into dst. An empty
// body decodes as an empty object.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Validation(fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
		}
		if core.IsValidation(err) {
			return err
		}
		return core.Validation("Invalid JSON body")
	}
	return nil
}

// mediaType returns the lower-cased media type of the Content-Type header.
func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// uploadedFile opens the multipart "file" part. The caller closes it.
func uploadedFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, core.Validation(fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))
		}
		return nil, core.Validation(msgInvalidFile)
	}
	f, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, core.Validation(msgInvalidFile)
	}
	return f, nil
}
