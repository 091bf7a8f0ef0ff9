// Package client talks to the ledger API. Reads are cached per query key
// and every mutation invalidates the keys it affects, so the next read
// refetches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dompet/internal/aggregate"
	"dompet/internal/cache"
	"dompet/internal/core"
)

const (
	keyTransactions = "transactions"
	keyCategories   = "categories"

	requestTimeout  = 30 * time.Second
	maxResponseSize = 32 << 20
	defaultCacheTTL = 30 * time.Second
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dompet: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ImportResult is the API's answer to a CSV upload.
type ImportResult struct {
	Message      string                     `json:"message"`
	Transactions []core.EnrichedTransaction `json:"transactions"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	loc     *time.Location

	transactions *cache.LRUCache[[]core.EnrichedTransaction]
	categories   *cache.LRUCache[[]core.Category]
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCacheTTL sets how long reads are served from cache. Zero disables
// caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.transactions = cache.NewLRUCache[[]core.EnrichedTransaction](1, ttl)
		c.categories = cache.NewLRUCache[[]core.Category](1, ttl)
	}
}

// WithLocation sets the calendar used by Summary.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// New returns a client for the API at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("dompet: parsing server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("dompet: server url %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: requestTimeout},
		loc:     time.Local,
	}
	WithCacheTTL(defaultCacheTTL)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Location is the calendar Summary groups by.
func (c *Client) Location() *time.Location {
	return c.loc
}

// Invalidate drops every cached read.
func (c *Client) Invalidate() {
	c.transactions.Clear()
	c.categories.Clear()
}

// Transactions returns every transaction, newest first.
func (c *Client) Transactions(ctx context.Context) ([]core.EnrichedTransaction, error) {
	if txs, ok := c.transactions.Get(keyTransactions); ok {
		return txs, nil
	}
	var txs []core.EnrichedTransaction
	if err := c.doJSON(ctx, http.MethodGet, "/transactions", nil, &txs); err != nil {
		return nil, err
	}
	c.transactions.Set(keyTransactions, txs)
	return txs, nil
}

// TransactionsByCategory is not cached.
func (c *Client) TransactionsByCategory(ctx context.Context, categoryID string) ([]core.EnrichedTransaction, error) {
	var txs []core.EnrichedTransaction
	path := "/transactions?category=" + url.QueryEscape(categoryID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	if cats, ok := c.categories.Get(keyCategories); ok {
		return cats, nil
	}
	var cats []core.Category
	if err := c.doJSON(ctx, http.MethodGet, "/categories", nil, &cats); err != nil {
		return nil, err
	}
	c.categories.Set(keyCategories, cats)
	return cats, nil
}

type transactionBody struct {
	ID          string           `json:"id,omitempty"`
	Amount      *core.JSONAmount `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        string           `json:"date,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
}

func (c *Client) CreateTransaction(ctx context.Context, nt core.NewTransaction) (core.EnrichedTransaction, error) {
	amount := core.JSONAmount(nt.Amount)
	body := transactionBody{
		Amount:      &amount,
		Description: &nt.Description,
		Date:        core.FormatTimestamp(nt.Date),
		CategoryID:  &nt.CategoryID,
	}
	var tx core.EnrichedTransaction
	err := c.doJSON(ctx, http.MethodPost, "/transactions", body, &tx)
	c.transactions.Delete(keyTransactions)
	return tx, err
}

// UpdateTransaction sends only the fields set in patch.
func (c *Client) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.EnrichedTransaction, error) {
	body := transactionBody{
		ID:          id,
		Description: patch.Description,
		CategoryID:  patch.CategoryID,
	}
	if patch.Amount != nil {
		amount := core.JSONAmount(*patch.Amount)
		body.Amount = &amount
	}
	if patch.Date != nil {
		body.Date = core.FormatTimestamp(*patch.Date)
	}
	var tx core.EnrichedTransaction
	err := c.doJSON(ctx, http.MethodPut, "/transactions", body, &tx)
	c.transactions.Delete(keyTransactions)
	return tx, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/transactions", transactionBody{ID: id}, nil)
	c.transactions.Delete(keyTransactions)
	return err
}

// DeleteAllTransactions returns how many transactions the server removed.
func (c *Client) DeleteAllTransactions(ctx context.Context) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	err := c.doJSON(ctx, http.MethodDelete, "/transactions?all=true", nil, &out)
	c.transactions.Delete(keyTransactions)
	return out.Deleted, err
}

func (c *Client) CreateCategory(ctx context.Context, nc core.NewCategory) (core.Category, error) {
	var cat core.Category
	err := c.doJSON(ctx, http.MethodPost, "/categories", nc, &cat)
	c.categories.Delete(keyCategories)
	return cat, err
}

// ImportCSV uploads CSV read from r. Rows naming an unknown category are
// dropped by the server without notice.
func (c *Client) ImportCSV(ctx context.Context, filename string, r io.Reader) (ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return ImportResult{}, fmt.Errorf("dompet: building upload: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return ImportResult{}, fmt.Errorf("dompet: reading csv: %w", err)
	}
	if err := mw.Close(); err != nil {
		return ImportResult{}, fmt.Errorf("dompet: building upload: %w", err)
	}

	var result ImportResult
	err = c.do(ctx, http.MethodPost, "/transactions", &buf, mw.FormDataContentType(), func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&result)
	})
	c.transactions.Delete(keyTransactions)
	return result, err
}

// ExportCSV streams the server's CSV export into w.
func (c *Client) ExportCSV(ctx context.Context, w io.Writer) error {
	return c.do(ctx, http.MethodGet, "/transactions?format=csv", nil, "", func(body io.Reader) error {
		_, err := io.Copy(w, body)
		return err
	})
}

// Summary builds the month view for ref from the cached transaction list.
func (c *Client) Summary(ctx context.Context, ref time.Time, mode, term string) (aggregate.Summary, error) {
	txs, err := c.Transactions(ctx)
	if err != nil {
		return aggregate.Summary{}, err
	}
	return aggregate.Summarize(aggregate.Search(txs, term), ref.In(c.loc), mode, c.loc), nil
}

// ServerSummary asks the server to build the month view.
func (c *Client) ServerSummary(ctx context.Context, year int, month time.Month, mode, term string) (aggregate.Summary, error) {
	q := url.Values{}
	q.Set("year", fmt.Sprint(year))
	q.Set("month", fmt.Sprint(int(month)))
	if mode != "" {
		q.Set("filter", mode)
	}
	if term != "" {
		q.Set("q", term)
	}
	var s aggregate.Summary
	err := c.doJSON(ctx, http.MethodGet, "/transactions/summary?"+q.Encode(), nil, &s)
	return s, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("dompet: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, func(r io.Reader) error {
		if out == nil {
			return nil
		}
		return json.NewDecoder(r).Decode(out)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, read func(io.Reader) error) error {
	target := c.baseURL.String() + path
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("dompet: creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "dompet-client/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dompet: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, maxResponseSize)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, limited)
	}
	if err := read(limited); err != nil {
		return fmt.Errorf("dompet: reading %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(status int, body io.Reader) error {
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{Status: status, Message: msg}
}
