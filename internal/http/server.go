// Package http serves the ledger's JSON and CSV API.
package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"dompet/internal/aggregate"
	"dompet/internal/cache"
	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/middleware/cors"
	"dompet/internal/middleware/ratelimit"
	"dompet/internal/middleware/recovery"
	"dompet/internal/middleware/security"
	"dompet/internal/middleware/trace"
	"dompet/internal/services"
)

// TransactionService is the ledger behaviour the handlers need.
type TransactionService interface {
	ListEnriched(ctx context.Context) ([]core.EnrichedTransaction, error)
	ListByCategory(ctx context.Context, categoryID string) ([]core.EnrichedTransaction, error)
	Create(ctx context.Context, nt core.NewTransaction) (core.EnrichedTransaction, error)
	Update(ctx context.Context, id string, patch core.TransactionPatch) (core.EnrichedTransaction, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int, error)
	Import(ctx context.Context, r io.Reader) (services.ImportResult, error)
	Export(ctx context.Context, w io.Writer) error
	Summary(ctx context.Context, ref time.Time, mode, term string) (aggregate.Summary, error)
	Location() *time.Location
}

// CategoryService is the category behaviour the handlers need.
type CategoryService interface {
	List(ctx context.Context) ([]core.Category, error)
	Create(ctx context.Context, nc core.NewCategory) (core.Category, error)
	Delete(ctx context.Context, id string) error
}

// Pinger answers readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	MaxUploadBytes     int64
	MaxBodyBytes       int64
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	TrustedProxies     []string
	Logger             *applog.Logger
	// CacheManager is stopped on shutdown.
	CacheManager *cache.Manager
	// CacheSize, when set, is exported on /metrics.
	CacheSize func() int
}

const (
	defaultMaxUploadBytes = 10 << 20
	defaultMaxBodyBytes   = 1 << 20
)

type Server struct {
	http.Server
	transactions TransactionService
	categories   CategoryService
	pinger       Pinger

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	cacheManager *cache.Manager
	cacheSize    func() int
	logger       *applog.Logger
	now          func() time.Time

	maxUploadBytes int64
	maxBodyBytes   int64

	shutdownOnce sync.Once
}

// NewServer builds the API server listening on addr.
func NewServer(addr string, tx TransactionService, cats CategoryService, pinger Pinger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	httpLogger := opts.Logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			httpLogger.Warn("Ignoring trusted proxy", applog.FieldError, err.Error())
		}
	}

	rlCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	corsCfg := cors.DefaultConfig()
	if len(opts.CORSAllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = opts.CORSAllowedOrigins
	}

	s := &Server{
		transactions:   tx,
		categories:     cats,
		pinger:         pinger,
		limiter:        ratelimit.NewLimiter(rlCfg),
		detector:       detector,
		tracer:         trace.NewMiddleware(detector.ExtractClientIP, opts.Logger.WithComponent(applog.ComponentTrace)),
		cacheManager:   opts.CacheManager,
		cacheSize:      opts.CacheSize,
		logger:         httpLogger,
		now:            time.Now,
		maxUploadBytes: opts.MaxUploadBytes,
		maxBodyBytes:   opts.MaxBodyBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", s.handleTransactions)
	mux.HandleFunc("/transactions/summary", s.handleSummary)
	mux.HandleFunc("/categories", s.handleCategories)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/", handleNotFound)

	var handler http.Handler = security.NoStore(mux)
	handler = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, msgRateLimited).Write(w)
	})(handler)
	handler = cors.Middleware(corsCfg)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = s.tracer.Middleware(handler)
	handler = recovery.Middleware(func(w http.ResponseWriter, r *http.Request) {
		InternalServerError(msgInternal).Write(w)
	})(handler)
	handler = applog.Middleware(httpLogger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// Shutdown stops the background routines and drains the HTTP server. Only
// the first call does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
