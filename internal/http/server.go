package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/cache"
	"bilancio/internal/chart"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/services"
	appweb "bilancio/web"
)

// LedgerService is the subset of services.LedgerService the handlers use.
type LedgerService interface {
	AddTransaction(ctx context.Context, in services.NewTransaction) (core.Transaction, error)
	RemoveTransaction(ctx context.Context, index int) (services.RemoveResult, error)
	Snapshot(ctx context.Context) services.Snapshot
	Version() uint64
	CategorySummary(ctx context.Context) (map[string]decimal.Decimal, uint64)
	BalanceSeries(ctx context.Context) ([]ledger.SeriesPoint, uint64)
}

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	Addr           string
	CurrencySymbol string
	CacheSize      int
	CacheTTL       time.Duration
	RateLimit      ratelimit.Config
	TrustedProxies []string
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    LedgerService
	currency  string

	logger   *applog.Logger
	slogger  *applog.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector

	pieCache  *cache.LRUCache[chart.PieChart]
	lineCache *cache.LRUCache[chart.LineChart]
	janitor   *cache.Janitor
	cacheTTL  time.Duration

	startedAt time.Time
}

// NewServer configures routes, middleware and templates.
func NewServer(opts Options, svc LedgerService) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "₹"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 32
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		templates: t,
		ledger:    svc,
		currency:  opts.CurrencySymbol,
		logger:    logger,
		slogger:   applog.NewStructuredLogger(logger),
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		detector:  security.NewDetector(),
		pieCache:  cache.NewLRUCache[chart.PieChart](opts.CacheSize, opts.CacheTTL),
		lineCache: cache.NewLRUCache[chart.LineChart](opts.CacheSize, opts.CacheTTL),
		janitor:   cache.NewJanitor(opts.Logger),
		cacheTTL:  opts.CacheTTL,
		startedAt: time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(strings.TrimSpace(cidr)); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}
	s.janitor.Register(s.pieCache)
	s.janitor.Register(s.lineCache)

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /transactions/delete", s.handleDeleteTransaction)
	mux.HandleFunc("GET /transactions.csv", s.handleExportCSV)

	// UI partials
	mux.HandleFunc("GET /ui/balance", s.handleBalance)
	mux.HandleFunc("GET /ui/transactions", s.handleTransactions)
	mux.HandleFunc("GET /ui/categories", s.handleCategories)

	mux.HandleFunc("GET /api/charts/categories", s.handleCategoryChart)
	mux.HandleFunc("GET /api/charts/balance", s.handleBalanceChart)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// middleware wraps the mux outermost-first: logger in context, request ID,
// security headers, request logging, then write rate limiting.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.WritesOnly, s.handleRateLimited)(next)
	h = s.withRequestLogging(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.RequestIDMiddleware(requestID)(h)
	return applog.Middleware(s.logger)(h)
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := s.detector.ExtractClientIP(r)
		reqID := applog.RequestIDFromContext(ctx)

		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, clientIP,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		s.slogger.LogHTTPStart(ctx, r, reqID, clientIP)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.slogger.LogHTTPEnd(ctx, r, reqID, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").Write(w)
}

// RunBackground runs the rate limiter and cache sweepers until ctx ends.
func (s *Server) RunBackground(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.limiter.Run(ctx) })
	g.Go(func() error { return s.janitor.Run(ctx, s.cacheTTL) })
	return g.Wait()
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
