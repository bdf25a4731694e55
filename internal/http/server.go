package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finsight/internal/cache"
	"finsight/internal/charts"
	"finsight/internal/ingest"
	"finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/middleware/security"
	"finsight/internal/middleware/trace"
	"finsight/internal/services"
	"finsight/internal/session"
	appweb "finsight/web"
)

const (
	defaultUploadMaxBytes = 16 << 20
	cacheCleanupInterval  = 5 * time.Minute
	importTimeout         = 30 * time.Second
)

type Server struct {
	http.Server
	templates *template.Template
	svc       *services.AnalysisService
	store     *session.Store
	renderer  *charts.Renderer
	sheets    ingest.RowSource
	maxUpload int64

	chartCache      *cache.LRUCache[[]byte]
	cacheManager    *cache.Manager
	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware
	securityHeaders *security.HeadersMiddleware

	logger       *log.Logger
	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uploads     int64
	chartHits   int64
	chartMisses int64
	started     time.Time
}

type ServerConfig struct {
	Addr               string
	UploadMaxBytes     int64
	RateLimitPerMinute int
	// Sheets is the configured spreadsheet; nil disables POST /import/sheets.
	Sheets ingest.RowSource
	// ChartCache should be the same cache the service purges on re-upload.
	ChartCache *cache.LRUCache[[]byte]
	Renderer   *charts.Renderer
	Logger     *log.Logger
}

// NewServer configures routes, templates and middleware, returning a ready-to-run server.
func NewServer(cfg ServerConfig, svc *services.AnalysisService) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = defaultUploadMaxBytes
	}
	if cfg.ChartCache == nil {
		cfg.ChartCache = cache.NewLRUCache[[]byte](64, 10*time.Minute)
	}
	if cfg.Renderer == nil {
		cfg.Renderer = charts.NewRenderer()
	}

	mux := http.NewServeMux()
	detector := security.NewDetector(logger.WithComponent(log.ComponentSecurity).Logger)

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:             svc,
		store:           svc.Store(),
		renderer:        cfg.Renderer,
		sheets:          cfg.Sheets,
		maxUpload:       cfg.UploadMaxBytes,
		chartCache:      cfg.ChartCache,
		cacheManager:    cache.NewManager(logger.WithComponent(log.ComponentCache).Logger),
		rateLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:        detector,
		traceMiddleware: trace.NewMiddleware(logger, detector.ExtractClientIP),
		securityHeaders: security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		logger:          logger,
		metrics:         appMetrics{started: time.Now()},
	}

	s.cacheManager.Register(s.chartCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /import/sheets", s.handleImportSheets)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/charts/{name}", s.handleChart)
	mux.HandleFunc("GET /api/uploads", s.handleUploads)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.Handler = s.traceMiddleware.Middleware(
		log.Middleware(logger)(
			log.RequestIDMiddleware(trace.RequestIDFromRequest)(
				s.detector.Middleware(
					s.securityHeaders.Middleware(
						s.limitWrites(mux))))))

	return s
}

// limitWrites applies the rate limiter to POST requests only; reads are free.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) countUpload() {
	atomic.AddInt64(&s.metrics.uploads, 1)
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Stopping HTTP server", log.FieldOperation, log.OpShutdown)
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
