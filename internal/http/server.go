package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bikedash/internal/cache"
	"bikedash/internal/dataset"
	applog "bikedash/internal/log"
	"bikedash/internal/middleware/ratelimit"
	"bikedash/internal/middleware/security"
	"bikedash/internal/middleware/trace"
	"bikedash/internal/services"
	appweb "bikedash/web"
)

const (
	// buildTimeout bounds one dashboard computation.
	buildTimeout = 7 * time.Second

	cacheCleanupInterval = 10 * time.Minute
	staticMaxAge         = 3600
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Addr      string
	CacheSize int
	CacheTTL  time.Duration
	RateLimit ratelimit.Config
	Logger    *applog.Logger
}

// Server wraps http.Server with the dashboard routes and their caches.
type Server struct {
	http.Server

	templates  *template.Template
	snapshots  dataset.SnapshotReader
	dashboards *services.DashboardService
	exports    *services.ExportService

	dashCache    *cache.LRUCache[services.Dashboard]
	cacheManager *cache.Manager
	builds       singleflight.Group

	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
// exports may be nil or disabled; POST /exports then answers 503.
func NewServer(opts Options, snapshots dataset.SnapshotReader, dashboards *services.DashboardService, exports *services.ExportService) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.RateLimit.Requests <= 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}
	if dashboards == nil {
		dashboards = services.NewDashboardService(services.DefaultRankedMonths)
	}

	mux := http.NewServeMux()
	s := &Server{
		snapshots:    snapshots,
		dashboards:   dashboards,
		exports:      exports,
		dashCache:    cache.NewLRUCache[services.Dashboard](opts.CacheSize, opts.CacheTTL),
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		detector:     security.NewDetector(),
		logger:       opts.Logger,
	}
	s.cacheManager.Register("dashboard", s.dashCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	limited := s.limiter.Middleware(s.detector.ExtractClientIP)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/{panel}", s.handlePanel)
	mux.HandleFunc("GET /api/dashboard", s.handleAPIDashboard)
	mux.Handle("GET /export.xlsx", limited(http.HandlerFunc(s.handleWorkbook)))
	mux.Handle("POST /exports", limited(http.HandlerFunc(s.handleRequestExport)))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           tracer.Middleware(headers.Middleware(s.flagSuspicious(mux))),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// flagSuspicious logs probes and scanner traffic without blocking it.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the background cleanups and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// dashboard returns the cached dashboard for the range, building it at most
// once per snapshot version however many requests ask concurrently.
func (s *Server) dashboard(ctx context.Context, q rangeQuery) (services.Dashboard, error) {
	key := fmt.Sprintf("v%d:%s", q.snap.Version, q.r)
	if d, ok := s.dashCache.Get(key); ok {
		return d, nil
	}

	v, err, shared := s.builds.Do(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()

		start := time.Now()
		d, err := s.dashboards.Build(cctx, q.snap, q.r)
		if err != nil {
			return nil, err
		}
		s.dashCache.Set(key, d)
		applog.FromContext(ctx).DebugContext(ctx, "Dashboard built",
			applog.FieldRange, q.r.String(),
			applog.FieldVersion, q.snap.Version,
			applog.FieldDuration, time.Since(start).Milliseconds())
		return d, nil
	})
	if err != nil {
		return services.Dashboard{}, err
	}
	if shared {
		applog.FromContext(ctx).DebugContext(ctx, "Dashboard build shared", applog.FieldRange, q.r.String())
	}
	return v.(services.Dashboard), nil
}

// CacheStats reports the dashboard cache counters.
func (s *Server) CacheStats() cache.Stats {
	return s.dashCache.Stats()
}
