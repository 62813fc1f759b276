package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/aptnet/internal/api/handlers"
	mw "github.com/Harshitk-cp/aptnet/internal/api/middleware"
	"github.com/Harshitk-cp/aptnet/internal/buildconfig"
	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/metrics"
	"github.com/Harshitk-cp/aptnet/internal/netfile"
	"github.com/Harshitk-cp/aptnet/internal/service"
	"github.com/Harshitk-cp/aptnet/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const limiterCleanupInterval = 5 * time.Minute

// Stores groups the persistence interfaces the API needs.
type Stores struct {
	Tenants     domain.TenantStore
	Learners    domain.LearnerStore
	Networks    domain.NetworkStore
	Assessments domain.AssessmentStore
}

// NewStores returns the Postgres-backed stores.
func NewStores(db *pgxpool.Pool) Stores {
	return Stores{
		Tenants:     store.NewTenantStore(db),
		Learners:    store.NewLearnerStore(db),
		Networks:    store.NewNetworkStore(db),
		Assessments: store.NewAssessmentStore(db),
	}
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tune NewApp. Zero values fall back to defaults.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	SimilarLimit   int
	// DefaultNetwork replaces the embedded e-learning network.
	DefaultNetwork *netfile.Definition
	// Prometheus, when set, is exposed at /metrics/prometheus.
	Prometheus *metrics.Prometheus
}

// App holds the router and background workers for lifecycle management.
type App struct {
	Router      *chi.Mux
	Networks    *service.NetworkService
	RateLimiter *mw.RateLimiter

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
	serverErrors atomic.Int64
}

func NewApp(stores Stores, db Pinger, logger *zap.Logger, opts Options) *App {
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 100
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 20
	}
	if opts.SimilarLimit <= 0 {
		opts.SimilarLimit = 5
	}

	// Services
	learnerSvc := service.NewLearnerService(stores.Learners)
	networkSvc := service.NewNetworkService(stores.Networks, logger)
	if opts.DefaultNetwork != nil {
		networkSvc.SetDefaultDefinition(opts.DefaultNetwork)
	}
	assessmentSvc := service.NewAssessmentService(stores.Assessments, stores.Learners, networkSvc, logger)

	// Handlers
	tenantHandler := handlers.NewTenantHandler(stores.Tenants)
	learnerHandler := handlers.NewLearnerHandler(learnerSvc, assessmentSvc)
	networkHandler := handlers.NewNetworkHandler(networkSvc)
	assessmentHandler := handlers.NewAssessmentHandler(assessmentSvc, opts.SimilarLimit)

	r := chi.NewRouter()
	app := &App{
		Router:      r,
		Networks:    networkSvc,
		RateLimiter: mw.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		startTime:   time.Now(),
	}
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount, &app.serverErrors)

	// Order matters: RealIP before the rate limiter, request id before logging.
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiter.Middleware)

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())
	if opts.Prometheus != nil {
		r.Method(http.MethodGet, "/metrics/prometheus", opts.Prometheus.Handler())
	}

	// Tenant creation (no auth, bootstrap endpoint)
	r.Post("/v1/tenants", tenantHandler.Create)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(stores.Tenants))

		r.Route("/learners", func(r chi.Router) {
			r.Post("/", learnerHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", learnerHandler.GetByID)
				r.Get("/assessments", learnerHandler.ListAssessments)
			})
		})

		r.Route("/networks", func(r chi.Router) {
			r.Post("/", networkHandler.Create)
			r.Post("/default", networkHandler.InstallDefault)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", networkHandler.GetByID)
				r.Post("/assess", assessmentHandler.Assess)
			})
		})

		r.Route("/assessments/{id}", func(r chi.Router) {
			r.Get("/", assessmentHandler.GetByID)
			r.Get("/similar", assessmentHandler.Similar)
		})
	})

	return app
}

// Start launches background workers.
func (app *App) Start() {
	app.RateLimiter.Start(limiterCleanupInterval)
}

// Stop stops background workers and waits for them.
func (app *App) Stop() {
	app.RateLimiter.Stop()
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": buildconfig.Version()})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":  uptime.Seconds(),
			"uptime_human":    uptime.Round(time.Second).String(),
			"request_count":   app.requestCount.Load(),
			"error_count":     app.errorCount.Load(),
			"server_errors":   app.serverErrors.Load(),
			"tracked_clients": app.RateLimiter.Len(),
			"goroutines":      runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"build":      buildconfig.VersionInfo(),
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.TenantStore     = (*store.TenantStore)(nil)
	_ domain.LearnerStore    = (*store.LearnerStore)(nil)
	_ domain.NetworkStore    = (*store.NetworkStore)(nil)
	_ domain.AssessmentStore = (*store.AssessmentStore)(nil)
	_ Pinger                 = (*pgxpool.Pool)(nil)
)
