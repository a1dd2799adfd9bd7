package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "MarketSim/docs"
	"MarketSim/internal/auth"
	"MarketSim/internal/catalog"
	"MarketSim/internal/ledger"
	"MarketSim/pkg/kit"
)

const purchaseLimitWindow = 60 * time.Second

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	Ledger *ledger.Ledger
	Events ledger.Publisher

	// Tokens guards POST /purchases when set.
	Tokens              *auth.TokenMaker
	PurchaseLimitPerMin int

	MetricsEnabled bool
	MetricsToken   string
}

func NewHandler(deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Events == nil {
		deps.Events = ledger.NopPublisher{}
	}

	r := chi.NewRouter()

	metricsOn := deps.MetricsEnabled && deps.Registry != nil
	if deps.MetricsEnabled && deps.Registry == nil {
		deps.Log.Warn("metrics enabled but Registry is nil")
	}

	setupMiddleware(r, deps, metricsOn)
	setupRoutes(r, deps, metricsOn)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps, metricsOn bool) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if metricsOn {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.RoutePattern))
	}
}

func setupRoutes(r *chi.Mux, deps HTTPDeps, metricsOn bool) {
	limiter := kit.NewIPRateLimiter(deps.PurchaseLimitPerMin, purchaseLimitWindow)
	purchaseMW := []func(http.Handler) http.Handler{limiter.Middleware}
	if deps.Tokens != nil {
		purchaseMW = append(purchaseMW, auth.RequireOperator(deps.Tokens))
	}

	var purchaseMetrics *ledger.Metrics
	if metricsOn {
		purchaseMetrics = ledger.NewMetrics(deps.Registry)
	}

	cs := &catalog.Server{Catalog: deps.Ledger.Catalog()}
	ls := &ledger.Server{
		Ledger:             deps.Ledger,
		Events:             deps.Events,
		Metrics:            purchaseMetrics,
		Log:                deps.Log,
		PurchaseMiddleware: purchaseMW,
	}
	cs.Register(r)
	ls.Register(r)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Ledger.Catalog()))

	if metricsOn {
		r.With(kit.MetricsAuth(deps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		)
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]any{
			"status":   "ready",
			"users":    len(c.ListUsers()),
			"products": len(c.ListProducts()),
		})
	}
}
