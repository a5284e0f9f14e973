// Package server assembles the API routes and middleware chain.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/presswala/internal/admin"
	"github.com/joao-fontenele/presswala/internal/areas"
	"github.com/joao-fontenele/presswala/internal/auth"
	"github.com/joao-fontenele/presswala/internal/cache"
	"github.com/joao-fontenele/presswala/internal/catalog"
	"github.com/joao-fontenele/presswala/internal/httpapi"
	"github.com/joao-fontenele/presswala/internal/orders"
	"github.com/joao-fontenele/presswala/internal/ratelimit"
	"github.com/joao-fontenele/presswala/internal/shops"
	"github.com/joao-fontenele/presswala/internal/support"
	"github.com/joao-fontenele/presswala/internal/telemetry"
	"github.com/joao-fontenele/presswala/internal/users"
)

// Deps are the shared resources the handlers run on. Cache, Publisher,
// Metrics and MetricsHandler may be nil.
type Deps struct {
	DB             *sql.DB
	Cache          cache.Cache
	Publisher      orders.Publisher
	Metrics        *telemetry.Metrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// NewMux registers every API route on a fresh mux.
func NewMux(d Deps) *http.ServeMux {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	log := d.Logger

	userRepo := users.NewRepository(d.DB)
	orderRepo := orders.NewOrderRepository(d.DB)
	shopRepo := shops.NewRepository(d.DB)
	guard := auth.NewGuard(userRepo, log)
	catalogSvc := catalog.NewService(catalog.NewRepository(d.DB), d.Cache, log)

	mux := http.NewServeMux()
	orders.NewHandler(orderRepo, catalogSvc, userRepo, guard, d.Publisher, d.Metrics, log).Register(mux)
	catalog.NewHandler(catalogSvc, guard, log).Register(mux)
	users.NewHandler(userRepo, guard, d.Metrics, log).Register(mux)
	shops.NewHandler(shopRepo, d.Cache, guard, log).Register(mux)
	areas.NewHandler(areas.NewRepository(d.DB), d.Cache, guard, log).Register(mux)
	support.NewHandler(support.NewRepository(d.DB), orderRepo, guard, log).Register(mux)
	admin.NewHandler(orderRepo, shopRepo, userRepo, guard, log).Register(mux)

	if d.MetricsHandler != nil {
		mux.Handle("GET /metrics", d.MetricsHandler)
	}
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			httpapi.WriteError(w, log, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		httpapi.WriteJSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

type ChainOptions struct {
	ServiceName    string
	Authenticator  *auth.Authenticator
	Limiter        *ratelimit.Limiter
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Chain wraps h, outermost first, in tracing, request logging, CORS,
// authentication and rate limiting. Limiting runs after authentication so
// signed-in callers are bucketed by principal.
func Chain(h http.Handler, o ChainOptions) http.Handler {
	if o.Limiter != nil {
		h = o.Limiter.Middleware(LimitKey, o.Logger, h)
	}
	h = o.Authenticator.Middleware(h)
	h = cors.New(cors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", httpapi.RequestIDHeader},
	}).Handler(h)
	h = httpapi.Logging(o.Logger, h)
	return otelhttp.NewHandler(h, o.ServiceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method + " " + r.URL.Path
		}),
	)
}

// LimitKey buckets authenticated callers by principal and the rest by IP.
func LimitKey(r *http.Request) string {
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		return "principal:" + p
	}
	return "ip:" + ratelimit.RemoteIP(r)
}
