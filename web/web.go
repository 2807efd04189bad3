// Package web provides the JSON API served over HTTP.
// Authentication is a stateless bearer token; every finance route is
// scoped to the authenticated user.
package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/psilva/grana/adapters/auth"
	"github.com/psilva/grana/adapters/metrics"
	"github.com/psilva/grana/app"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Handler provides the API endpoints.
type Handler struct {
	auth         *app.AuthService
	cards        *app.CardService
	categories   *app.CategoryService
	transactions *app.TransactionService
	purchases    *app.PurchaseService
	closing      *app.ClosingService
	dashboard    *app.DashboardService
	tokens       *auth.TokenService
	metrics      *metrics.Collector
	registry     *prometheus.Registry
	logger       zerolog.Logger
}

// Deps contains dependencies for the API handler.
type Deps struct {
	Auth         *app.AuthService
	Cards        *app.CardService
	Categories   *app.CategoryService
	Transactions *app.TransactionService
	Purchases    *app.PurchaseService
	Closing      *app.ClosingService
	Dashboard    *app.DashboardService
	Tokens       *auth.TokenService
	Metrics      *metrics.Collector
	Registry     *prometheus.Registry
	Logger       zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		auth:         deps.Auth,
		cards:        deps.Cards,
		categories:   deps.Categories,
		transactions: deps.Transactions,
		purchases:    deps.Purchases,
		closing:      deps.Closing,
		dashboard:    deps.Dashboard,
		tokens:       deps.Tokens,
		metrics:      deps.Metrics,
		registry:     deps.Registry,
		logger:       deps.Logger.With().Str("component", "web").Logger(),
	}
}

// Routes builds the router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get("/healthz", h.Health)
	if h.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", h.ListCards)
				r.Post("/", h.CreateCard)
				r.Get("/{id}", h.GetCard)
				r.Put("/{id}", h.UpdateCard)
				r.Delete("/{id}", h.DeleteCard)
				r.Get("/{id}/status", h.CardStatus)
				r.Post("/{id}/adjust", h.AdjustCard)
				r.Get("/{id}/ledger", h.CardLedger)
				r.Get("/{id}/invoices", h.ListInvoices)
				r.Get("/{id}/purchases", h.ListPurchases)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Get("/{id}", h.GetCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.ListTransactions)
				r.Post("/", h.CreateTransaction)
				r.Get("/{id}", h.GetTransaction)
				r.Put("/{id}", h.UpdateTransaction)
				r.Delete("/{id}", h.DeleteTransaction)
			})

			r.Route("/purchases", func(r chi.Router) {
				r.Post("/", h.CreatePurchase)
				r.Get("/{id}", h.GetPurchase)
				r.Put("/{id}", h.UpdatePurchase)
				r.Delete("/{id}", h.DeletePurchase)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/{id}", h.GetInvoice)
				r.Post("/{id}/close", h.CloseInvoice)
			})

			r.Get("/dashboard", h.Dashboard)
		})
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// observe logs each request and feeds the request metrics.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}

		if h.metrics != nil {
			status := strconv.Itoa(ww.Status())
			h.metrics.RequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			h.metrics.RequestDuration.WithLabelValues(r.Method, pattern).Observe(elapsed.Seconds())
		}

		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", elapsed).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// authenticate validates the bearer token and stores the user ID on the
// request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			if h.metrics != nil {
				h.metrics.AuthFailures.Inc()
			}
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerID returns the authenticated user's ID from the context.
func ownerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
