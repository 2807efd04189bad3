// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/psilva/grana/adapters/auth"
	"github.com/psilva/grana/adapters/clock"
	"github.com/psilva/grana/adapters/hasher"
	"github.com/psilva/grana/adapters/idgen"
	"github.com/psilva/grana/adapters/metrics"
	"github.com/psilva/grana/adapters/sqlite"
	"github.com/psilva/grana/app"
	"github.com/psilva/grana/config"
	"github.com/psilva/grana/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector
}

// New creates and initializes the application from the given configuration.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	logger.Info().Msg("initializing grana")

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.DB = db
	logger.Info().Str("dsn", cfg.Database.DSN).Msg("database ready")

	collector, registry := metrics.New()
	a.Metrics = collector
	if cfg.Metrics.Enabled {
		logger.Info().Msg("prometheus metrics enabled")
	} else {
		registry = nil
	}

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.buildHandler(registry),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// buildHandler constructs all stores, services and the HTTP handler.
func (a *App) buildHandler(registry *prometheus.Registry) http.Handler {
	cfg := a.Config

	ids := idgen.UUID{}
	clk := clock.Real{}
	pwHasher := hasher.NewBcrypt(cfg.Auth.BcryptCost)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = auth.GenerateSecret()
		a.Logger.Warn().Msg("no JWT secret configured, generated a random one (tokens will not survive restarts)")
	}
	tokens := auth.NewTokenService(secret, cfg.Auth.TokenExpiration)

	users := sqlite.NewUserStore(a.DB)
	cards := sqlite.NewCardStore(a.DB, ids)
	categories := sqlite.NewCategoryStore(a.DB)
	invoices := sqlite.NewInvoiceStore(a.DB, ids)
	purchases := sqlite.NewPurchaseStore(a.DB)
	transactions := sqlite.NewTransactionStore(a.DB, ids)
	ledger := sqlite.NewLedgerStore(a.DB)

	handler := web.NewHandler(web.Deps{
		Auth:         app.NewAuthService(users, pwHasher, ids, tokens, a.Metrics, a.Logger),
		Cards:        app.NewCardService(cards, purchases, ledger, ids, clk, a.Metrics, a.Logger),
		Categories:   app.NewCategoryService(categories, ids, clk, a.Logger),
		Transactions: app.NewTransactionService(transactions, cards, ids, clk, a.Metrics, a.Logger),
		Purchases:    app.NewPurchaseService(purchases, cards, ids, clk, a.Metrics, a.Logger),
		Closing:      app.NewClosingService(invoices, purchases, cards, ids, clk, a.Metrics, a.Logger),
		Dashboard:    app.NewDashboardService(transactions, cards, purchases, clk, a.Logger),
		Tokens:       tokens,
		Metrics:      a.Metrics,
		Registry:     registry,
		Logger:       a.Logger,
	})

	return handler.Routes()
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
