package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/retainhq/retain/internal/api"
	"github.com/retainhq/retain/internal/api/admin"
	"github.com/retainhq/retain/internal/api/auth"
	"github.com/retainhq/retain/internal/api/customers"
	"github.com/retainhq/retain/internal/api/exports"
	"github.com/retainhq/retain/internal/api/imports"
	"github.com/retainhq/retain/internal/api/segments"
	"github.com/retainhq/retain/internal/api/users"
	"github.com/retainhq/retain/internal/config"
	"github.com/retainhq/retain/internal/database"
	"github.com/retainhq/retain/internal/seed"
	"github.com/retainhq/retain/internal/session"
	"github.com/retainhq/retain/internal/store"
)

const (
	shutdownTimeout    = 10 * time.Second
	sessionPrunePeriod = time.Hour
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the retain API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Secret == "" {
		cfg.Secret = randomSecret()
		slog.Warn("RETAIN_SECRET not set, using an ephemeral signing key; sessions will not survive a restart")
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if cfg.SeedOnStart {
		if err := seed.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}
	}

	s := store.New(db)
	mgr := session.NewManager(cfg.Secret, cfg.SessionTTL, s.Users, s.Sessions)

	mux := http.NewServeMux()

	// API routes
	auth.RegisterRoutes(mux, mgr)
	customers.RegisterRoutes(mux, s)
	segments.RegisterRoutes(mux, s)
	exports.RegisterRoutes(mux, s)
	imports.RegisterRoutes(mux, s)
	users.RegisterRoutes(mux, s)
	mux.HandleFunc("GET /healthz", api.Healthz(db))

	// Admin API, used by the conformance suite and local tooling.
	if cfg.AdminEnabled {
		admin.RegisterRoutes(mux, s)
	}

	// Catch-all: return 404 in the standard error envelope.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		corrID := api.CorrelationID(r.Context())
		api.WriteError(w, http.StatusNotFound, api.NewNotFoundError(
			fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path),
			corrID,
		))
	})

	handler := api.Chain(mux,
		api.Recovery(),
		api.RequestID(),
		api.RequestLog(s.Requests),
		api.Session(mgr),
		api.JSONContentType(),
		api.Logging(),
	)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting retain server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionPrunePeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := mgr.PruneExpired(ctx)
				if err != nil {
					slog.Error("prune expired sessions", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("pruned expired sessions", "count", n)
				}
			}
		}
	})

	return g.Wait()
}

// randomSecret generates a signing key for setups that have not configured
// one. Tokens minted with it become invalid when the process exits.
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random secret: %v", err))
	}
	return hex.EncodeToString(buf)
}
