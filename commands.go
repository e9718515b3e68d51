package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/partyplanner/backend/internal/config"
	"github.com/partyplanner/backend/internal/db"
	"github.com/partyplanner/backend/internal/handler"
	"github.com/partyplanner/backend/internal/logging"
	"github.com/partyplanner/backend/internal/metrics"
	"github.com/partyplanner/backend/internal/model"
	"github.com/partyplanner/backend/internal/service"
)

const (
	serviceName     = "partyplanner"
	shutdownTimeout = 10 * time.Second
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Party planner backend",
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCreateUserCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	var req model.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account, ignoring ALLOW_SIGNUP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("CREATE_USER_PASSWORD")
			}
			return runCreateUser(cmd.Context(), cmd, req)
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (defaults to $CREATE_USER_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// app holds the wiring shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pg       *db.Postgres
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	auth     *service.AuthService
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.SetDefault(serviceName, version, cfg.Log.Format, cfg.Log.Level)

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pg := db.NewPostgres(pool)

	if err := pg.EnsureAuthSchema(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("ensure auth schema: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	authService, err := service.NewAuthService(pg, cfg, logger, m)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("init auth service: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		pg:       pg,
		registry: registry,
		metrics:  m,
		auth:     authService,
	}, nil
}

func runServe(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.pg.Close()

	gin.SetMode(a.cfg.Server.GinMode)
	router := handler.NewRouter(handler.RouterDeps{
		Config:   a.cfg,
		Auth:     a.auth,
		DB:       a.pg,
		Metrics:  a.metrics,
		Gatherer: a.registry,
		Logger:   a.logger,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting api server", "addr", srv.Addr, "mode", a.cfg.Server.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.LogError(ctx, a.logger, "api server failed", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runCreateUser(ctx context.Context, cmd *cobra.Command, req model.RegisterRequest) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.pg.Close()

	identity, err := a.auth.CreateAccount(ctx, req)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	cmd.Printf("created user %s (%s)\n", identity.Email, identity.ID)
	return nil
}
