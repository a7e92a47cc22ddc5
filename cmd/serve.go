package cmd

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/KshitijThareja/Orbyq/cmd/cmdutil"
	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/db/bunx"
	"github.com/KshitijThareja/Orbyq/internal/migrations"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/server"
	"github.com/KshitijThareja/Orbyq/internal/services/dataport"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/resources"
	"github.com/KshitijThareja/Orbyq/internal/services/validation"
	"github.com/KshitijThareja/Orbyq/internal/telemetry"
)

var (
	migrateOnStart  bool
	filterCacheSize int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Orbyq API server",
	Long:  `Starts the HTTP server with the auth, user, resource and admin endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Observability)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(sctx); err != nil {
				log.Printf("WARNING: %v", err)
			}
		}()

		dbMetrics, err := telemetry.NewDatabaseMetrics()
		if err != nil {
			return fmt.Errorf("failed to create database metrics: %w", err)
		}
		serverMetrics, err := telemetry.NewServerMetrics()
		if err != nil {
			return fmt.Errorf("failed to create server metrics: %w", err)
		}
		authMetrics, err := telemetry.NewAuthMetrics()
		if err != nil {
			return fmt.Errorf("failed to create auth metrics: %w", err)
		}

		db, err := cmdutil.OpenDB(cfg, bun.QueryHook(bunx.NewMetricsHook(dbMetrics)))
		if err != nil {
			return err
		}
		defer func() { _ = bunx.Close(db) }()

		log.Printf("Connected to %s database", bunx.DetectDatabaseType(cfg.DatabaseURL))

		if migrateOnStart {
			group, err := migrations.Apply(ctx, db)
			if err != nil {
				return err
			}
			if group.IsZero() {
				log.Printf("No new migrations to apply")
			} else {
				log.Printf("Applied migration group %d", group.ID)
			}
		}

		codec, err := auth.NewTokenCodec(cfg.Auth)
		if err != nil {
			return fmt.Errorf("configure token codec: %w", err)
		}
		hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
		if err != nil {
			return fmt.Errorf("configure password hasher: %w", err)
		}
		enforcer, err := auth.InitEnforcer()
		if err != nil {
			return fmt.Errorf("configure casbin enforcer: %w", err)
		}
		filters, err := auth.NewFilterEvaluator(filterCacheSize)
		if err != nil {
			return err
		}
		validator, err := validation.NewRequestValidator(32)
		if err != nil {
			return fmt.Errorf("configure request validator: %w", err)
		}

		users := repository.NewBunUserRepository(db)
		iamService := iam.NewService(users, codec, hasher, cfg, iam.WithAuthMetrics(authMetrics))
		resourceServices := resources.NewServices(users, repository.NewBunOwnedRepositories(db), resources.Config{
			StoreTimeout: cfg.StoreTimeout,
			Filters:      filters,
		})

		corsOptions := server.DefaultCORSOptions(cfg.CORSAllowedOrigins)
		handler, err := server.NewH2CHandler(server.RouterOptions{
			IAM:           iamService,
			Authenticator: iam.NewBearerAuthenticator(codec, authMetrics),
			Enforcer:      enforcer,
			Resources:     resourceServices,
			Dataport:      dataport.NewService(resourceServices),
			Validator:     validator,
			Metrics:       serverMetrics,
			CORSOptions:   &corsOptions,
			HealthHandler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				status, body := http.StatusOK, `{"status":"ok"}`
				if err := db.PingContext(r.Context()); err != nil {
					status, body = http.StatusServiceUnavailable, `{"status":"database unavailable"}`
				}
				w.WriteHeader(status)
				fmt.Fprint(w, body)
			},
		})
		if err != nil {
			return fmt.Errorf("build router: %w", err)
		}

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			ConnState: func(_ net.Conn, state http.ConnState) {
				switch state {
				case http.StateNew:
					serverMetrics.ConnectionOpened(context.Background())
				case http.StateClosed, http.StateHijacked:
					serverMetrics.ConnectionClosed(context.Background())
				}
			},
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			log.Printf("Server URL: %s", cfg.ServerURL)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Printf("Received signal %v, shutting down gracefully", sig)

			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(sctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Printf("Server stopped")
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving")
	serveCmd.Flags().IntVar(&filterCacheSize, "filter-cache-size", 256, "Number of compiled list filters to keep")
	rootCmd.AddCommand(serveCmd)
}
