// Package server implements the serve command: it wires the full service
// together and runs the HTTP server and the background schedulers.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	authUsecases "streamgate/internal/application/auth/usecases"
	entUsecases "streamgate/internal/application/entitlement/usecases"
	"streamgate/internal/domain/identity"
	"streamgate/internal/infrastructure/auth"
	"streamgate/internal/infrastructure/cache"
	"streamgate/internal/infrastructure/config"
	"streamgate/internal/infrastructure/database"
	"streamgate/internal/infrastructure/federation"
	"streamgate/internal/infrastructure/persistence/models"
	"streamgate/internal/infrastructure/provisioning"
	"streamgate/internal/infrastructure/repository"
	"streamgate/internal/infrastructure/scheduler"
	"streamgate/internal/interfaces/http/handlers"
	"streamgate/internal/interfaces/http/middleware"
	"streamgate/internal/interfaces/http/routes"
	"streamgate/internal/shared/logger"
	"streamgate/internal/shared/metrics"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the streamgate HTTP server, the session reconciler and the provider config refresher.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting streamgate", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(mapEnvToGinMode(env))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if err := models.AutoMigrate(database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("auto-migration completed")
	}

	snapshots := config.NewSnapshotStore(cfg)

	var identityCache authUsecases.IdentityCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		identityCache = cache.NewIdentityCache(redisClient)
		log.Infow("identity cache enabled", "addr", cfg.Redis.Addr)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Repositories
	db := database.Get()
	userRepo := repository.NewUserRepository(db, log)
	subscriptionRepo := repository.NewSubscriptionRepository(db, log)
	sessionRepo := repository.NewSessionRepository(db, log)
	applicationRepo := repository.NewApplicationRepository(db, log)

	// Upstream clients
	exchange := federation.NewHTTPExchange(cfg.Federation.Endpoint, log)
	provisioner := provisioning.NewHTTPClient(cfg.Provisioning.Endpoint, log)

	providers := []identity.Provider{
		auth.NewAmazonProvider(cfg.Providers.Amazon, snapshots),
		auth.NewGoogleProvider(cfg.Providers.Google),
		auth.NewFacebookProvider(cfg.Providers.Facebook, snapshots),
	}
	dispatcher := auth.NewDispatcher(providers, exchange, snapshots, log)
	log.Infow("authorization providers registered", "tags", dispatcher.RegisteredTags())

	// Use cases
	authorizeUC := authUsecases.NewAuthorizeUseCase(dispatcher, userRepo, identityCache, collector, cfg.Auth.CreateUserWhenNew, log)
	listSubscriptionsUC := entUsecases.NewListSubscriptionsUseCase(subscriptionRepo, log)
	listSessionsUC := entUsecases.NewListSessionsUseCase(sessionRepo, log)
	startSessionUC := entUsecases.NewStartSessionUseCase(subscriptionRepo, applicationRepo, sessionRepo, provisioner, collector, log)
	reconcileUC := entUsecases.NewReconcileSessionsUseCase(sessionRepo, subscriptionRepo, applicationRepo, provisioner, collector, log)

	// Schedulers
	schedMgr, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	reconcileInterval := time.Duration(cfg.Reconciler.IntervalSeconds) * time.Second
	if err := schedMgr.RegisterReconcileJob(scheduler.JobFunc(reconcileUC.Execute), reconcileInterval); err != nil {
		return fmt.Errorf("failed to register reconcile job: %w", err)
	}
	refreshInterval := time.Duration(cfg.Reconciler.RefreshSeconds) * time.Second
	if err := schedMgr.RegisterConfigRefreshJob(scheduler.JobFunc(func(ctx context.Context) error {
		return snapshots.Reload()
	}), refreshInterval); err != nil {
		return fmt.Errorf("failed to register config refresh job: %w", err)
	}
	schedMgr.Start()
	defer schedMgr.Stop()

	// HTTP surface
	authMW := middleware.NewAuthMiddleware(authorizeUC, log)
	identityHandler := handlers.NewIdentityHandler(log)
	entitlementHandler := handlers.NewEntitlementHandler(listSubscriptionsUC, listSessionsUC, startSessionUC, log)

	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.CORS([]string{"*"}))

	routes.Setup(engine, &routes.RouteConfig{
		IdentityHandler:    identityHandler,
		EntitlementHandler: entitlementHandler,
		AuthMiddleware:     authMW,
		Gatherer:           registry,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
