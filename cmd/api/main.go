package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/serialguard/serialguard-backend/api/routes"
	internalauth "github.com/serialguard/serialguard-backend/internal/auth"
	"github.com/serialguard/serialguard-backend/internal/catalog"
	"github.com/serialguard/serialguard-backend/internal/deals"
	"github.com/serialguard/serialguard-backend/internal/products"
	"github.com/serialguard/serialguard-backend/internal/users"
	"github.com/serialguard/serialguard-backend/pkg/auth/session"
	"github.com/serialguard/serialguard-backend/pkg/config"
	"github.com/serialguard/serialguard-backend/pkg/db"
	"github.com/serialguard/serialguard-backend/pkg/logger"
	"github.com/serialguard/serialguard-backend/pkg/metrics"
	"github.com/serialguard/serialguard-backend/pkg/migrate"
	redisclient "github.com/serialguard/serialguard-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logg := logger.New(logger.Options{
		ServiceName: "serialguard-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("auto-migrating: %w", err)
	}

	redisClient, err := redisclient.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("building session manager: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	engineMetrics := metrics.NewRegistryMetrics(promRegistry)

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	dealRepo := deals.NewRepository(dbClient.DB())

	authService, err := internalauth.NewService(internalauth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("building auth service: %w", err)
	}

	productService, err := products.NewService(productRepo, userRepo, dbClient, cfg.Registry, engineMetrics)
	if err != nil {
		return fmt.Errorf("building product service: %w", err)
	}

	dealService, err := deals.NewService(dealRepo, productRepo, userRepo, dbClient, cfg.Registry, engineMetrics)
	if err != nil {
		return fmt.Errorf("building deal service: %w", err)
	}

	userService, err := users.NewService(userRepo)
	if err != nil {
		return fmt.Errorf("building user service: %w", err)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return fmt.Errorf("building catalog service: %w", err)
	}

	router := routes.New(routes.Dependencies{
		Config:         cfg,
		Logger:         logg,
		Sessions:       sessions,
		Limiter:        redisClient,
		AuthService:    authService,
		ProductService: productService,
		DealService:    dealService,
		UserService:    userService,
		CatalogService: catalogService,
		DBPinger:       dbClient,
		RedisPinger:    redisClient,
		Metrics:        promRegistry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.App.Port), "http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
