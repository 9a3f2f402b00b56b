// Package app wires the application together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	adminservice "github.com/nhupane/gopasal/internal/admin/service"
	adminstore "github.com/nhupane/gopasal/internal/admin/store"
	adminrest "github.com/nhupane/gopasal/internal/admin/transport/rest"
	cartservice "github.com/nhupane/gopasal/internal/cart/service"
	cartstore "github.com/nhupane/gopasal/internal/cart/store"
	cartrest "github.com/nhupane/gopasal/internal/cart/transport/rest"
	catalogservice "github.com/nhupane/gopasal/internal/catalog/service"
	catalogstore "github.com/nhupane/gopasal/internal/catalog/store"
	catalogrest "github.com/nhupane/gopasal/internal/catalog/transport/rest"
	"github.com/nhupane/gopasal/internal/config"
	orderservice "github.com/nhupane/gopasal/internal/order/service"
	orderstore "github.com/nhupane/gopasal/internal/order/store"
	orderrest "github.com/nhupane/gopasal/internal/order/transport/rest"
	"github.com/nhupane/gopasal/internal/payment"
	reviewservice "github.com/nhupane/gopasal/internal/review/service"
	reviewstore "github.com/nhupane/gopasal/internal/review/store"
	reviewrest "github.com/nhupane/gopasal/internal/review/transport/rest"
	userservice "github.com/nhupane/gopasal/internal/user/service"
	userstore "github.com/nhupane/gopasal/internal/user/store"
	userrest "github.com/nhupane/gopasal/internal/user/transport/rest"
	wishlistservice "github.com/nhupane/gopasal/internal/wishlist/service"
	wishliststore "github.com/nhupane/gopasal/internal/wishlist/store"
	wishlistrest "github.com/nhupane/gopasal/internal/wishlist/transport/rest"
	"github.com/nhupane/gopasal/pkg/bootstrap"
	"github.com/nhupane/gopasal/pkg/messaging"
	appnats "github.com/nhupane/gopasal/pkg/nats"
	"github.com/nhupane/gopasal/pkg/server"
	"github.com/nhupane/gopasal/pkg/token"
	"github.com/nhupane/gopasal/pkg/web"
)

// Dependencies holds the shared resources of the application.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	DbPool   *pgxpool.Pool
	Redis    *redis.Client
	NatsConn *nats.Conn

	issuer    *token.Issuer
	publisher messaging.Publisher
}

// SetupDependencies initializes the shared backing resources.
func SetupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.MigrationsPath != "" {
		if err := bootstrap.Migrate(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisClient, err := bootstrap.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Timeout)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	natsConn, err := appnats.NewClient(cfg.Nats)
	if err != nil {
		dbPool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := appnats.NewJetStreamContext(natsConn)
	if err != nil {
		dbPool.Close()
		_ = redisClient.Close()
		natsConn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	if err := appnats.EnsureStream(ctx, js); err != nil {
		dbPool.Close()
		_ = redisClient.Close()
		natsConn.Close()
		return nil, err
	}

	return &Dependencies{
		Config:    cfg,
		Logger:    logger,
		DbPool:    dbPool,
		Redis:     redisClient,
		NatsConn:  natsConn,
		issuer:    token.NewIssuer(cfg.Token),
		publisher: appnats.NewNatsPublisher(js),
	}, nil
}

// Close releases the shared resources in reverse order of acquisition.
func (d *Dependencies) Close() {
	if d.NatsConn != nil {
		d.NatsConn.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.DbPool != nil {
		d.DbPool.Close()
	}
}

// SetupHttpHandler builds the application router with every domain mounted.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	logger := deps.Logger

	provider := payment.NewClient(deps.Config.Payment)

	orderHandler := orderrest.NewHandler(
		orderservice.NewService(orderstore.NewPgStore(deps.DbPool), provider, deps.publisher), logger)
	productHandler := catalogrest.NewHandler(
		catalogservice.NewService(catalogstore.NewPgStore(deps.DbPool), deps.Redis), logger)
	reviewHandler := reviewrest.NewHandler(
		reviewservice.NewService(reviewstore.NewPgStore(deps.DbPool)), logger)
	cartHandler := cartrest.NewHandler(
		cartservice.NewService(cartstore.NewPgStore(deps.DbPool)), logger)
	wishlistHandler := wishlistrest.NewHandler(
		wishlistservice.NewService(wishliststore.NewPgStore(deps.DbPool)), logger)
	userHandler := userrest.NewHandler(
		userservice.NewService(userstore.NewPgStore(deps.DbPool), deps.Redis, deps.issuer, deps.publisher), logger)
	dashboardHandler := adminrest.NewHandler(
		adminservice.NewService(adminstore.NewPgStore(deps.DbPool), deps.Redis), logger)

	mux := server.NewChiRouter(logger)
	auth := web.AuthMiddleware(deps.issuer)

	mux.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", userHandler.RegisterRoutes)

		r.Route("/products", func(r chi.Router) {
			productHandler.RegisterRoutes(r)
			reviewHandler.RegisterPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Route("/users", userHandler.RegisterAuthRoutes)
			r.Route("/orders", orderHandler.RegisterRoutes)
			r.Route("/reviews", reviewHandler.RegisterRoutes)
			r.Route("/cart", cartHandler.RegisterRoutes)
			r.Route("/wishlist", wishlistHandler.RegisterRoutes)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth, web.RequireAdmin)
			r.Route("/products", productHandler.RegisterAdminRoutes)
			r.Route("/orders", orderHandler.RegisterAdminRoutes)
			r.Route("/reviews", reviewHandler.RegisterAdminRoutes)
			r.Route("/dashboard", dashboardHandler.RegisterRoutes)
		})
	})

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// SetupHttpServer creates the main HTTP server for the application.
func SetupHttpServer(deps *Dependencies, handler http.Handler) *http.Server {
	cfg := deps.Config.HTTPServer
	return server.NewHTTPServer(server.HTTPConfig{
		Port:           cfg.Port,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
		ReadTimeout:    cfg.Timeout.Read,
		WriteTimeout:   cfg.Timeout.Write,
		IdleTimeout:    cfg.Timeout.Idle,
		ReadHeader:     cfg.Timeout.ReadHeader,
	}, handler)
}
