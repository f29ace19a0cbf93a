package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	// Initialize OpenTelemetry
	tp, err := initTracer(cfg)
	if err != nil {
		logger.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down tracer", zap.Error(err))
		}
	}()

	mp, err := initMetrics(cfg)
	if err != nil {
		logger.Fatal("failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down meter", zap.Error(err))
		}
	}()

	// Apply schema migrations before opening the application pool
	if err := runMigrations(cfg); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	dbPool, err := initDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	metrics, err := NewMetrics(mp.Meter(cfg.ServiceName))
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}
	tracer := tp.Tracer(cfg.ServiceName)
	resp := &responder{logger: logger, production: cfg.IsProduction()}

	// Repositories
	orderRepo := NewOrderRepository(dbPool)
	productRepo := NewProductRepository(dbPool)
	categoryRepo := NewCategoryRepository(dbPool)
	userRepo := NewUserRepository(dbPool)
	reviewRepo := NewReviewRepository(dbPool)
	cartRepo := NewCartRepository(dbPool)
	wishlistRepo := NewWishlistRepository(dbPool)

	// Use cases
	authUC := NewAuthUseCase(userRepo, cfg.JWTSecret, time.Duration(cfg.TokenTTL)*time.Hour, logger)
	orderUC := NewOrderUseCase(orderRepo, productRepo, logger, tracer, metrics)
	productUC := NewProductUseCase(productRepo, categoryRepo, logger)
	categoryUC := NewCategoryUseCase(categoryRepo)
	reviewUC := NewReviewUseCase(reviewRepo, productRepo, logger)
	cartUC := NewCartUseCase(cartRepo, productRepo)
	wishlistUC := NewWishlistUseCase(wishlistRepo, productRepo)

	// Handlers
	authHandler := NewAuthHandler(authUC, resp)
	orderHandler := NewOrderHandler(orderUC, resp)
	productHandler := NewProductHandler(productUC, resp)
	categoryHandler := NewCategoryHandler(categoryUC, resp)
	reviewHandler := NewReviewHandler(reviewUC, resp)
	cartHandler := NewCartHandler(cartUC, resp)
	wishlistHandler := NewWishlistHandler(wishlistUC, resp)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/health", HealthCheck)

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	authed := AuthRequired(authUC, resp)
	admin := AdminOnly(resp)

	categories := api.Group("/categories")
	categories.GET("", categoryHandler.List)
	categories.GET("/:id", categoryHandler.Get)
	categories.POST("", authed, admin, categoryHandler.Create)
	categories.PUT("/:id", authed, admin, categoryHandler.Update)
	categories.DELETE("/:id", authed, admin, categoryHandler.Delete)

	products := api.Group("/products")
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", authed, admin, productHandler.Create)
	products.PUT("/:id", authed, admin, productHandler.Update)
	products.DELETE("/:id", authed, admin, productHandler.Delete)
	products.GET("/:id/reviews", reviewHandler.List)
	products.POST("/:id/reviews", authed, reviewHandler.Create)

	cart := api.Group("/cart", authed)
	cart.GET("", cartHandler.Get)
	cart.POST("/items", cartHandler.SetItem)
	cart.DELETE("/items/:productId", cartHandler.RemoveItem)
	cart.DELETE("", cartHandler.Clear)

	wishlist := api.Group("/wishlist", authed)
	wishlist.GET("", wishlistHandler.List)
	wishlist.POST("/:productId", wishlistHandler.Add)
	wishlist.DELETE("/:productId", wishlistHandler.Remove)

	orders := api.Group("/orders", authed)
	orders.POST("", orderHandler.CreateOrder)
	orders.GET("", orderHandler.GetMyOrders)
	orders.GET("/all", admin, orderHandler.GetAllOrders)
	orders.GET("/:id", orderHandler.GetOrderByID)
	orders.DELETE("/:id", orderHandler.DeleteOrder)
	orders.PATCH("/:id/status", admin, orderHandler.UpdateOrderStatus)

	logger.Info("🚀 grocery API listening", zap.String("port", cfg.Port))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newLogger(cfg *Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

// runMigrations applies the SQL migrations through a database/sql handle.
func runMigrations(cfg *Config) error {
	db, err := sql.Open("postgres", cfg.MigrateDSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsURL, cfg.DatabaseName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func initDB(cfg *Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.PoolDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			logger.Info("✅ connected to database")
			return pool, nil
		}
		logger.Info("⏳ waiting for database", zap.Int("attempt", i+1))
		time.Sleep(1 * time.Second)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after 30 attempts")
}

func initTracer(cfg *Config) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tp)

	return tp, nil
}

func initMetrics(cfg *Config) (*sdkmetric.MeterProvider, error) {
	ctx := context.Background()

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}
