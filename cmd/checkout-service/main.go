package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/cart"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/catalog"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/checkout"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/config"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/events"
	h "github.com/chetanmadiwalar/AgroHub-sub000/internal/http"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/mongodb"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/orders"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/circuitbreaker"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "checkout-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(serviceName, "info", os.Stdout)
		logger.L().Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(serviceName, cfg.LogLevel, os.Stdout)
	log := logger.L()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// MongoDB backs the catalog, carts and (by default) orders
	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	db, err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer db.Client().Disconnect(context.Background())
	log.Info().Str("database", cfg.MongoDBName).Msg("connected to MongoDB")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	mongoCatalog := catalog.NewMongoCatalog(db)
	if err := mongoCatalog.CreateIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create catalog indexes")
	}
	products := catalog.NewCached(mongoCatalog, redisClient, 10*time.Minute)

	cartRepo := cart.NewMongoRepository(db)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create cart indexes")
	}
	carts := cart.NewService(cartRepo, cart.NewRedisCache(redisClient), products)

	orderRepo, closeOrders := openOrderStore(ctx, cfg, db)
	defer closeOrders()

	settings := circuitbreaker.DefaultSettings("order-store")
	orderCreator := orders.NewBreakerCreator(orderRepo, settings)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(registry, "checkout")
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	opts := []checkout.Option{checkout.WithMetrics(checkoutMetrics)}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers...)
		defer publisher.Close()
		opts = append(opts, checkout.WithEvents(publisher), checkout.WithCompensation(publisher))

		consumer := orders.NewReviewConsumer(orderRepo, cfg.KafkaBrokers...)
		defer consumer.Close()
		go consumer.Run(ctx)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Msg("checkout events enabled")
	} else {
		opts = append(opts, checkout.WithCompensation(orders.NewReviewMarker(orderRepo)))
	}

	checkouts := checkout.NewService(carts, products, orderCreator, checkout.NewPartitioner(cfg.Pricing), opts...)

	router := h.NewRouter(h.RouterConfig{
		Carts:              carts,
		Checkouts:          checkouts,
		Orders:             orderRepo,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		CheckoutLimiter:    h.NewBuyerRateLimiter(cfg.CheckoutRateLimit, cfg.CheckoutBurst, 3*time.Minute),
		ServerMetrics:      serverMetrics,
		Gatherer:           registry,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("checkout service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func openOrderStore(ctx context.Context, cfg *config.Config, db *mongo.Database) (orders.Repository, func()) {
	log := logger.L()

	switch cfg.OrderStore {
	case config.OrderStorePostgres:
		repo, err := orders.NewPostgresRepository(&cfg.Postgres)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Postgres")
		}
		if err := repo.RunMigrations(&cfg.Postgres); err != nil {
			log.Fatal().Err(err).Msg("failed to run order migrations")
		}
		log.Info().Str("host", cfg.Postgres.Host).Msg("orders stored in Postgres")
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close Postgres")
			}
		}
	default:
		repo := orders.NewMongoRepository(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create order indexes")
		}
		log.Info().Msg("orders stored in MongoDB")
		return repo, func() {}
	}
}
