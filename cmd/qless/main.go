package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zia-ullah-khan/qless/internal/cache"
	"github.com/Zia-ullah-khan/qless/internal/config"
	qlesshttp "github.com/Zia-ullah-khan/qless/internal/http"
	"github.com/Zia-ullah-khan/qless/internal/idempotency"
	"github.com/Zia-ullah-khan/qless/internal/logger"
	"github.com/Zia-ullah-khan/qless/internal/metrics"
	"github.com/Zia-ullah-khan/qless/internal/payment"
	"github.com/Zia-ullah-khan/qless/internal/publisher"
	"github.com/Zia-ullah-khan/qless/internal/qrcode"
	"github.com/Zia-ullah-khan/qless/internal/repository"
	"github.com/Zia-ullah-khan/qless/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "qless",
		Usage:   "scan-and-go checkout backend",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "path to a dotenv file (defaults to ./.env when present)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return run(ctx, cfg)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("qless failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger.Setup(cfg.Log.Level)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	slog.Info("qless starting", "version", Version, "port", cfg.Server.Port)

	taxRate, err := cfg.TaxRate()
	if err != nil {
		return err
	}

	// Database setup
	db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			slog.Error("failed to disconnect from MongoDB", "error", err)
		}
	}()

	repos := repository.NewRepositories(db)
	if err := repos.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	slog.Info("connected to MongoDB", "database", cfg.Mongo.Database)

	// Redis backs the catalog cache and the idempotency store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	slog.Info("connected to Redis", "addr", cfg.Redis.Addr)

	catalogCache := cache.NewRedisCache(redisClient, cfg.Cache.TTL)
	idemStore := idempotency.NewRedisStore(redisClient, cfg.Idempotency.TTL)

	var gateway payment.Gateway
	switch cfg.Payment.Gateway {
	case "stripe":
		gateway = payment.NewStripeGateway(cfg.Payment.StripeSecretKey, cfg.Payment.StripePublishableKey)
	default:
		slog.Warn("using mock payment gateway")
		gateway = payment.NewMockGateway()
	}
	gateway = payment.NewBreakerGateway(gateway, "payment-"+cfg.Payment.Gateway, cfg.Payment.BreakerFailures, cfg.Payment.BreakerTimeout)

	// Services
	checkoutService := service.NewCheckoutService(repos.Stores, repos.Products, repos.Transactions, repos.Carts, repos.Outbox, taxRate)
	paymentService := service.NewPaymentService(repos.Transactions, repos.Outbox, gateway)
	transactionService := service.NewTransactionService(repos.Transactions)
	receiptService := service.NewReceiptService(repos.Transactions, repos.Receipts, repos.Outbox, qrcode.NewPNGRenderer(0), cfg.Receipt.TTL)
	verifierService := service.NewVerifierService(repos.Transactions, repos.Receipts, repos.Outbox)
	catalogService := service.NewCatalogService(repos.Stores, repos.Products, catalogCache)
	cartService := service.NewCartService(repos.Carts, repos.Products)

	serverMetrics := metrics.NewServerMetrics(prometheus.DefaultRegisterer, "api")

	timeout := cfg.Server.RequestTimeout
	router := qlesshttp.NewRouter(qlesshttp.Handlers{
		Checkout:    qlesshttp.NewCheckoutHandler(checkoutService, timeout),
		Payment:     qlesshttp.NewPaymentHandler(paymentService, idemStore, cfg.Payment.Currency, timeout),
		Transaction: qlesshttp.NewTransactionHandler(transactionService, receiptService, timeout),
		Verify:      qlesshttp.NewVerifyHandler(verifierService, serverMetrics, timeout),
		Catalog:     qlesshttp.NewCatalogHandler(catalogService, timeout),
		Cart:        qlesshttp.NewCartHandler(cartService, timeout),
		Admin:       qlesshttp.NewAdminHandler(catalogService, timeout),
		Health: qlesshttp.NewHealthHandler(func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		}, Version, timeout),
		Auth:         qlesshttp.NewAuthenticator(cfg.JWT.Secret),
		Metrics:      serverMetrics.Middleware,
		MetricsRoute: metrics.Handler(prometheus.DefaultGatherer),
	})

	// Outbox publisher
	pollCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	pollerDone := make(chan struct{})
	if cfg.KafkaEnabled() {
		poller := publisher.NewOutboxPoller(repos.Outbox, cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		go func() {
			defer close(pollerDone)
			poller.Run(pollCtx)
			if err := poller.Close(); err != nil {
				slog.Error("failed to close kafka writer", "error", err)
			}
		}()
		slog.Info("outbox publisher started", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	} else {
		close(pollerDone)
		slog.Warn("KAFKA_BROKERS not set, transaction events stay in the outbox")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("http server failed", "error", err)
		stopPoller()
		<-pollerDone
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	stopPoller()
	<-pollerDone

	slog.Info("qless stopped")
	return nil
}
