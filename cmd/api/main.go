package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"localbazaar/internal/config"
	"localbazaar/internal/db"
	"localbazaar/internal/events"
	"localbazaar/internal/httpserver"
	"localbazaar/internal/logging"
	accountrepo "localbazaar/internal/repository/account"
	cartrepo "localbazaar/internal/repository/cart"
	categoryrepo "localbazaar/internal/repository/category"
	orderrepo "localbazaar/internal/repository/order"
	productrepo "localbazaar/internal/repository/product"
	shoprepo "localbazaar/internal/repository/shop"
	tokenrepo "localbazaar/internal/repository/token"
	accountsvc "localbazaar/internal/service/account"
	cartsvc "localbazaar/internal/service/cart"
	catalogsvc "localbazaar/internal/service/catalog"
	"localbazaar/internal/service/inventory"
	ordersvc "localbazaar/internal/service/order"
	sellersvc "localbazaar/internal/service/seller"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, "api")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer pool.Close()

	carts, closeCarts, err := cartStore(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}
	defer closeCarts()

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close publisher", zap.Error(err))
		}
	}()

	tx := db.NewTxRunner(pool)
	products := productrepo.NewPostgres(pool, logger)
	shops := shoprepo.NewPostgres(pool, logger)
	categories := categoryrepo.NewPostgres(pool)
	orders := orderrepo.NewPostgres(pool, logger)

	stock := inventory.New(products, logger)
	catalog := catalogsvc.New(products, shops, categories, logger)
	cartService := cartsvc.New(carts, catalog, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, pool, httpserver.Deps{
		Accounts: accountsvc.New(accountrepo.NewPostgres(pool, logger), tokenrepo.NewPostgres(pool), cfg.TokenTTL, logger),
		Catalog:  catalog,
		Carts:    cartService,
		Orders:   ordersvc.New(orders, cartService, stock, tx, publisher, logger),
		Sellers: sellersvc.New(sellersvc.Deps{
			Shops:             shops,
			Products:          products,
			Categories:        categories,
			Stock:             stock,
			Sales:             orders,
			Tx:                tx,
			LowStockThreshold: cfg.LowStockThreshold,
		}, logger),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Version:        version,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func cartStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (cartrepo.Repository, func(), error) {
	if cfg.CartStore != config.CartStoreRedis {
		return cartrepo.NewPostgres(pool), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("carts stored in redis", zap.String("addr", cfg.RedisAddr))
	return cartrepo.NewRedis(client, cfg.CartTTL), func() { _ = client.Close() }, nil
}

func newPublisher(cfg config.Config, logger *zap.Logger) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsKafka:
		return events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	case config.EventsRabbitMQ:
		return events.NewRabbitMQ(cfg.AMQPURL, cfg.AMQPQueue, logger)
	}
	return events.Nop{}, nil
}
