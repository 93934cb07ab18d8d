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

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "storefront/docs"
	"storefront/pkg/api"
	"storefront/pkg/cart"
	"storefront/pkg/config"
	"storefront/pkg/events"
	"storefront/pkg/logger"
	"storefront/pkg/order"
	"storefront/pkg/otel"
	"storefront/pkg/postgres"
	"storefront/pkg/session"
)

const (
	serviceName     = "storefront"
	publisherPool   = 4
	readHeaderLimit = 5 * time.Second
)

// @title Storefront API
// @version 1.0
// @description Catalog, cart and order placement
// @host localhost:8443
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), serviceName, otel.GetTraceID)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{ServiceName: serviceName, Host: cfg.OTELHost, Probability: 1.0})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	db, err := postgres.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	repo := postgres.New(db)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	var pub order.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL, events.QueueOrdersPlaced, publisherPool, log)
		if err != nil {
			return err
		}
		defer p.Close()
		pub = p
	} else {
		log.Warn(ctx, "AMQP_URL not set, order events disabled")
	}

	srv := api.New(api.Config{
		Orders:   order.NewService(repo, pub, log, cfg.TxTimeout),
		Carts:    cart.NewService(repo, repo, log),
		Ledger:   repo,
		Sessions: session.NewStore(rdb, cfg.SessionTTL),
		Health:   repo,
		Log:      log,
		Tracer:   tp.Tracer(serviceName),
	})
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: readHeaderLimit,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "listening", "addr", cfg.Addr, "tls", cfg.TLSCert != "")
		var err error
		if cfg.TLSCert != "" {
			err = httpSrv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info(sctx, "shutting down")
		return httpSrv.Shutdown(sctx)
	})
	return g.Wait()
}
