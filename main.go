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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"

	"github.com/Zhima-Mochi/storefront/internal/application"
	appauth "github.com/Zhima-Mochi/storefront/internal/application/auth"
	appcart "github.com/Zhima-Mochi/storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	"github.com/Zhima-Mochi/storefront/internal/config"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/kafka"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/mongo"
	infraobs "github.com/Zhima-Mochi/storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	httppresentation "github.com/Zhima-Mochi/storefront/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/storefront/internal/presentation/worker"
)

const shutdownTimeout = 10 * time.Second

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}

// store is what the rest of main needs from either backend.
type store interface {
	application.Transactor
	Repositories() application.Repositories
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zaplogger.New(zaplogger.Options{LogFile: cfg.LogFile, Debug: cfg.Env == "dev"},
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	systemLog := logger.With(observability.F("component", "main"))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms := prometrics.Standard(prometrics.New(promReg, "", ""))

	tel := infraobs.New(
		infraobs.WithLogger(logger),
		infraobs.WithTracer(oteltrace.New(cfg.ServiceName, version)),
		infraobs.WithCounters(counters),
		infraobs.WithHistograms(histograms),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		st     store
		health func(context.Context) error
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		ms, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = ms.Close(context.Background()) }()
		st, health = ms, ms.Ping
	default:
		st = memory.NewStore()
	}
	systemLog.Info("store_ready", observability.F("driver", cfg.StoreDriver))

	var cache domcatalog.Cache
	if cfg.RedisAddr != "" {
		rc, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()
		cache = redis.NewProductCache(rc, cfg.ProductCacheTTL)
		systemLog.Info("product_cache_ready", observability.F("addr", cfg.RedisAddr))
	}

	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewJWT(cfg.JWTSecret, cfg.JWTExpire, cfg.ServiceName)
	if err != nil {
		return err
	}
	ids := id.NewUUIDGenerator()
	repos := st.Repositories()

	bus := outbox.NewBus(tel)

	authSvc := appauth.NewService(repos.Users, hasher, tokens, tokens, ids, tel,
		appauth.WithAdminEmails(cfg.AdminEmails...),
	)
	catalogSvc := appcatalog.NewService(repos.Products, st, cache, ids, tel)
	services := httppresentation.Services{
		Auth:        authSvc,
		Catalog:     catalogSvc,
		Cart:        appcart.NewService(st, tel),
		CreateOrder: apporder.NewCreateOrderUseCase(st, ids, bus, tel),
		CancelOrder: apporder.NewCancelOrderUseCase(st, bus, tel),
		Orders:      apporder.NewQueryUseCase(repos.Orders, tel),
		OrderStatus: apporder.NewUpdateStatusUseCase(st, bus, tel),
	}

	if cache != nil {
		appcatalog.NewWorker(catalogSvc, tel).Start(workerpresentation.NewSubscriber(bus, "catalog-cache", tel))
	}
	if len(cfg.KafkaBrokers) > 0 {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = w.Close() }()
		kafka.NewForwarder(w, cfg.KafkaTopic, tel).Start(workerpresentation.NewSubscriber(bus, "kafka-forwarder", tel))
		systemLog.Info("kafka_forwarder_ready", observability.F("topic", cfg.KafkaTopic))
	}
	bus.Start(ctx)

	handler := httppresentation.NewHandler(services, httppresentation.Config{
		ServiceName:    cfg.ServiceName,
		Environment:    cfg.Env,
		AllowedOrigin:  cfg.FrontendURL,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}),
		Health:         health,
	}, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		systemLog.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := bus.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("event bus drain: %w", err))
		}
		systemLog.Info("http_server_stopped")
		return errors.Join(errs...)
	})

	err = g.Wait()
	if err != nil {
		systemLog.Error("shutdown_error", observability.Err(err))
	}
	return err
}
