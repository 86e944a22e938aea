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

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application"
	appaudit "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/audit"
	appcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/catalog"
	appinventory "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/config"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/catalogseed"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/kafka"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/observability/zaplogger"
	orderworker "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/order/worker"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/presentation/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "minishop: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(baseLogger)
	logger := zaplogger.New(baseLogger)
	defer func() { _ = logger.Sync() }()

	systemLogger := zaplogger.New(logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}

	tel := infraobs.New(
		oteltrace.FromProvider(tp, cfg.ServiceName),
		logger,
		prometrics.New(nil, ""),
	)

	var (
		store application.Store
		ping  func(context.Context) error
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store, ping = pg, pg.Ping
		systemLogger.Info("store_selected", observability.F("store", "postgres"))
	} else {
		store = memory.NewStore()
		systemLogger.Info("store_selected", observability.F("store", "memory"))
	}

	idGenerator := id.NewUUIDGenerator()

	// In-process outbox; lifecycle events fan out after their transaction commits.
	bus := outbox.NewBus(tel)
	bus.Start(context.Background())

	if len(cfg.KafkaBrokers) > 0 {
		writer, err := kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer func() { _ = writer.Close() }()
		orderworker.New(bus, writer, tel).Start()
		systemLogger.Info("lifecycle_forwarding_enabled",
			observability.F("brokers", cfg.KafkaBrokers),
			observability.F("topic", writer.Topic()),
		)
	}

	recorder := appaudit.NewRecorder(store, idGenerator, tel)
	engine := apporder.NewEngine(apporder.Deps{
		Store:       store,
		IDGenerator: idGenerator,
		Ledger:      appinventory.NewLedger(tel),
		Audit:       recorder,
		Publisher:   bus,
		Tel:         tel,
	})

	simulator, err := payment.NewSimulator(cfg.PaymentSuccessRate, cfg.PaymentSeed)
	if err != nil {
		return err
	}
	settler := apppayment.NewSettleUseCase(simulator, engine, tel)

	carts := appcart.NewService(store, idGenerator, tel)
	catalog := appcatalog.NewService(store, idGenerator, recorder, tel)

	if cfg.CatalogSeedFile != "" {
		products, err := catalogseed.LoadFile(cfg.CatalogSeedFile)
		if err != nil {
			return err
		}
		n, err := catalog.Seed(ctx, products)
		if err != nil {
			return err
		}
		systemLogger.Info("catalog_seeded",
			observability.F("file", cfg.CatalogSeedFile),
			observability.F("inserted", n),
		)
	}

	handler := httppresentation.NewHandler(httppresentation.Deps{
		Orders:   engine,
		Payments: settler,
		Carts:    carts,
		Catalog:  catalog,
		Audit:    recorder,
		Ping:     ping,
		Tel:      tel,
	})
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			systemLogger.Error("http_server_error", observability.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.Err(err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		systemLogger.Warn("tracer_shutdown_error", observability.Err(err))
	}
	return nil
}
