// Package app wires the register core together: embedded store, serialized
// write queues, session manager, checkout service and scanner, plus health
// endpoints for the process supervisor. There is no request surface beyond
// health; UI frontends embed the services directly.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tillworks/posledger/internal/checkout"
	"github.com/tillworks/posledger/internal/domain/customer"
	"github.com/tillworks/posledger/internal/domain/product"
	"github.com/tillworks/posledger/internal/domain/user"
	"github.com/tillworks/posledger/internal/report"
	"github.com/tillworks/posledger/internal/scan"
	"github.com/tillworks/posledger/internal/session"
	"github.com/tillworks/posledger/internal/storage/sqlite"
	"github.com/tillworks/posledger/internal/worker"
	"github.com/tillworks/posledger/pkg/health"
)

// Core bundles the wired services for an embedding frontend. The lookup
// repositories back the frontend's catalog, customer and clerk pickers.
type Core struct {
	Sessions *session.Manager
	Checkout *checkout.Service
	Scanner  *scan.Resolver
	Reports  *report.Service

	Products  product.Repository
	Customers customer.Repository
	Users     user.Repository
}

// Run creates all dependencies and blocks until ctx is cancelled. It is the
// single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Metrics, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("db_path", cfg.DBPath),
		zap.String("health_addr", cfg.HealthAddr),
		zap.String("store_name", cfg.StoreName))

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() { _ = store.Close() }()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("sqlite", 5*time.Second, store.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()

	// One serialized write queue per store-facing collaborator.
	ordersQueue := worker.NewSerial("orders", cfg.Queue.Buffer, lg)
	productsQueue := worker.NewSerial("products", cfg.Queue.Buffer, lg)

	orderRepo := worker.SerializeOrders(sqlite.NewOrderRepository(store), ordersQueue)
	productRepo := worker.SerializeProducts(sqlite.NewProductRepository(store), productsQueue)

	// Core services.
	sessions := session.NewManager(lg)
	sessions.NewSession(cfg.ClerkID)

	checkoutSvc := checkout.NewService(sessions, orderRepo, lg,
		checkout.WithTxRunner(store),
		checkout.WithMeterProvider(m.MeterProvider()),
		checkout.WithTracerProvider(m.TracerProvider()),
	)
	resolver := scan.NewResolver(productRepo, checkoutSvc, lg)
	reports := report.NewService(orderRepo, lg)

	core := &Core{
		Sessions:  sessions,
		Checkout:  checkoutSvc,
		Scanner:   resolver,
		Reports:   reports,
		Products:  productRepo,
		Customers: sqlite.NewCustomerRepository(store),
		Users:     sqlite.NewUserRepository(store),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ordersQueue.Run(ctx) })
	g.Go(func() error { return productsQueue.Run(ctx) })

	g.Go(func() error {
		if err := core.Scanner.WarmFilter(ctx); err != nil {
			// A cold filter only costs extra lookups; keep starting.
			lg.Warn("warm barcode filter", zap.Error(err))
		}
		healthSvc.SetReady(true)
		lg.Info("Register core ready",
			zap.String("session", core.Sessions.Current().ID().String()))
		return nil
	})

	// Health endpoints.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	server := &http.Server{
		Addr:              cfg.HealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: time.Second,
	}

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "health server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Health server shutdown", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
