package main

import (
	"basket/internal/catalog"
	"basket/internal/config"
	"basket/internal/filter"
	"basket/internal/listing"
	"basket/internal/selector"
	"basket/internal/templates"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func runServer(cfg *config.Config, addr string) error {
	source, err := catalog.NewSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to create catalog source: %w", err)
	}
	store := catalog.NewStore(source, cfg.Catalog.TTL)

	handler, err := newHandler(cfg, store, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Serving Basket", "address", addr, "catalog", cfg.Catalog.URL, "mocks", cfg.Mocks.Enable)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		return gracefulShutdown(server)
	}
}

// newHandler wires every screen and API onto one mux behind the middleware.
func newHandler(cfg *config.Config, store *catalog.Store, reg *prometheus.Registry) (http.Handler, error) {
	if err := templates.Init(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	policy, err := selector.ParsePolicy(cfg.Selection.Policy)
	if err != nil {
		return nil, err
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		catalogProducts(store),
	)

	mux := http.NewServeMux()
	store.Register(mux)
	selector.NewServer(store, policy).Register(mux)
	listing.NewServer(store, cfg.Catalog.ImageBaseURL, filter.Options{
		HighlightPricing: cfg.Selection.HighlightPricing,
	}).Register(mux)

	ro := &readyOnce{}
	ro.Add(store)
	mux.Handle("GET /ready", ro)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return WithMiddleware(mux, reg), nil
}

// catalogProducts reports the size of the cached catalog, or 0 before the
// first fetch.
func catalogProducts(store *catalog.Store) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "basket_catalog_products",
		Help: "Number of products in the cached catalog.",
	}, func() float64 {
		cat, ok := store.Cached()
		if !ok {
			return 0
		}
		return float64(len(cat.Products))
	})
}

func gracefulShutdown(svr *http.Server) error {
	// Give outstanding requests 25 seconds to complete (kubernetes has 30 second grace period)
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	slog.Info("Server stopped")
	return nil
}
