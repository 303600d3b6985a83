package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/meetups/internal/config"
	"github.com/geocoder89/meetups/internal/db"
	httpx "github.com/geocoder89/meetups/internal/http"
	"github.com/geocoder89/meetups/internal/http/handlers"
	"github.com/geocoder89/meetups/internal/observability"
	"github.com/geocoder89/meetups/internal/repo/memory"
	"github.com/geocoder89/meetups/internal/repo/postgres"
	"github.com/geocoder89/meetups/internal/repo/sqlite"
	"github.com/geocoder89/meetups/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// stores is the wiring chosen by STORE_DRIVER.
type stores struct {
	events        service.EventStore
	registrations service.RegistrationStore
	ping          handlers.PingFunc
	close         func()
}

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.ServiceName)
	slog.SetDefault(log)

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OTLPEndpoint,
			SampleRatio: cfg.TraceSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			tctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(tctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer st.close()

	rejections := service.WithRejectionRecorder(prom)
	events := service.NewEventService(st.events, st.registrations, log, rejections)
	registrations := service.NewRegistrationService(st.registrations, events, log, rejections)

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Events:        events,
		Registrations: registrations,
		Ping:          st.ping,
		Prom:          prom,
		Gatherer:      reg,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)

		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("server shutting down")
	case err := <-serverErr:
		log.Error("server failed", "err", err)
	}

	sctx, cancel := config.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom) (stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, AppName: cfg.ServiceName})
		if err != nil {
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}

		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("migrate postgres: %w", err)
		}

		events := postgres.NewEventsRepo(pool, prom)

		return stores{
			events:        events,
			registrations: postgres.NewRegistrationsRepo(pool, prom),
			ping:          events.Ping,
			close:         pool.Close,
		}, nil

	case config.StoreSQLite:
		conn, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return stores{}, err
		}

		events := sqlite.NewEventsRepo(conn, prom)

		return stores{
			events:        events,
			registrations: sqlite.NewRegistrationsRepo(conn, prom),
			ping:          events.Ping,
			close:         func() { _ = conn.Close() },
		}, nil

	default:
		events := memory.NewEventsRepo()

		return stores{
			events:        events,
			registrations: memory.NewRegistrationsRepo(events),
			ping:          events.Ping,
			close:         func() {},
		}, nil
	}
}
