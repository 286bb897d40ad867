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

	"github.com/julienschmidt/httprouter"

	"github.com/mideind/straeto/internal/app"
	"github.com/mideind/straeto/internal/appconf"
	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/logging"
	"github.com/mideind/straeto/internal/metrics"
	"github.com/mideind/straeto/internal/publisher"
	"github.com/mideind/straeto/internal/realtime"
	"github.com/mideind/straeto/internal/restapi"
	"github.com/mideind/straeto/internal/webui"
)

func main() {
	cfg, err := appconf.Load(os.Args[1:], nil, ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func run(cfg appconf.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(cfg.FeedRefreshInterval)

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithLocation(loc),
		engine.WithAreaPriority(cfg.AreaPriority),
		engine.WithRecorder(collector),
	}
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger, collector)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer pub.Close()
		opts = append(opts, engine.WithNotifier(reloadPublisher(pub)))
	}
	e := engine.New(opts...)

	refresher := engine.NewRefresher(e, engine.RefresherConfig{
		Source:    cfg.FeedSource,
		CachePath: cfg.FeedCachePath,
		Interval:  cfg.FeedRefreshInterval,
	}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := refresher.Refresh(ctx); err != nil {
		// Start retries with backoff; queries answer 503 until a feed loads.
		logging.LogError(logger, "initial feed load failed", err, slog.String("source", cfg.FeedSource))
	}
	cancel()
	refresher.Start()
	defer refresher.Shutdown()

	application := &app.Application{
		Config:    cfg,
		Logger:    logger,
		Engine:    e,
		Refresher: refresher,
		Metrics:   collector,
	}

	if cfg.VehiclePositionsURL != "" {
		tracker := realtime.NewTracker(realtime.Config{
			VehiclePositionsURL: cfg.VehiclePositionsURL,
			AuthHeaderKey:       cfg.RealTimeAuthHeaderKey,
			AuthHeaderValue:     cfg.RealTimeAuthHeaderValue,
			Interval:            cfg.RealTimeInterval,
			OnUpdate:            collector.VehiclesSet,
		}, nil, logger)
		tracker.Start()
		defer tracker.Shutdown()
		application.Tracker = tracker
	}

	if cfg.MetricsAddr != "" {
		metricsSrv := collector.Serve(cfg.MetricsAddr, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(ctx)
		}()
	}

	api := restapi.NewRestAPI(application)

	var extra []func(*httprouter.Router)
	if cfg.Env != appconf.Production {
		debug := &webui.WebUI{Engine: e, Tracker: application.Tracker}
		extra = append(extra, debug.SetWebUIRoutes)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(extra...),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		logging.LogOperation(logger, "shutting_down_server", slog.String("signal", s.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctx)
	}()

	logging.LogOperation(logger, "starting_server",
		slog.String("addr", srv.Addr),
		slog.String("env", cfg.Env.String()))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	logging.LogOperation(logger, "stopped_server", slog.String("addr", srv.Addr))
	return nil
}

// reloadPublisher announces installed snapshots on NATS.
func reloadPublisher(pub *publisher.NATSPublisher) engine.NotifierFunc {
	return func(info engine.Info) {
		_ = pub.PublishReload(publisher.ReloadMessage{
			Source:    info.Source,
			BuiltAt:   info.BuiltAt,
			Stops:     info.Stops,
			Routes:    info.Routes,
			Trips:     info.Trips,
			Halts:     info.Halts,
			Dropped:   info.Dropped,
			ElapsedMs: info.Elapsed.Milliseconds(),
		})
	}
}
