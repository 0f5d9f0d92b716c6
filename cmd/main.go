package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"go-pickup-feed/internal/application/facade"
	"go-pickup-feed/internal/infrastructure/config"
	"go-pickup-feed/internal/infrastructure/hub"
	"go-pickup-feed/internal/infrastructure/logger"
	"go-pickup-feed/internal/infrastructure/server"
)

func main() {
	ctx := context.Background()
	sctx := WithSignal(ctx)

	cfg, err := config.Load(os.Getenv("PICKUP_CONFIG"))
	if err != nil {
		fallback := logger.NewLogrusLogger(logger.NewDefaultConfig())
		fallback.Fatalf("failed to load configuration: %v", err)
	}

	log := logger.NewLogrusLogger(loggerConfig(cfg))

	hubInstance := hub.New(log, hub.Config{
		SendTimeout: cfg.Hub.SendTimeout,
		Locations:   cfg.Hub.PickupLocations,
	})
	feedService := facade.NewFeedApplicationService(hubInstance, log)

	router := InitRouter(cfg, hubInstance, feedService, log)
	httpSrv := server.NewHTTPServer(cfg.Server, router)
	app := newApplication(log, httpSrv, hubInstance)
	if err := app.Run(sctx); err != nil {
		log.Errorf("failed to run application: %v", err)
	}
}

type Application struct {
	logger  logger.Logger
	httpSrv server.Server
	hub     *hub.Hub
}

func newApplication(
	log logger.Logger,
	httpSrv *server.HTTPServer,
	hubInstance *hub.Hub,
) *Application {
	return &Application{
		logger:  log.WithField("app", "pickup-feed"),
		httpSrv: httpSrv,
		hub:     hubInstance,
	}
}

func (app *Application) Run(ctx context.Context) error {
	eg := errgroup.Group{}

	eg.Go(func() error {
		return app.httpSrv.Start(ctx)
	})

	eg.Go(func() error {
		<-ctx.Done()

		gracefulShutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer cancel()

		// Closing the hub first unblocks every connection handler so
		// the HTTP server can drain.
		app.hub.Stop()

		return app.httpSrv.Stop(gracefulShutdownCtx)
	})

	return eg.Wait()
}

func loggerConfig(cfg *config.Config) *logger.Config {
	lc := logger.NewDefaultConfig()
	lc.Level = logger.ParseLevel(cfg.Log.Level)
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		lc.Output = cfg.Log.Output
	}
	lc.FilePath = cfg.Log.FilePath
	if cfg.Log.MaxSize > 0 {
		lc.MaxSize = cfg.Log.MaxSize
	}
	if cfg.Log.MaxBackups > 0 {
		lc.MaxBackups = cfg.Log.MaxBackups
	}
	if cfg.Log.MaxAge > 0 {
		lc.MaxAge = cfg.Log.MaxAge
	}
	lc.Compress = cfg.Log.Compress
	return lc
}

func WithSignal(pctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(pctx)

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

		<-sigc

		cancel()
	}()

	return ctx
}
