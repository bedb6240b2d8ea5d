package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rook-computer/epaper/internal/config"
	"github.com/rook-computer/epaper/internal/gateway"
	"github.com/rook-computer/epaper/internal/store"
	"github.com/rook-computer/epaper/internal/web"
)

// App is the server process: blob store, gateway and HTTP surface.
type App struct {
	Config   *config.Config
	Logger   Logger
	Registry *prometheus.Registry

	// Addr is the bound listen address once Start has returned.
	Addr string

	blobs  store.BlobStore
	server *web.HTTPServer
}

func New(cfg *config.Config, logger Logger) *App {
	if logger == nil {
		logger = NoopLogger{}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &App{Config: cfg, Logger: logger, Registry: reg}
}

// Start opens the store and binds the HTTP server. It returns once the
// server is accepting connections.
func (app *App) Start(ctx context.Context) error {
	if app.server != nil {
		return errors.New("app already started")
	}
	cfg := app.Config

	blobs, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	app.blobs = blobs
	app.Logger.Infof("app", "store driver %s, key %q", cfg.Store.Driver, cfg.Store.Key)

	gw := gateway.New(blobs, gateway.WithKey(cfg.Store.Key), gateway.WithRegisterer(app.Registry))
	handler := web.NewHandler(cfg.ServerConfig(), web.Deps{
		Gateway:    gw,
		Logger:     app.Logger,
		Registerer: app.Registry,
		Gatherer:   app.Registry,
	})

	app.server = web.NewHTTPServer(cfg.Listen, handler)
	app.server.Logger = app.Logger
	if err := app.server.Start(ctx); err != nil {
		_ = blobs.Close()
		app.blobs = nil
		return err
	}
	app.Addr = app.server.ListenAddr()
	return nil
}

// Run starts the app and blocks until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	if err := app.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return app.Stop()
}

func (app *App) Stop() error {
	var firstErr error
	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			firstErr = err
		}
	}
	if app.blobs != nil {
		if err := app.blobs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		app.blobs = nil
	}
	return firstErr
}
