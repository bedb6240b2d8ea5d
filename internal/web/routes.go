package web

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rook-computer/epaper/internal/gateway"
)

// FrameGateway is the slot the API reads and writes.
type FrameGateway interface {
	Store(ctx context.Context, data []byte) (gateway.StoreResult, error)
	Retrieve(ctx context.Context, clientTag string) (gateway.RetrieveResult, error)
	ExpectedSize() int
}

type Deps struct {
	Gateway FrameGateway
	Logger  sysLogger

	// Registerer receives the HTTP metrics; Gatherer backs /metrics. Both
	// default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = noopLogger{}
	}
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	return d
}

// NewHandler builds the full HTTP surface:
// - /api/* for upload, convert and fetch
// - /metrics and /healthz
// - / for the web UI
func NewHandler(cfg ServerConfig, deps Deps) http.Handler {
	deps = deps.withDefaults()
	api := &apiHandlers{cfg: cfg, gateway: deps.Gateway, logger: deps.Logger}
	mw := newMiddleware(deps.Logger, deps.Registerer)

	mux := http.NewServeMux()
	mux.Handle("/api/upload", mw.wrap("upload", http.HandlerFunc(api.handleUpload)))
	mux.Handle("/api/convert", mw.wrap("convert", http.HandlerFunc(api.handleConvert)))
	mux.Handle("/api/image", mw.wrap("image", http.HandlerFunc(api.handleImage)))
	mux.Handle("/api/image.png", mw.wrap("image_png", http.HandlerFunc(api.handlePreview)))
	mux.Handle("/api/", mw.wrap("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusNotFound, "not_found", "not found")
	})))
	mux.Handle("/healthz", mw.wrap("healthz", http.HandlerFunc(handleHealthz)))
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/", mw.wrap("static", StaticUIHandler(cfg.StaticDir)))

	var handler http.Handler = mux
	if cfg.DevMode {
		handler = WithDevCORS(handler)
	}
	return handler
}
