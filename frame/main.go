// Command frame is the device-side consumer: it polls an epaper server with
// conditional requests and shows each new frame on a framebuffer or PNG file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/rook-computer/epaper/internal/app"
	"github.com/rook-computer/epaper/internal/client"
	"github.com/rook-computer/epaper/internal/display"
	"github.com/rook-computer/epaper/internal/render"
	"github.com/rook-computer/epaper/internal/state"
)

func main() {
	fs := pflag.NewFlagSet("frame", pflag.ContinueOnError)
	server := fs.String("server", envOr("EPAPER_SERVER", "http://127.0.0.1:8080"), "epaper server base URL (env EPAPER_SERVER)")
	interval := fs.Duration("interval", display.DefaultInterval, "poll interval")
	sinkName := fs.String("sink", "png", "output: fb | png")
	out := fs.String("out", "frame.png", "PNG path for --sink png")
	fbDevice := fs.String("fb", "/dev/fb0", "framebuffer device for --sink fb")
	placeholderURL := fs.String("placeholder-url", "", "URL encoded as a QR code on the empty screen (defaults to --server)")
	once := fs.Bool("once", false, "poll a single time and exit")
	logLevel := fs.String("log-level", "info", "log level")
	logFormat := fs.String("log-format", "text", "log format (text, json)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}

	logger, err := app.NewLogrusLogger(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(2)
	}

	c, err := client.NewClient(*server, client.WithUserAgent("epaper-frame/1.0"))
	if err != nil {
		logger.Errorf("main", "%v", err)
		os.Exit(2)
	}

	var sink display.Sink
	switch *sinkName {
	case "fb":
		sink, err = display.OpenFramebuffer(*fbDevice, logger)
	case "png":
		sink, err = display.NewPNGSink(*out)
	default:
		err = fmt.Errorf("unknown sink %q", *sinkName)
	}
	if err != nil {
		logger.Errorf("main", "sink: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Errorf("main", "sink close: %v", err)
		}
	}()

	qr := *placeholderURL
	if qr == "" {
		qr = *server
	}
	store := state.NewStore()
	poller := &display.Poller{
		Client:   c,
		Sink:     sink,
		State:    store,
		Logger:   logger,
		Interval: *interval,
		Placeholder: render.PlaceholderOptions{
			Title:     "No image yet",
			Subtitle:  "Upload one at " + *server,
			QRPayload: qr,
		},
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := poller.PollOnce(processCtx); err != nil {
			logger.Errorf("main", "poll failed: %v", err)
			os.Exit(1)
		}
		snap := store.Snapshot()
		logger.Infof("main", "phase=%s etag=%s", snap.Phase, snap.ETag)
		return
	}

	logger.Infof("main", "polling %s every %s", *server, interval.Round(time.Millisecond))
	_ = poller.Run(processCtx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
