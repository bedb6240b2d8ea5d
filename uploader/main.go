// Command uploader converts an image into a packed frame and sends it to an
// epaper server.
package main

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/rook-computer/epaper/internal/client"
	"github.com/rook-computer/epaper/internal/render"
)

type options struct {
	server     string
	fit        string
	preview    string
	serverSide bool
	dryRun     bool
	timeout    time.Duration
}

func main() {
	var opts options
	fs := pflag.NewFlagSet("uploader", pflag.ContinueOnError)
	fs.StringVar(&opts.server, "server", envOr("EPAPER_SERVER", "http://127.0.0.1:8080"), "epaper server base URL (env EPAPER_SERVER)")
	fs.StringVar(&opts.fit, "fit", "contain", "fit mode: contain | cover | fill")
	fs.StringVar(&opts.preview, "preview", "", "also write the dithered frame to this PNG file")
	fs.BoolVar(&opts.serverSide, "server-side", false, "send the original image and let the server convert it")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "convert only, do not upload")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: uploader [flags] IMAGE")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "uploader:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, path string) error {
	mode, err := render.ParseFitMode(opts.fit)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read image")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	if opts.serverSide {
		if opts.dryRun {
			return errors.New("--dry-run has nothing to do with --server-side")
		}
		c, err := client.NewClient(opts.server)
		if err != nil {
			return err
		}
		res, err := c.Convert(ctx, bytes.NewReader(raw), contentTypeFor(path), mode)
		if err != nil {
			return err
		}
		report(res)
		return nil
	}

	src, format, err := render.Decode(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	frame, err := render.Process(src, mode)
	if err != nil {
		return err
	}
	fmt.Printf("converted %s %v -> %d bytes (fit=%s)\n", format, src.Bounds().Size(), len(frame.Packed), mode)

	if opts.preview != "" {
		if err := writePreview(opts.preview, frame); err != nil {
			return err
		}
		fmt.Println("preview written to", opts.preview)
	}
	if opts.dryRun {
		return nil
	}

	c, err := client.NewClient(opts.server)
	if err != nil {
		return err
	}
	res, err := c.Upload(ctx, frame.Packed)
	if err != nil {
		return err
	}
	report(res)
	return nil
}

func writePreview(path string, frame render.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create preview")
	}
	err = render.EncodePreviewPNG(f, frame.Mono)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return errors.Wrap(err, "write preview")
}

func report(res client.UploadResult) {
	if res.ETag != "" {
		fmt.Println("stored", res.ETag)
		return
	}
	fmt.Println("stored")
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
