package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/rook-computer/epaper/internal/app"
	"github.com/rook-computer/epaper/internal/config"
)

func main() {
	fs := pflag.NewFlagSet("epaper", pflag.ContinueOnError)
	cfg, err := config.Load(fs, os.Args[1:], os.LookupEnv)
	if err == pflag.ErrHelp {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable on headless appliances.
	if cfg.Log.StdioPath != "" {
		if err := redirectStdIO(cfg.Log.StdioPath); err != nil {
			fmt.Fprintln(os.Stderr, "stdio log redirect error:", err)
		}
	}

	logger, err := app.NewLogrusLogger(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(2)
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	if err := a.Start(processCtx); err != nil {
		logger.Errorf("main", "start failed: %v", err)
		os.Exit(1)
	}
	logger.Infof("main", "epaper server listening on %s (etags=%t)", a.Addr, cfg.ETags)

	<-processCtx.Done()
	logger.Infof("main", "shutting down")
	if err := a.Stop(); err != nil {
		logger.Errorf("main", "stop failed: %v", err)
	}
}
