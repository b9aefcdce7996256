package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"litany/internal/config"
	"litany/internal/daemon"
	"litany/internal/logging"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run() error {
	var configFlag string
	flag.StringVar(&configFlag, "config", "", "configuration file path")
	flag.Parse()

	cfg, path, existed, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintf(os.Stderr, "no configuration file found, using defaults (looked at %s)\n", path)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	d.Stop()
	return nil
}
