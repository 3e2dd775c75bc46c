package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-modelform/internal/app"
	"github.com/goliatone/go-modelform/internal/config"
)

func main() {
	seed := flag.String("seed", "", "YAML or JSON file with records to load into the memory store")
	flag.Parse()

	if err := run(*seed); err != nil {
		fmt.Fprintf(os.Stderr, "modelform-server: %v\n", err)
		os.Exit(1)
	}
}

func run(seed string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	if seed != "" {
		if err := a.SeedFile(seed); err != nil {
			return err
		}
	}

	srv, err := a.Server(cfg.Server)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr())
}
