package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"todoManagement/internal/app"
	"todoManagement/internal/config"
)

func main() {
	dev := flag.Bool("dev", false, "fall back to a development JWT secret when JWT_SECRET is unset")
	flag.Parse()

	// Load configuration
	load := config.Load
	if *dev {
		load = config.LoadWithDefaults
	}
	cfg, err := load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log, os.Stdout)
	logger.Info("configuration loaded",
		"app", cfg.App.Name,
		"version", cfg.App.Version,
		"db_driver", cfg.Database.Driver,
		"http_addr", cfg.HTTP.Address,
		"grpc_addr", cfg.GRPC.Address,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("init app", "err", err)
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		logger.Error("run app", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
