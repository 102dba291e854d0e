package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/thisisjab/herdcomp/api"
	"github.com/thisisjab/herdcomp/autocomplete"
	"github.com/thisisjab/herdcomp/config"
	"gopkg.in/yaml.v3"
)

func main() {
	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "./.config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "optional dotenv file with secrets")
	flag.Parse()

	// A missing dotenv file is fine, the environment may already be set.
	_ = godotenv.Load(*envPath)

	fileContent, err := os.ReadFile(*cfgPath)
	if err != nil {
		panic(fmt.Errorf("cannot read config file content: %w", err))
	}

	cfg := config.Default()
	if err := yaml.Unmarshal(fileContent, &cfg); err != nil {
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}
	cfg.ApplyEnv()

	components, logger, err := cfg.Parse()
	if err != nil {
		if logger != nil {
			logger.Error("cannot parse config file", "error", err)
			os.Exit(1)
		}
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}
	defer components.Storage.Close(context.WithoutCancel(ctx)) //nolint:errcheck

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Error("server panic", "error", r)
		}
	}()

	if err := components.Storage.Connect(ctx); err != nil {
		logger.Error("storage error.", "storage", components.Storage.Name(), "error", err)
		os.Exit(1)
	}

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	server, err := api.NewServer(cfg.API, logger, api.Services{
		Executor:     components.Executor,
		Autocomplete: autocomplete.New(),
		Metrics:      components.Metrics,
		Storage:      components.Storage,
		Gatherer:     components.Registry,
	})
	if err != nil {
		logger.Error("server error.", "error", err)
		os.Exit(1)
	}

	if err := server.Serve(ctx); err != nil {
		logger.Error("server error.", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("server stopped.")
}
