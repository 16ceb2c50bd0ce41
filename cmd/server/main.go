package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/postboy/internal/crypto"
	"github.com/iudanet/postboy/internal/logger"
	"github.com/iudanet/postboy/internal/server"
	"github.com/iudanet/postboy/internal/server/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	showVersion := flag.Bool("version", false, "Show version information")
	generateKey := flag.Bool("generate-key", false, "Print a new API key and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *generateKey {
		key, err := crypto.GenerateAPIKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(key)
		os.Exit(0)
	}

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Env, cfg.LogLevel, os.Stderr)
	log.Info("Postboy server starting", "version", Version, "env", cfg.Env, "db", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	if err := srv.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}

func printVersion() {
	fmt.Printf("Postboy Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
