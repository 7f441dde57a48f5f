package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/BartekS5/irisetl/internal/cli"
	"github.com/BartekS5/irisetl/pkg/logger"
)

func main() {
	logger.Init()
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Err(err).Msg("irisetl failed")
		logger.Close()
		stop()
		os.Exit(1)
	}
}
