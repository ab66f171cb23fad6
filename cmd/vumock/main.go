package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fabricadesoftware/vumock"
	"github.com/fabricadesoftware/vumock/internal/config"
	"github.com/fabricadesoftware/vumock/internal/domain"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vumock",
	Short: "In-memory double of the Vuforia Web Services API",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mock over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Print a fresh set of database credentials",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DATABASE_NAME=%s\n", domain.RandomHex())
		fmt.Printf("SERVER_ACCESS_KEY=%s\n", domain.RandomHex())
		fmt.Printf("SERVER_SECRET_KEY=%s\n", domain.RandomHex())
		fmt.Printf("CLIENT_ACCESS_KEY=%s\n", domain.RandomHex())
		fmt.Printf("CLIENT_SECRET_KEY=%s\n", domain.RandomHex())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(genkeyCmd)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	mock := vumock.New(
		vumock.WithProcessingDelay(cfg.ProcessingDelay),
		vumock.WithDeletionWindow(cfg.DeletionWindow),
		vumock.WithLogger(logger),
	)

	db := mock.AddDatabase(vumock.Database{
		Name:            cfg.DatabaseName,
		ServerAccessKey: cfg.ServerAccessKey,
		ServerSecretKey: cfg.ServerSecretKey,
		ClientAccessKey: cfg.ClientAccessKey,
		ClientSecretKey: cfg.ClientSecretKey,
	})

	logger.Info("starting vumock",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("database", db.Name),
		slog.String("server_access_key", db.ServerAccessKey),
		slog.String("client_access_key", db.ClientAccessKey),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := mock.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := mock.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
