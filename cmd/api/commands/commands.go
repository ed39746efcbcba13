package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mobilize/core/internal/adapters/repository"
	"github.com/mobilize/core/internal/application/services"
	"github.com/mobilize/core/internal/infrastructure/config"
	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/infrastructure/server"
)

// Build information, set with -ldflags at release time
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Mobilize API server",
		Long:  "Load the JSON store and serve the dashboard API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewAuthCommand creates the operator auth helpers
func NewAuthCommand() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Operator authentication helpers",
	}

	authCmd.AddCommand(&cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash to use as OPERATOR_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := services.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token signed with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			authService := services.NewAuthService(cfg.Auth, cfg.JWT, logger.NewNop())
			token, err := authService.IssueToken(subject)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}
	tokenCmd.Flags().String("subject", "cli", "Token subject")
	authCmd.AddCommand(tokenCmd)

	return authCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Mobilize version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mobilize %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", Commit)
		},
	}
}

func runServer(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()

	store, err := jsonstore.Open(ctx, cfg.Store.Path, jsonstore.Options{
		Fs:       afero.NewOsFs(),
		FileMode: cfg.Store.FileMode,
		Skeleton: repository.Skeleton,
		Logger:   appLogger,
		Metrics:  jsonstore.NewMetrics(registry),
	})
	if err != nil {
		appLogger.Fatalw("Failed to load store", "path", cfg.Store.Path, "error", err)
	}

	srv, err := server.New(cfg, store, registry, appLogger)
	if err != nil {
		_ = store.Close(context.Background())
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting Mobilize API server",
		"address", cfg.Server.Address(),
		"environment", cfg.App.Environment,
		"store", cfg.Store.Path,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Store.FlushTimeout)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		appLogger.Errorw("Store closed with unwritten mutations", "path", cfg.Store.Path, "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	appLogger.Infow("Server stopped")
	return runErr
}
