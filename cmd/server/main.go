package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/scheduler"
	"github.com/webermont/LeiaMais/internal/seed"
)

var version = "dev"

var (
	seedFile string

	rootCmd = &cobra.Command{
		Use:           "leiamais",
		Short:         "LeiaMais is a school library circulation server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(_ context.Context, a *app) error {
				a.logger.Info("Migrations applied", zap.String("driver", a.cfg.Database.Driver))
				return nil
			})
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load demo settings, books and users",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := loadFixtures(seedFile)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				result, err := seed.NewSeeder(a.db.Store(), a.auth, a.logger).Seed(ctx, fixtures)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d settings, %d books, %d users\n",
					result.Settings, result.Books, result.Users)
				return nil
			})
		},
	}

	finesCmd = &cobra.Command{
		Use:   "fines",
		Short: "Fine maintenance tasks",
	}

	finesProcessCmd = &cobra.Command{
		Use:   "process",
		Short: "Fine every overdue loan once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				result, err := a.fines.ProcessAutomaticFines(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "processed %d overdue loans\n", result.Processed)
				return nil
			})
		},
	}
)

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixture file (defaults to the bundled catalog)")

	finesCmd.AddCommand(finesProcessCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, finesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.Load(path)
}

// withApp builds the app, applies migrations and runs fn.
func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.db.Migrate(ctx); err != nil {
		a.logger.Error("Failed to migrate database", zap.Error(err))
		return err
	}
	return fn(ctx, a)
}

func runServe(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
		if a.cfg.Library.AutoFinesEnabled {
			jobs, err := scheduler.New(a.cfg.Library.AutoFinesSchedule, a.fines, a.logger)
			if err != nil {
				return err
			}
			jobs.Start()
			defer jobs.Stop()
		}

		router, err := a.router()
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         ":" + a.cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			a.logger.Info("Starting server",
				zap.String("port", a.cfg.Server.Port),
				zap.String("mode", a.cfg.Server.Mode),
				zap.String("version", version),
				zap.String("database", a.cfg.Database.Driver),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		// Wait for interrupt signal to gracefully shutdown the server
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err, ok := <-serveErr:
			if ok {
				a.logger.Error("Failed to start server", zap.Error(err))
				return err
			}
			return nil
		case <-quit:
		}
		a.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Server forced to shutdown", zap.Error(err))
			return err
		}

		a.logger.Info("Server exited")
		return nil
	})
}
