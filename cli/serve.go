package cli

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

	"github.com/carecheck/attendance-engine/api"
	"github.com/carecheck/attendance-engine/sheet"
	"github.com/carecheck/attendance-engine/sheet/store"
	"github.com/carecheck/attendance-engine/store/sqlite"
)

/*
serve - HTTP server entry point

STARTUP SEQUENCE:
  1. Open the upload store (SQLite, or memory when no db path is set)
  2. Create API handler and router
  3. Start the upload janitor
  4. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the janitor
  4. Close database connection
*/
func newServeCmd(app *App) *cobra.Command {
	var (
		port   int
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				app.Config.Server.Port = port
			}
			if cmd.Flags().Changed("db") {
				app.Config.Server.DBPath = dbPath
			}
			return runServer(app)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().StringVar(&dbPath, "db", "", `SQLite database path; ":memory:" or empty keeps uploads in memory`)
	return cmd
}

func openStore(path string) (sheet.Store, func() error, error) {
	if path == "" {
		return store.NewMemory(), func() error { return nil }, nil
	}
	s, err := sqlite.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, s.Close, nil
}

func runServer(app *App) error {
	cfg := app.Config
	logger := app.Logger

	uploads, closeStore, err := openStore(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := api.NewHandler(uploads, cfg)
	router := api.NewRouter(handler, logger)

	janitor := api.NewUploadJanitor(uploads, cfg.UploadTTL(), cfg.JanitorInterval(), logger)
	janitor.Start()
	defer janitor.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Server.Port), zap.Bool("sqlite", cfg.Server.DBPath != ""))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
