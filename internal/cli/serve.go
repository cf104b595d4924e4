package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quotedeck/internal/api"
	"quotedeck/internal/backend"
	"quotedeck/internal/catalog"
	"quotedeck/internal/config"
	"quotedeck/internal/favorites"
	"quotedeck/internal/identity"
	"quotedeck/internal/kv"
	"quotedeck/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quotedeck API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := logger.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	logger.Log.Info("Starting quotedeck", zap.String("backend_mode", cfg.Backend.Mode))

	// Local profile storage. An unusable store is not fatal: favoriting
	// degrades to session-only through the in-memory fallback.
	var store kv.Store
	store, err = kv.NewSQLStore(cfg.Storage)
	if err != nil {
		logger.Log.Warn("Local storage unavailable, using in-memory fallback", zap.Error(err))
		store = kv.NewMemoryStore()
	}
	defer store.Close()

	// Backend variant is chosen once here; nothing downstream branches on it.
	var b backend.Backend
	switch cfg.Backend.Mode {
	case "mock":
		b, err = backend.NewMockFromFile(cfg.Backend.SeedFile)
	default:
		b, err = backend.NewClient(cfg.Backend)
	}
	if err != nil {
		return fmt.Errorf("initializing backend: %w", err)
	}

	ids := identity.NewProvider(cfg.Identity.DataDir)

	local := favorites.NewLocalStore(store)
	remote := favorites.NewRemoteStore(b)
	syncer := favorites.NewSynchronizer(local, remote, b.Probe)

	scheduler := favorites.NewScheduler(cfg.Scheduler, syncer, ids.GetOrCreate)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(catalog.New(b), syncer, ids, cfg.Server)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server listening", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
