package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/fullstacknyc/portfolio/internal/storage"
)

const (
	shutdownTimeout = 5 * time.Second
	cleanupInterval = 24 * time.Hour
)

func newRootCmd() *cobra.Command {
	v := newViper()

	root := &cobra.Command{
		Use:          "portfolio",
		Short:        "Personal portfolio site with a typewriter headline",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), loadConfig(v))
		},
	}
	flags := root.PersistentFlags()
	flags.String("port", "", "HTTP port (env PORT)")
	flags.String("db", "", "SQLite database path (env DATABASE_PATH)")
	flags.String("catalog", "", "systems catalog, .yaml or .toml (env CATALOG_PATH; embedded when empty)")
	bindFlag(v, "port", flags.Lookup("port"))
	bindFlag(v, "database_path", flags.Lookup("db"))
	bindFlag(v, "catalog_path", flags.Lookup("catalog"))

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the site (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), loadConfig(v))
			},
		},
		&cobra.Command{
			Use:   "preview",
			Short: "Play the headline animation in the terminal",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runPreview(cmd.Context(), loadConfig(v), cmd.InOrStdin(), cmd.OutOrStdout())
			},
		},
	)
	return root
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		// Only fails for a nil flag, which would be a programming error.
		panic(err)
	}
}

func runServe(ctx context.Context, cfg Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := newServer(cfg, db, catalog)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end when the server starts shutting down.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Println("Server stopped")
		return nil
	})
	g.Go(func() error {
		srv.runRetention(gctx, cleanupInterval)
		return nil
	})
	return g.Wait()
}

// runRetention prunes old visitor records now and then every interval.
func (s *server) runRetention(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.visitors.cleanup(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Error cleaning up old visitor data: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
