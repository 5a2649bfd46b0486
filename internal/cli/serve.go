package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/divehq/dive/internal/server"
	"github.com/divehq/dive/internal/watcher"
)

var (
	serveListen string
	serveWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workspace HTTP API",
	Long: `Serves the JSON API used by the web UI until interrupted.

With --watch (or watch = true in config), edits made to files in the storage
directory by other programs bump the updated_at of their metadata rows.

Examples:
  dive serve
  dive serve --listen :8080 --watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		addr := c.Listen
		if serveListen != "" {
			addr = serveListen
		}
		watch := c.Watch || serveWatch

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ws, err := openWorkspace()
		if err != nil {
			return fmt.Errorf("open workspace: %w", err)
		}
		defer ws.Close()

		if err := os.MkdirAll(ws.Files.Root(), 0o755); err != nil {
			return fmt.Errorf("create storage directory: %w", err)
		}
		slog.InfoContext(ctx, "Opened workspace", "storage", ws.Files.Root(), "database", c.Database)

		srv := server.New(ws, server.Config{
			MaxBodyBytes: c.Server.MaxBodyBytes,
			Version:      currentVersionInfo().Version,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(gctx, addr)
		})
		if watch {
			w, err := watcher.New(watcher.Config{Files: ws.Files, Database: ws.Store})
			if err != nil {
				return err
			}
			g.Go(func() error {
				return w.Start(gctx)
			})
		}

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides listen in config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Sync external file edits into metadata")
	rootCmd.AddCommand(serveCmd)
}
