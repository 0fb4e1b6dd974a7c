package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gutachten-org/sitekit/internal/articles"
	"github.com/gutachten-org/sitekit/internal/server"
	"github.com/gutachten-org/sitekit/internal/store"
)

var (
	serveAddr  string
	serveDB    string
	serveWatch bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default server.addr, :3000)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Serve from a page store built with `sitekit build` (sqlite path or mysql:// URL)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload content when files change")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a site's pages, articles, sitemap and llm.txt over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := loadSites()
		if err != nil {
			return err
		}
		s, err := selectSite(sites, "")
		if err != nil {
			return err
		}

		metrics := server.NewMetrics()
		env, err := openSite(s, metrics.ObserveCMS)
		if err != nil {
			return err
		}

		list, err := articles.Load(env.root, articles.DefaultDir, logger)
		if err != nil {
			return err
		}

		opts := server.Options{
			Site:       s,
			Content:    env.resolver,
			Articles:   list,
			ArticlesFS: env.root,
			Grounding:  env.grounding,
			Cache:      env.files,
			Metrics:    metrics,
			Logger:     logger,
		}
		if dsn := firstNonEmpty(serveDB, settings.Store.DSN); dsn != "" {
			reader, err := store.NewReader(settings.Store.Driver, dsn)
			if err != nil {
				return err
			}
			defer func() { _ = reader.Close() }()
			opts.Store = reader
			logger.Info("serving from page store", zap.String("driver", settings.Store.Driver))
		}

		srv, err := server.New(opts)
		if err != nil {
			return err
		}

		addr := firstNonEmpty(serveAddr, settings.Server.Addr)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		if serveWatch {
			g.Go(func() error {
				return srv.Watch(ctx, env.dir, filepath.Join(settings.PublicDir, "llm.txt"))
			})
		}
		g.Go(func() error {
			err := server.Run(ctx, ln, srv, logger)
			stop()
			return err
		})
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
