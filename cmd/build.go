package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/internal/ingest"
	"github.com/gutachten-org/sitekit/internal/store"
)

var (
	buildDB      string
	buildWorkers int
)

func init() {
	buildCmd.Flags().StringVar(&buildDB, "db", "", "Output store: sqlite path or mysql:// URL (default store.dsn, public/pages.db)")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 8, "Pages resolved in parallel")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build [siteId]",
	Short: "Resolve every page of a site into the page store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := loadSites()
		if err != nil {
			return err
		}
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		s, err := selectSite(sites, id)
		if err != nil {
			return err
		}

		env, err := openSite(s, nil)
		if err != nil {
			return err
		}

		dsn := firstNonEmpty(buildDB, settings.Store.DSN, filepath.Join(settings.PublicDir, "pages.db"))
		writer, err := store.NewWriter(cmd.Context(), settings.Store.Driver, dsn, logger)
		if err != nil {
			return err
		}
		defer func() { _ = writer.Close() }()

		// A rebuild replaces the whole site so removed pages disappear.
		if err := writer.DeleteSite(cmd.Context(), s.ID); err != nil {
			return err
		}

		engine := ingest.NewEngine(s, env.resolver, writer, logger)
		engine.Grounding = env.grounding
		engine.Workers = buildWorkers

		start := time.Now()
		fmt.Fprintf(cmd.OutOrStdout(), "Building %s into %s...\n", s.ID, dsn)
		res, err := engine.Build(cmd.Context())
		if err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}

		for _, f := range res.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "  skipped %v\n", f)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pages (%d skipped) in %v.\n",
			res.Written, len(res.Failed), time.Since(start).Round(time.Millisecond))
		logger.Debug("build finished", zap.Int("written", res.Written))
		return nil
	},
}
