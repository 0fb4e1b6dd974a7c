package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/internal/articles"
	"github.com/gutachten-org/sitekit/internal/sitemap"
	"github.com/gutachten-org/sitekit/internal/writeback"
)

func init() {
	rootCmd.AddCommand(sitemapCmd)
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Write public/sitemap.xml for the selected site",
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
		logger.Info("generating sitemap", zap.String("site", s.ID), zap.String("domain", s.Domain))

		env, err := openSite(s, nil)
		if err != nil {
			return err
		}
		list, err := articles.Load(env.root, articles.DefaultDir, logger)
		if err != nil {
			return err
		}

		sm := sitemap.Build(s, list.All(), time.Now())
		var buf bytes.Buffer
		if err := sm.Write(&buf); err != nil {
			return err
		}
		if err := writePublic("/sitemap.xml", buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d URLs to %s\n",
			len(sm.URLs), filepath.Join(settings.PublicDir, "sitemap.xml"))
		return nil
	},
}

// writePublic atomically replaces name below the public directory.
func writePublic(name string, data []byte) error {
	fs := publicFS()
	if err := fs.MkdirAll("/", 0o755); err != nil {
		return fmt.Errorf("create %s: %w", settings.PublicDir, err)
	}
	return writeback.WriteFileAtomic(fs, name, data)
}
