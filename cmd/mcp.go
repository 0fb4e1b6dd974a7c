package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/internal/grounding"
	"github.com/gutachten-org/sitekit/internal/mcpserver"
	"github.com/gutachten-org/sitekit/internal/sitemap"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the site's llm.txt grounding data over MCP (stdio)",
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

		// stdout carries the protocol; logs go to stderr.
		src := grounding.NewSource(publicFS(), sitemap.LLMTxtPath)
		logger.Info("mcp: serving grounding data", zap.String("site", s.ID), zap.String("source", src.Name()))
		return mcpserver.ServeStdio(mcpserver.New(mcpserver.NewHandlers(s, src, logger), Version))
	},
}
