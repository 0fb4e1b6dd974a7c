package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/llm"
	"github.com/gutachten-org/sitekit/internal/sitemap"
)

var (
	llmProvider string
	llmModel    string
)

func init() {
	llmTxtCmd.Flags().StringVar(&llmProvider, "provider", "", "openrouter or gemini (default llm.provider)")
	llmTxtCmd.Flags().StringVar(&llmModel, "model", "", "Model id (default llm.model)")
	rootCmd.AddCommand(llmTxtCmd)
}

var llmTxtCmd = &cobra.Command{
	Use:   "llm-txt <siteId|all>",
	Short: "Generate public/llm.txt with a language model",
	Long: `Generate public/llm.txt from a site's pages.

With "all", every configured site is generated in turn and each one
overwrites public/llm.txt; the last site wins.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := loadSites()
		if err != nil {
			return err
		}

		var targets []*api.Site
		if args[0] == "all" {
			targets = sites
			if len(targets) > 1 {
				logger.Warn("llm-txt all: every site overwrites the same llm.txt; the last one wins",
					zap.Int("sites", len(targets)))
			}
		} else {
			s, err := sites.Get(args[0])
			if err != nil {
				return err
			}
			targets = []*api.Site{s}
		}

		provider, err := llm.NewProvider(cmd.Context(), llm.Config{
			Provider:         firstNonEmpty(llmProvider, settings.LLM.Provider),
			Model:            firstNonEmpty(llmModel, settings.LLM.Model),
			OpenRouterAPIKey: settings.LLM.OpenRouterAPIKey,
			GeminiAPIKey:     settings.LLM.GeminiAPIKey,
		})
		if err != nil {
			if errors.Is(err, llm.ErrMissingAPIKey) {
				return fmt.Errorf("llm-txt: %w", err)
			}
			return err
		}

		for _, s := range targets {
			env, err := openSite(s, nil)
			if err != nil {
				return err
			}
			out, err := llm.NewGenerator(provider, env.resolver, logger).Generate(cmd.Context(), s)
			if err != nil {
				return fmt.Errorf("llm-txt %s: %w", s.ID, err)
			}
			if err := writePublic(sitemap.LLMTxtPath, []byte(out)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote llm.txt for %s (%d bytes)\n", s.ID, len(out))
		}
		return nil
	},
}
