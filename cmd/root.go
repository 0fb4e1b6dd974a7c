package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/internal/config"
	"github.com/gutachten-org/sitekit/internal/logging"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

var (
	cfgFile  string
	v        = config.New()
	settings *config.Settings
	logger   = zap.NewNop()
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to sitekit.yaml (default ./sitekit.yaml)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("site", "", "Site id (default SITE_ID, NEXT_PUBLIC_SITE_ID or the first site)")
	flags.String("sites", "sites.yaml", "Path to the site definitions")
	flags.String("content-dir", "content", "Directory holding one content tree per site")
	flags.String("public-dir", "public", "Directory generated files are written to")

	for key, name := range map[string]string{
		"verbose":     "verbose",
		"site_id":     "site",
		"sites_file":  "sites",
		"content_dir": "content-dir",
		"public_dir":  "public-dir",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

var rootCmd = &cobra.Command{
	Use:           "sitekit",
	Short:         "sitekit: content, SEO and generator tooling for the Gutachten.org sites",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		settings = s

		l, err := logging.New(s.Verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l.With(zap.String("cmd", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
