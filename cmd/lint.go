package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/gutachten-org/sitekit/internal/codemod"
	"github.com/gutachten-org/sitekit/internal/lint"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [paths...]",
	Short: "Check content and component sources for duplicate or missing ids and syntax errors",
	Long: `Check content and component sources.

Directories are scanned with the stable-ids default globs; files are checked
regardless of their name. Without arguments the current directory is scanned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}

		var all []lint.Diagnostic
		for _, p := range args {
			d, err := lintPath(cmd, p)
			if err != nil {
				return err
			}
			all = append(all, d...)
		}

		for _, d := range all {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		if len(all) > 0 {
			return fmt.Errorf("lint: %d problems", len(all))
		}
		return nil
	},
}

func lintPath(cmd *cobra.Command, p string) ([]lint.Diagnostic, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		src, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		return lint.Lint(cmd.Context(), filepath.ToSlash(p), src)
	}

	diags, err := lint.FS(cmd.Context(), osfs.New(p), codemod.NewScanner(logger))
	if err != nil {
		return nil, err
	}
	for i := range diags {
		diags[i].Path = filepath.ToSlash(filepath.Join(p, diags[i].Path))
	}
	return diags, nil
}
