package cmd

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/gutachten-org/sitekit/internal/codemod"
)

var (
	stableDryRun  bool
	stableWrite   bool
	stableInclude []string
	stableExclude []string
	stableRoot    string
)

func init() {
	f := stableIDsCmd.Flags()
	f.BoolVar(&stableDryRun, "dry-run", false, "Report the ids that would be added")
	f.BoolVar(&stableWrite, "write", false, "Add the ids in place")
	f.StringArrayVar(&stableInclude, "include", nil, "Include glob (repeatable, default **/*.tsx **/*.jsx content/**/*.json)")
	f.StringArrayVar(&stableExclude, "exclude", nil, "Exclude glob (repeatable, default **/node_modules/** **/.next/** **/*.test.*)")
	f.StringVar(&stableRoot, "root", ".", "Directory to scan")
	stableIDsCmd.MarkFlagsMutuallyExclusive("dry-run", "write")
	stableIDsCmd.MarkFlagsOneRequired("dry-run", "write")
	rootCmd.AddCommand(stableIDsCmd)
}

var stableIDsCmd = &cobra.Command{
	Use:   "stable-ids --dry-run|--write",
	Short: "Give content elements and blocks stable data-sid / id attributes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if stableDryRun == stableWrite {
			return errors.New("stable-ids: pass exactly one of --dry-run or --write")
		}

		sc := codemod.NewScanner(logger)
		sc.Write = stableWrite
		if len(stableInclude) > 0 {
			sc.Include = stableInclude
		}
		if len(stableExclude) > 0 {
			sc.Exclude = stableExclude
		}

		report, err := sc.Run(cmd.Context(), osfs.New(stableRoot))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, f := range report.Changed() {
			fmt.Fprintf(out, "%5d  %s\n", f.Added, f.Path)
		}
		verb := "would add"
		if stableWrite {
			verb = "added"
		}
		fmt.Fprintf(out, "%s %d ids in %d of %d files", verb, report.Total, len(report.Changed()), len(report.Files))
		if report.Failed > 0 {
			fmt.Fprintf(out, " (%d skipped)", report.Failed)
		}
		fmt.Fprintln(out)
		return nil
	},
}
