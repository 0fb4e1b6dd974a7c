package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/gutachten-org/sitekit/internal/textedit"
)

func init() {
	rootCmd.AddCommand(editTextCmd, editSEOCmd)
}

var editTextCmd = &cobra.Command{
	Use:   "edit-text <file> <componentId> <field> <text>",
	Short: "Replace a text field of the component with the given id",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, id, field, text := args[0], args[1], args[2], args[3]
		return editInPlace(cmd, file, func(src []byte) ([]byte, error) {
			return textedit.EditComponentText(src, file, id, field, text)
		})
	},
}

var editSEOCmd = &cobra.Command{
	Use:   "edit-seo <file> <pageKey> <field> <text>",
	Short: "Replace a metadata field of a page's SEO entry",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, pageKey, field, text := args[0], args[1], args[2], args[3]
		return editInPlace(cmd, file, func(src []byte) ([]byte, error) {
			return textedit.EditSEOMetadata(src, file, pageKey, field, text)
		})
	},
}

func editInPlace(cmd *cobra.Command, file string, fn func([]byte) ([]byte, error)) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	fs := osfs.New(filepath.Dir(abs))
	if err := textedit.EditFile(fs, "/"+filepath.Base(abs), fn); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", file)
	return nil
}
