package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sigil/internal/view"
)

var renderCmd = &cobra.Command{
	Use:     "render NAME",
	Aliases: []string{"r"},
	Short:   "Render a template",
	Long: `Render a template from the template directory and print the result.

NAME is the template path relative to the template directory without its
extension, optionally prefixed with the directory name and "::".

Examples:
  sigil render page                        # Render templates/page.html
  sigil render templates::blog/post        # Namespaced name
  sigil render page -d data.yaml           # Data root from YAML, JSON or HCL
  sigil render page --inline '{"a":1}'     # Inline JSON data
  sigil render page --out page.out.html    # Write to a file
  sigil render page -m tokenize            # Only check that it tokenizes`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var renderFlags *StandardFlags

func init() {
	rootCmd.AddCommand(renderCmd)

	renderFlags = AddStandardFlags(renderCmd, "data", "render")
}

func runRender(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	mode, err := e.renderMode()
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if renderFlags.Out != "" {
		f, err := os.Create(renderFlags.Out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	session := e.session(out)
	result, err := session.Render(cmd.Context(), args[0], mode)
	if err != nil {
		return err
	}

	if mode == view.ConcatenateOnly {
		if _, err := io.WriteString(out, result); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	return nil
}
