package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/view"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens NAME",
	Short: "Print the content model of a template",
	Long: `Tokenize a template without rendering it and print the resulting
units and blocks.

Examples:
  sigil tokens page             # Table of top-level units
  sigil tokens page -o json     # Units and blocks as JSON
  sigil tokens page -o yaml     # Units and blocks as YAML`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

var blocksCmd = &cobra.Command{
	Use:   "blocks NAME",
	Short: "List the blocks a template defines",
	Long: `List the blocks defined by a template, including blocks brought in
through import and inherit.

Examples:
  sigil blocks page
  sigil blocks page -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runBlocks,
}

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the registered tag modes",
	Args:  cobra.NoArgs,
	RunE:  runModes,
}

var (
	tokensFlags *StandardFlags
	blocksFlags *StandardFlags
	modesFlags  *StandardFlags
)

func init() {
	rootCmd.AddCommand(tokensCmd, blocksCmd, modesCmd)

	tokensFlags = AddStandardFlags(tokensCmd, "output")
	blocksFlags = AddStandardFlags(blocksCmd, "output")
	modesFlags = AddStandardFlags(modesCmd, "output")
}

// tokenize builds the content model of name without rendering it.
func tokenize(cmd *cobra.Command, name string) (*content.Model, error) {
	e, err := newEngine(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	session := e.session(io.Discard)
	if _, err := session.Render(cmd.Context(), name, view.TokenizeOnly); err != nil {
		return nil, err
	}

	return session.Content(), nil
}

func runTokens(cmd *cobra.Command, args []string) error {
	model, err := tokenize(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch tokensFlags.OutputFormat {
	case "json", "yaml":
		return encode(out, tokensFlags.OutputFormat, model)
	default:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODE\tARGS\tTEXT")
		for _, u := range model.Units {
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.Mode, strings.Join(u.Args.Values(), ", "), preview(u.Text))
		}
		return w.Flush()
	}
}

func runBlocks(cmd *cobra.Command, args []string) error {
	model, err := tokenize(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	names := model.BlockNames()
	switch blocksFlags.OutputFormat {
	case "json", "yaml":
		if names == nil {
			names = []string{}
		}
		return encode(out, blocksFlags.OutputFormat, names)
	default:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BLOCK\tUNITS")
		for _, name := range names {
			units, _ := model.Block(name)
			fmt.Fprintf(w, "%s\t%d\n", name, len(units))
		}
		return w.Flush()
	}
}

func runModes(cmd *cobra.Command, args []string) error {
	session := view.New(view.Config{})
	modes := session.Modes()

	out := cmd.OutOrStdout()
	switch modesFlags.OutputFormat {
	case "json", "yaml":
		return encode(out, modesFlags.OutputFormat, modes)
	default:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODE\tCONTEXT FREE\tBUILTIN")
		for _, m := range modes {
			fmt.Fprintf(w, "%s\t%t\t%t\n", m.Name, m.ContextFree, m.Builtin)
		}
		return w.Flush()
	}
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// preview quotes text for a table cell, shortened to one line.
func preview(text string) string {
	const limit = 40
	r := []rune(text)
	if len(r) > limit {
		return strconv.Quote(string(r[:limit])) + "..."
	}

	return strconv.Quote(text)
}
