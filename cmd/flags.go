package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Data flags
	DataFile string
	Inline   string

	// Render flags
	Mode string
	Out  string

	// Server flags
	Port int
	Host string

	// Output flags
	OutputFormat string
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "data":
			addDataFlags(cmd, flags)
		case "render":
			addRenderFlags(cmd, flags)
		case "server":
			addServerFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		}
	}

	return flags
}

func addDataFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.DataFile, "data", "d", "", "Data file (JSON, YAML or HCL)")
	cmd.Flags().StringVar(&flags.Inline, "inline", "", "Inline JSON data merged over the data file")
	bindFlags(cmd, map[string]string{
		"data":   "data.file",
		"inline": "data.inline",
	})
}

func addRenderFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Mode, "mode", "m", "", "Render mode (output|concatenate|tokenize)")
	cmd.Flags().StringVar(&flags.Out, "out", "", "Write the rendered output to a file")
	bindFlags(cmd, map[string]string{"mode": "render.mode"})
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 8080, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	bindFlags(cmd, map[string]string{
		"port": "server.port",
		"host": "server.host",
	})
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	AddFlagValidation(cmd, "output", func(format string) error {
		return ValidateFormat(format, []string{"table", "json", "yaml"})
	})
}

// commandBindings holds the flag bindings of each command. Several
// commands share config keys, so they are bound only for the command that
// actually runs. Bindings registered on rootCmd apply to every command.
var commandBindings = map[*cobra.Command]map[string]string{}

// bindFlags records the viper configuration keys of flags on cmd.
func bindFlags(cmd *cobra.Command, bindings map[string]string) {
	if commandBindings[cmd] == nil {
		commandBindings[cmd] = map[string]string{}
	}
	for flagName, configKey := range bindings {
		commandBindings[cmd][flagName] = configKey
	}
}

// applyBindings binds the flags of the command about to run.
func applyBindings(cmd *cobra.Command) error {
	for _, owner := range []*cobra.Command{rootCmd, cmd} {
		for flagName, configKey := range commandBindings[owner] {
			flag := cmd.Flags().Lookup(flagName)
			if flag == nil {
				continue
			}
			if err := viper.BindPFlag(configKey, flag); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", flagName, err)
			}
		}
	}

	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}

	return v.Value.Set(val)
}

// ValidateFormat checks format against the allowed values.
func ValidateFormat(format string, valid []string) error {
	for _, v := range valid {
		if format == v {
			return nil
		}
	}

	return fmt.Errorf("invalid output format %s, must be one of: %s", format, strings.Join(valid, ", "))
}
