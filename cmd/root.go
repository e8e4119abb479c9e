package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/sigil/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sigil",
	Short: "Render [[tag(args)]] templates",
	Long: `Sigil renders text templates written with [[tag(args)content]] tags.

Templates define blocks, substitute variables, call blocks as functions,
import blocks from other templates and inherit whole layouts.

Quick Start:
  sigil render page               Render templates/page.html
  sigil render page --data d.yml  Render with a YAML data root
  sigil tokens page -o yaml       Show the content model of a template
  sigil serve                     Preview templates with live reload

Documentation: https://github.com/conneroisu/sigil`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Assigned here rather than in the literal: applyBindings reads rootCmd,
	// which would otherwise form an initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := applyBindings(cmd); err != nil {
			return err
		}

		return config.BindEnv()
	}

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .sigil.yml, can also use SIGIL_CONFIG_FILE env var)")
	flags.StringP("templates", "t", "", "template directory (default ./templates)")
	flags.String("ext", "", "template file extension (default html)")
	flags.String("cache", "", "cache backend (none, memory, file)")
	flags.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")

	bindFlags(rootCmd, map[string]string{
		"templates":  "templates.dir",
		"ext":        "templates.extension",
		"cache":      "cache.backend",
		"log-level":  "log.level",
		"log-format": "log.format",
	})
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. SIGIL_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .sigil.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SIGIL_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sigil")
	}

	// SIGIL_CACHE_BACKEND maps to cache.backend and so on.
	viper.SetEnvPrefix("SIGIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
