// Package cmd provides the command-line interface for sigil.
//
// Every command is a Cobra command registered on the root command in its
// own init function. Commands that render share one engine: the loaded
// configuration plus the file loader, snapshot cache, data root and logger
// it describes.
//
// # Available Commands
//
//   - render: render a template to stdout or a file
//   - tokens: print the content model of a template
//   - blocks: list the blocks a template defines
//   - modes: list the registered tag modes
//   - cache clear: empty the snapshot cache
//   - watch: re-render a template whenever templates change
//   - serve: preview server with websocket live reload
//   - version: build information
//
// # Command Examples
//
//	// Render with data from a YAML file
//	sigil render page -d data.yaml
//
//	// Inspect how a template tokenizes
//	sigil tokens page -o yaml
//
//	// Serve templates on port 3000
//	sigil serve -p 3000
//
// # Configuration
//
// Sources in order of precedence:
//
//  1. Command-line flags (--templates, --cache, etc.)
//  2. Environment variables following SIGIL_<SECTION>_<OPTION>, such as
//     SIGIL_TEMPLATES_DIR or SIGIL_CACHE_BACKEND
//  3. The configuration file: --config, SIGIL_CONFIG_FILE or .sigil.yml
//  4. Built-in defaults
package cmd
