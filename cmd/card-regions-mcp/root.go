package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	outputFormat string
	printConfig  bool
)

var rootCmd = &cobra.Command{
	Use:   "card-regions-mcp",
	Short: "Find and crop the trading cards in a photo",
	Long: `card-regions-mcp isolates individual trading cards in a photograph and
returns each one as a tight, axis-aligned box with an optional crop.

Run without a subcommand it serves the Model Context Protocol over
stdin/stdout; configure it in your MCP client (e.g., Claude Desktop).

Configuration comes from defaults, card-regions.yaml (./ or
~/.card-regions/), a .env file and CARD_REGIONS_* environment variables.
CARD_REGIONS_LOG_LEVEL=debug enables debug logging.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./card-regions.yaml or ~/.card-regions/card-regions.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVar(
		&printConfig, "print-config", false, "print the effective configuration and exit",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case "yaml", "json":
			return nil
		default:
			return fmt.Errorf("unsupported output format %q: use yaml or json", outputFormat)
		}
	}

	rootCmd.AddCommand(serveCmd, detectCmd, splitCmd, versionCmd)
}
