package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "vinyl",
		Short: "CLI tool for the vinyl trader API",
		Long: `vinyl is a CLI tool for interacting with the vinyl trader JSON API.

It covers game setup, store listings and quotes, and every player action:
buying, selling, travelling between boroughs, ending the hour and loans.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: VINYL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "Acting player ID (env: VINYL_PLAYER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newMarketCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		NewOutput(cmd).PrintError(err)
		os.Exit(1)
	}
}
