package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/boynton/lumos/logger"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	jsonLogs   bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "lumos",
	Short: "Compile LUMOS schemas to Rust and TypeScript",
	Long: `lumos compiles a schema of structs and enums into Rust types (Borsh or Anchor)
and TypeScript interfaces with @coral-xyz/borsh layouts that agree byte for byte.

Examples:
  lumos generate game.lumos -o src/generated   # write generated.rs and generated.ts
  lumos generate game.lumos --watch            # regenerate on every save
  lumos validate game.lumos                    # parse and type check only
  lumos check game.lumos -o src/generated      # fail if generated files are stale
  lumos ir game.lumos --format yaml            # dump the intermediate representation
  lumos sizes game.lumos                       # encoded sizes per type
  lumos fmt game.lumos --write                 # rewrite in canonical form`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(verbose, jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./lumos.toml if present)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(sizesCmd)
	rootCmd.AddCommand(graphqlCmd)
	rootCmd.AddCommand(fmtCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
