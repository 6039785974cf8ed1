// Sage: intent classification and adaptive context memory for a personal
// voice assistant.
//
// Usage:
//
//	sage serve      # Start MCP server (stdio transport)
//	sage chat       # Talk to the engine from the terminal
//	sage classify   # Classify one utterance
//	sage export     # Dump memory as JSON
//	sage import     # Load a JSON dump
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/sage/internal/config"
	"github.com/HendryAvila/sage/internal/logging"
	sageserver "github.com/HendryAvila/sage/internal/server"
)

var (
	// Global flags
	envFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Sage - intent classification and adaptive memory for a voice assistant",
	Long: `Sage classifies what the user says, answers what it can handle itself
and remembers every turn: conversations, habits, preferences, reminders and
the phrasings it has learned.

Configuration comes from the environment (SAGE_*, GEMINI_API_KEY), optionally
preloaded from an env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.LogJSON)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sage v%s\n", sageserver.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	chatCmd.Flags().BoolVar(&chatWake, "wake", false, "require the wake word before each command")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to this file instead of stdout")

	rootCmd.AddCommand(serveCmd, chatCmd, classifyCmd, exportCmd, importCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
