// Ocast is a command line client for OCast receivers.
//
// It discovers receivers over SSDP, starts and stops their web application
// through DIAL and drives the application over the OCast WebSocket protocol.
//
// Usage:
//
//	ocast [command] [flags]
//
// See 'ocast --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/ocast/internal/config"
	"github.com/muurk/ocast/internal/logging"
	"github.com/muurk/ocast/internal/version"
)

// Global flags
var (
	configPath string
	logLevel   string
)

// cfg is loaded before any command runs
var cfg *config.Config

// reportedError marks an error already rendered by the printer
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ocast",
	Short: "OCast receiver command line client",
	Long: `A command line client for OCast receivers.

Discovers receivers on the local network, manages their web application
through DIAL and sends media and settings commands over the OCast
WebSocket protocol.`,
	Version:       version.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := logLevel
		if level == "" {
			level = cfg.LogLevel
		}
		return logging.Initialize(level)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default is the user config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides "+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ocast %s\n", version.Full())
	},
}
