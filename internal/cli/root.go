// Package cli implements the cobra-based CLI commands for usweep.
//
// Each subcommand (clean, prune-snaps, status) is defined in its own
// file within this package. This file defines the root command that
// serves as the parent for all subcommands and handles global flags.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/usweep/internal/config"
	"github.com/mmr-tortoise/usweep/internal/logging"
	"github.com/mmr-tortoise/usweep/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON format for machine consumption.
	// When false (default), output uses human-readable text format.
	jsonOutput bool

	// verbose enables debug-level logging.
	verbose bool

	// configPath overrides the default configuration file location.
	configPath string

	// logFilePath overrides the log destination from the config file.
	logFilePath string
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text and global flags. Actual functionality is provided by
// subcommands (clean, prune-snaps, status).
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "usweep",
		Short: "Disk maintenance sweeper for Ubuntu instances",
		Long: `usweep reclaims disk space on long-running Ubuntu instances.

The clean command purges the apt package cache, removes obsolete
packages (with kernels excluded by default), sweeps temp directories,
and cleans up rotated logs. The prune-snaps command removes disabled
snap revisions, orphaned .snap files, and the snapd download cache.

Both commands are designed to run unattended from cron; see the README
for the recommended monthly schedule.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// PersistentFlags are inherited by all subcommands. This is the cobra
	// mechanism for global flags — any flag defined here is automatically
	// available in every subcommand without re-declaration.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "Append logs to this file instead of stderr")

	// Register subcommands. Each subcommand is defined in its own file
	// (clean.go, prunesnaps.go, status.go) and returns a *cobra.Command.
	rootCmd.AddCommand(NewCleanCommand())
	rootCmd.AddCommand(NewPruneSnapsCommand())
	rootCmd.AddCommand(NewStatusCommand())

	return rootCmd
}

// Execute runs the root command with the given context and handles
// exit codes. This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(ctx context.Context, rootCmd *cobra.Command) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// An interrupted run wins over any wrapped exit code: the
		// cancellation may surface from inside an apt or snap step
		// already wrapped in a CLIError, so this check goes first and
		// walks the whole chain.
		if errors.Is(err, context.Canceled) {
			printError("interrupted", nil)
			os.Exit(int(model.ExitCancelled))
		}

		// Check if the error is a CLIError with a specific exit code.
		// errors.As would also work here, but a type assertion is simpler
		// for this single-level check.
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		// Generic error — exit with code 1.
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// setup loads the configuration and wires the logger. Every subcommand
// calls this first; the returned closer releases the log file handle.
//
// The --log-file flag wins over the config file's log_file setting so a
// manual run can be redirected without editing the deployed config.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, model.WrapCLIError(model.ExitConfigError, "failed to load configuration", err)
	}

	logDest := cfg.LogFile
	if logFilePath != "" {
		logDest = logFilePath
	}

	closer, err := logging.Setup(verbose, logDest)
	if err != nil {
		return nil, nil, model.WrapCLIError(model.ExitConfigError, "failed to set up logging", err)
	}

	return cfg, closer, nil
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// json.MarshalIndent produces human-readable JSON with indentation.
		// We write to stderr for errors, even in JSON mode, because stdout
		// is reserved for successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		// Text format: "Error: <message>" on stderr.
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}
