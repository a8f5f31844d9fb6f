package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schemahead/schemahead/internal/errs"
	"github.com/spf13/cobra"
)

var version = getVersion()

var globalFlags struct {
	schemaDir     string
	migrationsDir string
	environment   string
	logLevel      string
	metricsFile   string
}

var rootCmd = &cobra.Command{
	Use:           "schemahead",
	Short:         "Ordered, reversible schema migrations with a remote head pointer",
	Long:          `schemahead applies and reverts migration directories in order against a remote schema-deployment backend, tracking the current head in that backend.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&globalFlags.schemaDir, "schema-dir", "s", "", "The directory holding your schema (default \"database\")")
	flags.StringVarP(&globalFlags.migrationsDir, "migrations-dir", "m", "", "The directory holding your migrations (default \"<schema-dir>/migrations\")")
	flags.StringVarP(&globalFlags.environment, "environment", "e", "", "Environment from schemahead.toml to use")
	flags.StringVar(&globalFlags.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&globalFlags.metricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus text format")
}

// Execute runs the root command. It is the only place that prints a failure
// and chooses the exit code.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)

	var stepErr *errs.StepError
	if errors.As(err, &stepErr) {
		_, _ = fmt.Fprintf(os.Stderr, "This error occurred when migrating %s. Migrations before it were committed; nothing was rolled back.\n", stepErr.Unit)
	}
	if errors.Is(err, errs.ErrInconsistentHead) {
		_, _ = fmt.Fprintln(os.Stderr, "Fix the head records by hand or run set-head; schemahead never repairs them automatically.")
	}
	os.Exit(errs.ExitCode(err))
}
