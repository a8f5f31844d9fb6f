package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schemahead/schemahead/internal/executor"
)

func printSuccess(format string, args ...any) {
	_, _ = color.New(color.FgGreen).Printf("✓ "+format+"\n", args...)
}

func printWarning(format string, args ...any) {
	_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// printReport lists what a run applied. Failures are printed by Execute.
func printReport(report *executor.Report) {
	if report.Plan != nil && report.Plan.Empty() {
		fmt.Println("Nothing to migrate.")
		return
	}
	for _, name := range report.Applied {
		printSuccess("Applied %s", name)
	}
}
