package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/schemahead/schemahead/internal/headstate"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the migrations on disk and the current head",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	units, err := a.registry.ListUnits()
	if err != nil {
		return err
	}
	if err := a.openHeads(cmd.Context()); err != nil {
		return err
	}
	head, err := a.heads.GetHead(cmd.Context(), true)
	if err != nil {
		return err
	}

	fmt.Printf("Environment: %s\n", a.cfg.Environment)
	fmt.Printf("Migrations:  %s\n", a.cfg.MigrationsDir)
	switch head.State {
	case headstate.HeadSet:
		fmt.Printf("Head:        %s\n", head.Name)
	case headstate.NoHead:
		printWarning("No head record found. Run deploy or set-head first.")
	case headstate.MultipleHeads:
		printWarning("Found %d head records %v, exactly one is required.", len(head.Records), head.Records)
	}
	fmt.Println()

	marker := color.New(color.FgGreen, color.Bold)
	for _, u := range units {
		if head.State == headstate.HeadSet && u.Name == head.Name {
			_, _ = marker.Printf("* %s (head)\n", u.Name)
			continue
		}
		fmt.Printf("  %s\n", u.Name)
	}
	if len(units) == 0 {
		fmt.Println("  (no migrations)")
	}
	return nil
}
