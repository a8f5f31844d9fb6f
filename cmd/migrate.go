package cmd

import (
	"github.com/schemahead/schemahead/internal/executor"
	"github.com/schemahead/schemahead/internal/planner"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolP("down", "d", false, "Migrate backwards")
	migrateCmd.Flags().BoolP("force", "f", false, "Force deployments")
	migrateCmd.Flags().String("to", "", "Migrate to a specific migration instead of the end")
	_ = migrateCmd.RegisterFlagCompletionFunc("to", completeMigrationNames)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or revert migrations from the current head",
	Long: `Apply every migration after the current head, or with --down revert every
migration before it, stopping at --to when given. Each migration runs its
pre-deploy hook, the deploy command and its post-deploy hook, then becomes the
new head. The first failure stops the run; nothing is rolled back.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	down, _ := cmd.Flags().GetBool("down")
	force, _ := cmd.Flags().GetBool("force")
	to, _ := cmd.Flags().GetString("to")

	opts := executor.MigrateOptions{Direction: planner.Forward, Target: to, Force: force}
	if down {
		opts.Direction = planner.Backward
	}
	if to != "" {
		if _, err := a.registry.Find(to); err != nil {
			return err
		}
	}

	if err := a.openHeads(cmd.Context()); err != nil {
		return err
	}
	exec, err := a.newExecutor()
	if err != nil {
		return err
	}

	report, err := exec.Migrate(cmd.Context(), opts)
	if report != nil {
		printReport(report)
	}
	return err
}
