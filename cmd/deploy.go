package cmd

import (
	"github.com/schemahead/schemahead/internal/executor"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().BoolP("latest", "l", false, "Deploy the latest migration")
	deployCmd.Flags().BoolP("force", "f", false, "Force the deployment")
	deployCmd.Flags().Bool("migrate", false, "Migrate to the migration instead when a head is already deployed")
}

var deployCmd = &cobra.Command{
	Use:   "deploy [name]",
	Short: "Deploy a migration directly. Used for new setups",
	Long: `Deploy a single migration without running hooks and set the head to it.

With --migrate, a forward migration to the named migration is run instead when
a head already exists.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeMigrationNames,
	RunE:              runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	name, err := targetName(a, cmd, args)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	migrate, _ := cmd.Flags().GetBool("migrate")

	if err := a.openHeads(cmd.Context()); err != nil {
		return err
	}
	exec, err := a.newExecutor()
	if err != nil {
		return err
	}

	report, err := exec.Deploy(cmd.Context(), executor.DeployOptions{Name: name, Force: force, Migrate: migrate})
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}
