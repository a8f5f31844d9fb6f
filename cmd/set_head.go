package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(setHeadCmd)
	setHeadCmd.Flags().BoolP("latest", "l", false, "Set head to the latest migration")
}

var setHeadCmd = &cobra.Command{
	Use:               "set-head [name]",
	Short:             "Set the remote head to a migration without deploying",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeMigrationNames,
	RunE:              runSetHead,
}

func runSetHead(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	name, err := targetName(a, cmd, args)
	if err != nil {
		return err
	}
	if err := a.openHeads(cmd.Context()); err != nil {
		return err
	}

	record, err := a.heads.SetHead(cmd.Context(), name)
	if err != nil {
		return err
	}
	printSuccess("Head set to %s (id %s)", record.MigrationName, record.ID)
	return nil
}

// targetName returns the migration named by args, or the latest one when
// --latest is set. Exactly one of the two must be given.
func targetName(a *app, cmd *cobra.Command, args []string) (string, error) {
	latest, _ := cmd.Flags().GetBool("latest")
	switch {
	case latest && len(args) > 0:
		return "", errors.New("give either a migration name or --latest, not both")
	case latest:
		unit, err := a.registry.Latest()
		if err != nil {
			return "", err
		}
		return unit.Name, nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("a migration name or --latest is required")
	}
}

// completeMigrationNames offers the migration directory names for shell
// completion.
func completeMigrationNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	a, err := newApp()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, err := a.registry.Names()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
