package cmd

import (
	"fmt"

	"github.com/schemahead/schemahead/internal/diff"
	"github.com/schemahead/schemahead/internal/scaffold"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new migration on disk",
	Long: `Create a new migration directory named <timestamp>_<name> holding a copy of
every .graphql file in the schema directory, a prisma.yml and a hook script.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var differ scaffold.Differ
	if g, err := diff.New(a.cfg.DiffCommand); err != nil {
		a.logger.Warn("diff disabled", "error", err)
	} else {
		differ = g
	}

	unit, err := scaffold.New(scaffold.Config{
		SchemaDir:     a.cfg.SchemaDir,
		MigrationsDir: a.cfg.MigrationsDir,
		HookFile:      a.cfg.HookFile,
		Differ:        differ,
		Logger:        a.logger,
	}).Create(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printSuccess("Created %s", unit.Dir)
	fmt.Printf("Edit %s to add logic to this migration, or delete it if none is needed.\n", unit.HookPath)
	return nil
}
