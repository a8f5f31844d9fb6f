package cmd

import (
	"github.com/schemahead/schemahead/internal/wizard"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new schemahead config",
	Long:  `Initialize schemahead.toml, an .env file for credentials and the schema and migrations directories in the current directory.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing schemahead.toml file")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	schemaDir := globalFlags.schemaDir
	if schemaDir == "" {
		schemaDir, _ = detectDefaultSchemaDir()
	}
	return wizard.Run(force, schemaDir)
}
