package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// buildVersion is set at release time with
// -ldflags "-X github.com/schemahead/schemahead/cmd.buildVersion=v1.2.3".
var buildVersion string

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the schemahead version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("schemahead %s (%s %s/%s)\n", getVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// getVersion prefers the release version, then the module version, and adds
// the VCS revision when the binary was built from a checkout.
func getVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return versionOr(buildVersion, "dev")
	}

	version := versionOr(buildVersion, info.Main.Version)
	if version == "" || version == "(devel)" {
		version = "dev"
	}

	vcs := map[string]string{}
	for _, setting := range info.Settings {
		if strings.HasPrefix(setting.Key, "vcs.") {
			vcs[setting.Key] = setting.Value
		}
	}

	if commit := vcs["vcs.revision"]; commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if vcs["vcs.modified"] == "true" {
			commit += " modified"
		}
		version += " (" + commit + ")"
	}
	if built := vcs["vcs.time"]; built != "" {
		version += " built " + built
	}
	return version
}

func versionOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
