package cmd

import (
	"fmt"

	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/syncconfig"
	"github.com/marcus/optsync/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show the optsync version",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		check, _ := cmd.Flags().GetBool("check")
		if !check {
			if jsonMode(cmd) {
				return output.JSON(map[string]string{"version": currentVersion()})
			}
			fmt.Println(currentVersion())
			return nil
		}

		checker := &version.Checker{}
		if dir, err := syncconfig.ConfigDir(); err == nil {
			checker.CacheDir = dir
		}
		res := checker.CheckCached(cmd.Context(), currentVersion())
		if res.Error != nil {
			return fail(cmd, fmt.Errorf("check for updates: %w", res.Error))
		}

		if jsonMode(cmd) {
			return output.JSON(res)
		}
		fmt.Println(res.CurrentVersion)
		switch {
		case version.IsDevelopmentVersion(res.CurrentVersion):
			output.Info("development build, update check skipped")
		case res.HasUpdate:
			output.Warning("optsync %s is available: %s", res.LatestVersion, res.UpdateURL)
			if c := version.UpdateCommand(res.LatestVersion); c != "" {
				fmt.Println("  " + c)
			}
		default:
			output.Success("up to date")
		}
		return nil
	},
}

// currentVersion returns the build version, "dev" when unset.
func currentVersion() string {
	if appVersion == "" {
		return "dev"
	}
	return appVersion
}

func init() {
	versionCmd.Flags().Bool("check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}
