package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/syncconfig"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage client configuration",
	GroupID: "system",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show config values (" + strings.Join(syncconfig.Keys, ", ") + ")",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := syncconfig.LoadConfig()
		if err != nil {
			return fail(cmd, err)
		}

		keys := syncconfig.Keys
		if len(args) == 1 {
			keys = args
		}
		values := make(map[string]string, len(keys))
		for _, k := range keys {
			v, err := cfg.Get(k)
			if err != nil {
				return fail(cmd, err)
			}
			values[k] = v
		}

		if jsonMode(cmd) {
			return output.JSON(values)
		}
		if len(args) == 1 {
			fmt.Println(values[args[0]])
			return nil
		}
		for _, k := range keys {
			fmt.Printf("%-8s %s\n", k, values[k])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := syncconfig.LoadConfig()
		if err != nil {
			return fail(cmd, err)
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return fail(cmd, err)
		}
		if err := syncconfig.SaveConfig(cfg); err != nil {
			return fail(cmd, err)
		}
		output.Success("%s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
