package cmd

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/syncclient"
	"github.com/marcus/optsync/internal/syncconfig"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage server credentials",
	GroupID: "system",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API key for the configured server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		if key == "" {
			if !output.IsTerminal() {
				return fail(cmd, errors.New("--key is required"))
			}
			input := huh.NewInput().
				Title("API key").
				EchoMode(huh.EchoModePassword).
				Value(&key)
			err := huh.NewForm(huh.NewGroup(input)).WithTheme(huh.ThemeDracula()).Run()
			if err != nil {
				return fail(cmd, err)
			}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fail(cmd, errors.New("empty API key"))
		}

		serverURL := syncconfig.GetServerURL()
		client := syncclient.New(serverURL, key)
		client.HTTP.Timeout = syncconfig.GetTimeout()
		if _, err := client.Connection(cmd.Context()); err != nil {
			return fail(cmd, err)
		}

		creds := &syncconfig.AuthCredentials{
			APIKey:    key,
			ServerURL: serverURL,
			SavedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := syncconfig.SaveAuth(creds); err != nil {
			return fail(cmd, err)
		}

		if jsonMode(cmd) {
			return output.JSON(map[string]string{"server": serverURL})
		}
		output.Success("logged in to %s", serverURL)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncconfig.ClearAuth(); err != nil {
			return fail(cmd, err)
		}
		output.Success("logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("key", "", "API key (prompted when omitted)")

	authCmd.AddCommand(loginCmd, logoutCmd)
	rootCmd.AddCommand(authCmd)
}
