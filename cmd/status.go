package cmd

import (
	"fmt"

	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/syncclient"
	"github.com/marcus/optsync/internal/syncconfig"
	"github.com/spf13/cobra"
)

// statusReport is the JSON output of the status command.
type statusReport struct {
	Server        string                       `json:"server"`
	Reachable     bool                         `json:"reachable"`
	Authenticated bool                         `json:"authenticated"`
	Connection    *syncclient.ConnectionStatus `json:"connection,omitempty"`
	Pending       int                          `json:"pending"`
	Error         string                       `json:"error,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show server connection and draft status",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rep := statusReport{
			Server:        syncconfig.GetServerURL(),
			Authenticated: syncconfig.IsAuthenticated(),
		}

		if f, err := openDraft(); err == nil {
			if d, err := f.Load(); err == nil {
				rep.Pending = len(d.Pending)
			}
		}

		client, _ := newClient(false)
		if _, err := client.HealthCheck(ctx); err != nil {
			rep.Error = err.Error()
		} else {
			rep.Reachable = true
			if rep.Authenticated {
				conn, err := client.Connection(ctx)
				if err != nil {
					rep.Error = err.Error()
				} else {
					rep.Connection = conn
				}
			}
		}

		if jsonMode(cmd) {
			return output.JSON(rep)
		}

		fmt.Printf("Server:   %s\n", rep.Server)
		if rep.Reachable {
			output.Success("reachable")
		} else {
			output.Error("unreachable: %s", rep.Error)
		}
		if !rep.Authenticated {
			output.Warning("not logged in")
		} else if rep.Connection != nil {
			c := rep.Connection
			fmt.Printf("Active:   %t\n", c.IsActive)
			fmt.Printf("Staging:  %t\n", c.IsStaging)
			if c.DevMode.IsActive {
				output.Warning("development mode is active (constant=%t url=%t filter=%t)", c.DevMode.Constant, c.DevMode.URL, c.DevMode.Filter)
			}
		} else if rep.Error != "" && rep.Reachable {
			output.Error("connection: %s", rep.Error)
		}
		fmt.Printf("Pending:  %d unsaved edit(s)\n", rep.Pending)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
