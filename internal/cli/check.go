package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tablekit/remotectl/internal/client"
)

func (a *App) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the active company for reachability and secret validity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, company, err := a.activeClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.CheckAccess(cmd.Context()); err != nil {
				return err
			}
			status := c.Status()
			if status.State == client.StateConnected {
				color.Green("✓ %s is reachable (%s)", company.Name, company.URL)
			}
			return nil
		},
	}
}
