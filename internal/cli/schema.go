package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *App) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Fetch and display the active company's table schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.activeClient(cmd.Context())
			if err != nil {
				return err
			}
			schema, err := c.FetchSchema(cmd.Context())
			if err != nil {
				return err
			}

			for _, table := range schema.Tables {
				color.Cyan("%s", table.Name)
				for _, f := range table.Fields {
					flags := ""
					if f.Required {
						flags += " required"
					}
					if f.ReadOnly {
						flags += " readonly"
					}
					fmt.Printf("  %-24s %s%s\n", f.Name, f.Type, flags)
				}
				fmt.Println()
			}
			return nil
		},
	}
}
