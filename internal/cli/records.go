package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tablekit/remotectl/internal/client"
	"github.com/tablekit/remotectl/internal/fieldfmt"
	"github.com/tablekit/remotectl/model"
)

func (a *App) recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List, inspect, and edit records of a table",
	}
	cmd.AddCommand(
		a.recordsListCmd(),
		a.recordsGetCmd(),
		a.recordsCreateCmd(),
		a.recordsUpdateCmd(),
		a.recordsDeleteCmd(),
	)
	return cmd
}

func (a *App) recordsListCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List one page of records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.activeClient(cmd.Context())
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.cfg.Client.PageLimit
			}

			table, err := a.fetchTable(cmd, c, args[0])
			if err != nil {
				return err
			}

			res, err := c.ListRecords(cmd.Context(), args[0], page, limit)
			if err != nil {
				return err
			}

			for _, rec := range res.Records {
				printRecordLine(table, rec)
			}
			fmt.Printf("page %d/%d, %d total", res.Page.Page, res.Page.Pages, res.Page.Total)
			if res.Page.HasMore {
				fmt.Printf(" (more available: --page %d)", res.Page.Page+1)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default from config)")
	return cmd
}

func (a *App) recordsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Fetch a single record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.activeClient(cmd.Context())
			if err != nil {
				return err
			}
			table, err := a.fetchTable(cmd, c, args[0])
			if err != nil {
				return err
			}
			rec, err := c.GetRecord(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printRecordDetail(table, rec)
			return nil
		},
	}
}

func (a *App) recordsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <table> [field=value]...",
		Short: "Create a record from field=value pairs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.activeClient(cmd.Context())
			if err != nil {
				return err
			}
			table, err := a.fetchTable(cmd, c, args[0])
			if err != nil {
				return err
			}

			rec := model.NewRecord()
			warnings, err := applyFieldArgs(table, rec, args[1:])
			if err != nil {
				return err
			}
			for _, w := range warnings {
				color.Yellow("! %s", w)
			}

			created, err := c.CreateRecord(cmd.Context(), args[0], rec)
			if err != nil {
				return err
			}
			color.Green("✓ created record %s", created.WireID())
			return nil
		},
	}
}

func (a *App) recordsUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <table> <id> [field=value]...",
		Short: "Update a record with field=value pairs",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.activeClient(cmd.Context())
			if err != nil {
				return err
			}
			table, err := a.fetchTable(cmd, c, args[0])
			if err != nil {
				return err
			}

			rec, err := c.GetRecord(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			warnings, err := applyFieldArgs(table, rec, args[2:])
			if err != nil {
				return err
			}
			for _, w := range warnings {
				color.Yellow("! %s", w)
			}

			updated, err := c.UpdateRecord(cmd.Context(), args[0], rec)
			if err != nil {
				return err
			}
			color.Green("✓ updated record %s", updated.WireID())
			return nil
		},
	}
}

func (a *App) recordsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := a.activeClient(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := c.GetRecord(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := c.DeleteRecord(cmd.Context(), args[0], rec); err != nil {
				return err
			}
			color.Green("✓ deleted record %s", rec.WireID())
			return nil
		},
	}
}

// fetchTable resolves a table from the active company's schema so field
// values can be parsed and displayed with their declared types.
func (a *App) fetchTable(cmd *cobra.Command, c *client.Client, name string) (model.Table, error) {
	schema, err := c.FetchSchema(cmd.Context())
	if err != nil {
		return model.Table{}, err
	}
	table, ok := schema.Table(name)
	if !ok {
		return model.Table{}, fmt.Errorf("table %q not in schema (available: %s)",
			name, strings.Join(schema.TableNames(), ", "))
	}
	return table, nil
}

// applyFieldArgs parses field=value arguments through the field type declared
// in the schema and sets them on the record. Fields not in the schema are
// carried as plain strings; the server tolerates extra keys. The returned
// warnings are advisory and never block submission.
func applyFieldArgs(table model.Table, rec *model.Record, args []string) ([]string, error) {
	var warnings []string
	for _, arg := range args {
		key, raw, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("argument %q is not of the form field=value", arg)
		}

		fieldType := model.FieldString
		if f, ok := table.Field(key); ok {
			if f.ReadOnly {
				return nil, fmt.Errorf("field %q is read-only", key)
			}
			fieldType = f.Type
		}

		if fieldType == model.FieldJSON && raw != "" && !fieldfmt.IsJSON(raw) {
			warnings = append(warnings,
				fmt.Sprintf("%s is not well-formed JSON, sending it as plain text", key))
		}

		value, err := fieldfmt.Parse(raw, fieldType)
		if err != nil {
			return nil, err
		}
		rec.Data[key] = value
	}
	return warnings, nil
}

func printRecordLine(table model.Table, rec model.Record) {
	parts := make([]string, 0, len(table.Fields))
	for _, f := range table.Fields {
		v, ok := rec.Data[f.Name]
		if !ok {
			continue
		}
		parts = append(parts, f.Name+"="+fieldfmt.Display(v, f.Type))
	}
	fmt.Printf("%-36s %s\n", rec.WireID(), strings.Join(parts, " "))
}

func printRecordDetail(table model.Table, rec *model.Record) {
	color.Cyan("%s", rec.WireID())
	for _, f := range table.Fields {
		v, ok := rec.Data[f.Name]
		if !ok {
			continue
		}
		fmt.Printf("  %-24s %s\n", f.Name, fieldfmt.Display(v, f.Type))
	}

	// Keys the schema does not declare are still shown, undecorated.
	extras := make([]string, 0)
	for key := range rec.Data {
		if _, ok := table.Field(key); !ok {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		fmt.Printf("  %-24s %s\n", key, rec.Data[key].Text())
	}

	if rec.CreatedAt != nil {
		fmt.Printf("  %-24s %s\n", "created_at", rec.CreatedAt.Format(time.RFC3339))
	}
	if rec.UpdatedAt != nil {
		fmt.Printf("  %-24s %s\n", "updated_at", rec.UpdatedAt.Format(time.RFC3339))
	}
}
