package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tablekit/remotectl/internal/observability"
	"github.com/tablekit/remotectl/model"
)

func (a *App) companyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage configured companies",
	}
	cmd.AddCommand(
		a.companyAddCmd(),
		a.companyListCmd(),
		a.companyUseCmd(),
		a.companyRemoveCmd(),
	)
	return cmd
}

func (a *App) companyAddCmd() *cobra.Command {
	var (
		companyURL string
		secret     string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a company endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			company := model.NewCompany(args[0], companyURL, secret)
			if err := store.Add(cmd.Context(), company); err != nil {
				return err
			}
			color.Green("✓ added company %q", company.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyURL, "url", "", "base URL of the backend")
	cmd.Flags().StringVar(&secret, "secret", "", "shared secret for the X-Remote-Secret header")
	cmd.MarkFlagRequired("url")
	cmd.MarkFlagRequired("secret")
	return cmd
}

func (a *App) companyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			companies, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(companies) == 0 {
				fmt.Println("no companies configured")
				return nil
			}
			for _, c := range companies {
				marker := " "
				if c.IsActive {
					marker = color.GreenString("*")
				}
				fmt.Printf("%s %-20s %-40s %s\n",
					marker, c.Name, c.URL, observability.RedactSecret(c.Secret))
			}
			return nil
		},
	}
}

func (a *App) companyUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Make a company the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			company, err := store.GetByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.SetActive(cmd.Context(), company.ID); err != nil {
				return err
			}
			color.Green("✓ active company is now %q", company.Name)
			return nil
		},
	}
}

func (a *App) companyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			company, err := store.GetByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), company.ID); err != nil {
				return err
			}
			color.Green("✓ removed company %q", company.Name)
			return nil
		},
	}
}
