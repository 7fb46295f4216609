// Package cli wires the remotectl command tree: company management, the
// connectivity check, schema inspection, and record CRUD.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tablekit/remotectl/internal/client"
	"github.com/tablekit/remotectl/internal/companystore"
	"github.com/tablekit/remotectl/internal/config"
	"github.com/tablekit/remotectl/internal/observability"
	"github.com/tablekit/remotectl/model"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// App carries the shared dependencies of all commands. Commands resolve the
// store and client lazily so that `help` and company management never touch
// the network.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *companystore.Store

	shutdownTracing func(context.Context) error

	cfgPath string
	verbose bool
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:   "remotectl",
		Short: "Browse and edit records of a schema-defined remote backend",
		Long: `remotectl talks to backends exposing the /api/remote surface: it registers
companies (endpoint + shared secret), fetches their table schema, and lists,
creates, updates, and deletes records of any table the server declares.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.teardown(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&app.cfgPath, "config", defaultConfigPath(), "path to config file")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		app.companyCmd(),
		app.checkCmd(),
		app.schemaCmd(),
		app.recordsCmd(),
	)

	return root
}

// Execute runs the command tree and returns a process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		printError(err)
		return 1
	}
	return 0
}

func defaultConfigPath() string {
	return "remotectl.yaml"
}

func (a *App) setup(cmd *cobra.Command) error {
	// A .env next to the binary is a convenience for local secrets.
	_ = godotenv.Load()

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Observability.LogLevel = "debug"
	}
	a.cfg = cfg

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.logger = logger
	cmd.SetContext(observability.WithLogger(cmd.Context(), logger))

	shutdown, err := observability.InitTracing(cmd.Context(), cfg.Observability.Tracing, "remotectl", Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracing = shutdown

	return nil
}

func (a *App) teardown(ctx context.Context) {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.shutdownTracing != nil {
		_ = a.shutdownTracing(ctx)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// openStore opens the company store on first use.
func (a *App) openStore() (*companystore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := companystore.Open(a.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// activeClient builds a client for the active company.
func (a *App) activeClient(ctx context.Context) (*client.Client, model.Company, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, model.Company{}, err
	}
	company, err := store.Active(ctx)
	if err != nil {
		return nil, model.Company{}, err
	}
	logger := observability.LoggerFrom(ctx, a.logger)
	c, err := client.New(company, a.cfg.Client,
		client.WithLogger(logger),
		client.WithStatusListener(func(s client.Status) {
			logger.Info("connection status changed",
				zap.String("state", s.State.String()),
				zap.String("message", s.Message),
			)
		}),
	)
	if err != nil {
		return nil, model.Company{}, err
	}
	return c, company, nil
}

func printError(err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		color.Red("✗ %s", verr.DisplayMessage())
		return
	}
	color.Red("✗ %v", err)
}
