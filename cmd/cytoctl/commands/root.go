package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwansinnn/cytosight-all-detect/infrastructure/config"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/di"
	"github.com/kwansinnn/cytosight-all-detect/internal/fixtures"
	"github.com/kwansinnn/cytosight-all-detect/internal/printer"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
)

var versionString = "dev"

// Env is what the commands need from the outside world
type Env struct {
	LoadConfig func() (*config.Config, error)
	Printer    *printer.Printer
}

type globalOptions struct {
	email    string
	password string
	verbose  bool
}

// NewRootCommand builds the command tree
func NewRootCommand(env *Env) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "cytoctl",
		Short: "cytoctl - CytoSight analyses, discussions and reports from the terminal",
		Long: `cytoctl signs in to CytoSight and runs the same operations as the web
client: analyze images, list analyses and discussions, and generate reports.

With STORE_BACKEND=memory it runs against an in-process store seeded with
demo accounts, and signs in as the first one unless --email is given.`,
		Version:       versionString,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.email, "email", os.Getenv("CYTOCTL_EMAIL"), "account email")
	root.PersistentFlags().StringVar(&opts.password, "password", os.Getenv("CYTOCTL_PASSWORD"), "account password")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newAnalyzeCommand(env, opts),
		newUploadsCommand(env, opts),
		newThreadsCommand(env, opts),
		newReportCommand(env, opts),
	)
	return root
}

// Execute runs the CLI against the process environment
func Execute() error {
	env := &Env{LoadConfig: config.LoadConfig, Printer: printer.New()}
	return NewRootCommand(env).Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// signedIn builds the container and signs in. The returned function
// releases the container.
func (e *Env) signedIn(ctx context.Context, opts *globalOptions) (*di.Container, *auth.Session, func(), error) {
	cfg, err := e.LoadConfig()
	if err != nil {
		return nil, nil, nil, e.Printer.Error("Invalid configuration", err.Error(), nil)
	}
	cfg.LogLevel = "error"
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, nil, nil, e.Printer.Error("Startup failed", err.Error(), nil)
	}

	email, password := opts.email, opts.password
	if email == "" && cfg.StoreBackend == config.StoreMemory {
		email, password = fixtures.DemoAccounts[0].Email, fixtures.DemoAccounts[0].Password
	}
	if email == "" {
		cleanup()
		return nil, nil, nil, e.Printer.Error("Sign-in required",
			"No account was given.",
			[]string{"Pass --email and --password", "Set CYTOCTL_EMAIL and CYTOCTL_PASSWORD"})
	}

	session, err := container.Sessions.SignIn(ctx, email, password)
	if err != nil {
		cleanup()
		return nil, nil, nil, e.Printer.Failure(err)
	}
	return container, session, cleanup, nil
}
