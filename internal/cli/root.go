// Package cli implements the equipctl command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"

	"github.com/JonMunkholm/equipreport/internal/application"
	"github.com/JonMunkholm/equipreport/internal/core"
	"github.com/JonMunkholm/equipreport/internal/logging"
	"github.com/JonMunkholm/equipreport/internal/store"
	"github.com/spf13/cobra"
)

const (
	defaultDatabaseURL = "sqlite://data/equipreport.db"
	defaultBlobDir     = "data/blobs"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	owner     string
	db        string
	blobDir   string
	retention int
	logLevel  string
}

// Execute runs equipctl with os.Args and exits non-zero on failure.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the command line args and returns the process exit code.
// Errors are printed to stderr as user-facing messages where possible.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", errorText(err))
		return 1
	}
	return 0
}

func errorText(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

// NewRootCmd builds the equipctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "equipctl",
		Short:         "Validate, store and report on equipment CSV datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.owner, "owner", envOr("EQUIPCTL_OWNER", currentUser()), "owner identity datasets are stored under (env EQUIPCTL_OWNER)")
	flags.StringVar(&opts.db, "db", envOr("DATABASE_URL", defaultDatabaseURL), "metadata store: sqlite://path, postgres://..., or memory (env DATABASE_URL)")
	flags.StringVar(&opts.blobDir, "blob-dir", envOr("BLOB_DIR", defaultBlobDir), "directory for dataset payloads (env BLOB_DIR)")
	flags.IntVar(&opts.retention, "retention", store.DefaultRetention, "datasets kept per owner")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(
		summarizeCmd(),
		ingestCmd(opts),
		listCmd(opts),
		showCmd(opts),
		deleteCmd(opts),
		reportCmd(opts),
	)
	return cmd
}

// open wires an App for a subcommand that touches storage and returns a
// context tagged with the owner.
func (o *globalOptions) open(ctx context.Context) (*application.App, context.Context, error) {
	if o.owner == "" {
		return nil, nil, errors.New("owner is required: pass --owner or set EQUIPCTL_OWNER")
	}

	app, err := application.New(ctx, application.Options{
		DatabaseURL: o.db,
		BlobDir:     o.blobDir,
		Retention:   o.retention,
	})
	if err != nil {
		return nil, nil, err
	}

	ctx = logging.WithOwner(ctx, o.owner)
	ctx = core.ContextWithSource(ctx, core.Source{Channel: "cli"})
	return app, ctx, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
