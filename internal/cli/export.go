package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output   string
	Database string
	Document string
	Revision int64 // 0 = latest
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a stored document revision",
		Long: `Load a document revision from the database, verify its content hash
and invariants, and print its markup or canonical JSON.

Example:
  mailblocks export --db ./mail.db --doc welcome
  mailblocks export --db ./mail.db --doc welcome --rev 2 --output json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	addOutputFlag(cmd, &opts.Output)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Document, "doc", "", "document name (required)")
	cmd.Flags().Int64Var(&opts.Revision, "rev", 0, "revision number (default: latest)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("doc")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if err := checkOutput(opts.Output); err != nil {
		return err
	}

	registry, err := loadRegistry(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		doc *document.Document
		rev store.Revision
	)
	if opts.Revision > 0 {
		doc, rev, err = st.LoadRevision(ctx, opts.Document, opts.Revision)
	} else {
		doc, rev, err = st.LoadLatest(ctx, opts.Document)
	}
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "revision not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to load revision", err)
	}
	if err := document.Verify(doc, registry); err != nil {
		_ = formatter.EngineError(err)
		return WrapExitError(ExitFailure, "stored document is invalid", err)
	}
	slog.Debug("revision loaded", "document", rev.Document, "seq", rev.Seq, "hash", rev.Hash)

	out, err := documentResult(doc, registry, opts.Output)
	if err != nil {
		_ = formatter.EngineError(err)
		return WrapExitError(ExitFailure, "failed to render document", err)
	}
	out.Document = rev.Document
	out.Revision = rev.Seq
	return writeDocument(formatter, out)
}

// openExisting opens a database that must already exist; Open would
// otherwise create an empty one.
func openExisting(path string) (*store.Store, error) {
	if !fileExists(path) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
