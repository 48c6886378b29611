package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/editor"
	"github.com/roach88/mailblocks/internal/script"
	"github.com/roach88/mailblocks/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Output   string
	Database string
	Document string // defaults to the script name
	Message  string
	IDs      string // "seq" | "uuid"
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <script.yaml>",
		Short: "Run an edit script",
		Long: `Run a YAML edit script against a fresh document and print the result.

With --db the resulting document is saved as a new revision; saving a
document identical to the latest revision is a no-op.

Example:
  mailblocks apply welcome.yaml
  mailblocks apply welcome.yaml --db ./mail.db --doc welcome -m "first draft"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	addOutputFlag(cmd, &opts.Output)
	cmd.Flags().StringVar(&opts.Database, "db", "", "save the result to this SQLite database")
	cmd.Flags().StringVar(&opts.Document, "doc", "", "document name in the database (default: script name)")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "revision message")
	cmd.Flags().StringVar(&opts.IDs, "ids", "seq", "block id allocation (seq|uuid)")

	return cmd
}

func runApply(opts *ApplyOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if err := checkOutput(opts.Output); err != nil {
		return err
	}

	var ids document.IDGenerator
	switch opts.IDs {
	case "seq":
		ids = document.NewSequenceGenerator("b")
	case "uuid":
		ids = document.UUIDv7Generator{}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid ids %q: must be seq or uuid", opts.IDs))
	}

	registry, err := loadRegistry(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	s, err := script.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}

	result, err := script.Run(s, registry, editor.WithIDGenerator(ids), editor.WithLogger(slog.Default()))
	if err != nil {
		_ = formatter.Error(ErrCodeScript, err.Error(), nil)
		return WrapExitError(ExitFailure, "script could not run", err)
	}
	if !result.Pass {
		_ = formatter.Error(ErrCodeScript,
			fmt.Sprintf("script %s failed %d expectation(s)", s.Name, len(result.Errors)),
			result.Errors)
		if formatter.Format != "json" {
			fmt.Fprintln(formatter.Writer, strings.Join(result.Errors, "\n"))
		}
		return NewExitError(ExitFailure, fmt.Sprintf("script %s failed", s.Name))
	}
	formatter.VerboseLog("Applied %d step(s) from %s", len(result.Steps), path)

	out, err := documentResult(result.Document, registry, opts.Output)
	if err != nil {
		_ = formatter.EngineError(err)
		return WrapExitError(ExitFailure, "failed to render document", err)
	}

	if opts.Database != "" {
		name := opts.Document
		if name == "" {
			name = s.Name
		}
		if err := saveRevision(cmd.Context(), opts.Database, name, opts.Message, result.Document, &out); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to save revision", err)
		}
		formatter.VerboseLog("Saved %s revision %d", out.Document, out.Revision)
	}

	return writeDocument(formatter, out)
}

func saveRevision(ctx context.Context, dbPath, name, message string, doc *document.Document, out *DocumentResult) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	rev, inserted, err := st.SaveRevision(ctx, name, doc, message)
	if err != nil {
		return err
	}
	slog.Info("revision saved", "document", name, "seq", rev.Seq, "inserted", inserted)

	out.Document = rev.Document
	out.Revision = rev.Seq
	out.Saved = &inserted
	return nil
}
