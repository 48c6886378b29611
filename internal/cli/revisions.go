package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mailblocks/internal/store"
)

// RevisionsOptions holds flags for the revisions command.
type RevisionsOptions struct {
	*RootOptions
	Database string
	Document string
}

// RevisionInfo is the JSON form of one revision.
type RevisionInfo struct {
	Seq     int64  `json:"seq"`
	Hash    string `json:"hash"`
	Blocks  int    `json:"blocks"`
	Message string `json:"message,omitempty"`
}

// NewRevisionsCommand creates the revisions command.
func NewRevisionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RevisionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "revisions",
		Short: "List stored documents or revisions",
		Long: `Without --doc, list the documents in the database. With --doc, list
that document's revisions in order.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevisions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Document, "doc", "", "document name")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRevisions(opts *RevisionsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

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

	if opts.Document == "" {
		names, err := st.ListDocuments(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to list documents", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(map[string]any{"documents": names})
		}
		for _, name := range names {
			fmt.Fprintln(formatter.Writer, name)
		}
		return nil
	}

	revs, err := st.ListRevisions(ctx, opts.Document)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list revisions", err)
	}
	if len(revs) == 0 {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("document not found: %s", opts.Document), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("document not found: %s", opts.Document))
	}

	infos := make([]RevisionInfo, len(revs))
	for i, rev := range revs {
		infos[i] = revisionInfo(rev)
	}
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"document": opts.Document, "revisions": infos})
	}
	for _, info := range infos {
		fmt.Fprintf(formatter.Writer, "%d\t%s\t%d blocks\t%s\n", info.Seq, info.Hash[:12], info.Blocks, info.Message)
	}
	return nil
}

func revisionInfo(rev store.Revision) RevisionInfo {
	return RevisionInfo{Seq: rev.Seq, Hash: rev.Hash, Blocks: rev.Blocks, Message: rev.Message}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
