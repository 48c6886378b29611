package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Output string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <doc.json>",
		Short: "Render a canonical JSON document",
		Long: `Load a document from canonical JSON, check every tree invariant and
print its email markup or its canonical JSON.

Example:
  mailblocks render newsletter.json
  mailblocks render newsletter.json --output json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	addOutputFlag(cmd, &opts.Output)
	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if err := checkOutput(opts.Output); err != nil {
		return err
	}

	registry, err := loadRegistry(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("document file not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}

	doc, err := render.FromJSON(data)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to parse document", err)
	}
	if err := document.Verify(doc, registry); err != nil {
		_ = formatter.EngineError(err)
		return WrapExitError(ExitFailure, "document is invalid", err)
	}
	formatter.VerboseLog("Loaded %d block(s) from %s", doc.Len(), path)

	result, err := documentResult(doc, registry, opts.Output)
	if err != nil {
		_ = formatter.EngineError(err)
		return WrapExitError(ExitFailure, "failed to render document", err)
	}
	return writeDocument(formatter, result)
}
