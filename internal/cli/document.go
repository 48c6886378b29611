package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/render"
	"github.com/roach88/mailblocks/internal/schema"
)

// Document output modes.
const (
	OutputMarkup = "markup"
	OutputJSON   = "json"
)

// DocumentResult is the JSON payload of commands that emit a document.
type DocumentResult struct {
	Hash   string `json:"hash"`
	Blocks int    `json:"blocks"`
	Output string `json:"output"`
	Body   string `json:"body"`

	// Set when the document was written to a store.
	Document string `json:"document,omitempty"`
	Revision int64  `json:"revision,omitempty"`
	Saved    *bool  `json:"saved,omitempty"`
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", OutputMarkup, "document output (markup|json)")
}

func checkOutput(output string) error {
	if output != OutputMarkup && output != OutputJSON {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid output %q: must be %s or %s", output, OutputMarkup, OutputJSON))
	}
	return nil
}

// documentResult renders doc as markup or canonical JSON.
func documentResult(doc *document.Document, registry *schema.Registry, output string) (DocumentResult, error) {
	hash, err := render.Hash(doc)
	if err != nil {
		return DocumentResult{}, err
	}

	var body string
	switch output {
	case OutputJSON:
		data, err := render.ToCanonicalJSON(doc, document.RootID)
		if err != nil {
			return DocumentResult{}, err
		}
		body = string(data)
	default:
		body, err = render.ToMarkup(doc, document.RootID, registry)
		if err != nil {
			return DocumentResult{}, err
		}
	}
	return DocumentResult{Hash: hash, Blocks: doc.Len(), Output: output, Body: body}, nil
}

// writeDocument prints the body alone in text format and the full result
// envelope in JSON format.
func writeDocument(formatter *OutputFormatter, result DocumentResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(result.Body)
}
