package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mailblocks/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Types  []TypeInfo        `json:"types,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// TypeInfo summarizes one block type of a valid schema.
type TypeInfo struct {
	Name      string `json:"name"`
	Container bool   `json:"container"`
}

// ValidationError is one schema problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema.cue>",
		Short: "Validate a block-type schema",
		Long: `Compile a CUE block-type schema and report problems with line numbers.

The file must declare a top-level "types" struct mapping each block type
to its container flag and payload schema.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	src, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("schema file not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "failed to read schema file", err)
	}

	defs, err := schema.LoadCUE(path, string(src))
	if err != nil {
		return outputValidationError(formatter, err)
	}

	// Registration catches duplicate or empty type names.
	reg := schema.NewRegistry()
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return outputValidationError(formatter, err)
		}
	}

	formatter.VerboseLog("Compiled %d block type(s) from %s", len(defs), path)

	result := ValidationResult{Valid: true}
	for _, def := range defs {
		result.Types = append(result.Types, TypeInfo{Name: def.Name, Container: def.Container})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "\u2713 %d block type(s) valid\n", len(result.Types))
	for _, t := range result.Types {
		kind := "leaf"
		if t.Container {
			kind = "container"
		}
		fmt.Fprintf(formatter.Writer, "  %s (%s)\n", t.Name, kind)
	}
	return nil
}

// outputValidationError reports a rejected schema.
func outputValidationError(formatter *OutputFormatter, err error) error {
	verr := ValidationError{Field: "schema", Message: err.Error()}
	var cErr *schema.CompileError
	if errors.As(err, &cErr) {
		verr = ValidationError{Field: cErr.Field, Message: cErr.Message, Line: cErr.Line()}
	}

	if formatter.Format == "json" {
		_ = formatter.writeError(&CLIError{
			Code:    ErrCodeSchema,
			Message: verr.Message,
			Details: ValidationResult{Valid: false, Errors: []ValidationError{verr}},
		})
	} else {
		fmt.Fprintln(formatter.Writer, "\u2717 Validation failed")
		if verr.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", verr.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", verr.Field, verr.Message)
	}
	return WrapExitError(ExitFailure, "schema validation failed", err)
}
