package schema

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/payload"
)

// CompileError reports a problem in a CUE schema source.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Line returns the 1-based source line, or 0 when unknown.
func (e *CompileError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// CUEValidator validates payloads by unifying them with a CUE schema.
//
// The schema is the value of a type's `payload` field and has the shape
// {style: {...}, props: {...}}. Schemas defined through CUE definitions are
// closed, so unknown style or props keys are rejected.
type CUEValidator struct {
	// mu is shared by every validator compiled from the same context;
	// evaluation mutates the context.
	mu     *sync.Mutex
	schema cue.Value
}

// Validate implements Validator.
func (v *CUEValidator) Validate(style, props payload.Object) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	data := v.schema.Context().Encode(map[string]any{
		"style": payload.ToNative(style),
		"props": payload.ToNative(props),
	})
	if err := data.Err(); err != nil {
		return blockerr.Wrap(blockerr.CodeSchemaValidation, err, "payload cannot be encoded")
	}

	unified := v.schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return blockerr.Wrap(blockerr.CodeSchemaValidation, firstCUEError(err), "payload rejected by schema")
	}
	return nil
}

// LoadCUE compiles a block-type schema source.
//
// The source must declare a top-level `types` struct:
//
//	types: {
//		Text: {container: false, payload: #Text}
//	}
//
// Definitions are returned in declaration order, without renderers.
func LoadCUE(filename, src string) ([]Definition, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	typesVal := value.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return nil, &CompileError{
			Field:   "types",
			Message: "types is required",
			Pos:     value.Pos(),
		}
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	mu := &sync.Mutex{}
	var defs []Definition
	for iter.Next() {
		name := iter.Label()
		def, err := compileType(name, iter.Value(), mu)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if len(defs) == 0 {
		return nil, &CompileError{
			Field:   "types",
			Message: "at least one block type is required",
			Pos:     typesVal.Pos(),
		}
	}
	return defs, nil
}

// compileType turns one entry of `types` into a Definition.
func compileType(name string, v cue.Value, mu *sync.Mutex) (Definition, error) {
	def := Definition{Name: name}

	containerVal := v.LookupPath(cue.ParsePath("container"))
	if containerVal.Exists() {
		container, err := containerVal.Bool()
		if err != nil {
			return def, &CompileError{
				Field:   "types." + name + ".container",
				Message: "container must be a bool",
				Pos:     containerVal.Pos(),
			}
		}
		def.Container = container
	}

	payloadVal := v.LookupPath(cue.ParsePath("payload"))
	if !payloadVal.Exists() {
		return def, &CompileError{
			Field:   "types." + name + ".payload",
			Message: "payload schema is required",
			Pos:     v.Pos(),
		}
	}
	for _, part := range []string{"style", "props"} {
		if !payloadVal.LookupPath(cue.ParsePath(part)).Exists() {
			return def, &CompileError{
				Field:   "types." + name + ".payload." + part,
				Message: part + " schema is required",
				Pos:     payloadVal.Pos(),
			}
		}
	}

	def.Validator = &CUEValidator{mu: mu, schema: payloadVal}
	return def, nil
}

// firstCUEError returns the first of possibly many CUE errors.
func firstCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	return errs[0]
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{Field: "cue", Message: firstErr.Error()}
}
