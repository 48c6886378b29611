package script

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/command"
	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/editor"
	"github.com/roach88/mailblocks/internal/payload"
	"github.com/roach88/mailblocks/internal/placement"
	"github.com/roach88/mailblocks/internal/schema"
)

// StepResult records what one step did.
type StepResult struct {
	Op      string
	BlockID string        // created or addressed block; empty on failure and for undo/redo
	Code    blockerr.Code // error code when the step failed
}

// Result is the outcome of a script run.
type Result struct {
	// Pass is true when every step behaved as expected.
	Pass bool

	Steps  []StepResult
	Errors []string

	// Document is the engine's current document after the last step.
	Document *document.Document

	// Aliases maps `as` names to block ids.
	Aliases map[string]string
}

// AddError records a failed expectation.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

type runner struct {
	engine  *editor.Engine
	aliases map[string]string
}

// Run applies a script to a fresh document.
//
// Step failures are reported in the Result. The returned error is reserved
// for scripts that cannot run at all: an invalid root payload, a payload
// that is not representable, or a reference to an undefined $name.
//
// Options are passed to the engine after the defaults (sequence ids "b1",
// "b2", ... and a discarding logger), so callers can override either.
func Run(s *Script, registry *schema.Registry, opts ...editor.Option) (*Result, error) {
	root, err := rootDocument(s, registry)
	if err != nil {
		return nil, err
	}

	engineOpts := []editor.Option{
		editor.WithIDGenerator(document.NewSequenceGenerator("b")),
		editor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		editor.WithInitial(root),
	}
	eng, err := editor.New(registry, append(engineOpts, opts...)...)
	if err != nil {
		return nil, err
	}

	r := &runner{engine: eng, aliases: make(map[string]string)}
	result := &Result{Pass: true, Steps: []StepResult{}, Errors: []string{}, Aliases: r.aliases}

	for i, st := range s.Steps {
		blockID, stepErr, err := r.step(st)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, st.Op, err)
		}

		sr := StepResult{Op: st.Op}
		if stepErr != nil {
			sr.Code = blockerr.CodeOf(stepErr)
		} else {
			sr.BlockID = blockID
			if st.As != "" && blockID != "" {
				r.aliases[st.As] = blockID
			}
		}
		result.Steps = append(result.Steps, sr)

		switch {
		case st.ExpectError == "" && stepErr != nil:
			result.AddError(fmt.Sprintf("steps[%d] (%s): unexpected error: %v", i, st.Op, stepErr))
		case st.ExpectError != "" && stepErr == nil:
			result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s, step succeeded", i, st.Op, st.ExpectError))
		case st.ExpectError != "" && string(sr.Code) != st.ExpectError:
			result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s, got %s: %v", i, st.Op, st.ExpectError, sr.Code, stepErr))
		}
	}

	result.Document = eng.Current()
	return result, nil
}

func rootDocument(s *Script, registry *schema.Registry) (*document.Document, error) {
	var p Payload
	if s.Root != nil {
		p = *s.Root
	}
	style, err := payload.ObjectFromNative(p.Style)
	if err != nil {
		return nil, fmt.Errorf("root style: %w", err)
	}
	props, err := payload.ObjectFromNative(p.Props)
	if err != nil {
		return nil, fmt.Errorf("root props: %w", err)
	}
	if err := registry.Validate(schema.RootType, style, props); err != nil {
		return nil, fmt.Errorf("root payload: %w", err)
	}
	return document.New(schema.RootType, style, props), nil
}

// step runs one step. stepErr is the engine's verdict; err means the step
// could not be issued.
func (r *runner) step(st Step) (blockID string, stepErr, err error) {
	id, err := r.resolve(st.ID)
	if err != nil {
		return "", nil, err
	}
	parent, err := r.resolve(st.Parent)
	if err != nil {
		return "", nil, err
	}
	style, err := payload.ObjectFromNative(st.Style)
	if err != nil {
		return "", nil, fmt.Errorf("style: %w", err)
	}
	props, err := payload.ObjectFromNative(st.Props)
	if err != nil {
		return "", nil, fmt.Errorf("props: %w", err)
	}

	e := r.engine
	switch st.Op {
	case OpCreate:
		blockID, stepErr = e.Insert(parent, st.Type, style, props, indexOr(st.Index, command.AppendIndex))
	case OpRemove:
		blockID, stepErr = id, e.Remove(id)
	case OpReorder:
		blockID, stepErr = parent, e.Reorder(parent, *st.From, *st.To)
	case OpUpdateProps:
		blockID, stepErr = id, e.UpdateProps(id, props)
	case OpUpdateStyle:
		blockID, stepErr = id, e.UpdateStyle(id, style)
	case OpMove:
		blockID, stepErr = id, e.Move(id, parent, indexOr(st.Index, command.AppendIndex))
	case OpDuplicate:
		blockID, stepErr = e.Duplicate(id)
	case OpDrop:
		index := indexOr(st.Index, len(e.Current().Children(parent)))
		blockID, stepErr = e.Drop(placement.Intent{NewType: st.Type, BlockID: id, Target: parent, Index: index})
	case OpUndo:
		_, stepErr = e.Undo()
	case OpRedo:
		_, stepErr = e.Redo()
	default:
		return "", nil, fmt.Errorf("unknown op %q", st.Op)
	}
	return blockID, stepErr, nil
}

// resolve expands a $name reference.
func (r *runner) resolve(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, "$")
	if !ok {
		return ref, nil
	}
	id, ok := r.aliases[name]
	if !ok {
		return "", fmt.Errorf("undefined reference %q", ref)
	}
	return id, nil
}

func indexOr(index *int, fallback int) int {
	if index == nil {
		return fallback
	}
	return *index
}
