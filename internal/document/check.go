package document

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/payload"
)

// Capabilities answers whether a block type may own children.
// *schema.Registry implements it.
type Capabilities interface {
	CanHaveChildren(typ string) bool
}

// Schemas validates block payloads by type. *schema.Registry implements it.
type Schemas interface {
	Capabilities
	Known(typ string) bool
	Validate(typ string, style, props payload.Object) error
}

// Verify runs Check, then validates the payload of every block whose type
// is registered. Unregistered types are skipped; they render as the
// unknown-type placeholder. The first payload error is returned with the
// block id attached, in id order.
func Verify(doc *Document, schemas Schemas) error {
	if err := Check(doc, schemas); err != nil {
		return err
	}
	for _, id := range doc.IDs() {
		n := doc.nodes[id]
		if !schemas.Known(n.Type) {
			continue
		}
		if err := schemas.Validate(n.Type, n.Style, n.Props); err != nil {
			var be *blockerr.Error
			if !errors.As(err, &be) {
				return blockerr.Wrap(blockerr.CodeSchemaValidation, err, "invalid %s payload", n.Type)
			}
			out := *be
			out.BlockID = id
			return &out
		}
	}
	return nil
}

// Check verifies every tree invariant of doc and returns an
// INVARIANT_VIOLATION error listing all violations, or nil.
func Check(doc *Document, caps Capabilities) error {
	var errs error

	root, ok := doc.nodes[RootID]
	if !ok {
		return blockerr.New(blockerr.CodeInvariantViolation, "root block %q is missing", RootID)
	}
	if !caps.CanHaveChildren(root.Type) || root.Children == nil {
		errs = multierr.Append(errs, fmt.Errorf("root type %q is not a container", root.Type))
	}

	owner := make(map[string]string, len(doc.nodes))
	for _, id := range doc.IDs() {
		n := doc.nodes[id]
		if n.ID != id {
			errs = multierr.Append(errs, fmt.Errorf("block %q is stored under id %q", n.ID, id))
		}
		if n.Children != nil && !caps.CanHaveChildren(n.Type) {
			errs = multierr.Append(errs, fmt.Errorf("block %q of type %q cannot have children", id, n.Type))
		}

		inList := make(map[string]bool, len(n.Children))
		for _, c := range n.Children {
			if inList[c] {
				errs = multierr.Append(errs, fmt.Errorf("block %q lists child %q twice", id, c))
				continue
			}
			inList[c] = true

			if _, exists := doc.nodes[c]; !exists {
				errs = multierr.Append(errs, fmt.Errorf("block %q lists missing child %q", id, c))
				continue
			}
			if c == RootID {
				errs = multierr.Append(errs, fmt.Errorf("block %q lists the root as a child", id))
				continue
			}
			if prev, taken := owner[c]; taken {
				errs = multierr.Append(errs, fmt.Errorf("block %q is owned by both %q and %q", c, prev, id))
				continue
			}
			owner[c] = id
		}
	}

	reached := map[string]bool{RootID: true}
	for _, id := range doc.Descendants(RootID) {
		reached[id] = true
	}
	for _, id := range doc.IDs() {
		if reached[id] {
			continue
		}
		if _, owned := owner[id]; owned {
			errs = multierr.Append(errs, fmt.Errorf("block %q is part of a cycle", id))
		} else {
			errs = multierr.Append(errs, fmt.Errorf("block %q is an orphan", id))
		}
	}

	if errs == nil {
		return nil
	}
	violations := multierr.Errors(errs)
	return blockerr.Wrap(blockerr.CodeInvariantViolation, errs, "%d invariant violation(s)", len(violations)).
		With("violations", fmt.Sprint(len(violations)))
}
