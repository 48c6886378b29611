// Package placement turns a drop intent into a validated insertion point.
//
// The resolver is the single authority on which container receives a
// dropped block. It never mutates the document; callers pass the result to
// command.Commander.CreateAndInsert (new blocks) or Move (existing blocks).
package placement

import (
	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/document"
)

// Capabilities is the part of the schema registry placement consults.
// *schema.Registry implements it.
type Capabilities interface {
	Known(typ string) bool
	CanHaveChildren(typ string) bool
}

// Intent describes a drop: either a new block of NewType or the existing
// block BlockID. BlockID wins when both are set. Index is the pointer-derived
// estimate; it is clamped, never rejected.
type Intent struct {
	NewType string
	BlockID string
	Target  string
	Index   int
}

// IsMove reports whether the intent drags an existing block.
func (in Intent) IsMove() bool {
	return in.BlockID != ""
}

// Placement is an accepted drop position.
type Placement struct {
	Container string
	Index     int
}

// Resolve validates an intent against doc.
func Resolve(doc *document.Document, caps Capabilities, in Intent) (Placement, error) {
	target, err := doc.Get(in.Target)
	if err != nil {
		return Placement{}, blockerr.ForBlock(blockerr.CodeParentNotFound, in.Target, "drop target not found")
	}
	if !caps.CanHaveChildren(target.Type) {
		return Placement{}, blockerr.ForBlock(blockerr.CodeNotAContainer, in.Target, "cannot drop into %s", target.Type).
			With("type", target.Type)
	}

	if in.IsMove() {
		switch {
		case in.BlockID == document.RootID:
			return Placement{}, blockerr.ForBlock(blockerr.CodeRootRemoval, in.BlockID, "the root block cannot be dragged")
		case !doc.Has(in.BlockID):
			return Placement{}, blockerr.ForBlock(blockerr.CodeNotFound, in.BlockID, "dragged block not found")
		case doc.Within(in.Target, in.BlockID):
			return Placement{}, blockerr.ForBlock(blockerr.CodeCycleRejected, in.BlockID, "cannot drop a block onto itself or its descendants").
				With("target", in.Target)
		}
	} else if !caps.Known(in.NewType) {
		return Placement{}, blockerr.New(blockerr.CodeUnknownType, "unknown block type %q", in.NewType).
			With("type", in.NewType)
	}

	return Placement{Container: in.Target, Index: clamp(in.Index, 0, len(target.Children))}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
