// Package command is the only writer of documents.
//
// Every Commander method validates its preconditions against the input
// Document and either returns a new Document or a *blockerr.Error. The input
// is never modified, so a rejected command leaves nothing behind. Commands do
// not touch history; callers commit results themselves, which lets previews
// run the same code without recording anything.
package command

import (
	"errors"
	"strconv"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/payload"
)

// AppendIndex inserts at the end of the target children list.
const AppendIndex = -1

// Registry is the part of the schema registry commands depend on.
// *schema.Registry implements it.
type Registry interface {
	Validate(typ string, style, props payload.Object) error
	CanHaveChildren(typ string) bool
}

// Commander applies mutations to documents.
type Commander struct {
	registry Registry
	ids      document.IDGenerator
}

// New creates a Commander. A nil ids falls back to UUIDv7 allocation.
func New(registry Registry, ids document.IDGenerator) *Commander {
	if ids == nil {
		ids = document.UUIDv7Generator{}
	}
	return &Commander{registry: registry, ids: ids}
}

// CreateAndInsert validates a new block and splices it into parentID's
// children at index. A negative index appends.
func (c *Commander) CreateAndInsert(doc *document.Document, parentID, typ string, style, props payload.Object, index int) (*document.Document, string, error) {
	parent, err := doc.Get(parentID)
	if err != nil {
		return nil, "", blockerr.ForBlock(blockerr.CodeParentNotFound, parentID, "parent block not found")
	}
	if !c.registry.CanHaveChildren(parent.Type) {
		return nil, "", blockerr.ForBlock(blockerr.CodeNotAContainer, parentID, "type %s cannot have children", parent.Type).
			With("type", parent.Type)
	}

	style, props = orEmpty(style), orEmpty(props)
	if err := c.registry.Validate(typ, style, props); err != nil {
		return nil, "", err
	}

	index, err = insertIndex(parentID, index, len(parent.Children))
	if err != nil {
		return nil, "", err
	}

	d := doc.Draft()
	id := d.NewID(c.ids)
	node := document.Node{
		ID:    id,
		Type:  typ,
		Style: style.Clone(),
		Props: props.Clone(),
	}
	if c.registry.CanHaveChildren(typ) {
		node.Children = []string{}
	}
	d.Set(node)
	d.SetChildren(parentID, insertAt(parent.Children, index, id))
	return d.Freeze(), id, nil
}

// Remove deletes a block and all of its descendants.
func (c *Commander) Remove(doc *document.Document, id string) (*document.Document, error) {
	if id == document.RootID {
		return nil, blockerr.ForBlock(blockerr.CodeRootRemoval, id, "the root block cannot be removed")
	}
	if !doc.Has(id) {
		return nil, blockerr.ForBlock(blockerr.CodeNotFound, id, "block not found")
	}

	d := doc.Draft()
	for _, desc := range doc.Descendants(id) {
		d.Delete(desc)
	}
	d.Delete(id)
	if parentID, ok := doc.Parent(id); ok {
		d.SetChildren(parentID, without(doc.Children(parentID), id))
	}
	return d.Freeze(), nil
}

// Reorder moves the child at from to position to within one parent.
func (c *Commander) Reorder(doc *document.Document, parentID string, from, to int) (*document.Document, error) {
	if !doc.Has(parentID) {
		return nil, blockerr.ForBlock(blockerr.CodeParentNotFound, parentID, "parent block not found")
	}
	children := doc.Children(parentID)
	for _, idx := range []int{from, to} {
		if idx < 0 || idx >= len(children) {
			return nil, indexError(parentID, idx, len(children), "index %d outside [0, %d)", idx, len(children))
		}
	}

	moved := children[from]
	rest := append(children[:from:from], children[from+1:]...)
	d := doc.Draft()
	d.SetChildren(parentID, insertAt(rest, to, moved))
	return d.Freeze(), nil
}

// UpdateProps replaces a block's props. The new props are validated together
// with the block's current style.
func (c *Commander) UpdateProps(doc *document.Document, id string, props payload.Object) (*document.Document, error) {
	return c.update(doc, id, func(n *document.Node, obj payload.Object) { n.Props = obj }, props)
}

// UpdateStyle replaces a block's style. The new style is validated together
// with the block's current props.
func (c *Commander) UpdateStyle(doc *document.Document, id string, style payload.Object) (*document.Document, error) {
	return c.update(doc, id, func(n *document.Node, obj payload.Object) { n.Style = obj }, style)
}

func (c *Commander) update(doc *document.Document, id string, apply func(*document.Node, payload.Object), obj payload.Object) (*document.Document, error) {
	d := doc.Draft()
	n, ok := d.Get(id)
	if !ok {
		return nil, blockerr.ForBlock(blockerr.CodeNotFound, id, "block not found")
	}

	apply(&n, orEmpty(obj).Clone())
	if err := c.registry.Validate(n.Type, n.Style, n.Props); err != nil {
		var be *blockerr.Error
		if errors.As(err, &be) && be.BlockID == "" {
			tagged := *be
			tagged.BlockID = id
			return nil, &tagged
		}
		return nil, err
	}
	d.Set(n)
	return d.Freeze(), nil
}

// Move detaches a block and inserts it under parentID at index in a single
// step. The index refers to the target children list as it is before the
// move; a negative index appends.
func (c *Commander) Move(doc *document.Document, id, parentID string, index int) (*document.Document, error) {
	if id == document.RootID {
		return nil, blockerr.ForBlock(blockerr.CodeRootRemoval, id, "the root block cannot be moved")
	}
	if !doc.Has(id) {
		return nil, blockerr.ForBlock(blockerr.CodeNotFound, id, "block not found")
	}
	target, err := doc.Get(parentID)
	if err != nil {
		return nil, blockerr.ForBlock(blockerr.CodeParentNotFound, parentID, "parent block not found")
	}
	if !c.registry.CanHaveChildren(target.Type) {
		return nil, blockerr.ForBlock(blockerr.CodeNotAContainer, parentID, "type %s cannot have children", target.Type).
			With("type", target.Type)
	}
	if doc.Within(parentID, id) {
		return nil, blockerr.ForBlock(blockerr.CodeCycleRejected, id, "cannot move a block into itself or its descendants").
			With("target", parentID)
	}

	index, err = insertIndex(parentID, index, len(target.Children))
	if err != nil {
		return nil, err
	}

	oldParent, _ := doc.Parent(id)
	d := doc.Draft()
	if oldParent == parentID {
		if index > doc.IndexOf(id) {
			index--
		}
		d.SetChildren(parentID, insertAt(without(target.Children, id), index, id))
	} else {
		d.SetChildren(oldParent, without(doc.Children(oldParent), id))
		d.SetChildren(parentID, insertAt(target.Children, index, id))
	}
	return d.Freeze(), nil
}

// Duplicate deep-copies a block's subtree under fresh ids and inserts the
// copy directly after the original.
func (c *Commander) Duplicate(doc *document.Document, id string) (*document.Document, string, error) {
	if id == document.RootID {
		return nil, "", blockerr.ForBlock(blockerr.CodeRootRemoval, id, "the root block cannot be duplicated")
	}
	if !doc.Has(id) {
		return nil, "", blockerr.ForBlock(blockerr.CodeNotFound, id, "block not found")
	}

	d := doc.Draft()
	var clone func(string) string
	clone = func(src string) string {
		n, _ := doc.Get(src)
		n.ID = d.NewID(c.ids)
		d.Set(n)
		if n.Children != nil {
			children := make([]string, len(n.Children))
			for i, child := range n.Children {
				children[i] = clone(child)
			}
			d.SetChildren(n.ID, children)
		}
		return n.ID
	}
	copyID := clone(id)

	parentID, _ := doc.Parent(id)
	d.SetChildren(parentID, insertAt(doc.Children(parentID), doc.IndexOf(id)+1, copyID))
	return d.Freeze(), copyID, nil
}

// insertIndex resolves AppendIndex and bounds-checks an insertion point.
func insertIndex(parentID string, index, n int) (int, error) {
	if index < 0 {
		return n, nil
	}
	if index > n {
		return 0, indexError(parentID, index, n, "index %d outside [0, %d]", index, n)
	}
	return index, nil
}

func indexError(parentID string, index, n int, format string, args ...any) *blockerr.Error {
	return blockerr.ForBlock(blockerr.CodeIndexOutOfRange, parentID, format, args...).
		With("index", strconv.Itoa(index)).
		With("len", strconv.Itoa(n))
}

// insertAt returns a new slice with id at index.
func insertAt(list []string, index int, id string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, id)
	return append(out, list[index:]...)
}

// without returns a new slice with every occurrence of id removed.
func without(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		if c != id {
			out = append(out, c)
		}
	}
	return out
}

func orEmpty(obj payload.Object) payload.Object {
	if obj == nil {
		return payload.Object{}
	}
	return obj
}
