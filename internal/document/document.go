package document

import (
	"sort"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/payload"
)

// RootID is the reserved id of the document root.
const RootID = "root"

// Node is one block of the tree.
//
// Children is nil for leaf types and non-nil (possibly empty) for
// container types.
type Node struct {
	ID       string
	Type     string
	Style    payload.Object
	Props    payload.Object
	Children []string
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	out := Node{
		ID:    n.ID,
		Type:  n.Type,
		Style: n.Style.Clone(),
		Props: n.Props.Clone(),
	}
	if n.Children != nil {
		out.Children = append([]string{}, n.Children...)
	}
	return out
}

// IsContainer reports whether the node carries a children list.
func (n Node) IsContainer() bool {
	return n.Children != nil
}

// Document is an immutable block tree.
type Document struct {
	nodes   map[string]*Node
	parents map[string]string
}

// New returns a Document holding only the root node.
func New(rootType string, style, props payload.Object) *Document {
	d := NewDraft()
	d.Set(Node{
		ID:       RootID,
		Type:     rootType,
		Style:    orEmpty(style).Clone(),
		Props:    orEmpty(props).Clone(),
		Children: []string{},
	})
	return d.Freeze()
}

// Get returns a deep copy of the node with the given id.
func (d *Document) Get(id string) (Node, error) {
	n, ok := d.nodes[id]
	if !ok {
		return Node{}, blockerr.ForBlock(blockerr.CodeNotFound, id, "block not found")
	}
	return n.Clone(), nil
}

// Type returns the type of a node, or "" when absent.
func (d *Document) Type(id string) string {
	if n, ok := d.nodes[id]; ok {
		return n.Type
	}
	return ""
}

// Snapshot returns a deep copy of every node keyed by id.
func (d *Document) Snapshot() map[string]Node {
	out := make(map[string]Node, len(d.nodes))
	for id, n := range d.nodes {
		out[id] = n.Clone()
	}
	return out
}

// Len returns the number of nodes, root included.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Has reports whether id names a node.
func (d *Document) Has(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// IDs returns every node id in sorted order.
func (d *Document) IDs() []string {
	ids := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parent returns the id of the node whose children list holds id.
func (d *Document) Parent(id string) (string, bool) {
	p, ok := d.parents[id]
	return p, ok
}

// Children returns a copy of a node's children list.
// Returns nil for leaves and missing ids.
func (d *Document) Children(id string) []string {
	n, ok := d.nodes[id]
	if !ok || n.Children == nil {
		return nil
	}
	return append([]string{}, n.Children...)
}

// IndexOf returns the position of id within its parent's children, or -1.
func (d *Document) IndexOf(id string) int {
	p, ok := d.parents[id]
	if !ok {
		return -1
	}
	for i, c := range d.nodes[p].Children {
		if c == id {
			return i
		}
	}
	return -1
}

// Descendants returns every node below id in depth-first pre-order,
// excluding id itself.
func (d *Document) Descendants(id string) []string {
	var out []string
	visited := map[string]bool{id: true}
	var walk func(string)
	walk = func(cur string) {
		n, ok := d.nodes[cur]
		if !ok {
			return
		}
		for _, c := range n.Children {
			if visited[c] {
				continue
			}
			visited[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

// Within reports whether id equals ancestor or lies below it.
func (d *Document) Within(id, ancestor string) bool {
	seen := make(map[string]bool)
	for cur := id; !seen[cur]; {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
		p, ok := d.parents[cur]
		if !ok {
			return false
		}
		cur = p
	}
	return false
}

// Draft starts a copy-on-write edit of d. The Document itself is untouched.
func (d *Document) Draft() *Draft {
	nodes := make(map[string]*Node, len(d.nodes)+1)
	for id, n := range d.nodes {
		nodes[id] = n
	}
	return &Draft{nodes: nodes}
}

func orEmpty(obj payload.Object) payload.Object {
	if obj == nil {
		return payload.Object{}
	}
	return obj
}
