package document

// Draft builds the next Document. Nodes not touched through Set or Delete
// are shared with the Document the draft started from.
//
// A Draft is single-use: after Freeze it must not be used again.
type Draft struct {
	nodes map[string]*Node
}

// NewDraft returns an empty Draft, used when building a Document from
// serialized form.
func NewDraft() *Draft {
	return &Draft{nodes: make(map[string]*Node)}
}

// Has reports whether id names a node in the draft.
func (d *Draft) Has(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// Get returns the node with the given id. The returned Children slice is a
// copy; Style and Props are shared and must be treated as read-only.
func (d *Draft) Get(id string) (Node, bool) {
	n, ok := d.nodes[id]
	if !ok {
		return Node{}, false
	}
	out := *n
	if n.Children != nil {
		out.Children = append([]string{}, n.Children...)
	}
	return out, true
}

// Set stores n under n.ID, replacing any previous node with that id.
// The draft takes ownership of n's Style, Props and Children.
func (d *Draft) Set(n Node) {
	d.nodes[n.ID] = &n
}

// SetChildren replaces the children list of an existing node.
func (d *Draft) SetChildren(id string, children []string) bool {
	n, ok := d.Get(id)
	if !ok {
		return false
	}
	n.Children = children
	d.Set(n)
	return true
}

// Delete removes a node. Parent children lists are not touched.
func (d *Draft) Delete(id string) {
	delete(d.nodes, id)
}

// Len returns the number of nodes in the draft.
func (d *Draft) Len() int {
	return len(d.nodes)
}

// NewID allocates an id from gen that is not yet used in the draft.
func (d *Draft) NewID(gen IDGenerator) string {
	for {
		id := gen.Generate()
		if id != "" && !d.Has(id) {
			return id
		}
	}
}

// Freeze returns the finished Document and rebuilds its parent index.
func (d *Draft) Freeze() *Document {
	parents := make(map[string]string, len(d.nodes))
	for id, n := range d.nodes {
		for _, c := range n.Children {
			if _, taken := parents[c]; !taken {
				parents[c] = id
			}
		}
	}
	doc := &Document{nodes: d.nodes, parents: parents}
	d.nodes = nil
	return doc
}
