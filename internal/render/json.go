package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/payload"
)

// ToCanonicalJSON serializes the subtree at rootID in canonical form.
func ToCanonicalJSON(doc *document.Document, rootID string) ([]byte, error) {
	if !doc.Has(rootID) {
		return nil, blockerr.ForBlock(blockerr.CodeNotFound, rootID, "render root not found")
	}
	tree, err := treeOf(doc, rootID, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	return payload.MarshalCanonical(tree)
}

func treeOf(doc *document.Document, id string, visiting map[string]bool) (map[string]any, error) {
	if visiting[id] {
		return nil, blockerr.ForBlock(blockerr.CodeInvariantViolation, id, "cycle through block")
	}
	n, err := doc.Get(id)
	if err != nil {
		return nil, blockerr.ForBlock(blockerr.CodeInvariantViolation, id, "dangling child id")
	}

	out := map[string]any{
		"id":    n.ID,
		"type":  n.Type,
		"style": n.Style,
		"props": n.Props,
	}
	if n.Children != nil {
		visiting[id] = true
		children := make([]any, 0, len(n.Children))
		for _, c := range n.Children {
			child, err := treeOf(doc, c, visiting)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		delete(visiting, id)
		out["children"] = children
	}
	return out, nil
}

// wireNode is the decoded form of one canonical JSON node.
type wireNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Style    payload.Object `json:"style"`
	Props    payload.Object `json:"props"`
	Children *[]wireNode    `json:"children"`
}

// FromJSON rebuilds a Document from canonical JSON rooted at document.RootID.
// Tree shape rules out cycles and shared children; duplicate ids are
// rejected. Type capabilities and payloads are not checked here: pass the
// result to document.Verify.
func FromJSON(data []byte) (*document.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var root wireNode
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if root.ID != document.RootID {
		return nil, blockerr.ForBlock(blockerr.CodeInvariantViolation, root.ID, "top-level block must be %q", document.RootID)
	}

	d := document.NewDraft()
	if err := addWire(d, root); err != nil {
		return nil, err
	}
	return d.Freeze(), nil
}

func addWire(d *document.Draft, w wireNode) error {
	if w.ID == "" {
		return blockerr.New(blockerr.CodeInvariantViolation, "block without id")
	}
	if w.Type == "" {
		return blockerr.ForBlock(blockerr.CodeInvariantViolation, w.ID, "block without type")
	}
	if d.Has(w.ID) {
		return blockerr.ForBlock(blockerr.CodeInvariantViolation, w.ID, "duplicate block id")
	}

	n := document.Node{
		ID:    w.ID,
		Type:  w.Type,
		Style: orEmpty(w.Style),
		Props: orEmpty(w.Props),
	}
	if w.Children != nil {
		n.Children = make([]string, 0, len(*w.Children))
		for _, c := range *w.Children {
			n.Children = append(n.Children, c.ID)
		}
	}
	d.Set(n)

	if w.Children != nil {
		for _, c := range *w.Children {
			if err := addWire(d, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Hash returns the domain-separated SHA-256 of the document's canonical JSON.
func Hash(doc *document.Document) (string, error) {
	data, err := ToCanonicalJSON(doc, document.RootID)
	if err != nil {
		return "", err
	}
	return payload.HashWithDomain(payload.DomainDocument, data), nil
}

func orEmpty(obj payload.Object) payload.Object {
	if obj == nil {
		return payload.Object{}
	}
	return obj
}
