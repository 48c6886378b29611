package render

import (
	"html"
	"strings"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/schema"
)

// Renderers looks up the markup renderer of a block type.
// *schema.Registry implements it.
type Renderers interface {
	Renderer(typ string) (schema.RenderFunc, bool)
}

// ToMarkup renders the subtree at rootID. Types without a renderer produce
// Placeholder output; traversal continues into their children.
func ToMarkup(doc *document.Document, rootID string, renderers Renderers) (string, error) {
	if !doc.Has(rootID) {
		return "", blockerr.ForBlock(blockerr.CodeNotFound, rootID, "render root not found")
	}
	return markupNode(doc, rootID, renderers, make(map[string]bool))
}

func markupNode(doc *document.Document, id string, renderers Renderers, visiting map[string]bool) (string, error) {
	if visiting[id] {
		return "", blockerr.ForBlock(blockerr.CodeInvariantViolation, id, "cycle through block")
	}
	n, err := doc.Get(id)
	if err != nil {
		return "", blockerr.ForBlock(blockerr.CodeInvariantViolation, id, "dangling child id")
	}

	visiting[id] = true
	children := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out, err := markupNode(doc, c, renderers, visiting)
		if err != nil {
			return "", err
		}
		children = append(children, out)
	}
	delete(visiting, id)

	in := schema.RenderInput{
		ID:       n.ID,
		Type:     n.Type,
		Style:    n.Style,
		Props:    n.Props,
		Children: children,
	}
	if render, ok := renderers.Renderer(n.Type); ok {
		return render(in), nil
	}
	return Placeholder(in), nil
}

// Placeholder is the visible stand-in for a block type with no renderer.
func Placeholder(in schema.RenderInput) string {
	typ := html.EscapeString(in.Type)
	return `<div data-block-id="` + html.EscapeString(in.ID) + `" data-block-type="` + typ + `" class="block-unknown">` +
		`Unsupported block type: ` + typ + strings.Join(in.Children, "") + `</div>`
}
