package schema

import (
	_ "embed"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"

	"github.com/roach88/mailblocks/internal/payload"
)

//go:embed blocks.cue
var builtinSource string

// RootType is the builtin container type used for the document root.
const RootType = "EmailLayout"

var (
	builtinOnce sync.Once
	builtin     *Registry

	// htmlPolicy strips scripts, handlers and unsafe URLs from Html blocks.
	htmlPolicy = bluemonday.UGCPolicy()
)

// Builtin returns the sealed registry of email block types.
// The same instance is returned on every call.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		reg, err := Load("blocks.cue", builtinSource, builtinRenderers())
		if err != nil {
			panic(fmt.Sprintf("schema: builtin blocks.cue: %v", err))
		}
		builtin = reg
	})
	return builtin
}

// BuiltinSource returns the embedded CUE schema of the builtin block types.
func BuiltinSource() string {
	return builtinSource
}

// Load compiles a CUE schema source into a sealed Registry, attaching the
// renderer registered under each type's name. Types without a renderer
// render as the unknown-type placeholder.
func Load(filename, src string, renderers map[string]RenderFunc) (*Registry, error) {
	defs, err := LoadCUE(filename, src)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry()
	for _, def := range defs {
		def.Render = renderers[def.Name]
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	reg.Seal()
	return reg, nil
}

// builtinRenderers returns the markup renderer of every builtin type.
func builtinRenderers() map[string]RenderFunc {
	return map[string]RenderFunc{
		"EmailLayout":      renderEmailLayout,
		"Container":        renderContainer,
		"ColumnsContainer": renderColumns,
		"Text":             renderText,
		"Heading":          renderHeading,
		"Button":           renderButton,
		"Image":            renderImage,
		"Avatar":           renderAvatar,
		"Divider":          renderDivider,
		"Spacer":           renderSpacer,
		"Html":             renderHTML,
	}
}

// BuiltinRenderers returns a copy of the builtin renderer table, for
// registries loaded from custom schema files.
func BuiltinRenderers() map[string]RenderFunc {
	return builtinRenderers()
}

func renderEmailLayout(in RenderInput) string {
	backdrop := propString(in.Props, "backdropColor", "#F5F5F5")
	canvas := propString(in.Props, "canvasColor", "#FFFFFF")
	text := propString(in.Props, "textColor", "#262626")
	font := propString(in.Props, "fontFamily", "Helvetica, Arial, sans-serif")

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body style="margin:0;padding:32px 0;background-color:`)
	b.WriteString(html.EscapeString(backdrop))
	b.WriteString(`">`)
	b.WriteString(`<div data-block-id="`)
	b.WriteString(html.EscapeString(in.ID))
	b.WriteString(`" style="`)
	b.WriteString(html.EscapeString(fmt.Sprintf("max-width:600px;margin:0 auto;background-color:%s;color:%s;font-family:%s", canvas, text, font)))
	b.WriteString(`">`)
	b.WriteString(strings.Join(in.Children, ""))
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func renderContainer(in RenderInput) string {
	return openDiv(in) + strings.Join(in.Children, "") + `</div>`
}

func renderColumns(in RenderInput) string {
	var b strings.Builder
	b.WriteString(`<table data-block-id="`)
	b.WriteString(html.EscapeString(in.ID))
	b.WriteString(`" role="presentation" width="100%"`)
	b.WriteString(styleAttr(in.Style))
	b.WriteString(`><tr>`)

	cell := `<td valign="top">`
	if gap, ok := in.Props.GetInt("columnsGap"); ok && gap > 0 {
		cell = fmt.Sprintf(`<td valign="top" style="padding:0 %dpx">`, gap/2)
	}
	for _, child := range in.Children {
		b.WriteString(cell)
		b.WriteString(child)
		b.WriteString(`</td>`)
	}
	b.WriteString(`</tr></table>`)
	return b.String()
}

func renderText(in RenderInput) string {
	text := propString(in.Props, "text", "")
	return `<p data-block-id="` + html.EscapeString(in.ID) + `"` + styleAttr(in.Style, "margin:0") + `>` +
		textHTML(text) + `</p>`
}

func renderHeading(in RenderInput) string {
	text := propString(in.Props, "text", "")
	level, ok := in.Props.GetInt("level")
	if !ok {
		level = 2
	}
	level = min(max(level, 1), 3)
	tag := fmt.Sprintf("h%d", level)

	var b strings.Builder
	b.WriteString(`<` + tag + ` data-block-id="` + html.EscapeString(in.ID) + `"`)
	if anchor := slug.Make(text); anchor != "" {
		b.WriteString(` id="` + anchor + `"`)
	}
	b.WriteString(styleAttr(in.Style, "margin:0"))
	b.WriteString(`>`)
	b.WriteString(textHTML(text))
	b.WriteString(`</` + tag + `>`)
	return b.String()
}

func renderButton(in RenderInput) string {
	text := propString(in.Props, "text", "")
	url := propString(in.Props, "url", "#")
	bg := propString(in.Props, "buttonBackgroundColor", "#999999")
	fg := propString(in.Props, "buttonTextColor", "#FFFFFF")
	display := "inline-block"
	if full, _ := in.Props.GetBool("fullWidth"); full {
		display = "block"
	}

	link := fmt.Sprintf(`<a href="%s" style="display:%s;background-color:%s;color:%s;padding:12px 20px;text-decoration:none">%s</a>`,
		html.EscapeString(url), display, html.EscapeString(bg), html.EscapeString(fg), html.EscapeString(text))
	return openDiv(in) + link + `</div>`
}

func renderImage(in RenderInput) string {
	var img strings.Builder
	img.WriteString(`<img src="` + html.EscapeString(propString(in.Props, "url", "")) + `"`)
	img.WriteString(` alt="` + html.EscapeString(propString(in.Props, "alt", "")) + `"`)
	if w, ok := in.Props.GetInt("width"); ok {
		fmt.Fprintf(&img, ` width="%d"`, w)
	}
	if h, ok := in.Props.GetInt("height"); ok {
		fmt.Fprintf(&img, ` height="%d"`, h)
	}
	img.WriteString(` style="display:block;max-width:100%">`)

	inner := img.String()
	if href, ok := in.Props.GetString("linkHref"); ok && href != "" {
		inner = `<a href="` + html.EscapeString(href) + `">` + inner + `</a>`
	}
	return openDiv(in) + inner + `</div>`
}

func renderAvatar(in RenderInput) string {
	size, ok := in.Props.GetInt("size")
	if !ok {
		size = 64
	}
	radius := "50%"
	switch propString(in.Props, "shape", "circle") {
	case "square":
		radius = "0"
	case "rounded":
		radius = fmt.Sprintf("%dpx", size/8)
	}

	img := fmt.Sprintf(`<img src="%s" alt="%s" width="%d" height="%d" style="border-radius:%s;display:inline-block">`,
		html.EscapeString(propString(in.Props, "imageUrl", "")),
		html.EscapeString(propString(in.Props, "alt", "")),
		size, size, radius)
	return openDiv(in) + img + `</div>`
}

func renderDivider(in RenderInput) string {
	color := propString(in.Props, "lineColor", "#333333")
	height, ok := in.Props.GetInt("lineHeight")
	if !ok {
		height = 1
	}
	return openDiv(in) + fmt.Sprintf(`<hr style="border:none;border-top:%dpx solid %s;margin:0">`, height, html.EscapeString(color)) + `</div>`
}

func renderSpacer(in RenderInput) string {
	height, ok := in.Props.GetInt("height")
	if !ok {
		height = 16
	}
	return fmt.Sprintf(`<div data-block-id="%s" style="height:%dpx"></div>`, html.EscapeString(in.ID), height)
}

func renderHTML(in RenderInput) string {
	return openDiv(in) + htmlPolicy.Sanitize(propString(in.Props, "contents", "")) + `</div>`
}

// openDiv opens the wrapper div every leaf block shares.
func openDiv(in RenderInput) string {
	return `<div data-block-id="` + html.EscapeString(in.ID) + `"` + styleAttr(in.Style) + `>`
}

// textHTML escapes text and keeps line breaks.
func textHTML(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}

func propString(props payload.Object, key, fallback string) string {
	if s, ok := props.GetString(key); ok {
		return s
	}
	return fallback
}

// styleAttr renders ` style="..."` from fixed declarations followed by the
// block's style payload, or "" when both are empty.
func styleAttr(style payload.Object, fixed ...string) string {
	decls := append([]string{}, fixed...)
	if c := CSS(style); c != "" {
		decls = append(decls, c)
	}
	if len(decls) == 0 {
		return ""
	}
	return ` style="` + html.EscapeString(strings.Join(decls, ";")) + `"`
}

// CSS converts a style payload into inline CSS declarations.
// Keys are emitted in canonical key order; camelCase keys become
// kebab-case properties; integers are pixels; a padding object expands to
// the four-value shorthand. Values of other shapes are skipped.
func CSS(style payload.Object) string {
	var decls []string
	for _, key := range style.SortedKeys() {
		prop := kebab(key)
		switch v := style[key].(type) {
		case payload.String:
			decls = append(decls, prop+":"+string(v))
		case payload.Int:
			decls = append(decls, fmt.Sprintf("%s:%dpx", prop, v))
		case payload.Object:
			if box, ok := boxShorthand(v); ok {
				decls = append(decls, prop+":"+box)
			}
		}
	}
	return strings.Join(decls, ";")
}

func boxShorthand(obj payload.Object) (string, bool) {
	var sides [4]int64
	for i, side := range []string{"top", "right", "bottom", "left"} {
		n, ok := obj.GetInt(side)
		if !ok {
			return "", false
		}
		sides[i] = n
	}
	return fmt.Sprintf("%dpx %dpx %dpx %dpx", sides[0], sides[1], sides[2], sides[3]), true
}

func kebab(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
