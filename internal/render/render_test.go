package render

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/command"
	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/payload"
	"github.com/roach88/mailblocks/internal/schema"
)

// newsletter builds a small campaign email with ids b1..b7.
func newsletter(t *testing.T) *document.Document {
	t.Helper()
	c := command.New(schema.Builtin(), document.NewSequenceGenerator("b"))
	doc := document.New(schema.RootType, nil, nil)
	s := func(v string) payload.Value { return payload.String(v) }

	steps := []struct {
		parent string
		typ    string
		style  payload.Object
		props  payload.Object
	}{
		{document.RootID, "Heading", payload.Of(payload.P("textAlign", s("center"))), payload.Of(payload.P("text", s("Spring Sale")), payload.P("level", payload.Int(1)))},
		{document.RootID, "Text", nil, payload.Of(payload.P("text", s("Everything is 20% off & more.")))},
		{document.RootID, "ColumnsContainer", nil, payload.Of(payload.P("columnsCount", payload.Int(2)))},
		{"b3", "Image", nil, payload.Of(payload.P("url", s("https://cdn.example.com/shoe.png")), payload.P("alt", s("Shoe")), payload.P("width", payload.Int(240)))},
		{"b3", "Button", nil, payload.Of(payload.P("text", s("Shop now")), payload.P("url", s("https://example.com/shop")))},
		{document.RootID, "Divider", nil, nil},
		{document.RootID, "Html", nil, payload.Of(payload.P("contents", s("<p>Questions? <b>Reply</b> to this email.</p>")))},
	}
	for _, st := range steps {
		var err error
		doc, _, err = c.CreateAndInsert(doc, st.parent, st.typ, st.style, st.props, command.AppendIndex)
		require.NoError(t, err)
	}
	return doc
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestToMarkup_Golden(t *testing.T) {
	doc := newsletter(t)

	out, err := ToMarkup(doc, document.RootID, schema.Builtin())
	require.NoError(t, err)
	newGoldie(t).Assert(t, "newsletter_markup", []byte(out))
}

func TestToCanonicalJSON_Golden(t *testing.T) {
	doc := newsletter(t)

	out, err := ToCanonicalJSON(doc, document.RootID)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "newsletter_json", out)
}

func TestToMarkup_Idempotent(t *testing.T) {
	doc := newsletter(t)
	before := doc.Snapshot()

	first, err := ToMarkup(doc, document.RootID, schema.Builtin())
	require.NoError(t, err)
	second, err := ToMarkup(doc, document.RootID, schema.Builtin())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, doc.Snapshot())
}

func TestToMarkup_Subtree(t *testing.T) {
	doc := newsletter(t)

	out, err := ToMarkup(doc, "b6", schema.Builtin())
	require.NoError(t, err)
	assert.Equal(t, `<div data-block-id="b6"><hr style="border:none;border-top:1px solid #333333;margin:0"></div>`, out)

	_, err = ToMarkup(doc, "ghost", schema.Builtin())
	assert.ErrorIs(t, err, blockerr.ErrNotFound)
}

func TestToMarkup_UnknownTypePlaceholder(t *testing.T) {
	d := document.NewDraft()
	d.Set(document.Node{ID: document.RootID, Type: "Container", Style: payload.Object{}, Props: payload.Object{}, Children: []string{"x"}})
	d.Set(document.Node{ID: "x", Type: "Carousel<3>", Style: payload.Object{}, Props: payload.Object{}, Children: []string{"y"}})
	d.Set(document.Node{ID: "y", Type: "Spacer", Style: payload.Object{}, Props: payload.Object{}})
	doc := d.Freeze()

	out, err := ToMarkup(doc, document.RootID, schema.Builtin())
	require.NoError(t, err)
	assert.Equal(t, `<div data-block-id="root">`+
		`<div data-block-id="x" data-block-type="Carousel&lt;3&gt;" class="block-unknown">Unsupported block type: Carousel&lt;3&gt;`+
		`<div data-block-id="y" style="height:16px"></div></div></div>`, out)
}

func TestToMarkup_DanglingChild(t *testing.T) {
	d := document.NewDraft()
	d.Set(document.Node{ID: document.RootID, Type: "Container", Children: []string{"gone"}})

	_, err := ToMarkup(d.Freeze(), document.RootID, schema.Builtin())
	assert.ErrorIs(t, err, blockerr.ErrInvariantViolation)
}

func TestToCanonicalJSON_Cycle(t *testing.T) {
	d := document.NewDraft()
	d.Set(document.Node{ID: document.RootID, Type: "Container", Children: []string{"a"}})
	d.Set(document.Node{ID: "a", Type: "Container", Children: []string{document.RootID}})

	_, err := ToCanonicalJSON(d.Freeze(), document.RootID)
	assert.ErrorIs(t, err, blockerr.ErrInvariantViolation)
}

func TestFromJSON_RoundTrip(t *testing.T) {
	doc := newsletter(t)

	data, err := ToCanonicalJSON(doc, document.RootID)
	require.NoError(t, err)

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Snapshot(), back.Snapshot())
	assert.NoError(t, document.Check(back, schema.Builtin()))

	again, err := ToCanonicalJSON(back, document.RootID)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	p, ok := back.Parent("b5")
	assert.True(t, ok)
	assert.Equal(t, "b3", p)
}

func TestFromJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		code blockerr.Code
	}{
		{
			name: "duplicate id",
			data: `{"children":[{"id":"a","props":{},"style":{},"type":"Text"},{"id":"a","props":{},"style":{},"type":"Text"}],"id":"root","props":{},"style":{},"type":"EmailLayout"}`,
			code: blockerr.CodeInvariantViolation,
		},
		{
			name: "wrong root id",
			data: `{"children":[],"id":"top","props":{},"style":{},"type":"EmailLayout"}`,
			code: blockerr.CodeInvariantViolation,
		},
		{
			name: "missing type",
			data: `{"children":[{"id":"a","props":{},"style":{}}],"id":"root","props":{},"style":{},"type":"EmailLayout"}`,
			code: blockerr.CodeInvariantViolation,
		},
		{
			name: "missing id",
			data: `{"children":[{"props":{},"style":{},"type":"Text"}],"id":"root","props":{},"style":{},"type":"EmailLayout"}`,
			code: blockerr.CodeInvariantViolation,
		},
		{name: "float payload", data: `{"id":"root","props":{"w":1.5},"style":{},"type":"EmailLayout"}`},
		{name: "unknown field", data: `{"id":"root","props":{},"style":{},"type":"EmailLayout","extra":1}`},
		{name: "not json", data: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.data))
			require.Error(t, err)
			if tt.code != "" {
				assert.Equal(t, tt.code, blockerr.CodeOf(err))
			}
		})
	}
}

func TestFromJSON_DefaultsMissingPayloads(t *testing.T) {
	doc, err := FromJSON([]byte(`{"children":[{"id":"a","type":"Divider"}],"id":"root","type":"EmailLayout"}`))
	require.NoError(t, err)

	n, err := doc.Get("a")
	require.NoError(t, err)
	assert.Equal(t, payload.Object{}, n.Props)
	assert.Nil(t, n.Children)
}

func TestHash(t *testing.T) {
	a, err := Hash(newsletter(t))
	require.NoError(t, err)
	b, err := Hash(newsletter(t))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	other, err := Hash(document.New(schema.RootType, nil, nil))
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}
