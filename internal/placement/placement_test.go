package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mailblocks/internal/blockerr"
	"github.com/roach88/mailblocks/internal/command"
	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/schema"
)

// tree builds root -> [b1 Container -> [b2 Container -> [b3 Text]], b4 Text].
func tree(t *testing.T) *document.Document {
	t.Helper()
	c := command.New(schema.Builtin(), document.NewSequenceGenerator("b"))
	doc := document.New(schema.RootType, nil, nil)

	steps := []struct{ parent, typ string }{
		{document.RootID, "Container"},
		{"b1", "Container"},
		{"b2", "Text"},
		{document.RootID, "Text"},
	}
	for _, s := range steps {
		var err error
		doc, _, err = c.CreateAndInsert(doc, s.parent, s.typ, nil, nil, command.AppendIndex)
		require.NoError(t, err)
	}
	return doc
}

func TestScenario_RejectDropOntoDescendant(t *testing.T) {
	doc := tree(t)

	_, err := Resolve(doc, schema.Builtin(), Intent{BlockID: "b1", Target: "b2", Index: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, blockerr.ErrCycleRejected)
}

func TestResolve_Accepts(t *testing.T) {
	doc := tree(t)

	tests := []struct {
		name   string
		intent Intent
		want   Placement
	}{
		{name: "new block", intent: Intent{NewType: "Button", Target: "b1", Index: 0}, want: Placement{Container: "b1", Index: 0}},
		{name: "clamp high", intent: Intent{NewType: "Text", Target: document.RootID, Index: 99}, want: Placement{Container: document.RootID, Index: 2}},
		{name: "clamp low", intent: Intent{NewType: "Text", Target: "b2", Index: -5}, want: Placement{Container: "b2", Index: 0}},
		{name: "move to sibling container", intent: Intent{BlockID: "b4", Target: "b2", Index: 1}, want: Placement{Container: "b2", Index: 1}},
		{name: "move up to ancestor", intent: Intent{BlockID: "b3", Target: document.RootID, Index: 1}, want: Placement{Container: document.RootID, Index: 1}},
		{name: "move within own parent", intent: Intent{BlockID: "b2", Target: "b1", Index: 0}, want: Placement{Container: "b1", Index: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(doc, schema.Builtin(), tt.intent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Rejects(t *testing.T) {
	doc := tree(t)

	tests := []struct {
		name   string
		intent Intent
		want   blockerr.Code
	}{
		{name: "missing target", intent: Intent{NewType: "Text", Target: "ghost"}, want: blockerr.CodeParentNotFound},
		{name: "leaf target", intent: Intent{NewType: "Text", Target: "b4"}, want: blockerr.CodeNotAContainer},
		{name: "unknown type", intent: Intent{NewType: "Carousel", Target: document.RootID}, want: blockerr.CodeUnknownType},
		{name: "missing block", intent: Intent{BlockID: "ghost", Target: document.RootID}, want: blockerr.CodeNotFound},
		{name: "drag root", intent: Intent{BlockID: document.RootID, Target: "b1"}, want: blockerr.CodeRootRemoval},
		{name: "onto itself", intent: Intent{BlockID: "b2", Target: "b2"}, want: blockerr.CodeCycleRejected},
		{name: "onto grandchild container", intent: Intent{BlockID: "b1", Target: "b2"}, want: blockerr.CodeCycleRejected},
		{name: "empty intent", intent: Intent{Target: document.RootID}, want: blockerr.CodeUnknownType},
		{name: "block id wins over type", intent: Intent{NewType: "Text", BlockID: "b1", Target: "b3"}, want: blockerr.CodeNotAContainer},
		{name: "block id wins over valid type", intent: Intent{NewType: "Text", BlockID: "b1", Target: "b1"}, want: blockerr.CodeCycleRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(doc, schema.Builtin(), tt.intent)
			require.Error(t, err)
			assert.Equal(t, tt.want, blockerr.CodeOf(err))
		})
	}
}

func TestIntent_IsMove(t *testing.T) {
	assert.True(t, Intent{BlockID: "b1"}.IsMove())
	assert.False(t, Intent{NewType: "Text"}.IsMove())
}
