package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidScript(t *testing.T) {
	s, err := Load("testdata/scripts/welcome.yaml")
	require.NoError(t, err)

	assert.Equal(t, "welcome", s.Name)
	require.NotNil(t, s.Root)
	assert.Equal(t, "#EEEEEE", s.Root.Props["backdropColor"])
	require.Len(t, s.Steps, 11)

	first := s.Steps[0]
	assert.Equal(t, OpCreate, first.Op)
	assert.Equal(t, "Heading", first.Type)
	assert.Equal(t, "title", first.As)
	assert.Equal(t, 1, first.Props["level"])

	move := s.Steps[4]
	require.NotNil(t, move.Index)
	assert.Equal(t, 0, *move.Index)

	assert.Equal(t, "CYCLE_REJECTED", s.Steps[8].ExpectError)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read script file")
}

func TestLoad_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\nsteps:\n  - op: undo\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, OpUndo, s.Steps[0].Op)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\nsteps:\n  - op: undo\n    prop: {}\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "steps:\n  - op: undo\n",
			want: "name is required",
		},
		{
			name: "no steps",
			yaml: "name: x\nsteps: []\n",
			want: "steps list is required",
		},
		{
			name: "missing op",
			yaml: "name: x\nsteps:\n  - id: b1\n",
			want: "op is required",
		},
		{
			name: "unknown op",
			yaml: "name: x\nsteps:\n  - op: paste\n",
			want: `unknown op "paste"`,
		},
		{
			name: "create without type",
			yaml: "name: x\nsteps:\n  - op: create\n    parent: root\n",
			want: "type is required for create",
		},
		{
			name: "move without parent",
			yaml: "name: x\nsteps:\n  - op: move\n    id: b1\n",
			want: "parent is required for move",
		},
		{
			name: "reorder without to",
			yaml: "name: x\nsteps:\n  - op: reorder\n    parent: root\n    from: 0\n",
			want: "from and to are required",
		},
		{
			name: "drop without source",
			yaml: "name: x\nsteps:\n  - op: drop\n    parent: root\n",
			want: "drop needs type or id",
		},
		{
			name: "unknown error code",
			yaml: "name: x\nsteps:\n  - op: undo\n    expect_error: OOPS\n",
			want: `unknown error code "OOPS"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
