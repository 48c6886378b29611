package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mailblocks/internal/schema"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidate_Builtin(t *testing.T) {
	path := writeFile(t, "blocks.cue", schema.BuiltinSource())

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "11 block type(s) valid")
	assert.Contains(t, out, "ColumnsContainer (container)")
	assert.Contains(t, out, "Spacer (leaf)")
}

func TestValidate_JSON(t *testing.T) {
	path := writeFile(t, "blocks.cue", schema.BuiltinSource())

	out, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Len(t, data["types"], 11)
}

func TestValidate_SyntaxError(t *testing.T) {
	path := writeFile(t, "broken.cue", "types: {\n\tText: {container: false\n")

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, "line ")
}

func TestValidate_MissingTypes(t *testing.T) {
	path := writeFile(t, "empty.cue", "other: 1\n")

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSchema, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "types is required")
}

func TestValidate_FileNotFound(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/blocks.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
}

func TestApply_Markup(t *testing.T) {
	out, err := execute(t, "apply", "testdata/welcome.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, `data-block-id="b1"`)
	assert.Contains(t, out, `id="welcome"`)
	assert.Contains(t, out, "Hello")
}

func TestApply_CanonicalJSON(t *testing.T) {
	out, err := execute(t, "apply", "testdata/welcome.yaml", "--output", "json")
	require.NoError(t, err)

	want, err := os.ReadFile("../script/testdata/golden/welcome.golden")
	require.NoError(t, err)

	var snapshot map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(want, &snapshot))
	assert.Equal(t, string(snapshot["document"])+"\n", out)
}

func TestApply_UUIDs(t *testing.T) {
	out, err := execute(t, "--format", "json", "apply", "testdata/welcome.yaml", "--ids", "uuid")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.NotContains(t, data["body"], `data-block-id="b1"`)
	assert.EqualValues(t, 5, data["blocks"])
}

func TestApply_InvalidIDs(t *testing.T) {
	_, err := execute(t, "apply", "testdata/welcome.yaml", "--ids", "random")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApply_FailedExpectations(t *testing.T) {
	out, err := execute(t, "apply", "testdata/failing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E006")
	assert.Contains(t, out, "expected NOT_A_CONTAINER, step succeeded")
}

func TestApply_SaveExportRevisions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "mail.db")

	out, err := execute(t, "--format", "json", "apply", "testdata/welcome.yaml", "--db", db, "-m", "first")
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, "welcome", data["document"])
	assert.EqualValues(t, 1, data["revision"])
	assert.Equal(t, true, data["saved"])
	hash := data["hash"]

	// identical content does not add a revision
	out, err = execute(t, "--format", "json", "apply", "testdata/welcome.yaml", "--db", db)
	require.NoError(t, err)
	data = decodeResponse(t, out).Data.(map[string]any)
	assert.EqualValues(t, 1, data["revision"])
	assert.Equal(t, false, data["saved"])

	out, err = execute(t, "export", "--db", db, "--doc", "welcome", "--output", "json")
	require.NoError(t, err)
	applied, err := execute(t, "apply", "testdata/welcome.yaml", "--output", "json")
	require.NoError(t, err)
	assert.Equal(t, applied, out)

	out, err = execute(t, "--format", "json", "export", "--db", db, "--doc", "welcome", "--rev", "1")
	require.NoError(t, err)
	data = decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, hash, data["hash"])
	assert.Contains(t, data["body"], "<!DOCTYPE html>")

	out, err = execute(t, "revisions", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "welcome\n", out)

	out, err = execute(t, "--format", "json", "revisions", "--db", db, "--doc", "welcome")
	require.NoError(t, err)
	data = decodeResponse(t, out).Data.(map[string]any)
	revs := data["revisions"].([]any)
	require.Len(t, revs, 1)
	assert.Equal(t, "first", revs[0].(map[string]any)["message"])
}

func TestExport_NotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "mail.db")
	_, err := execute(t, "apply", "testdata/welcome.yaml", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "export", "--db", db, "--doc", "welcome", "--rev", "7")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")

	_, err = execute(t, "revisions", "--db", db, "--doc", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExport_MissingDatabase(t *testing.T) {
	_, err := execute(t, "export", "--db", filepath.Join(t.TempDir(), "none.db"), "--doc", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestRender_RoundTrip(t *testing.T) {
	body, err := execute(t, "apply", "testdata/welcome.yaml", "--output", "json")
	require.NoError(t, err)
	path := writeFile(t, "welcome.json", body)

	out, err := execute(t, "render", path, "--output", "json")
	require.NoError(t, err)
	assert.Equal(t, body, out)

	out, err = execute(t, "render", path)
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 data-block-id="b1"`)
}

func TestRender_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{
			name:     "malformed json",
			body:     `{"id":`,
			wantCode: ErrCodeParse,
		},
		{
			name:     "children on a leaf",
			body:     `{"children":[{"children":[{"id":"b2","props":{},"style":{},"type":"Text"}],"id":"b1","props":{},"style":{},"type":"Text"}],"id":"root","props":{},"style":{},"type":"EmailLayout"}`,
			wantCode: "INVARIANT_VIOLATION",
		},
		{
			name:     "markup in a button color",
			body:     `{"children":[{"id":"btn","props":{"buttonBackgroundColor":"red\"><script>alert(1)</script>"},"style":{},"type":"Button"}],"id":"root","props":{},"style":{},"type":"EmailLayout"}`,
			wantCode: "SCHEMA_VALIDATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "doc.json", tt.body)

			out, err := execute(t, "--format", "json", "render", path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decodeResponse(t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotContains(t, out, "<script>")
		})
	}
}

func TestRender_CustomSchema(t *testing.T) {
	custom := writeFile(t, "blocks.cue", `
types: {
	EmailLayout: {container: true, payload: {style: {}, props: {}}}
	Note: {container: false, payload: {style: {}, props: {text?: string}}}
}
`)
	doc := writeFile(t, "doc.json",
		`{"children":[{"id":"n1","props":{"text":"hi"},"style":{},"type":"Note"}],"id":"root","props":{},"style":{},"type":"EmailLayout"}`)

	out, err := execute(t, "--schema", custom, "render", doc)
	require.NoError(t, err)
	assert.Contains(t, out, `data-block-type="Note"`)
	assert.Contains(t, out, "Unsupported block type: Note")
}
