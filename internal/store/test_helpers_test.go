package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mailblocks/internal/command"
	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/payload"
	"github.com/roach88/mailblocks/internal/schema"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDocument returns root -> [b1 Heading, b2 Text].
func createTestDocument(t *testing.T, heading string) *document.Document {
	t.Helper()
	c := command.New(schema.Builtin(), document.NewSequenceGenerator("b"))
	doc := document.New(schema.RootType, nil, nil)

	doc, _, err := c.CreateAndInsert(doc, document.RootID, "Heading", nil,
		payload.Of(payload.P("text", payload.String(heading))), command.AppendIndex)
	require.NoError(t, err)
	doc, _, err = c.CreateAndInsert(doc, document.RootID, "Text", nil,
		payload.Of(payload.P("text", payload.String("body"))), command.AppendIndex)
	require.NoError(t, err)
	return doc
}
