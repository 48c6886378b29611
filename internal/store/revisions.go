package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/payload"
	"github.com/roach88/mailblocks/internal/render"
)

// ErrNotFound is returned when a document or revision does not exist.
var ErrNotFound = errors.New("store: not found")

// Revision describes one saved snapshot. Body holds the canonical JSON and
// is only populated by the Load methods.
type Revision struct {
	Document string
	Seq      int64
	Hash     string
	Blocks   int
	Message  string
	Body     []byte
}

// SaveRevision appends doc to the named document's revision list.
//
// Returns the stored revision and whether a new row was inserted. When doc
// has the same content hash as the current head, nothing is written and the
// head revision is returned with inserted=false.
func (s *Store) SaveRevision(ctx context.Context, name string, doc *document.Document, message string) (rev Revision, inserted bool, err error) {
	if name == "" {
		return Revision{}, false, fmt.Errorf("save revision: document name is required")
	}
	body, err := render.ToCanonicalJSON(doc, document.RootID)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save revision: %w", err)
	}
	hash := payload.HashWithDomain(payload.DomainDocument, body)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save revision: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name); err != nil {
		return Revision{}, false, fmt.Errorf("save revision: upsert document: %w", err)
	}

	var head int64
	if err := tx.QueryRowContext(ctx, `SELECT head_seq FROM documents WHERE name = ?`, name).Scan(&head); err != nil {
		return Revision{}, false, fmt.Errorf("save revision: read head: %w", err)
	}

	if head > 0 {
		existing, err := scanRevision(tx.QueryRowContext(ctx, `
			SELECT document, seq, hash, blocks, message
			FROM revisions
			WHERE document = ? AND seq = ?
		`, name, head))
		if err != nil {
			return Revision{}, false, fmt.Errorf("save revision: read head revision: %w", err)
		}
		if existing.Hash == hash {
			return existing, false, nil
		}
	}

	rev = Revision{
		Document: name,
		Seq:      head + 1,
		Hash:     hash,
		Blocks:   doc.Len(),
		Message:  message,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (document, seq, hash, body, blocks, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rev.Document, rev.Seq, rev.Hash, string(body), rev.Blocks, rev.Message); err != nil {
		return Revision{}, false, fmt.Errorf("save revision: insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE documents SET head_seq = ? WHERE name = ?`, rev.Seq, name); err != nil {
		return Revision{}, false, fmt.Errorf("save revision: update head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Revision{}, false, fmt.Errorf("save revision: commit: %w", err)
	}
	return rev, true, nil
}

// LoadLatest returns the head revision of a document.
func (s *Store) LoadLatest(ctx context.Context, name string) (*document.Document, Revision, error) {
	var head int64
	err := s.db.QueryRowContext(ctx, `SELECT head_seq FROM documents WHERE name = ?`, name).Scan(&head)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && head == 0) {
		return nil, Revision{}, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, Revision{}, fmt.Errorf("load %q: %w", name, err)
	}
	return s.LoadRevision(ctx, name, head)
}

// LoadRevision returns one revision of a document. The body is re-hashed and
// must match the stored hash.
func (s *Store) LoadRevision(ctx context.Context, name string, seq int64) (*document.Document, Revision, error) {
	var (
		rev  Revision
		body string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT document, seq, hash, blocks, message, body
		FROM revisions
		WHERE document = ? AND seq = ?
	`, name, seq).Scan(&rev.Document, &rev.Seq, &rev.Hash, &rev.Blocks, &rev.Message, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Revision{}, fmt.Errorf("load %q revision %d: %w", name, seq, ErrNotFound)
	}
	if err != nil {
		return nil, Revision{}, fmt.Errorf("load %q revision %d: %w", name, seq, err)
	}

	rev.Body = []byte(body)
	if got := payload.HashWithDomain(payload.DomainDocument, rev.Body); got != rev.Hash {
		return nil, Revision{}, fmt.Errorf("load %q revision %d: hash mismatch: stored %s, computed %s", name, seq, rev.Hash, got)
	}

	doc, err := render.FromJSON(rev.Body)
	if err != nil {
		return nil, Revision{}, fmt.Errorf("load %q revision %d: %w", name, seq, err)
	}
	return doc, rev, nil
}

// ListRevisions returns a document's revisions without bodies, ordered by seq.
// Returns an empty slice (not nil) for unknown documents.
func (s *Store) ListRevisions(ctx context.Context, name string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document, seq, hash, blocks, message
		FROM revisions
		WHERE document = ?
		ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revs := []Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revs, nil
}

// ListDocuments returns every document name in binary order.
func (s *Store) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM documents
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return names, nil
}

// FindByHash returns the seqs of a document's revisions with the given hash.
func (s *Store) FindByHash(ctx context.Context, name, hash string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq FROM revisions
		WHERE document = ? AND hash = ?
		ORDER BY seq ASC
	`, name, hash)
	if err != nil {
		return nil, fmt.Errorf("query revisions by hash: %w", err)
	}
	defer rows.Close()

	seqs := []int64{}
	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return nil, fmt.Errorf("scan seq: %w", err)
		}
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions by hash: %w", err)
	}
	return seqs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(row rowScanner) (Revision, error) {
	var rev Revision
	if err := row.Scan(&rev.Document, &rev.Seq, &rev.Hash, &rev.Blocks, &rev.Message); err != nil {
		return Revision{}, fmt.Errorf("scan revision: %w", err)
	}
	return rev, nil
}
