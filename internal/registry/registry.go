// Package registry tracks uploaded documents in a local SQLite database.
// The registry is the source of truth for which documents exist; vector
// collections hold the searchable content and are keyed by the document
// IDs recorded here.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound indicates no indexed document has the requested name.
	ErrNotFound = errors.New("document not found")

	// ErrConflict indicates another ingestion of the same name is
	// already in flight.
	ErrConflict = errors.New("document ingestion already in progress")
)

// Status is a document's lifecycle state. Documents are invisible to
// reads until ingestion commits.
type Status string

const (
	StatusIngesting Status = "ingesting"
	StatusIndexed   Status = "indexed"
)

// Document is a registered upload.
type Document struct {
	ID         string
	Name       string
	Pages      int
	Chunks     int
	UploadedAt time.Time
	Status     Status
}

// Registry is a SQLite-backed document catalog.
type Registry struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	page_count  INTEGER NOT NULL DEFAULT 0,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	uploaded_at TEXT NOT NULL,
	status      TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_name_status ON documents(name, status);
`

// Open opens (or creates) the registry database at path and applies the
// schema. WAL mode keeps readers unblocked during ingestion writes.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying registry schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// BeginIngest registers a provisional document and returns its ID. The
// document stays invisible to Get and List until Commit. A second
// in-flight ingestion of the same name returns ErrConflict.
func (r *Registry) BeginIngest(ctx context.Context, name string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var inFlight int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE name = ? AND status = ?`,
		name, StatusIngesting).Scan(&inFlight)
	if err != nil {
		return "", fmt.Errorf("checking in-flight ingestions: %w", err)
	}
	if inFlight > 0 {
		return "", fmt.Errorf("%w: %s", ErrConflict, name)
	}

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, name, uploaded_at, status) VALUES (?, ?, ?, ?)`,
		id, name, time.Now().UTC().Format(time.RFC3339), StatusIngesting)
	if err != nil {
		return "", fmt.Errorf("registering document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing registration: %w", err)
	}
	return id, nil
}

// Commit marks a provisional document as indexed with its final counts.
// An already-indexed document of the same name is removed in the same
// transaction; its ID is returned so the caller can drop its collection.
func (r *Registry) Commit(ctx context.Context, id string, pages, chunks int) (replacedID string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM documents WHERE id = ? AND status = ?`,
		id, StatusIngesting).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no provisional document %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("looking up provisional document: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE name = ? AND status = ?`,
		name, StatusIndexed).Scan(&replacedID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("looking up replaced document: %w", err)
	}
	if replacedID != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, replacedID); err != nil {
			return "", fmt.Errorf("removing replaced document: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET status = ?, page_count = ?, chunk_count = ?, uploaded_at = ? WHERE id = ?`,
		StatusIndexed, pages, chunks, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return "", fmt.Errorf("marking document indexed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing document: %w", err)
	}
	return replacedID, nil
}

// Abort removes a provisional document after a failed ingestion.
func (r *Registry) Abort(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND status = ?`, id, StatusIngesting)
	if err != nil {
		return fmt.Errorf("removing provisional document: %w", err)
	}
	return nil
}

// Get returns the indexed document with the given name.
func (r *Registry) Get(ctx context.Context, name string) (Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, page_count, chunk_count, uploaded_at, status
		 FROM documents WHERE name = ? AND status = ?`,
		name, StatusIndexed)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Document{}, fmt.Errorf("reading document: %w", err)
	}
	return doc, nil
}

// List returns every indexed document ordered by name.
func (r *Registry) List(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, page_count, chunk_count, uploaded_at, status
		 FROM documents WHERE status = ? ORDER BY name`,
		StatusIndexed)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("reading document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Delete removes the indexed document with the given name and returns it
// so the caller can drop its collection.
func (r *Registry) Delete(ctx context.Context, name string) (Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, name, page_count, chunk_count, uploaded_at, status
		 FROM documents WHERE name = ? AND status = ?`,
		name, StatusIndexed)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Document{}, fmt.Errorf("reading document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc.ID); err != nil {
		return Document{}, fmt.Errorf("deleting document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("committing delete: %w", err)
	}
	return doc, nil
}

// PruneIngesting removes provisional rows left behind by an interrupted
// run and returns their IDs so the caller can drop any orphaned
// collections. Intended to be called once at startup.
func (r *Registry) PruneIngesting(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM documents WHERE status = ?`, StatusIngesting)
	if err != nil {
		return nil, fmt.Errorf("listing provisional documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("reading provisional row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provisional rows: %w", err)
	}

	if len(ids) > 0 {
		if _, err := r.db.ExecContext(ctx,
			`DELETE FROM documents WHERE status = ?`, StatusIngesting); err != nil {
			return nil, fmt.Errorf("pruning provisional documents: %w", err)
		}
	}
	return ids, nil
}

// Reset removes every document row. Used at startup with the in-memory
// vector backend, whose collections do not survive the process.
func (r *Registry) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("resetting registry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var uploadedAt string
	err := row.Scan(&doc.ID, &doc.Name, &doc.Pages, &doc.Chunks, &uploadedAt, &doc.Status)
	if err != nil {
		return Document{}, err
	}
	parsed, err := time.Parse(time.RFC3339, uploadedAt)
	if err == nil {
		doc.UploadedAt = parsed
	}
	return doc, nil
}
