package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// libraryDDL is executed on every open.
const libraryDDL = `
CREATE TABLE IF NOT EXISTS documents (
    path       TEXT PRIMARY KEY,
    body       TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Entry describes one stored document.
type Entry struct {
	Path      string
	Size      int
	UpdatedAt time.Time
}

// Library stores scene documents in a SQLite database so a project can be
// shipped or shared as a single file. It implements Provider and Writer.
type Library struct {
	db *sql.DB
}

// OpenLibrary opens (or creates) the database at dbPath.
func OpenLibrary(ctx context.Context, dbPath string) (*Library, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("library: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("library: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, libraryDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("library: create schema: %w", err)
	}
	return &Library{db: db}, nil
}

// Close releases the database.
func (l *Library) Close() error {
	return l.db.Close()
}

// ReadText returns the stored document at p.
func (l *Library) ReadText(ctx context.Context, p string) (string, error) {
	var body string
	err := l.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE path = ?", Normalize("", p)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return "", fmt.Errorf("library: read %s: %w", p, err)
	}
	return body, nil
}

// WriteText upserts the document at p.
func (l *Library) WriteText(ctx context.Context, p, text string) error {
	const q = `
		INSERT INTO documents (path, body, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`
	if _, err := l.db.ExecContext(ctx, q, Normalize("", p), text); err != nil {
		return fmt.Errorf("library: write %s: %w", p, err)
	}
	return nil
}

// Delete removes the document at p. Deleting a missing path is not an error.
func (l *Library) Delete(ctx context.Context, p string) error {
	if _, err := l.db.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", Normalize("", p)); err != nil {
		return fmt.Errorf("library: delete %s: %w", p, err)
	}
	return nil
}

// List returns every stored document ordered by path.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT path, length(body), updated_at FROM documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("library: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.Path, &e.Size, &ts); err != nil {
			return nil, fmt.Errorf("library: scan entry: %w", err)
		}
		if e.UpdatedAt, err = parseTimestamp(ts); err != nil {
			return nil, fmt.Errorf("library: entry %s: %w", e.Path, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("library: list: %w", err)
	}
	return out, nil
}

// Import copies the given documents from src in one transaction. It returns
// the number of documents stored.
func (l *Library) Import(ctx context.Context, src Provider, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("library: begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (path, body, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("library: prepare import: %w", err)
	}
	defer stmt.Close()

	for _, p := range paths {
		body, err := src.ReadText(ctx, p)
		if err != nil {
			return 0, fmt.Errorf("library: import %s: %w", p, err)
		}
		if _, err := stmt.ExecContext(ctx, Normalize("", p), body); err != nil {
			return 0, fmt.Errorf("library: import %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("library: commit import: %w", err)
	}
	return len(paths), nil
}

// Export writes every stored document to dst and returns the count.
func (l *Library) Export(ctx context.Context, dst Writer) (int, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		body, err := l.ReadText(ctx, e.Path)
		if err != nil {
			return i, err
		}
		if err := dst.WriteText(ctx, e.Path, body); err != nil {
			return i, fmt.Errorf("library: export %s: %w", e.Path, err)
		}
	}
	return len(entries), nil
}

// timestampFormats lists the layouts drivers produce for CURRENT_TIMESTAMP.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
