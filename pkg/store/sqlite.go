package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgio "github.com/matzehuels/cellgraph/pkg/io"

	_ "modernc.org/sqlite"
)

const workbookSQLiteSchema = `
CREATE TABLE IF NOT EXISTS workbooks (
	name TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	digest TEXT NOT NULL,
	cells INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore keeps workbooks in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite workbook store. dsn is a file
// path or a modernc.org/sqlite connection string.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite store: dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: set WAL mode: %w", err)
	}
	if _, err := db.Exec(workbookSQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (*pkgio.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM workbooks WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: get: %w", err)
	}
	return decode(name, data)
}

func (s *SQLiteStore) Put(ctx context.Context, name string, doc *pkgio.Document) error {
	if err := checkName(name); err != nil {
		return err
	}
	enc, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO workbooks (name, data, digest, cells, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	data = excluded.data,
	digest = excluded.digest,
	cells = excluded.cells,
	updated_at = excluded.updated_at`,
		name, enc.data, enc.digest, enc.cells, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite store: put: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM workbooks WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("sqlite store: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite store: delete: %w", err)
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, cells, digest, updated_at
FROM workbooks
ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info    Info
			updated string
		)
		if err := rows.Scan(&info.Name, &info.Cells, &info.Digest, &updated); err != nil {
			return nil, fmt.Errorf("sqlite store: scan: %w", err)
		}
		info.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: parse updated_at: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: list: %w", err)
	}
	return infos, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
