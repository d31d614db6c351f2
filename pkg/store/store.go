// Package store persists workbook documents by name.
//
// Every backend stores the XML form of a [pkgio.Document] (the format the
// record files use on disk) together with a SHA-256 digest of those bytes,
// the number of cells, and the time of the last write. Backends differ only
// in where the bytes live:
//
//   - [FileStore]: one .xml file per workbook in a directory
//   - [MemoryStore]: a process-local map, for tests and the HTTP server
//   - [SQLiteStore]: a single table in a SQLite database
//   - [RedisStore]: one hash per workbook under a key prefix
//   - [MongoStore]: one document per workbook in a collection
//
// [Open] builds the backend named by a [Config] and wraps it with
// [Instrument] so every call reports to the registered
// observability.StoreHooks.
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
	pkgio "github.com/matzehuels/cellgraph/pkg/io"
)

// ErrNotFound is returned when a workbook does not exist. Backends wrap it
// with the workbook name; test with errors.Is.
var ErrNotFound = errors.New("workbook not found")

// Store is a named collection of workbook documents.
type Store interface {
	// Get returns the named workbook or an error wrapping ErrNotFound.
	Get(ctx context.Context, name string) (*pkgio.Document, error)

	// Put creates or replaces the named workbook.
	Put(ctx context.Context, name string, doc *pkgio.Document) error

	// Delete removes the named workbook or returns an error wrapping
	// ErrNotFound.
	Delete(ctx context.Context, name string) error

	// List describes every stored workbook, sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Close releases the backend's resources.
	Close() error
}

// Info describes a stored workbook without its cells.
type Info struct {
	Name      string    `json:"name"`
	Cells     int       `json:"cells"`
	Digest    string    `json:"digest"`
	UpdatedAt time.Time `json:"updated_at"`
}

// notFound wraps ErrNotFound with the workbook name.
func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

func checkName(name string) error {
	return cgerrors.ValidateWorkbookName(name)
}

// encoded is a document in its stored form.
type encoded struct {
	data   []byte
	digest string
	cells  int
}

func encode(doc *pkgio.Document) (encoded, error) {
	if doc == nil {
		return encoded{}, cgerrors.New(cgerrors.ErrCodeInvalidArgument, "nil document")
	}
	var buf bytes.Buffer
	if err := pkgio.Write(doc, &buf, pkgio.FormatXML); err != nil {
		return encoded{}, err
	}
	return encoded{data: buf.Bytes(), digest: Digest(buf.Bytes()), cells: len(doc.Cells)}, nil
}

func decode(name string, data []byte) (*pkgio.Document, error) {
	doc, err := pkgio.Read(bytes.NewReader(data), pkgio.FormatXML)
	if err != nil {
		return nil, fmt.Errorf("decode workbook %s: %w", name, err)
	}
	return doc, nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
