package sheet

import (
	"io"
	"strings"
	"time"

	"github.com/matzehuels/cellgraph/pkg/cell"
	"github.com/matzehuels/cellgraph/pkg/errors"
	pkgio "github.com/matzehuels/cellgraph/pkg/io"
)

// Document returns the sheet's persisted form: the validity pattern and one
// record per non-empty cell in grid order.
func (s *Sheet) Document() *pkgio.Document {
	names := s.GetNamesOfAllNonemptyCells()
	doc := &pkgio.Document{
		Pattern: s.pattern.String(),
		Cells:   make([]pkgio.Record, 0, len(names)),
	}
	for _, name := range names {
		doc.Cells = append(doc.Cells, pkgio.Record{
			Name:     name,
			Contents: cell.Serialize(s.cells[name].Contents),
		})
	}
	return doc
}

// Save writes the sheet to w in format f and clears [Sheet.Changed].
func (s *Sheet) Save(w io.Writer, f pkgio.Format) error {
	doc := s.Document()
	err := pkgio.Write(doc, w, f)
	s.saved(len(doc.Cells), err)
	return err
}

// SaveFile writes the sheet to path in the format implied by its extension
// and clears [Sheet.Changed].
func (s *Sheet) SaveFile(path string) error {
	doc := s.Document()
	err := pkgio.ExportFile(doc, path)
	s.saved(len(doc.Cells), err)
	return err
}

func (s *Sheet) saved(cells int, err error) {
	s.hooks.OnSave(cells, err)
	if err != nil {
		return
	}
	s.changed = false
	s.logger.Debug("saved sheet", "cells", cells)
}

// Load builds a sheet by applying the document's records in order, as if
// each were passed to [Sheet.SetContentsOfCell].
//
// A non-empty doc.Pattern becomes the sheet's validity pattern, taking
// precedence over [WithPattern]. Any failure is reported as READ_ERROR
// wrapping the cause: a malformed pattern, a duplicate cell name (compared
// case-insensitively), an invalid cell name or formula, or a circular
// dependency. The returned sheet reports Changed() == false.
func Load(doc *pkgio.Document, opts ...Option) (*Sheet, error) {
	start := time.Now()
	s := New(opts...)
	err := s.load(doc)
	s.hooks.OnLoad(len(doc.Cells), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRead, err, "load workbook")
	}
	s.logger.Debug("loaded sheet", "cells", len(s.cells), "duration", time.Since(start))
	return s, nil
}

func (s *Sheet) load(doc *pkgio.Document) error {
	if doc.Pattern != "" {
		re, err := errors.ValidatePattern(doc.Pattern)
		if err != nil {
			return err
		}
		s.pattern = re
	}

	seen := make(map[string]struct{}, len(doc.Cells))
	for _, rec := range doc.Cells {
		key := strings.ToUpper(rec.Name)
		if _, dup := seen[key]; dup {
			return errors.New(errors.ErrCodeDuplicateCell, "duplicate cell %s", key)
		}
		seen[key] = struct{}{}
		if _, err := s.set(rec.Name, rec.Contents); err != nil {
			return err
		}
	}
	s.changed = false
	return nil
}

// Read decodes a document in format f from r and loads it. Decoding
// failures are reported as READ_ERROR like every other load failure.
func Read(r io.Reader, f pkgio.Format, opts ...Option) (*Sheet, error) {
	doc, err := pkgio.Read(r, f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRead, err, "read workbook")
	}
	return Load(doc, opts...)
}

// Open reads and loads the workbook file at path, choosing the format from
// its extension.
func Open(path string, opts ...Option) (*Sheet, error) {
	doc, err := pkgio.ImportFile(path)
	if err != nil {
		if errors.Is(err, errors.ErrCodeRead) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeRead, err, "read %s", path)
	}
	return Load(doc, opts...)
}
