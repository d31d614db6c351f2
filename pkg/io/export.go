package io

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/cellgraph/pkg/errors"
)

// Write encodes doc in format f and writes it to w.
// The output can be re-read with [Read] for round-trip processing.
func Write(doc *Document, w io.Writer, f Format) error {
	if doc == nil {
		return errors.New(errors.ErrCodeInvalidArgument, "nil document")
	}
	if doc.Cells == nil {
		doc = &Document{Pattern: doc.Pattern, Cells: []Record{}}
	}
	var err error
	switch f {
	case FormatXML:
		err = writeXML(doc, w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(doc)
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "encode %s", f)
	}
	return nil
}

func writeXML(doc *Document, w io.Writer) error {
	x := xmlDocument{IsValid: doc.Pattern, Cells: make([]rawRecord, len(doc.Cells))}
	for i := range doc.Cells {
		x.Cells[i] = rawRecord{Name: &doc.Cells[i].Name, Contents: &doc.Cells[i].Contents}
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(x); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ExportFile writes doc to path in the format implied by its extension.
func ExportFile(doc *Document, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	// Encode into a sibling and rename so a failed write leaves the
	// existing file intact.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "create %s", path)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeWrite, err, "create %s", path)
	}
	if err := Write(doc, tmp, f); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "replace %s", path)
	}
	return nil
}
