package io

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/cellgraph/pkg/errors"
)

// Document is the persisted form of a sheet.
type Document struct {
	Pattern string   `json:"pattern" yaml:"pattern" toml:"pattern"`
	Cells   []Record `json:"cells" yaml:"cells" toml:"cells"`
}

// Record is one non-empty cell.
type Record struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Contents string `json:"contents" yaml:"contents" toml:"contents"`
}

// Format identifies a document encoding.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists every supported format.
var Formats = []Format{FormatXML, FormatJSON, FormatYAML, FormatTOML}

var extFormats = map[string]Format{
	".xml":  FormatXML,
	".sprd": FormatXML,
	".ss":   FormatXML,
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".toml": FormatTOML,
}

// ParseFormat converts a format name such as "json" or "YAML".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatXML, FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported format %q", s)
}

// FormatFromPath returns the format implied by path's extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "cannot infer format from %q", filepath.Base(path))
}

// rawDocument mirrors Document with optional record fields so decoders can
// report records that omit a name or contents.
type rawDocument struct {
	Pattern string      `json:"pattern" yaml:"pattern" toml:"pattern"`
	Cells   []rawRecord `json:"cells" yaml:"cells" toml:"cells"`
}

type rawRecord struct {
	Name     *string `json:"name" yaml:"name" toml:"name" xml:"name,attr"`
	Contents *string `json:"contents" yaml:"contents" toml:"contents" xml:"contents,attr"`
}

func (r rawDocument) document() (*Document, error) {
	doc := &Document{Pattern: r.Pattern, Cells: make([]Record, 0, len(r.Cells))}
	for i, c := range r.Cells {
		if c.Name == nil {
			return nil, errors.New(errors.ErrCodeRead, "cell %d: missing name", i+1)
		}
		if c.Contents == nil {
			return nil, errors.New(errors.ErrCodeRead, "cell %s: missing contents", *c.Name)
		}
		doc.Cells = append(doc.Cells, Record{Name: *c.Name, Contents: *c.Contents})
	}
	return doc, nil
}
