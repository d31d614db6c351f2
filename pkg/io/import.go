package io

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/cellgraph/pkg/errors"
)

type xmlDocument struct {
	XMLName xml.Name    `xml:"spreadsheet"`
	IsValid string      `xml:"IsValid,attr"`
	Cells   []rawRecord `xml:"cell"`
}

// Read decodes a document in format f from r.
//
// Read returns an INVALID_FORMAT error if the input cannot be decoded and a
// READ_ERROR if a record has no name or no contents. Read does not close r.
func Read(r io.Reader, f Format) (*Document, error) {
	var raw rawDocument
	switch f {
	case FormatXML:
		var x xmlDocument
		if err := xml.NewDecoder(r).Decode(&x); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode xml")
		}
		raw = rawDocument{Pattern: x.IsValid, Cells: x.Cells}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
	}
	return raw.document()
}

// ImportFile reads the document at path, choosing the format from the file
// extension with [FormatFromPath].
//
// Failures to open the file are wrapped as READ_ERROR with the path for
// context; decoding errors are those of [Read].
func ImportFile(path string) (*Document, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRead, err, "open %s", path)
	}
	defer file.Close()

	doc, err := Read(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
