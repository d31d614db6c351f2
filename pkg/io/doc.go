// Package io reads and writes workbook documents: the persisted form of a
// sheet as an ordered list of (name, contents) records plus the sheet's
// validity pattern.
//
// # Overview
//
// A [Document] holds cell contents exactly as a user would type them, so a
// sheet can be rebuilt by replaying the records in order:
//
//	doc := &pkgio.Document{
//	    Pattern: "^[A-Z][1-9][0-9]?$",
//	    Cells: []pkgio.Record{
//	        {Name: "A1", Contents: "3"},
//	        {Name: "B1", Contents: "=A1*A1"},
//	    },
//	}
//
// Numbers are stored in shortest round-trip form and formulas carry their
// leading "=". Empty cells are never written.
//
// # Formats
//
// Four encodings are supported. XML is the native spreadsheet format:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<spreadsheet IsValid="^[A-Z][1-9][0-9]?$">
//	  <cell name="A1" contents="3"></cell>
//	  <cell name="B1" contents="=A1*A1"></cell>
//	</spreadsheet>
//
// JSON, YAML, and TOML use the same shape with "pattern" and "cells" keys:
//
//	{
//	  "pattern": "^[A-Z][1-9][0-9]?$",
//	  "cells": [
//	    {"name": "A1", "contents": "3"},
//	    {"name": "B1", "contents": "=A1*A1"}
//	  ]
//	}
//
// [FormatFromPath] picks a format from the file extension; ".xml", ".sprd"
// and ".ss" all map to XML.
//
// # Errors
//
// Malformed input is reported with code INVALID_FORMAT. A record missing its
// name or contents is reported with code READ_ERROR. This package does not
// validate cell names or formulas; that happens when the document is loaded
// into a sheet.
package io
