package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// cellNameRegex matches the grammatical shape of a cell name: one or more
// letters followed by a row number that does not start with zero.
var cellNameRegex = regexp.MustCompile(`^[A-Za-z]+[1-9][0-9]*$`)

// ValidateCellName checks the grammatical shape of a cell name.
// Sheet-specific validity patterns are applied separately by the sheet.
func ValidateCellName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "cell name cannot be empty")
	}
	if !cellNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid cell name: %q", name)
	}
	return nil
}

// ValidatePattern compiles a sheet validity pattern.
// An empty pattern is treated as "^.*$", which accepts every name.
func ValidatePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = "^.*$"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, Wrap(ErrCodeInvalidPattern, err, "invalid validity pattern %q", pattern)
	}
	return re, nil
}

// workbookNameRegex matches names usable as storage keys and file basenames.
var workbookNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateWorkbookName validates a workbook name used as a storage key.
// It rejects names that could be used for path traversal or key injection.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 128 characters
//   - Letters, digits, dot, dash and underscore only
//   - No ".." sequences
func ValidateWorkbookName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "workbook name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "workbook name too long (max 128 characters)")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "workbook name cannot contain \"..\"")
	}
	if !workbookNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid workbook name: %q", name)
	}
	return nil
}

// ValidatePath validates a workbook file path given on the command line or
// over the API.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
