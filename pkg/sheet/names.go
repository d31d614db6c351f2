package sheet

import (
	"cmp"
	"strconv"
	"strings"
)

// splitName splits an upper-cased cell name into its column letters and
// row number. Names that do not have that shape return row -1.
func splitName(name string) (string, int) {
	i := strings.IndexFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return name, -1
	}
	row, err := strconv.Atoi(name[i:])
	if err != nil {
		return name, -1
	}
	return name[:i], row
}

// CompareNames orders cell names the way a grid reads them: by column
// (shorter column labels first, so Z comes before AA), then by row number.
// It returns a negative number, zero, or a positive number like [cmp.Compare].
func CompareNames(a, b string) int {
	ca, ra := splitName(strings.ToUpper(a))
	cb, rb := splitName(strings.ToUpper(b))
	if c := cmp.Compare(len(ca), len(cb)); c != 0 {
		return c
	}
	if c := cmp.Compare(ca, cb); c != 0 {
		return c
	}
	return cmp.Compare(ra, rb)
}

// ColumnIndex converts column letters to a zero-based index: A is 0,
// Z is 25, AA is 26.
func ColumnIndex(col string) int {
	idx := 0
	for _, r := range strings.ToUpper(col) {
		idx = idx*26 + int(r-'A'+1)
	}
	return idx - 1
}

// ColumnName is the inverse of [ColumnIndex].
func ColumnName(idx int) string {
	var b []byte
	for idx++; idx > 0; idx = (idx - 1) / 26 {
		b = append([]byte{byte('A' + (idx-1)%26)}, b...)
	}
	return string(b)
}

// CellName builds a cell name from a zero-based column and row, so
// CellName(0, 0) is "A1".
func CellName(col, row int) string {
	return ColumnName(col) + strconv.Itoa(row+1)
}

// Coordinates returns the zero-based column and row of a cell name.
// ok is false if name is not a well-formed cell name.
func Coordinates(name string) (col, row int, ok bool) {
	c, r := splitName(strings.ToUpper(name))
	if r < 1 || c == "" {
		return 0, 0, false
	}
	for _, ch := range c {
		if ch < 'A' || ch > 'Z' {
			return 0, 0, false
		}
	}
	return ColumnIndex(c), r - 1, true
}
