package survey

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// RawTable is a survey export as read from disk: one header row of question strings and
// one record per respondent. Cells are untyped text.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Cell returns the value at row i, column j, or "" when the row is short.
func (t *RawTable) Cell(i, j int) string {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// RepairText fixes the two traces Windows-1252 text leaves in a UTF-8 export. Raw 1252
// bytes (smart quotes, dashes in 0x80-0x9F, accented letters) are decoded to the characters
// they stand for, so "caf\xe9" becomes "café". U+FFFD replacement characters, where the
// original byte is already lost, are removed. Strings with neither are returned unchanged.
func RepairText(s string) string {
	if utf8.ValidString(s) && !strings.ContainsRune(s, utf8.RuneError) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			if d := charmap.Windows1252.DecodeByte(s[i]); d != utf8.RuneError {
				b.WriteRune(d)
			}
		case r == utf8.RuneError:
			// literal U+FFFD
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// RepairTable applies RepairText to the header and every cell and returns a new table
// together with the number of data cells that changed. The input table is not modified.
func RepairTable(t *RawTable) (*RawTable, int) {
	if t == nil {
		return &RawTable{}, 0
	}
	repaired := 0
	out := &RawTable{
		Header: make([]string, len(t.Header)),
		Rows:   make([][]string, len(t.Rows)),
	}
	for j, h := range t.Header {
		out.Header[j] = RepairText(h)
	}
	for i, rec := range t.Rows {
		row := make([]string, len(rec))
		for j, v := range rec {
			row[j] = RepairText(v)
			if row[j] != v {
				repaired++
			}
		}
		out.Rows[i] = row
	}
	return out, repaired
}
