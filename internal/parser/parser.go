package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

// Options controls how a survey export is loaded.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the file name and header line.
	Delimiter rune
	// MaxRows limits data rows loaded; 0 means unlimited.
	MaxRows int
	// SheetName selects the XLSX sheet. Empty means the first sheet.
	SheetName string
}

// Reader loads a tabular survey export into a raw table.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*survey.RawTable, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadFile selects a reader based on filename and returns the raw table.
func ReadFile(path string, opt Options) (*survey.RawTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ErrUnsupported indicates a file format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

// appendRecord adds rec to t unless every cell is blank; exports often end with empty rows.
func appendRecord(t *survey.RawTable, rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			row := make([]string, len(rec))
			copy(row, rec)
			t.Rows = append(t.Rows, row)
			return true
		}
	}
	return false
}
