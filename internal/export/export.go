package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

// Format selects an export target.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
)

// ErrFormat indicates an unknown export format.
var ErrFormat = errors.New("unknown export format")

// ParseFormat resolves a format name; "" and unknown names are errors.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	case "postgres", "postgresql", "pg":
		return FormatPostgres, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// FormatFromPath guesses the format from an output file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	}
	return FormatCSV
}

// Write exports rows of ds to target. For files target is a path; for PostgreSQL it is a DSN.
// rows may be a filtered subset of ds.Rows; the run summary always describes ds.
func Write(ctx context.Context, format Format, target string, ds *survey.Dataset, rows []survey.Row) error {
	if ds == nil {
		return errors.New("export: nil dataset")
	}
	if target == "" {
		return fmt.Errorf("export %s: empty target", format)
	}
	switch format {
	case FormatCSV:
		return WriteCSVFile(target, rows)
	case FormatXLSX:
		return WriteXLSX(target, ds.Summary, rows)
	case FormatSQLite, FormatPostgres:
		db, err := Open(ctx, format, target)
		if err != nil {
			return err
		}
		defer db.Close()
		return WriteSQL(ctx, db, ds.Summary, rows)
	}
	return fmt.Errorf("%w: %q", ErrFormat, format)
}
