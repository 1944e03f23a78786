package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/KaramelBytes/sopdash/internal/survey"
	"github.com/KaramelBytes/sopdash/internal/utils"
)

// Header returns the standardized column names in export order.
func Header() []string {
	h := make([]string, len(survey.Columns))
	for i, f := range survey.Columns {
		h[i] = string(f)
	}
	return h
}

// WriteCSV writes the header and one record per row. Missing numbers are empty cells.
func WriteCSV(w io.Writer, rows []survey.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes rows to path atomically.
func WriteCSVFile(path string, rows []survey.Row) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
