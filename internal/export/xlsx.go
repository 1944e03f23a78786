package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/sopdash/internal/survey"
	"github.com/KaramelBytes/sopdash/internal/utils"
)

const (
	dataSheet = "Standardized"
	runSheet  = "Run"
)

// WriteXLSX writes rows to the "Standardized" sheet and the run summary to "Run".
// Numbers are stored as numeric cells; missing values are left blank.
func WriteXLSX(path string, sum survey.Summary, rows []survey.Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, len(survey.Columns))
	for i, h := range Header() {
		header[i] = h
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cells := make([]any, len(survey.Columns))
		for j, col := range survey.Columns {
			if n, ok := r.Numeric(col); ok {
				if n.Valid {
					cells[j] = n.V
				}
				continue
			}
			cells[j], _ = r.Text(col)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(dataSheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(runSheet); err != nil {
		return fmt.Errorf("add run sheet: %w", err)
	}
	meta := [][]any{
		{"run_id", sum.RunID},
		{"created_at", sum.CreatedAt.UTC().Format(time.RFC3339)},
		{"rows", sum.Rows},
		{"exported_rows", len(rows)},
		{"repaired_cells", sum.RepairedCells},
		{"unparsed_cells", sum.UnparsedTotal()},
	}
	keys := make([]string, 0, len(sum.Unparsed))
	for k := range sum.Unparsed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta = append(meta, []any{"unparsed." + k, sum.Unparsed[k]})
	}
	for i, kv := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := kv
		if err := f.SetSheetRow(runSheet, cell, &row); err != nil {
			return fmt.Errorf("write run sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
