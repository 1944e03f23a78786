package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Read loads the selected sheet (first sheet by default). The first row is the header.
func (xlsxReader) Read(path string, opt Options) (*survey.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := opt.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("open xlsx: no sheets in %s", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	t := &survey.RawTable{}
	if len(rows) == 0 {
		return t, nil
	}
	t.Header = rows[0]
	for _, rec := range rows[1:] {
		if opt.MaxRows > 0 && len(t.Rows) >= opt.MaxRows {
			break
		}
		appendRecord(t, rec)
	}
	return t, nil
}
