package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Attendance"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs a workbook exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render writes headers on the first row, one row per record, then the summary lines.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	writeRow := func(values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		line := make([]interface{}, len(values))
		for i, v := range values {
			line[i] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &line); err != nil {
			return err
		}
		row++
		return nil
	}

	if err := writeRow(data.Headers); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	for _, r := range data.Rows {
		if err := writeRow(data.record(r)); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
	}
	if len(data.Summary) > 0 {
		row++
		for _, line := range data.Summary {
			if err := writeRow([]string{line}); err != nil {
				return nil, fmt.Errorf("write xlsx summary: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
