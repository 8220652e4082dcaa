package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Table is the neutral tabular shape the report endpoints expose. The
// workbook builder renders it; the JSON layer serializes it as-is.
type Table struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// Workbook renders one sheet per table. Sheet names are clipped to the
// 31-character workbook limit.
func Workbook(tables ...Table) (*bytes.Buffer, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables to export")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, table := range tables {
		sheet := sheetName(table.Name, i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
		}

		for col, header := range table.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, header); err != nil {
				return nil, err
			}
		}
		for rowIdx, row := range table.Rows {
			for col, value := range row {
				cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return nil, err
				}
			}
		}
	}

	return f.WriteToBuffer()
}

func sheetName(name string, idx int) string {
	if name == "" {
		name = fmt.Sprintf("Sheet%d", idx+1)
	}
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}
