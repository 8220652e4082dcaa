package export

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/saif-almayahi/muroor/internal/registry"
	"github.com/xuri/excelize/v2"
)

// ParseViolationRows reads an uploaded violation sheet (.xls or .xlsx) and
// maps it onto the given template. Rows are matched by exact violation name;
// unmatched sheet rows are skipped, unmatched template rows stay zeroed.
// Numeric cells that fail to parse count as zero, matching what the data
// clerks' forms have always tolerated.
func ParseViolationRows(reader io.Reader, filename string, template []registry.ViolationRow) ([]registry.ViolationRow, error) {
	rows, err := readRowsFromSpreadsheet(reader, filename)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(template))
	out := make([]registry.ViolationRow, len(template))
	copy(out, template)
	for i, row := range out {
		byName[row.Name] = i
	}

	matched := 0
	for _, cells := range rows {
		nameIdx := -1
		for idx, cell := range cells {
			if _, ok := byName[strings.TrimSpace(cell)]; ok {
				nameIdx = idx
				break
			}
		}
		if nameIdx < 0 {
			continue
		}
		i := byName[strings.TrimSpace(cells[nameIdx])]
		out[i].MorningCount = int(cellNumber(cells, nameIdx+1))
		out[i].EveningCount = int(cellNumber(cells, nameIdx+2))
		out[i].MorningAmount = cellNumber(cells, nameIdx+3)
		out[i].EveningAmount = cellNumber(cells, nameIdx+4)
		matched++
	}
	if matched == 0 {
		return nil, fmt.Errorf("no rows matched the violation list")
	}
	return out, nil
}

func cellNumber(row []string, idx int) int64 {
	if idx < 0 || idx >= len(row) {
		return 0
	}
	raw := strings.TrimSpace(row[idx])
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(f)
	}
	return 0
}

func readRowsFromSpreadsheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		if workbook.NumSheets() > 1 {
			return nil, fmt.Errorf("multiple worksheets found; upload a single-sheet file")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}

		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}
