package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/saif-almayahi/muroor/internal/registry"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookRendersHeadersAndRows(t *testing.T) {
	buf, err := Workbook(Table{
		Name:    "ملخص",
		Headers: []string{"ت", "اسم المخالفة", "العدد"},
		Rows: [][]any{
			{1, "الوقوف الممنوع", 12},
			{2, "السير عكس الاتجاه", 4},
		},
	})
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetName(0); got != "ملخص" {
		t.Fatalf("expected sheet name ملخص, got %q", got)
	}
	rows, err := f.GetRows("ملخص")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][1] != "اسم المخالفة" {
		t.Fatalf("unexpected header row %v", rows[0])
	}
	if rows[1][1] != "الوقوف الممنوع" || rows[1][2] != "12" {
		t.Fatalf("unexpected data row %v", rows[1])
	}
}

func TestWorkbookMultipleSheets(t *testing.T) {
	buf, err := Workbook(
		Table{Name: "الاول", Headers: []string{"a"}, Rows: [][]any{{1}}},
		Table{Name: "الثاني", Headers: []string{"b"}, Rows: [][]any{{2}}},
	)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	if got := f.SheetCount; got != 2 {
		t.Fatalf("expected 2 sheets, got %d", got)
	}
}

func TestWorkbookRejectsEmptyInput(t *testing.T) {
	if _, err := Workbook(); err == nil {
		t.Fatalf("expected error for empty table list")
	}
}

func TestSheetNameClipsLongNames(t *testing.T) {
	long := strings.Repeat("اسم", 20)
	got := sheetName(long, 0)
	if len([]rune(got)) != 31 {
		t.Fatalf("expected 31-rune sheet name, got %d runes", len([]rune(got)))
	}
	if got := sheetName("", 2); got != "Sheet3" {
		t.Fatalf("expected fallback Sheet3, got %q", got)
	}
}

func TestParseViolationRowsRoundTrip(t *testing.T) {
	template := registry.ViolationTemplate([]string{
		"الوقوف الممنوع",
		"السير عكس الاتجاه",
		"الزجاج المضلل والستائر",
	})

	buf, err := Workbook(Table{
		Name:    "المخالفات",
		Headers: []string{"اسم المخالفة", "صباحي", "مسائي", "مبلغ صباحي", "مبلغ مسائي"},
		Rows: [][]any{
			{"الوقوف الممنوع", 3, 1, 75000, 25000},
			{"السير عكس الاتجاه", 2, 0, 50000, 0},
			{"مخالفة غير معروفة", 9, 9, 9, 9},
		},
	})
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}

	rows, err := ParseViolationRows(bytes.NewReader(buf.Bytes()), "upload.xlsx", template)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != len(template) {
		t.Fatalf("expected %d rows, got %d", len(template), len(rows))
	}
	if rows[0].MorningCount != 3 || rows[0].EveningCount != 1 || rows[0].MorningAmount != 75000 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].MorningCount != 2 || rows[1].EveningAmount != 0 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
	// Names absent from the sheet stay zeroed.
	if rows[2].MorningCount != 0 || rows[2].EveningCount != 0 {
		t.Fatalf("expected unmatched template row to stay zeroed, got %+v", rows[2])
	}
}

func TestParseViolationRowsNoMatches(t *testing.T) {
	template := registry.ViolationTemplate([]string{"الوقوف الممنوع"})
	buf, err := Workbook(Table{
		Name:    "ورقة",
		Headers: []string{"عمود"},
		Rows:    [][]any{{"لا شيء هنا"}},
	})
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	if _, err := ParseViolationRows(bytes.NewReader(buf.Bytes()), "upload.xlsx", template); err == nil {
		t.Fatalf("expected error when no rows match")
	}
}

func TestCellNumberToleratesBadInput(t *testing.T) {
	row := []string{"name", "7", " 12 ", "3.9", "abc", ""}
	if got := cellNumber(row, 1); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := cellNumber(row, 2); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if got := cellNumber(row, 3); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := cellNumber(row, 4); got != 0 {
		t.Fatalf("expected 0 for non-numeric, got %d", got)
	}
	if got := cellNumber(row, 99); got != 0 {
		t.Fatalf("expected 0 for out of range, got %d", got)
	}
}
