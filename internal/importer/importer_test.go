package importer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ruivenancio/finance-app/internal/importer"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestParseCSV(t *testing.T) {
	csv := strings.Join([]string{
		"Date,Description,Amount",
		"2025-01-05,Coffee,-4.50",
		"2025-01-06,Salary,2000",
		"not-a-date,Broken,12",
		"2025-01-07,Rent,-800",
		"2025-01-08,missing amount",
	}, "\n")

	rows, failed, err := importer.Parse("statement.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if rows[0].Description != "Coffee" || !rows[0].Amount.Equal(mustDec(t, "-4.50")) {
		t.Errorf("first row = %+v", rows[0])
	}
	if got := rows[2].Date.Format("2006-01-02"); got != "2025-01-07" {
		t.Errorf("third row date = %s", got)
	}
}

func TestParseCSVDateFormats(t *testing.T) {
	csv := strings.Join([]string{
		"2025-01-05,iso,1",
		"01/02/2025,us slash,2",
		"2025-01-05 13:45:00,datetime,3",
	}, "\n")

	rows, failed, err := importer.Parse("x.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if failed != 0 || len(rows) != 3 {
		t.Fatalf("rows=%d failed=%d, want 3/0", len(rows), failed)
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	cells := [][]interface{}{
		{"Date", "Description", "Amount"},
		{"2025-02-01", "Groceries", "-55.20"},
		{"2025-02-02", "Refund", "12"},
	}
	for i, row := range cells {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, failed, err := importer.Parse("statement.xlsx", &buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if failed != 0 || len(rows) != 2 {
		t.Fatalf("rows=%d failed=%d, want 2/0", len(rows), failed)
	}
	if rows[0].Description != "Groceries" || !rows[0].Amount.Equal(mustDec(t, "-55.20")) {
		t.Errorf("first row = %+v", rows[0])
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	if _, _, err := importer.Parse("statement.pdf", strings.NewReader("")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
