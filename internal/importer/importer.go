// Package importer extracts transaction rows from uploaded spreadsheets.
// Supported formats are .xlsx and .csv with the columns Date,
// Description, Amount. Malformed rows are counted, not fatal.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type Row struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"01-02-06",
}

// Parse reads the named file and returns the well-formed rows plus the
// count of rows that failed to parse.
func Parse(name string, r io.Reader) ([]Row, int, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return parseXLSX(r)
	case ".csv":
		return parseCSV(r)
	default:
		return nil, 0, fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
}

func parseXLSX(r io.Reader) ([]Row, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	rows, failed := collect(records)
	return rows, failed, nil
}

func parseCSV(r io.Reader) ([]Row, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("reading csv: %w", err)
	}
	rows, failed := collect(records)
	return rows, failed, nil
}

// collect parses every record; a first row that does not parse is taken
// to be the header and is not counted as a failure.
func collect(records [][]string) ([]Row, int) {
	var rows []Row
	failed := 0
	for i, rec := range records {
		row, err := parseRecord(rec)
		if err != nil {
			if i > 0 {
				failed++
			}
			continue
		}
		rows = append(rows, row)
	}
	return rows, failed
}

func parseRecord(rec []string) (Row, error) {
	if len(rec) < 3 {
		return Row{}, fmt.Errorf("expected 3 columns, got %d", len(rec))
	}
	date, err := parseDate(strings.TrimSpace(rec[0]))
	if err != nil {
		return Row{}, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
	if err != nil {
		return Row{}, fmt.Errorf("bad amount %q: %w", rec[2], err)
	}
	return Row{
		Date:        date,
		Description: strings.TrimSpace(rec[1]),
		Amount:      amount,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}
