package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeCSV reads comma, semicolon or tab separated text. The delimiter is taken from the first
// non-empty line.
func decodeCSV(data []byte) (matrix.RawTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	// a leading tab is an empty corner cell, not padding
	r.TrimLeadingSpace = r.Comma != '\t'

	var rows [][]any
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return matrix.RawTable{}, fmt.Errorf("decode csv: %w", err)
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		rows = append(rows, row)
	}
	return matrix.RawTable{Rows: rows}, nil
}

func sniffDelimiter(data []byte) rune {
	var first []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			first = line
			break
		}
	}
	counts := map[rune]int{}
	inQuotes := false
	for _, c := range string(first) {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case c == ',', c == ';', c == '\t':
			counts[c]++
		}
	}
	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// decodeWorkbook reads one sheet of an XLSX workbook. An empty sheet name selects the first sheet.
func decodeWorkbook(data []byte, sheet string) (matrix.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return matrix.RawTable{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return matrix.RawTable{}, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return matrix.RawTable{}, fmt.Errorf("workbook has no sheet %q", sheet)
	}

	grid, err := f.GetRows(sheet)
	if err != nil {
		return matrix.RawTable{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	rows := make([][]any, len(grid))
	for i, rec := range grid {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		rows[i] = row
	}
	return matrix.RawTable{Rows: rows}, nil
}

func workbookSheets(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
