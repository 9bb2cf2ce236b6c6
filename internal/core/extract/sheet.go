package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractWorkbook enumerates every sheet of an XLSX workbook, rendering each
// row as pipe-joined cell values under a [Sheet: name] marker.
func extractWorkbook(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "[Sheet: %s]\n", sheet)
		for _, row := range rows {
			b.WriteString(strings.Join(row, " | "))
			b.WriteString("\n")
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("workbook has no cell content")
	}
	return b.String(), nil
}

// extractCSV renders each record as pipe-joined values. Ragged rows are
// tolerated; quoting is lazy because exported CSVs are rarely strict.
func extractCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var b strings.Builder
	rows := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv: %w", err)
		}
		b.WriteString(strings.Join(record, " | "))
		b.WriteString("\n")
		rows++
	}
	if rows == 0 {
		return "", errors.New("csv has no records")
	}
	return b.String(), nil
}
