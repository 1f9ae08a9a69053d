package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"mcq-studio/internal/domain"
)

// Format is the tabular encoding of an upload.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat picks the reader by extension and falls back to sniffing the
// leading bytes when the name carries no known extension.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	case ".csv", ".txt":
		return FormatCSV
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	default:
		return FormatCSV
	}
}

// Read decodes the first sheet of an upload into rows.
func Read(upload domain.Upload) ([]Row, error) {
	sheet, err := ReadSheet(upload)
	if err != nil {
		return nil, err
	}
	return sheet.Rows, nil
}

// ReadSheet is Read keeping the header line for error reporting.
func ReadSheet(upload domain.Upload) (Sheet, error) {
	switch DetectFormat(upload.Name, upload.Data) {
	case FormatXLSX:
		return ReadXLSX(bytes.NewReader(upload.Data))
	case FormatXLS:
		return ReadXLS(bytes.NewReader(upload.Data))
	default:
		return ReadCSV(bytes.NewReader(upload.Data))
	}
}

// ReadXLSX reads the first sheet of an Office Open XML workbook.
func ReadXLSX(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: open xlsx: %v", domain.ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Sheet{}, fmt.Errorf("%w: workbook has no sheets", domain.ErrUnreadableWorkbook)
	}
	table, err := f.GetRows(sheets[0])
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: read sheet %q: %v", domain.ErrUnreadableWorkbook, sheets[0], err)
	}
	return sheetFromTable(table), nil
}

// ReadXLS reads the first sheet of a legacy BIFF8 workbook. The decoder
// panics on some malformed files; that is reported as unreadable.
func ReadXLS(r io.ReadSeeker) (sheet Sheet, err error) {
	defer func() {
		if p := recover(); p != nil {
			sheet, err = Sheet{}, fmt.Errorf("%w: decode xls: %v", domain.ErrUnreadableWorkbook, p)
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: open xls: %v", domain.ErrUnreadableWorkbook, err)
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return Sheet{}, fmt.Errorf("%w: workbook has no sheets", domain.ErrUnreadableWorkbook)
	}

	table := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			table = append(table, nil)
			continue
		}
		// LastCol is exclusive for ROW records but inclusive for rows built
		// from cells alone, so read one past it and trim.
		record := make([]string, 0, row.LastCol()+1)
		for col := 0; col <= row.LastCol(); col++ {
			record = append(record, row.Col(col))
		}
		for len(record) > 0 && record[len(record)-1] == "" {
			record = record[:len(record)-1]
		}
		table = append(table, record)
	}
	return sheetFromTable(table), nil
}

// ReadCSV reads comma-separated text with a header line.
func ReadCSV(r io.Reader) (Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	table, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: read csv: %v", domain.ErrUnreadableWorkbook, err)
	}
	return sheetFromTable(table), nil
}
