package workbook

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// TemplateHeader lists the columns the parser recognizes, in template order.
var TemplateHeader = []string{"id", "question", "A", "B", "C", "D", "correct", "explanation", "multi"}

// TemplateExample is a multi-answer example row.
var TemplateExample = []string{"1", "Which are primes?", "2", "4", "5", "9", "A,C", "Because 2 & 5 are prime.", "1"}

// WriteTemplateCSV writes the example bank as comma-separated text.
func WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll([][]string{TemplateHeader, TemplateExample}); err != nil {
		return fmt.Errorf("write csv template: %w", err)
	}
	return nil
}

// WriteTemplateXLSX writes the example bank as a single-sheet workbook.
func WriteTemplateXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, record := range [][]string{TemplateHeader, TemplateExample} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write xlsx template: %w", err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx template: %w", err)
	}
	return nil
}
