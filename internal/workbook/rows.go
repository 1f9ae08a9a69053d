package workbook

import "strings"

// Row maps column header to cell text. Every header column of the sheet is
// present, with missing cells stored as "".
type Row map[string]string

// Lookup returns the value of the first alias whose column exists.
// Presence decides, not emptiness: a blank "A" cell shadows "optionA".
func (r Row) Lookup(aliases ...string) (string, bool) {
	for _, name := range aliases {
		if v, ok := r[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Text is Lookup with absent columns read as "".
func (r Row) Text(aliases ...string) string {
	v, _ := r.Lookup(aliases...)
	return v
}

// Sheet is the data rows of a table together with the 1-based line of its
// header, so errors can name the line a user sees in their spreadsheet.
type Sheet struct {
	HeaderLine int
	Rows       []Row
}

// sheetFromTable turns a table into a Sheet. Leading blank records are
// skipped and the first non-blank one is the header. Blank header cells drop
// their column, duplicate headers keep the first column, and rows with no
// content at all are skipped.
func sheetFromTable(table [][]string) Sheet {
	skipped := 0
	for skipped < len(table) && isBlank(table[skipped]) {
		skipped++
	}
	if skipped == len(table) {
		return Sheet{HeaderLine: 1}
	}
	header := table[skipped]
	columns := make(map[int]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		columns[i] = name
	}

	rows := make([]Row, 0, len(table)-skipped-1)
	for _, record := range table[skipped+1:] {
		if isBlank(record) {
			continue
		}
		row := make(Row, len(columns))
		for i, name := range columns {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return Sheet{HeaderLine: skipped + 1, Rows: rows}
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")) != "" {
			return false
		}
	}
	return true
}
