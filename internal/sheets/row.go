package sheets

import (
	"strconv"
	"strings"
)

// Row is one data row of a sheet tab. Values are kept positionally (some tabs
// are consumed by column position) and addressable by header title.
type Row struct {
	// Number is the 1-based row number in the sheet; the header occupies
	// row 1, so the first data row is 2. Needed for row deletion.
	Number  int64
	Values  []string
	columns map[string]int
}

// Get returns the cell under the given header title, or "" when the column
// does not exist or the row is short.
func (r Row) Get(header string) string {
	idx, ok := r.columns[header]
	if !ok || idx >= len(r.Values) {
		return ""
	}
	return r.Values[idx]
}

// GetTrimmed returns Get with surrounding whitespace removed. Sheet cells
// edited by hand routinely carry stray spaces.
func (r Row) GetTrimmed(header string) string {
	return strings.TrimSpace(r.Get(header))
}

// Col returns the cell at a column position, or "" when the row is short.
func (r Row) Col(idx int) string {
	if idx < 0 || idx >= len(r.Values) {
		return ""
	}
	return r.Values[idx]
}

// CellString renders a raw API cell value as a string. The Sheets API returns
// formatted values as strings, but numeric cells can arrive as float64 when a
// different render option is in play.
func CellString(v interface{}) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		if c {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return ""
	default:
		return ""
	}
}

// RowsFromGrid splits a raw value grid into the header row and header-mapped
// data rows. An empty grid yields no headers and no rows.
func RowsFromGrid(grid [][]interface{}) (headers []string, rows []Row) {
	if len(grid) == 0 {
		return nil, nil
	}

	headers = make([]string, len(grid[0]))
	columns := make(map[string]int, len(grid[0]))
	for i, cell := range grid[0] {
		title := strings.TrimSpace(CellString(cell))
		headers[i] = title
		if title != "" {
			if _, exists := columns[title]; !exists {
				columns[title] = i
			}
		}
	}

	rows = make([]Row, 0, len(grid)-1)
	for i, rawRow := range grid[1:] {
		values := make([]string, len(rawRow))
		for j, cell := range rawRow {
			values[j] = CellString(cell)
		}
		rows = append(rows, Row{
			Number:  int64(i + 2),
			Values:  values,
			columns: columns,
		})
	}
	return headers, rows
}
