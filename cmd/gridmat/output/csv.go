// csv.go - CSV output formatter.
// One line per row: index, depth, parent, then every cell column.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVFormatter produces CSV suitable for spreadsheets and piping.
type CSVFormatter struct{}

// Format writes the header and one record per row. Session statistics are
// not included.
func (f *CSVFormatter) Format(w io.Writer, r *Report) error {
	cols := r.Columns()
	cw := csv.NewWriter(w)

	header := append([]string{"index", "depth", "parent"}, cols...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, row := range r.Rows {
		rec := []string{strconv.Itoa(row.Index), strconv.Itoa(row.Depth), strconv.Itoa(row.Parent)}
		for _, c := range cols {
			rec = append(rec, row.Cells[c])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
