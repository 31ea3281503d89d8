package application

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ObservationTable holds one row per observation, in the order the api returned them.
type ObservationTable struct {
	Columns []string
	Rows    [][]any
}

func (t *ObservationTable) Len() int {
	return len(t.Rows)
}

func (t *ObservationTable) index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column, top to bottom.
func (t *ObservationTable) Column(name string) ([]any, bool) {
	idx := t.index(name)
	if idx < 0 {
		return nil, false
	}

	values := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[idx])
	}

	return values, true
}

// Drop removes the named columns. Names that are not present are ignored.
func (t *ObservationTable) Drop(names ...string) {
	for _, name := range names {
		idx := t.index(name)
		if idx < 0 {
			continue
		}

		t.Columns = append(t.Columns[:idx:idx], t.Columns[idx+1:]...)
		for i, row := range t.Rows {
			t.Rows[i] = append(row[:idx:idx], row[idx+1:]...)
		}
	}
}

func (t *ObservationTable) Rename(from, to string) bool {
	idx := t.index(from)
	if idx < 0 {
		return false
	}
	t.Columns[idx] = to
	return true
}

func (t *ObservationTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return err
	}

	line := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			line[i] = formatCell(v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
