package table

import (
	"bytes"
	"slices"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// Frame is an ordered set of named columns holding string, number or boolean cells.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// NewFrame returns an empty Frame with the given columns.
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: columns, Rows: make([][]any, 0)}
}

// Append adds a row. Missing cells are filled with empty strings and extra cells are dropped.
func (f *Frame) Append(cells ...any) {
	row := make([]any, len(f.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
			continue
		}
		row[i] = ""
	}
	f.Rows = append(f.Rows, row)
}

// Len returns the number of rows. A nil Frame has none.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool {
	return f.Len() == 0
}

// ColumnIndex returns the position of column name, or -1.
func (f *Frame) ColumnIndex(name string) int {
	if f == nil {
		return -1
	}
	return slices.Index(f.Columns, name)
}

// Column returns a copy of every cell of column name.
// It returns nil when the column does not exist.
func (f *Frame) Column(name string) []any {
	i := f.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]any, 0, len(f.Rows))
	for _, row := range f.Rows {
		out = append(out, row[i])
	}
	return out
}

// Cell returns the value of column name in row i.
func (f *Frame) Cell(i int, name string) (any, bool) {
	c := f.ColumnIndex(name)
	if c < 0 || i < 0 || i >= f.Len() {
		return nil, false
	}
	return f.Rows[i][c], true
}

// SortBy stably sorts the rows on the key computed from column name, in ascending order.
// Unknown columns leave the frame untouched.
func (f *Frame) SortBy(name string, key func(any) float64) {
	c := f.ColumnIndex(name)
	if c < 0 {
		return
	}
	sort.SliceStable(f.Rows, func(i, j int) bool {
		return key(f.Rows[i][c]) < key(f.Rows[j][c])
	})
}

// Filter returns a new Frame holding the rows for which keep returns true.
func (f *Frame) Filter(keep func(row []any) bool) *Frame {
	out := NewFrame(f.Columns...)
	for _, row := range f.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Select returns a new Frame restricted to the given columns, in that order.
// Unknown columns are filled with empty strings.
func (f *Frame) Select(columns ...string) *Frame {
	out := NewFrame(columns...)
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = f.ColumnIndex(c)
	}
	for _, row := range f.Rows {
		cells := make([]any, len(columns))
		for i, j := range idx {
			if j < 0 {
				cells[i] = ""
				continue
			}
			cells[i] = row[j]
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// Records returns one column name to value map per row.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, 0, f.Len())
	if f == nil {
		return out
	}
	for _, row := range f.Rows {
		rec := make(map[string]any, len(f.Columns))
		for i, c := range f.Columns {
			rec[c] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// MarshalJSON encodes the frame column oriented, keeping column order:
// {"<column>": {"<row index>": value}}.
func (f *Frame) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	if f != nil {
		for c, name := range f.Columns {
			if c > 0 {
				b.WriteByte(',')
			}
			if err := writeJSON(&b, name); err != nil {
				return nil, err
			}
			b.WriteString(":{")
			for r, row := range f.Rows {
				if r > 0 {
					b.WriteByte(',')
				}
				b.WriteString(strconv.Quote(strconv.Itoa(r)))
				b.WriteByte(':')
				if err := writeJSON(&b, row[c]); err != nil {
					return nil, err
				}
			}
			b.WriteByte('}')
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeJSON(b *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Write(data)
	return nil
}
