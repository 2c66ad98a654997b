package extract

import (
	"fmt"
	"slices"

	"github.com/ubuntu/ddp-insights/internal/normalize"
	"github.com/ubuntu/ddp-insights/internal/table"
)

// Step post processes a frame.
type Step func(*table.Frame) *table.Frame

// Post applies steps in order to the frame built by run.
func Post(run RunFunc, steps ...Step) RunFunc {
	return func(src *Source) (*table.Frame, error) {
		f, err := run(src)
		if err != nil || f == nil {
			return f, err
		}
		for _, s := range steps {
			f = s(f)
		}
		return f, nil
	}
}

// Concat appends the rows built by every run under the columns of the first one.
func Concat(runs ...RunFunc) RunFunc {
	return func(src *Source) (*table.Frame, error) {
		var out *table.Frame
		for _, run := range runs {
			f, err := run(src)
			if err != nil {
				return nil, err
			}
			if out == nil {
				out = f
				continue
			}
			out.Rows = append(out.Rows, f.Select(out.Columns...).Rows...)
		}
		return out, nil
	}
}

// SortISO sorts the rows from most to least recent on an ISO timestamp column.
// Empty or invalid timestamps go last.
func SortISO(column string) Step {
	return func(f *table.Frame) *table.Frame {
		f.SortBy(column, func(v any) float64 { return normalize.SortKeyISO(fmt.Sprint(v)) })
		return f
	}
}

// DropEmpty removes the rows where column holds an empty string.
func DropEmpty(column string) Step {
	return func(f *table.Frame) *table.Frame {
		i := f.ColumnIndex(column)
		if i < 0 {
			return f
		}
		return f.Filter(func(row []any) bool { return row[i] != "" })
	}
}

// DropValues removes the rows where column holds one of values.
func DropValues(column string, values ...string) Step {
	return func(f *table.Frame) *table.Frame {
		i := f.ColumnIndex(column)
		if i < 0 {
			return f
		}
		return f.Filter(func(row []any) bool {
			s, ok := row[i].(string)
			return !ok || !slices.Contains(values, s)
		})
	}
}

// DropColumns removes the given columns.
func DropColumns(columns ...string) Step {
	return func(f *table.Frame) *table.Frame {
		keep := make([]string, 0, len(f.Columns))
		for _, c := range f.Columns {
			if !slices.Contains(columns, c) {
				keep = append(keep, c)
			}
		}
		return f.Select(keep...)
	}
}
