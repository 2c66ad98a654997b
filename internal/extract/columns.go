package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/ubuntu/ddp-insights/internal/denest"
	"github.com/ubuntu/ddp-insights/internal/normalize"
	"github.com/ubuntu/ddp-insights/internal/table"
)

// Normalizer converts a raw string extracted from a package into a cell value.
type Normalizer func(log *slog.Logger, s string) any

// Column pulls one cell out of a denested record.
type Column struct {
	// Name is the column header.
	Name string
	// Path is the substring searched in the record keys.
	Path string
	// Key is an exact record key and replaces Path when set.
	Key string
	// All joins every match instead of taking the least nested one.
	All bool
	// Join separates the values when All is set.
	Join string
	// Normalize converts the raw value. Strings are kept as is when nil.
	Normalize Normalizer
	// Value computes the cell from the record and replaces Path when set.
	Value func(log *slog.Logger, rec *denest.Record) any
}

func (c Column) cell(log *slog.Logger, rec *denest.Record) any {
	if c.Value != nil {
		return c.Value(log, rec)
	}

	var raw string
	switch {
	case c.Key != "":
		v, _ := rec.Get(c.Key)
		raw = v.String()
	case c.All:
		raw = strings.Join(denest.FindItems(rec, c.Path), c.Join)
	default:
		raw = denest.FindItem(rec, c.Path)
	}
	if c.Normalize == nil {
		return raw
	}
	return c.Normalize(log, raw)
}

// Selector picks the records of a document.
type Selector func(doc denest.Value) []denest.Value

// Items walks the mapping keys of path and returns the items found there.
// A sequence yields its items and any other value yields itself.
func Items(path ...string) Selector {
	return func(doc denest.Value) []denest.Value {
		v, ok := doc.Path(path...)
		if !ok {
			return nil
		}
		if v.Kind() == denest.KindSequence {
			return v.Items()
		}
		return []denest.Value{v}
	}
}

// Values walks the mapping keys of path and returns the values of the mapping found there.
func Values(path ...string) Selector {
	return func(doc denest.Value) []denest.Value {
		v, ok := doc.Path(path...)
		if !ok || v.Kind() != denest.KindMapping {
			return nil
		}
		out := make([]denest.Value, 0, v.Len())
		for _, p := range v.Pairs() {
			out = append(out, p.Value)
		}
		return out
	}
}

// FirstOf returns the records of the first selector yielding any.
func FirstOf(selectors ...Selector) Selector {
	return func(doc denest.Value) []denest.Value {
		for _, s := range selectors {
			if out := s(doc); len(out) > 0 {
				return out
			}
		}
		return nil
	}
}

// Then applies inner to every record selected by outer.
func Then(outer, inner Selector) Selector {
	return func(doc denest.Value) []denest.Value {
		var out []denest.Value
		for _, v := range outer(doc) {
			out = append(out, inner(v)...)
		}
		return out
	}
}

// Records returns a frame with one row per non empty record selected in doc.
// keep, when set, filters the denested records before the row is built.
func Records(log *slog.Logger, doc denest.Value, sel Selector, keep func(*denest.Record) bool, columns ...Column) *table.Frame {
	f := table.NewFrame(columnNames(columns)...)
	for _, item := range sel(doc) {
		rec := denest.Denest(item)
		if rec.Truncated() {
			log.Warn("Record nested too deeply, deepest values dropped", "max_depth", denest.MaxDepth)
		}
		if rec.Len() == 0 || (keep != nil && !keep(rec)) {
			continue
		}
		cells := make([]any, 0, len(columns))
		for _, c := range columns {
			cells = append(cells, c.cell(log, rec))
		}
		f.Append(cells...)
	}
	return f
}

// JSONRecords extracts one row per record selected in the JSON member ending with member.
func JSONRecords(member string, sel Selector, columns ...Column) RunFunc {
	return JSONRecordsWhere(member, sel, nil, columns...)
}

// JSONRecordsWhere is JSONRecords with a record filter.
func JSONRecordsWhere(member string, sel Selector, keep func(*denest.Record) bool, columns ...Column) RunFunc {
	return JSONRecordsFrom(AnyJSON(member), sel, keep, columns...)
}

// JSONRecordsFrom is JSONRecordsWhere over a document loaded by load.
func JSONRecordsFrom(load func(*Source) denest.Value, sel Selector, keep func(*denest.Record) bool, columns ...Column) RunFunc {
	return func(src *Source) (*table.Frame, error) {
		return Records(src.Log, load(src), sel, keep, columns...), nil
	}
}

// AnyJSON loads the first non empty JSON member ending with one of targets.
func AnyJSON(targets ...string) func(*Source) denest.Value {
	return func(src *Source) denest.Value {
		for _, t := range targets {
			if doc := src.JSON(t); doc.Len() > 0 {
				return doc
			}
		}
		return denest.Mapping()
	}
}

// CSVColumn renames and normalizes one column of a CSV member.
type CSVColumn struct {
	Name      string
	Source    string
	Normalize Normalizer
}

// CSVFile extracts every column of the CSV member ending with member.
func CSVFile(member string) RunFunc {
	return func(src *Source) (*table.Frame, error) {
		return src.CSV(member), nil
	}
}

// CSVColumns extracts the given columns of the CSV member ending with member.
// Missing source columns produce empty cells. An empty member yields an empty frame.
func CSVColumns(member string, columns ...CSVColumn) RunFunc {
	return func(src *Source) (*table.Frame, error) {
		return Pick(src.Log, src.CSV(member), columns...), nil
	}
}

// Pick returns a new frame holding the given columns of f, renamed and normalized.
func Pick(log *slog.Logger, f *table.Frame, columns ...CSVColumn) *table.Frame {
	names := make([]string, 0, len(columns))
	sources := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.Name)
		sources = append(sources, c.Source)
	}

	out := f.Select(sources...)
	out.Columns = names
	for _, row := range out.Rows {
		for i, c := range columns {
			if c.Normalize == nil {
				continue
			}
			s, _ := row[i].(string)
			row[i] = c.Normalize(log, s)
		}
	}
	return out
}

// Capture names one submatch of a text pattern.
type Capture struct {
	Name      string
	Group     int
	Normalize Normalizer
}

// TextMatches extracts one row per match of re in the text member ending with member.
func TextMatches(member string, re *regexp.Regexp, captures ...Capture) RunFunc {
	return func(src *Source) (*table.Frame, error) {
		return Matches(src.Log, src.Text(member), re, captures...), nil
	}
}

// Matches returns one row per match of re in text.
func Matches(log *slog.Logger, text string, re *regexp.Regexp, captures ...Capture) *table.Frame {
	names := make([]string, 0, len(captures))
	for _, c := range captures {
		names = append(names, c.Name)
	}
	f := table.NewFrame(names...)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		cells := make([]any, 0, len(captures))
		for _, c := range captures {
			s := ""
			if c.Group >= 0 && c.Group < len(m) {
				s = strings.TrimSpace(m[c.Group])
			}
			if c.Normalize != nil {
				cells = append(cells, c.Normalize(log, s))
				continue
			}
			cells = append(cells, s)
		}
		f.Append(cells...)
	}
	return f
}

func columnNames(columns []Column) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.Name)
	}
	return names
}

// Normalizers shared by the platforms.
var (
	// EpochISO converts epoch seconds to an ISO timestamp.
	EpochISO Normalizer = func(log *slog.Logger, s string) any { return normalize.EpochToISO(log, s) }
	// EpochDate converts epoch seconds to an ISO date.
	EpochDate Normalizer = func(log *slog.Logger, s string) any { return normalize.EpochToDate(log, s) }
	// Latin1 repairs text exported with a latin1 round trip.
	Latin1 Normalizer = func(_ *slog.Logger, s string) any { return normalize.FixLatin1(s) }
	// ASCII drops every non ASCII rune.
	ASCII Normalizer = func(_ *slog.Logger, s string) any { return normalize.FixASCII(s) }
)

// Chain applies string normalizers in order. Each must return a string to feed the next one.
func Chain(normalizers ...Normalizer) Normalizer {
	return func(log *slog.Logger, s string) any {
		var out any = s
		for _, n := range normalizers {
			str, ok := out.(string)
			if !ok {
				return out
			}
			out = n(log, str)
		}
		return out
	}
}
