// Package table holds the tables extracted from data download packages and their donation encoding.
package table

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Translatable is a text keyed by language tag.
type Translatable map[string]string

// T returns an English and Dutch Translatable.
func T(en, nl string) Translatable {
	return Translatable{"en": en, "nl": nl}
}

// Text returns the text for lang, falling back to English and then to any language.
func (t Translatable) Text(lang string) string {
	if s, ok := t[lang]; ok {
		return s
	}
	if s, ok := t["en"]; ok {
		return s
	}
	for _, s := range t {
		return s
	}
	return ""
}

// Group is how a chart buckets the rows of a table.
type Group struct {
	Column     string       `json:"column"`
	DateFormat string       `json:"dateFormat,omitempty"`
	Label      Translatable `json:"label,omitempty"`
}

// Aggregate is one plotted value of a chart.
type Aggregate struct {
	Label     string `json:"label,omitempty"`
	Column    string `json:"column,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`
}

// Visualization is the rendering hint attached to a table.
type Visualization struct {
	Title       Translatable `json:"title"`
	Type        string       `json:"type"`
	Group       *Group       `json:"group,omitempty"`
	Values      []Aggregate  `json:"values,omitempty"`
	TextColumn  string       `json:"textColumn,omitempty"`
	ValueColumn string       `json:"valueColumn,omitempty"`
	Tokenize    bool         `json:"tokenize,omitempty"`
	Extract     string       `json:"extract,omitempty"`
}

// Wordcloud returns a wordcloud visualization over column.
func Wordcloud(title Translatable, column string, tokenize bool) Visualization {
	return Visualization{Title: title, Type: "wordcloud", TextColumn: column, Tokenize: tokenize}
}

// CountOverTime returns an area chart counting rows per date of column.
func CountOverTime(title Translatable, column string) Visualization {
	return Visualization{
		Title:  title,
		Type:   "area",
		Group:  &Group{Column: column, DateFormat: "auto"},
		Values: []Aggregate{{Label: "Count", Aggregate: "count"}},
	}
}

// CountPerHour returns a bar chart counting rows per hour of the day of column.
func CountPerHour(title Translatable, column string) Visualization {
	return Visualization{
		Title:  title,
		Type:   "bar",
		Group:  &Group{Column: column, DateFormat: "hour_cycle", Label: T("Hour of the day", "Uur van de dag")},
		Values: []Aggregate{{Label: "Count"}},
	}
}

// ExtractedTable is a named table shown to the participant before donation.
type ExtractedTable struct {
	ID             string          `json:"id"`
	Title          Translatable    `json:"title"`
	Frame          *Frame          `json:"data_frame"`
	Description    Translatable    `json:"description"`
	Visualizations []Visualization `json:"visualizations"`
	Folded         bool            `json:"folded"`
	Deletable      bool            `json:"delete_option"`
}

// New returns a deletable, unfolded table.
func New(id string, title Translatable, frame *Frame) ExtractedTable {
	if frame == nil {
		frame = NewFrame()
	}
	return ExtractedTable{ID: id, Title: title, Frame: frame, Deletable: true}
}

// NonEmpty returns the tables holding at least one row, preserving order.
func NonEmpty(tables []ExtractedTable) []ExtractedTable {
	out := make([]ExtractedTable, 0, len(tables))
	for _, t := range tables {
		if !t.Frame.Empty() {
			out = append(out, t)
		}
	}
	return out
}

// Donation returns the donated payload for tables: a JSON array with one
// {"<table id>": <column oriented frame>} object per table.
func Donation(tables []ExtractedTable) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, t := range tables {
		if i > 0 {
			b.WriteByte(',')
		}
		id, err := json.Marshal(t.ID)
		if err != nil {
			return nil, err
		}
		frame, err := t.Frame.MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.WriteByte('{')
		b.Write(id)
		b.WriteByte(':')
		b.Write(frame)
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}
