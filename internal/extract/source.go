package extract

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/ubuntu/ddp-insights/internal/archive"
	"github.com/ubuntu/ddp-insights/internal/denest"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Source is the package being extracted, with its validation outcome and the participant selection.
// Members are read from the archive once.
type Source struct {
	Log       *slog.Logger
	Path      string
	Result    validate.Result
	Selection string

	members map[string][]byte
}

// NewSource returns a Source for the archive at path.
func NewSource(log *slog.Logger, path string, result validate.Result, selection string) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{
		Log:       log,
		Path:      path,
		Result:    result,
		Selection: selection,
		members:   make(map[string][]byte),
	}
}

func (s *Source) withLog(log *slog.Logger) *Source {
	c := *s
	c.Log = log
	return &c
}

// Lang returns the language of the validated category.
func (s *Source) Lang() string {
	return s.Result.Category.Language
}

// Member returns a fresh buffer over the first member whose name ends with target.
func (s *Source) Member(target string) *bytes.Buffer {
	b, ok := s.members[target]
	if !ok {
		b = archive.ExtractMember(s.Log, s.Path, target).Bytes()
		s.members[target] = b
	}
	return bytes.NewBuffer(append([]byte(nil), b...))
}

// JSON decodes the member ending with target.
func (s *Source) JSON(target string) denest.Value {
	return archive.ReadJSON(s.Log, s.Member(target))
}

// JS decodes the JavaScript data member ending with target.
func (s *Source) JS(target string) denest.Value {
	return archive.ReadJS(s.Log, s.Member(target))
}

// CSV decodes the member ending with target.
func (s *Source) CSV(target string) *table.Frame {
	return archive.ReadCSV(s.Log, s.Member(target))
}

// Text returns the member ending with target as text.
func (s *Source) Text(target string) string {
	return archive.ReadText(s.Log, s.Member(target))
}

// maxNumbered bounds the numbered members read by NumberedJSON.
const maxNumbered = 1000

// NumberedJSON decodes the members named after format with 1, 2, 3 and so on,
// stopping at the first one which is absent or empty.
func (s *Source) NumberedJSON(format string) []denest.Value {
	var docs []denest.Value
	for i := 1; i <= maxNumbered; i++ {
		doc := s.JSON(fmt.Sprintf(format, i))
		if doc.Len() == 0 {
			break
		}
		docs = append(docs, doc)
	}
	return docs
}
