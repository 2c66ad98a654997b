package archive

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/ubuntu/ddp-insights/internal/denest"
	"github.com/ubuntu/ddp-insights/internal/table"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errNotContainer = errors.New("document is neither an object nor an array")

type jsonAttempt struct {
	name   string
	decode func([]byte) ([]byte, error)
}

var jsonAttempts = []jsonAttempt{
	{name: "utf-8", decode: func(b []byte) ([]byte, error) {
		if !utf8.Valid(b) {
			return nil, errors.New("invalid utf-8")
		}
		return b, nil
	}},
	{name: "utf-8-bom", decode: stripBOM},
}

// ReadJSON decodes buf as a JSON object or array, trying plain UTF-8 then UTF-8 with a byte order mark.
// An empty mapping is returned when every attempt fails.
func ReadJSON(log *slog.Logger, buf *bytes.Buffer) denest.Value {
	data := buf.Bytes()
	for _, a := range jsonAttempts {
		b, err := a.decode(data)
		if err != nil {
			log.Error("Could not decode JSON bytes", "encoding", a.name, "error", err)
			continue
		}
		v, err := denest.Parse(b)
		if err != nil {
			log.Error("Could not parse JSON", "encoding", a.name, "error", err)
			continue
		}
		if !v.IsContainer() {
			log.Error("Could not convert JSON bytes", "error", errNotContainer)
			break
		}
		log.Debug("Converted JSON bytes", "encoding", a.name)
		return v
	}
	return denest.Mapping()
}

var jsAssignment = regexp.MustCompile(`^.*? = `)

// ReadJS decodes a JavaScript data file such as "window.YTD.like.part0 = [...]" as ReadJSON does,
// after removing the assignment from its first line.
func ReadJS(log *slog.Logger, buf *bytes.Buffer) denest.Value {
	b := buf.Bytes()
	first := b
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		first = b[:i]
	}
	if loc := jsAssignment.FindIndex(first); loc != nil {
		b = b[loc[1]:]
	}
	return ReadJSON(log, bytes.NewBuffer(b))
}

// ReadCSV decodes buf as a CSV document with a header row.
// Short rows are padded with empty strings and extra fields are dropped.
// An empty frame is returned on failure.
func ReadCSV(log *slog.Logger, buf *bytes.Buffer) *table.Frame {
	b, err := stripBOM(buf.Bytes())
	if err != nil {
		log.Error("Could not decode CSV bytes", "error", err)
		return table.NewFrame()
	}

	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Error("Could not read CSV header", "error", err)
		}
		return table.NewFrame()
	}

	f := table.NewFrame(header...)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error("Could not read CSV bytes", "error", err)
			return table.NewFrame()
		}
		cells := make([]any, len(rec))
		for i, c := range rec {
			cells[i] = c
		}
		f.Append(cells...)
	}
	log.Debug("Converted CSV bytes", "rows", f.Len())
	return f
}

// ReadText returns buf as UTF-8 text without a leading byte order mark.
func ReadText(log *slog.Logger, buf *bytes.Buffer) string {
	b, err := stripBOM(buf.Bytes())
	if err != nil {
		log.Error("Could not decode text bytes", "error", err)
		return ""
	}
	return string(b)
}

func stripBOM(b []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), b)
	if err != nil {
		return nil, fmt.Errorf("could not strip byte order mark: %v", err)
	}
	return out, nil
}
