// Package extract runs the per platform table extractors over a data download package.
//
// A platform is a list of sub extractors, each producing one table. The engine isolates every sub
// extractor: an error or a panic while building one table logs and yields an empty table for that
// dataset only.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// ErrUnknownPlatform is returned when looking up a platform which is not registered.
var ErrUnknownPlatform = errors.New("unknown platform")

// Platform identifies and extracts the data download package of one service.
type Platform interface {
	// ID is the stable identifier of the platform.
	ID() string
	// Name is the human readable name of the platform.
	Name() string
	// Validate guesses the category of the package at path.
	Validate(log *slog.Logger, path string) validate.Result
	// Choice returns the question to ask before extraction, or nil when there is none.
	Choice(log *slog.Logger, path string, result validate.Result) *Choice
	// Extract returns the non empty tables of the package at path.
	Extract(log *slog.Logger, path string, result validate.Result, selection string) []table.ExtractedTable
}

// Categorized is implemented by platforms which can list the categories they recognize.
type Categorized interface {
	Categories() []validate.Category
}

// Choice is a single selection asked to the participant before extraction.
type Choice struct {
	Title       table.Translatable `json:"title"`
	Description table.Translatable `json:"description"`
	Items       []string           `json:"items"`
}

// RunFunc builds the frame of one dataset.
type RunFunc func(src *Source) (*table.Frame, error)

// Sub is one dataset extracted from a package.
type Sub struct {
	ID             string
	Title          table.Translatable
	Description    table.Translatable
	Visualizations []table.Visualization
	Folded         bool
	Run            RunFunc
}

// Run executes every sub extractor against src and returns the tables with at least one row,
// in the order of subs.
func Run(src *Source, subs []Sub) []table.ExtractedTable {
	tables := make([]table.ExtractedTable, 0, len(subs))
	for _, s := range subs {
		f := runSub(src, s)
		t := table.New(s.ID, s.Title, f)
		t.Description = s.Description
		t.Visualizations = s.Visualizations
		t.Folded = s.Folded
		tables = append(tables, t)
	}

	out := table.NonEmpty(tables)
	src.Log.Info("Extraction done", "datasets", len(subs), "tables", len(out))
	return out
}

func runSub(src *Source, s Sub) (f *table.Frame) {
	log := src.Log.With("dataset", s.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Data extraction panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			f = table.NewFrame()
		}
	}()

	if s.Run == nil {
		log.Warn("No extractor defined")
		return table.NewFrame()
	}

	f, err := s.Run(src.withLog(log))
	if err != nil {
		log.Error("Data extraction error", "error", err)
		return table.NewFrame()
	}
	if f == nil {
		return table.NewFrame()
	}
	log.Debug("Extracted dataset", "rows", f.Len())
	return f
}
