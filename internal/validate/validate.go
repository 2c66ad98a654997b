// Package validate infers the category of a data download package from its file listing.
package validate

import (
	"log/slog"
	"slices"

	"github.com/ubuntu/ddp-insights/internal/archive"
)

// FileType is the dominant file format of a package.
type FileType string

// Supported file types.
const (
	JSON    FileType = "json"
	CSV     FileType = "csv"
	HTML    FileType = "html"
	TXT     FileType = "txt"
	ZIP     FileType = "zip"
	Unknown FileType = "unknown"
)

// Language tags of the supported packages.
const (
	LangEN      = "en"
	LangNL      = "nl"
	LangUnknown = "unknown"
)

// Status codes of a Result.
const (
	StatusMatched      = 0
	StatusUnrecognized = 1
)

// MatchThreshold is the lowest score, in percent of known files found, accepted as a match.
const MatchThreshold = 5.0

// Category is one known shape of a platform's export.
type Category struct {
	ID         string   `json:"id" yaml:"id"`
	FileType   FileType `json:"file_type" yaml:"file_type"`
	Language   string   `json:"language" yaml:"language"`
	KnownFiles []string `json:"known_files" yaml:"known_files"`
}

// UnknownCategory is selected when nothing matches.
var UnknownCategory = Category{ID: "unknown", FileType: Unknown, Language: LangUnknown, KnownFiles: []string{}}

// Result is the outcome of validating one archive.
type Result struct {
	Category Category `json:"category" yaml:"category"`
	Status   int      `json:"status" yaml:"status"`
}

// OK reports whether a category was matched.
func (r Result) OK() bool {
	return r.Status == StatusMatched
}

// Unrecognized returns the Result of an archive matching no category.
func Unrecognized() Result {
	return Result{Category: UnknownCategory, Status: StatusUnrecognized}
}

// Score returns the percentage of c's known files present in names.
func Score(c Category, names []string) float64 {
	if len(c.KnownFiles) == 0 {
		return 0
	}
	found := 0
	for _, k := range c.KnownFiles {
		if slices.Contains(names, k) {
			found++
		}
	}
	return 100 * float64(found) / float64(len(c.KnownFiles))
}

// Classify selects the best scoring category of catalog for names.
// Equal scores resolve to the first category of the catalog.
func Classify(log *slog.Logger, catalog []Category, names []string) Result {
	best, bestScore := -1, -1.0
	for i, c := range catalog {
		s := Score(c, names)
		log.Debug("Scored category", "category", c.ID, "score", s)
		if s > bestScore {
			best, bestScore = i, s
		}
	}

	if best < 0 || bestScore < MatchThreshold {
		log.Info("Not a valid input, not enough files matched")
		return Unrecognized()
	}

	log.Info("Detected package category", "category", catalog[best].ID)
	return Result{Category: catalog[best], Status: StatusMatched}
}

// ValidateZip classifies the base names of the members of the archive at path.
// An unreadable archive is unrecognized.
func ValidateZip(log *slog.Logger, catalog []Category, path string) Result {
	names, ok := archive.MemberNames(log, path)
	if !ok {
		return Unrecognized()
	}
	return Classify(log, catalog, names)
}

// ValidateFunc builds a Result from a content check: matched with category when check succeeds.
func ValidateFunc(category Category, check func() bool) Result {
	if !check() {
		return Unrecognized()
	}
	return Result{Category: category, Status: StatusMatched}
}
