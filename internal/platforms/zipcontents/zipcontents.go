// Package zipcontents is the example platform: it lists the members of any zip archive.
package zipcontents

import (
	"log/slog"

	"github.com/ubuntu/ddp-insights/internal/archive"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Category is reported for any readable zip archive.
var Category = validate.Category{
	ID:         "zip",
	FileType:   validate.ZIP,
	Language:   validate.LangUnknown,
	KnownFiles: []string{},
}

// Platform lists archive members.
type Platform struct{}

// New returns the zip contents platform.
func New() extract.Platform {
	return Platform{}
}

// ID implements extract.Platform.
func (Platform) ID() string { return "zipcontents" }

// Categories implements extract.Categorized.
func (Platform) Categories() []validate.Category { return []validate.Category{Category} }

// Name implements extract.Platform.
func (Platform) Name() string { return "Zip contents" }

// Choice implements extract.Platform.
func (Platform) Choice(*slog.Logger, string, validate.Result) *extract.Choice { return nil }

// Validate accepts any readable zip archive.
func (Platform) Validate(log *slog.Logger, path string) validate.Result {
	return validate.ValidateFunc(Category, func() bool {
		_, ok := archive.Members(log, path)
		return ok
	})
}

// Extract returns the name, compressed size and size of every file of the archive.
func (Platform) Extract(log *slog.Logger, path string, result validate.Result, selection string) []table.ExtractedTable {
	return extract.Run(extract.NewSource(log, path, result, selection), []extract.Sub{
		{
			ID:          "zip_contents",
			Title:       table.T("The contents of your zipfile", "De inhoud van je zipbestand"),
			Description: table.T("Meta data about the files of the zip file you submitted.", "Gegevens over de bestanden in het zipbestand dat je hebt ingediend."),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("You can also add visualizations", "Je kunt ook visualisaties toevoegen"), "File name", true),
			},
			Run: func(src *extract.Source) (*table.Frame, error) {
				f := table.NewFrame("File name", "Compressed file size", "File size")
				members, _ := archive.Members(src.Log, src.Path)
				for _, m := range members {
					f.Append(m.Name, m.CompressedSize, m.Size)
				}
				return f, nil
			},
		},
	})
}
