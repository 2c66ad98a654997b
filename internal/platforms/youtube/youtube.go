// Package youtube extracts the watch history, search history and subscriptions of a YouTube takeout.
package youtube

import (
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Catalog lists the known shapes of a YouTube takeout, whose file names depend on the account language.
var Catalog = []validate.Category{
	{
		ID:         "json_en",
		FileType:   validate.JSON,
		Language:   validate.LangEN,
		KnownFiles: []string{"search-history.json", "watch-history.json", "subscriptions.csv"},
	},
	{
		ID:         "json_nl",
		FileType:   validate.JSON,
		Language:   validate.LangNL,
		KnownFiles: []string{"abonnementen.csv", "kijkgeschiedenis.json", "zoekgeschiedenis.json"},
	},
}

type members struct {
	watch, search, subscriptions string
}

var membersByLanguage = map[string]members{
	validate.LangEN: {watch: "watch-history.json", search: "search-history.json", subscriptions: "subscriptions.csv"},
	validate.LangNL: {watch: "kijkgeschiedenis.json", search: "zoekgeschiedenis.json", subscriptions: "abonnementen.csv"},
}

// New returns the YouTube platform.
func New() extract.Platform {
	return extract.Definition{
		PlatformID:  "youtube",
		DisplayName: "YouTube",
		Catalog:     Catalog,
		Datasets:    datasets,
	}
}

func datasets(res validate.Result) []extract.Sub {
	m, ok := membersByLanguage[res.Category.Language]
	if !ok {
		return nil
	}

	return []extract.Sub{
		{
			ID:          "youtube_kijkgeschiedenis",
			Title:       table.T("Your watch history", "Je kijkgeschiedenis"),
			Description: table.T("List of videos you've watched on YouTube with dates and timestamps", "Lijst van video's die je op YouTube hebt bekeken met datums en tijdstippen"),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T(
					"Wordcloud of the words in the video title, large words mean they occur more frequently in titles",
					"Woordwolk van de woorden in de videotitels, grote woorden komen vaker voor in titels",
				), "Titel", true),
			},
			Run: extract.JSONRecords(m.watch, extract.Items(),
				extract.Column{Name: "Titel", Key: "title"},
				extract.Column{Name: "Link", Key: "titleUrl"},
				extract.Column{Name: "Datum en tijd", Key: "time"},
			),
		},
		{
			ID:          "youtube_zoekgeschiedenis",
			Title:       table.T("Your search history", "Je zoekgeschiedenis"),
			Description: table.T("Record of search terms you've used on YouTube", "Overzicht van zoektermen die je hebt gebruikt op YouTube"),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T(
					"Wordcloud of the words in your search history, large words mean they occur more frequently in your search history",
					"Woordwolk van de woorden in je zoekgeschiedenis, grote woorden komen vaker voor in je zoekgeschiedenis",
				), "Zoekterm", true),
			},
			Run: extract.JSONRecords(m.search, extract.Items(),
				extract.Column{Name: "Zoekterm", Key: "title"},
				extract.Column{Name: "Datum en tijd", Key: "time"},
			),
		},
		{
			ID:          "youtube_abonnementen",
			Title:       table.T("Subscriptions", "Abonnementen"),
			Description: table.T("List of YouTube channels you're subscribed to", "Lijst van YouTube-kanalen waarop je bent geabonneerd"),
			Run:         extract.CSVFile(m.subscriptions),
		},
	}
}
