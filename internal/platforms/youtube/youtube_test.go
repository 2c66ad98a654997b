package youtube_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/platforms/youtube"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/testutils"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

const history = `[
  {"header": "YouTube", "title": "Watched cats", "titleUrl": "https://www.youtube.com/watch?v=1", "time": "2024-01-02T10:00:00.000Z"},
  {"header": "YouTube", "title": "Watched dogs", "time": "2024-01-01T10:00:00.000Z"}
]`

const searches = `[{"title": "Searched for cats", "time": "2024-01-02T09:00:00.000Z"}]`

const subscriptions = "Channel Id,Channel Url,Channel Title\nUC1,http://www.youtube.com/channel/UC1,Cats\n"

func byID(tables []table.ExtractedTable) map[string]*table.Frame {
	out := make(map[string]*table.Frame)
	for _, t := range tables {
		out[t.ID] = t.Frame
	}
	return out
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		watch, search, subscriptions string

		wantCategory string
	}{
		"English takeout": {
			watch: "Takeout/YouTube/history/watch-history.json", search: "Takeout/YouTube/history/search-history.json",
			subscriptions: "Takeout/YouTube/subscriptions/subscriptions.csv", wantCategory: "json_en",
		},
		"Dutch takeout": {
			watch: "Takeout/YouTube/geschiedenis/kijkgeschiedenis.json", search: "Takeout/YouTube/geschiedenis/zoekgeschiedenis.json",
			subscriptions: "Takeout/YouTube/abonnementen/abonnementen.csv", wantCategory: "json_nl",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := youtube.New()
			path := testutils.BuildZip(t,
				testutils.ZipEntry{Name: tc.watch, Content: history},
				testutils.ZipEntry{Name: tc.search, Content: searches},
				testutils.ZipEntry{Name: tc.subscriptions, Content: subscriptions},
			)

			res := p.Validate(slog.Default(), path)
			require.True(t, res.OK(), "Validate should recognize the package")
			require.Equal(t, tc.wantCategory, res.Category.ID, "Validate should pick the category of the language")

			got := byID(p.Extract(slog.Default(), path, res, ""))
			require.Len(t, got, 3, "Extract should return every table")

			assert.Equal(t, [][]any{
				{"Watched cats", "https://www.youtube.com/watch?v=1", "2024-01-02T10:00:00.000Z"},
				{"Watched dogs", "", "2024-01-01T10:00:00.000Z"},
			}, got["youtube_kijkgeschiedenis"].Rows, "Watch history should be listed")
			assert.Equal(t, [][]any{{"Searched for cats", "2024-01-02T09:00:00.000Z"}}, got["youtube_zoekgeschiedenis"].Rows,
				"Search history should be listed")
			assert.Equal(t, []string{"Channel Id", "Channel Url", "Channel Title"}, got["youtube_abonnementen"].Columns,
				"Subscriptions should keep the csv columns")
		})
	}
}

func TestExtractUnknownLanguage(t *testing.T) {
	t.Parallel()

	path := testutils.Zip(t, "watch-history.json", history)
	got := youtube.New().Extract(slog.Default(), path, validate.Unrecognized(), "")
	assert.Empty(t, got, "Extract should return no table without a known language")
}
