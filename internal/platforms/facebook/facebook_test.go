package facebook_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/platforms/facebook"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/testutils"
)

const followed = `{"following_v3": [{"name": "cafÃ©", "timestamp": 1700000000}]}`

const locations = `{"news_your_locations_v2": ["Amsterdam", "Utrecht"]}`

const recentlyViewed = `{"recently_viewed": [
  {"name": "Videos", "entries": [{"data": {"name": "clip", "uri": "https://v"}, "timestamp": 1700000000}]},
  {"name": "Marketplace", "children": [
    {"name": "Items", "entries": [{"data": {"name": "bike", "uri": "https://m"}, "timestamp": 1600000000}]}
  ]}
]}`

const friends = `{"friends_v2": [{"name": "a"}, {"name": "b"}, {"name": "c"}]}`

const likes1 = `[{"title": "old", "data": [{"reaction": {"reaction": "LIKE"}}], "timestamp": 1600000000}]`
const likes2 = `[{"title": "new", "data": [{"reaction": {"reaction": "LOVE"}}], "timestamp": 1700000000}]`

const comments = `{"comments_v2": [{"title": "t", "data": [{"comment": {"comment": "hi", "timestamp": 1}}], "timestamp": 1700000000}]}`

const groupPosts = `{"group_posts_v2": [{"title": "g", "data": [{"post": "p"}], "timestamp": 1700000000}]}`

func byID(tables []table.ExtractedTable) map[string]*table.Frame {
	out := make(map[string]*table.Frame)
	for _, t := range tables {
		out[t.ID] = t.Frame
	}
	return out
}

func TestExtract(t *testing.T) {
	t.Parallel()

	p := facebook.New()
	path := testutils.BuildZip(t,
		testutils.ZipEntry{Name: "connections/followers/who_you've_followed.json", Content: followed},
		testutils.ZipEntry{Name: "logged_information/facebook_news/your_locations.json", Content: locations},
		testutils.ZipEntry{Name: "logged_information/recently_viewed.json", Content: recentlyViewed},
		testutils.ZipEntry{Name: "connections/friends/your_friends.json", Content: friends},
		testutils.ZipEntry{Name: "comments_and_reactions/likes_and_reactions_1.json", Content: likes1},
		testutils.ZipEntry{Name: "comments_and_reactions/likes_and_reactions_2.json", Content: likes2},
		testutils.ZipEntry{Name: "groups/group_posts_and_comments.json", Content: groupPosts},
		testutils.ZipEntry{Name: "comments_and_reactions/comments.json", Content: comments},
	)

	res := p.Validate(slog.Default(), path)
	require.True(t, res.OK(), "Validate should recognize the package")

	got := byID(p.Extract(slog.Default(), path, res, ""))
	require.Len(t, got, 7, "Extract should return the non empty tables")

	assert.Equal(t, [][]any{{"café", "2023-11-14T22:13:20+00:00"}}, got["facebook_who_youve_followed"].Rows,
		"Who you follow should read the current file name and repair the name")
	assert.Equal(t, [][]any{{"Amsterdam"}, {"Utrecht"}}, got["facebook_news_your_locations"].Rows,
		"Locations should list bare strings")
	assert.Equal(t, [][]any{
		{"Videos", "clip", "https://v", "2023-11-14T22:13:20+00:00"},
		{"Items", "bike", "https://m", "2020-09-13T12:26:40+00:00"},
	}, got["facebook_recently_viewed"].Rows, "Recently viewed should list entries and child entries")
	assert.Equal(t, [][]any{{3}}, got["facebook_your_friends"].Rows, "Friends should be counted")
	assert.Equal(t, [][]any{
		{"new", "LOVE", "2023-11-14T22:13:20+00:00"},
		{"old", "LIKE", "2020-09-13T12:26:40+00:00"},
	}, got["facebook_likes_and_reactions"].Rows, "Likes should read every numbered file")
	assert.Equal(t, [][]any{{"t", "hi", "2023-11-14T22:13:20+00:00"}}, got["facebook_comments"].Rows,
		"Comments should not read the group posts file")
	assert.Equal(t, [][]any{{"g", "p", "2023-11-14T22:13:20+00:00", ""}}, got["facebook_group_posts_and_comments"].Rows,
		"Group posts should have an empty url when absent")
}

func TestExtractSkipsMissingFiles(t *testing.T) {
	t.Parallel()

	p := facebook.New()
	path := testutils.BuildZip(t,
		testutils.ZipEntry{Name: "timezone.json", Content: `{}`},
		testutils.ZipEntry{Name: "your_friends.json", Content: `{"other": []}`},
		testutils.ZipEntry{Name: "your_search_history.json", Content: `not json`},
	)

	res := p.Validate(slog.Default(), path)
	require.True(t, res.OK(), "Validate should recognize the package")
	assert.Empty(t, p.Extract(slog.Default(), path, res, ""), "Extract should drop every empty table")
}
