// Package tiktok extracts the watch, like and search history of a TikTok text export.
package tiktok

import (
	"regexp"
	"strings"

	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Catalog lists the known shapes of a TikTok export.
var Catalog = []validate.Category{
	{
		ID:       "txt_en",
		FileType: validate.TXT,
		Language: validate.LangEN,
		KnownFiles: []string{
			"Transaction History.txt", "Most Recent Location Data.txt", "Comments.txt", "Purchases.txt",
			"Share History.txt", "Favorite Sounds.txt", "Searches.txt", "Login History.txt", "Favorite Videos.txt",
			"Favorite HashTags.txt", "Hashtag.txt", "Location Reviews.txt", "Favorite Effects.txt", "Following.txt",
			"Status.txt", "Browsing History.txt", "Like List.txt", "Follower.txt", "Watch Live settings.txt",
			"Go Live settings.txt", "Go Live History.txt", "Watch Live History.txt", "Profile Info.txt",
			"Autofill.txt", "Post.txt", "Block List.txt", "Settings.txt", "Customer support history.txt",
			"Communication with shops.txt", "Current Payment Information.txt", "Returns and Refunds History.txt",
			"Product Reviews.txt", "Order History.txt", "Vouchers.txt", "Saved Address Information.txt",
			"Order dispute history.txt", "Product Browsing History.txt", "Shopping Cart List.txt",
			"Direct Messages.txt", "Off TikTok Activity.txt", "Ad Interests.txt",
		},
	},
}

// New returns the TikTok platform.
func New() extract.Platform {
	return extract.Definition{
		PlatformID:  "tiktok",
		DisplayName: "TikTok",
		Catalog:     Catalog,
		Datasets:    datasets,
	}
}

var (
	dateLink        = regexp.MustCompile(`(?m)^Date: (.*?)\nLink: (.*?)$`)
	dateHashtagLink = regexp.MustCompile(`(?m)^Date: (.*?)\nHashTag Link::? (.*?)$`)
	hashtagNameLink = regexp.MustCompile(`(?m)^Hashtag Name: (.*?)\nHashtag Link: (.*?)$`)
	dateSearch      = regexp.MustCompile(`(?m)^Date: (.*?)\nSearch Term: (.*?)$`)
	dateShare       = regexp.MustCompile(`(?m)^Date: (.*?)\nShared Content: (.*?)\nLink: (.*?)\nMethod: (.*?)$`)
	dateOnly        = regexp.MustCompile(`(?m)^Date: (.*?)$`)
	interests       = regexp.MustCompile(`(?m)^Interests: (.*?)$`)
)

// pairs captures the first two groups of re under the given names.
func pairs(member string, re *regexp.Regexp, first, second string) extract.RunFunc {
	return extract.TextMatches(member, re,
		extract.Capture{Name: first, Group: 1},
		extract.Capture{Name: second, Group: 2},
	)
}

// settings lists the interests picked at sign up.
func settings(src *extract.Source) (*table.Frame, error) {
	f := table.NewFrame("Interesses")
	m := interests.FindStringSubmatch(src.Text("Settings.txt"))
	if m == nil {
		return f, nil
	}
	for _, i := range strings.Split(m[1], "|") {
		f.Append(i)
	}
	return f, nil
}

func datasets(validate.Result) []extract.Sub {
	return []extract.Sub{
		{
			ID:    "tiktok_video_browsing_history",
			Title: table.T("Watch history", "Kijkgeschiedenis"),
			Description: table.T(
				"The table below indicates exactly which TikTok videos you have watched and when that was.",
				"De tabel hieronder geeft aan welke TikTok video's je precies hebt bekeken en wanneer dat was.",
			),
			Run: pairs("Browsing History.txt", dateLink, "Time and Date", "Video watched"),
		},
		{
			ID:    "tiktok_favorite_videos",
			Title: table.T("Favorite video's", "Favoriete video's"),
			Description: table.T(
				"In the table below, you will find the videos that are among your favorites.",
				"In de tabel hieronder vind je de video's die tot je favorieten behoren.",
			),
			Run: pairs("Favorite Videos.txt", dateLink, "Tijdstip", "Video"),
		},
		{
			ID:    "tiktok_favorite_hashtags",
			Title: table.T("Favorite hashtags", "Favoriete hashtags"),
			Description: table.T(
				"In the table below, you will find the hashtags that are among your favorites.",
				"In de tabel hieronder vind je de hashtags die tot je favorieten behoren.",
			),
			Run: pairs("Favorite HashTags.txt", dateHashtagLink, "Tijdstip", "Hashtag url"),
		},
		{
			ID:          "tiktok_follower",
			Title:       table.T("Followers", "Volgers"),
			Description: table.T("In the table below, you will find when accounts started following you.", "In de tabel hieronder vind je wanneer accounts je zijn gaan volgen."),
			Run:         extract.TextMatches("Follower.txt", dateOnly, extract.Capture{Name: "Date", Group: 1}),
		},
		{
			ID:          "tiktok_following",
			Title:       table.T("Following", "Volgend"),
			Description: table.T("In the table below, you will find when you started following accounts.", "In de tabel hieronder vind je wanneer je accounts bent gaan volgen."),
			Run:         extract.TextMatches("Following.txt", dateOnly, extract.Capture{Name: "Date", Group: 1}),
		},
		{
			ID:    "tiktok_hashtag",
			Title: table.T("Hashtags in videos you posted", "Hashtags in video's die je hebt geplaatst"),
			Description: table.T(
				"In the table below, you will find the hashtags you used in a video you posted on TikTok.",
				"In de tabel hieronder vind je de hashtags die je gebruikt hebt in een video die je hebt geplaatst op TikTok.",
			),
			Run: pairs("Hashtag.txt", hashtagNameLink, "Hashtag naam", "Hashtag url"),
		},
		{
			ID:    "tiktok_like_list",
			Title: table.T("Videos you have liked", "Video's die je hebt geliket"),
			Description: table.T(
				"In the table below, you will find the videos you have liked and when that was.",
				"In de tabel hieronder vind je de video's die je hebt geliket en wanneer dat was.",
			),
			Run: pairs("Like List.txt", dateLink, "Tijdstip", "Video"),
		},
		{
			ID:    "tiktok_searches",
			Title: table.T("Search terms", "Zoektermen"),
			Description: table.T(
				"The table below shows what you have searched for and when. The size of the words in the chart indicates how often the search term appears in your data.",
				"De tabel hieronder laat zien wat je hebt gezocht en wanneer dat was. De grootte van de woorden in de grafiek geeft aan hoe vaak de zoekterm voorkomt in jouw gegevens.",
			),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("", ""), "Zoekterm", false),
			},
			Run: pairs("Searches.txt", dateSearch, "Tijdstip", "Zoekterm"),
		},
		{
			ID:    "tiktok_share_history",
			Title: table.T("Shared videos", "Gedeelde video's"),
			Description: table.T(
				"The table below shows what you have shared, at what time, and how.",
				"In de tabel hieronder vind je wat je hebt gedeeld, op welk tijdstip en de manier waarop.",
			),
			Run: extract.TextMatches("Share History.txt", dateShare,
				extract.Capture{Name: "Tijdstip", Group: 1},
				extract.Capture{Name: "Gedeelde inhoud", Group: 2},
				extract.Capture{Name: "Url", Group: 3},
				extract.Capture{Name: "Gedeeld via", Group: 4},
			),
		},
		{
			ID:    "tiktok_settings",
			Title: table.T("Interests on TikTok", "Interesses op TikTok"),
			Description: table.T(
				"Below you will find the interests you selected when creating your TikTok account",
				"Hieronder vind je de interesses die je hebt aangevinkt bij het aanmaken van je TikTok account",
			),
			Run: settings,
		},
	}
}
