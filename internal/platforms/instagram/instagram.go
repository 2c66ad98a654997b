// Package instagram extracts the viewing, liking and following activity of an Instagram export.
package instagram

import (
	"log/slog"

	"github.com/ubuntu/ddp-insights/internal/denest"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/normalize"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Catalog lists the known shapes of an Instagram export.
var Catalog = []validate.Category{
	{
		ID:       "json_en",
		FileType: validate.JSON,
		Language: validate.LangEN,
		KnownFiles: []string{
			"secret_conversations.json", "personal_information.json", "account_privacy_changes.json",
			"account_based_in.json", "recently_deleted_content.json", "liked_posts.json", "stories.json",
			"profile_photos.json", "followers.json", "signup_information.json", "comments_allowed_from.json",
			"login_activity.json", "your_topics.json", "camera_information.json", "recent_follow_requests.json",
			"devices.json", "professional_information.json", "follow_requests_you've_received.json",
			"eligibility.json", "pending_follow_requests.json", "videos_watched.json", "ads_interests.json",
			"account_searches.json", "following.json", "posts_viewed.json", "recently_unfollowed_accounts.json",
			"post_comments.json", "account_information.json", "accounts_you're_not_interested_in.json",
			"use_cross-app_messaging.json", "profile_changes.json", "reels.json",
		},
	},
}

// New returns the Instagram platform.
func New() extract.Platform {
	return extract.Definition{
		PlatformID:  "instagram",
		DisplayName: "Instagram",
		Catalog:     Catalog,
		Datasets:    datasets,
	}
}

// stringMap reads field of the string_map_data of an impression.
func stringMap(field, sub string) func(*slog.Logger, *denest.Record) any {
	return func(_ *slog.Logger, r *denest.Record) any {
		v, _ := r.Get("string_map_data-" + field + "-" + sub)
		return v.String()
	}
}

// impressionTime reads the English or Dutch time of an impression.
func impressionTime(log *slog.Logger, r *denest.Record) any {
	for _, field := range []string{"Time", "Tijd"} {
		if v, ok := r.Get("string_map_data-" + field + "-timestamp"); ok {
			return normalize.EpochToISO(log, v.String())
		}
	}
	return normalize.EpochToISO(log, "")
}

// impressions lists the author and time of every entry of key in member.
func impressions(member, key, authorField, authorColumn string) extract.RunFunc {
	return extract.Post(
		extract.JSONRecords(member, extract.Items(key),
			extract.Column{Name: authorColumn, Value: stringMap(authorField, "value")},
			extract.Column{Name: "Date", Value: impressionTime},
		),
		extract.SortISO("Date"),
	)
}

// listEntries lists the value, link and time of every entry of key in member.
func listEntries(member, key, valueColumn string) extract.RunFunc {
	return extract.Post(
		extract.JSONRecords(member, extract.Items(key),
			extract.Column{Name: valueColumn, Path: "value", Normalize: extract.Latin1},
			extract.Column{Name: "Link", Path: "href"},
			extract.Column{Name: "Date", Path: "timestamp", Normalize: extract.EpochISO},
		),
		extract.SortISO("Date"),
	)
}

// likes lists the account, value, links and time of every entry of key in member.
func likes(member, key string) extract.RunFunc {
	return extract.Post(
		extract.JSONRecords(member, extract.Items(key),
			extract.Column{Name: "Account name", Path: "title", Normalize: extract.Latin1},
			extract.Column{Name: "Value", Path: "value", Normalize: extract.Latin1},
			extract.Column{Name: "Link", Path: "href", All: true, Join: ", "},
			extract.Column{Name: "Date", Path: "timestamp", Normalize: extract.EpochISO},
		),
		extract.SortISO("Date"),
	)
}

// postComments reads every numbered post_comments file.
func postComments(src *extract.Source) (*table.Frame, error) {
	f := table.NewFrame("Media Owner", "Comment", "Date")
	for _, doc := range src.NumberedJSON("post_comments_%d.json") {
		rows := extract.Records(src.Log, doc, extract.Items(), nil,
			extract.Column{Name: "Media Owner", Value: stringMap("Media Owner", "value")},
			extract.Column{Name: "Comment", Value: func(log *slog.Logger, r *denest.Record) any {
				return normalize.FixLatin1(stringMap("Comment", "value")(log, r).(string))
			}},
			extract.Column{Name: "Date", Value: impressionTime},
		)
		f.Rows = append(f.Rows, rows.Rows...)
	}
	return f, nil
}

func datasets(validate.Result) []extract.Sub {
	return []extract.Sub{
		{
			ID:    "instagram_posts_viewed",
			Title: table.T("Posts viewed on Instagram", "Berichten bekeken op Instagram"),
			Description: table.T(
				"In this table you find the accounts of posts you viewed on Instagram sorted over time. Below, you find visualizations of different parts of this table. First, you find a timeline showing you the number of posts you viewed over time. Next, you find a histogram indicating how many posts you have viewed per hour of the day.",
				"In deze tabel zie je de accounts van berichten die je op Instagram hebt bekeken, gesorteerd op tijd. Hieronder vind je visualisaties van verschillende onderdelen van deze tabel. Eerst zie je een tijdlijn met het aantal berichten dat je in de loop van de tijd hebt bekeken. Daarna zie je een histogram dat aangeeft hoeveel berichten je per uur van de dag hebt bekeken.",
			),
			Visualizations: []table.Visualization{
				table.CountOverTime(table.T("The total number of Instagram posts you viewed over time", "Het totale aantal Instagram-berichten dat je in de loop van de tijd hebt bekeken"), "Date"),
				table.CountPerHour(table.T("The total number of Instagram posts you have viewed per hour of the day", "Het totale aantal Instagram-berichten dat je per uur van de dag hebt bekeken"), "Date"),
			},
			Run: impressions("posts_viewed.json", "impressions_history_posts_seen", "Author", "Author"),
		},
		{
			ID:    "instagram_videos_watched",
			Title: table.T("Videos watched on Instagram", "Video's bekeken op Instagram"),
			Description: table.T(
				"In this table you find the accounts of videos you watched on Instagram sorted over time. Below, you find a timeline showing you the number of videos you watched over time.",
				"In deze tabel zie je de accounts van video's die je op Instagram hebt bekeken, gesorteerd op tijd. Hieronder zie je een tijdlijn met het aantal video's dat je in de loop van de tijd hebt bekeken.",
			),
			Visualizations: []table.Visualization{
				table.CountOverTime(table.T("The total number of videos watched on Instagram over time", "Het totale aantal video's dat je op Instagram hebt bekeken in de loop van de tijd"), "Date"),
			},
			Run: impressions("videos_watched.json", "impressions_history_videos_watched", "Author", "Author"),
		},
		{
			ID:    "instagram_post_comments",
			Title: table.T("Comments on Instagram posts", "Reacties op Instagram-berichten"),
			Description: table.T(
				"In this table, you find the comments that you left behind on Instagram posts sorted over time. Below, you find a wordcloud, where the size of the word indicates how frequently that word has been used in these comments.",
				"In deze tabel zie je de reacties die je hebt achtergelaten op Instagram-berichten, gesorteerd op tijd. Hieronder zie je een woordwolk waarin de grootte van een woord aangeeft hoe vaak het is gebruikt in deze reacties.",
			),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("Most common words in comments on posts", "Meest gebruikte woorden in reacties op berichten"), "Comment", true),
			},
			Run: extract.Post(postComments, extract.SortISO("Date")),
		},
		{
			ID:          "instagram_accounts_not_interested_in",
			Title:       table.T("Instagram accounts not interested in", "Instagram-accounts waarin je geen interesse hebt"),
			Description: table.T("", ""),
			Run:         impressions("accounts_you're_not_interested_in.json", "impressions_history_recs_hidden_authors", "Username", "Account name"),
		},
		{
			ID:          "instagram_ads_viewed",
			Title:       table.T("Ads you viewed on Instagram", "Advertenties die je op Instagram hebt bekeken"),
			Description: table.T("In this table, you find the ads that you viewed on Instagram sorted over time.", "In deze tabel zie je de advertenties die je op Instagram hebt bekeken, gesorteerd op tijd."),
			Run:         impressions("ads_viewed.json", "impressions_history_ads_seen", "Author", "Author of ad"),
		},
		{
			ID:          "instagram_posts_not_interested_in",
			Title:       table.T("Instagram posts not interested in", "Instagram-berichten waarin je geen interesse hebt"),
			Description: table.T("", ""),
			Run:         listEntries("posts_you're_not_interested_in.json", "impressions_history_posts_not_interested", "Post"),
		},
		{
			ID:          "instagram_following",
			Title:       table.T("Accounts that you follow on Instagram", "Accounts die je volgt op Instagram"),
			Description: table.T("In this table, you find the accounts that you follow on Instagram.", "In deze tabel zie je de accounts die je volgt op Instagram."),
			Run:         listEntries("following.json", "relationships_following", "Account"),
		},
		{
			ID:          "instagram_liked_comments",
			Title:       table.T("Instagram liked comments", "Instagram-reacties die je leuk vond"),
			Description: table.T("", ""),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("Accounts who's comments you liked most", "Accounts waarvan je de reacties het vaakst leuk vond"), "Account name", false),
			},
			Run: likes("liked_comments.json", "likes_comment_likes"),
		},
		{
			ID:          "instagram_liked_posts",
			Title:       table.T("Instagram liked posts", "Instagram-berichten die je leuk vond"),
			Description: table.T("", ""),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("Most liked accounts", "Meest gelikete accounts"), "Account name", false),
			},
			Run: likes("liked_posts.json", "likes_media_likes"),
		},
	}
}
