// Package facebook extracts the activity, groups and interests found in a Facebook export.
package facebook

import (
	"log/slog"

	"github.com/ubuntu/ddp-insights/internal/denest"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/normalize"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Catalog lists the known shapes of a Facebook export.
var Catalog = []validate.Category{
	{
		ID:       "json_en",
		FileType: validate.JSON,
		Language: validate.LangEN,
		KnownFiles: []string{
			"subscription_for_no_ads.json", "other_categories_used_to_reach_you.json", "ads_feedback_activity.json",
			"ads_personalization_consent.json", "advertisers_you've_interacted_with.json",
			"advertisers_using_your_activity_or_information.json", "story_views_in_past_7_days.json",
			"ad_preferences.json", "groups_you've_searched_for.json", "your_search_history.json",
			"primary_public_location.json", "timezone.json", "primary_location.json",
			"your_privacy_jurisdiction.json", "people_and_friends.json", "ads_interests.json", "notifications.json",
			"notification_of_meta_privacy_policy_update.json", "recently_viewed.json", "recently_visited.json",
			"your_avatar.json", "meta_avatars_post_backgrounds.json", "contacts_sync_settings.json",
			"autofill_information.json", "profile_information.json", "profile_update_history.json",
			"your_transaction_survey_information.json", "your_recently_followed_history.json",
			"your_recently_used_emojis.json", "no-data.txt", "navigation_bar_activity.json",
			"pages_and_profiles_you_follow.json", "pages_you've_liked.json", "your_saved_items.json",
			"fundraiser_posts_you_likely_viewed.json", "your_fundraiser_donations_information.json",
			"your_event_responses.json", "event_invitations.json", "your_event_invitation_links.json",
			"likes_and_reactions_1.json", "your_uncategorized_photos.json", "payment_history.json",
			"your_answers_to_membership_questions.json", "your_group_membership_activity.json",
			"your_contributions.json", "group_posts_and_comments.json", "your_comments_in_groups.json",
			"instant_games.json", "your_page_or_groups_badges.json", "instant_games_usage_data.json",
			"who_you've_followed.json", "people_you_may_know.json", "received_friend_requests.json",
			"your_friends.json"},
	},
}

// New returns the Facebook platform.
func New() extract.Platform {
	return extract.Definition{
		PlatformID:  "facebook",
		DisplayName: "Facebook",
		Catalog:     Catalog,
		Datasets:    datasets,
	}
}

var (
	timestamp = extract.Column{Name: "Timestamp", Key: "timestamp", Normalize: extract.EpochISO}
	title     = extract.Column{Name: "Title", Key: "title", Normalize: extract.Latin1}
)

// scalar reads an item which is a bare string.
func scalar(n extract.Normalizer) func(*slog.Logger, *denest.Record) any {
	return func(log *slog.Logger, r *denest.Record) any {
		v, _ := r.Get("")
		return n(log, v.String())
	}
}

// titled lists the title and time of every entry of key in member, most recent first.
func titled(member, key string) extract.RunFunc {
	return extract.Post(
		extract.JSONRecords(member, extract.Items(key), title, timestamp),
		extract.SortISO("Timestamp"),
	)
}

// pages lists the name, link and time of every entry of key in the first member found.
func pages(key string, members ...string) extract.RunFunc {
	return extract.Post(
		extract.JSONRecordsFrom(extract.AnyJSON(members...), extract.Items(key), nil,
			extract.Column{Name: "Name", Key: "name", Normalize: extract.Latin1},
			extract.Column{Name: "Url", Key: "url"},
			timestamp,
		),
		extract.SortISO("Timestamp"),
	)
}

// visits lists the entries of every item of key in member.
// With children set, the entries of the item children are listed under the child name.
func visits(member, key string, children bool) extract.RunFunc {
	return func(src *extract.Source) (*table.Frame, error) {
		f := table.NewFrame("Watched", "Name", "Link", "Date")
		items, ok := src.JSON(member).Get(key)
		if !ok {
			return f, nil
		}

		add := func(name string, entries denest.Value) {
			for _, e := range entries.Items() {
				data, _ := e.Get("data")
				n, _ := data.Get("name")
				uri, _ := data.Get("uri")
				ts, _ := e.Get("timestamp")
				f.Append(name, normalize.FixLatin1(n.String()), uri.String(), normalize.EpochToISO(src.Log, ts.String()))
			}
		}

		for _, item := range items.Items() {
			name, _ := item.Get("name")
			if entries, ok := item.Get("entries"); ok {
				n := name.String()
				if children {
					n = normalize.FixLatin1(n)
				}
				add(n, entries)
			}
			if !children {
				continue
			}
			kids, _ := item.Get("children")
			for _, child := range kids.Items() {
				cname, _ := child.Get("name")
				entries, _ := child.Get("entries")
				add(normalize.FixLatin1(cname.String()), entries)
			}
		}
		return f, nil
	}
}

// reelsUsage reads the label and value pairs of the first reels usage section.
func reelsUsage(doc denest.Value) []denest.Value {
	first, ok := doc.Path("label_values")
	if !ok {
		return nil
	}
	section, ok := first.Index(0)
	if !ok {
		return nil
	}
	return extract.Items("dict")(section)
}

// friendCount counts the friends listed in the export.
func friendCount(src *extract.Source) (*table.Frame, error) {
	f := table.NewFrame("Aantal vrienden op facebook")
	friends, ok := src.JSON("your_friends.json").Get("friends_v2")
	if !ok || friends.Kind() != denest.KindSequence {
		return f, nil
	}
	f.Append(friends.Len())
	return f, nil
}

// likesAndReactions reads every numbered likes and reactions file.
func likesAndReactions(src *extract.Source) (*table.Frame, error) {
	f := table.NewFrame("Title", "Reaction", "Timestamp")
	for _, doc := range src.NumberedJSON("likes_and_reactions_%d.json") {
		rows := extract.Records(src.Log, doc, extract.Items(), nil,
			title,
			extract.Column{Name: "Reaction", Path: "reaction-reaction"},
			timestamp,
		)
		f.Rows = append(f.Rows, rows.Rows...)
	}
	return f, nil
}

func datasets(validate.Result) []extract.Sub {
	return []extract.Sub{
		{
			ID:          "facebook_who_youve_followed",
			Title:       table.T("Who you follow", "Wie je volgt"),
			Description: table.T("This table shows the Facebook profiles and pages you currently follow.", "Deze tabel toont de Facebook-profielen en -pagina's die je momenteel volgt."),
			Run: extract.JSONRecordsFrom(extract.AnyJSON("who_you've_followed.json", "who_you_ve_followed.json"), extract.Items("following_v3"), nil,
				extract.Column{Name: "Name", Key: "name", Normalize: extract.Latin1},
				timestamp,
			),
		},
		{
			ID:          "facebook_news_your_locations",
			Title:       table.T("The locations Facebook news is set to", "De locaties waar Facebook Nieuws op is ingesteld"),
			Description: table.T("This table displays the geographical locations for which your Facebook News feed is configured.", "Deze tabel toont de geografische locaties waarvoor je Facebook Nieuwsfeed is geconfigureerd."),
			Run: extract.JSONRecords("facebook_news/your_locations.json", extract.Items("news_your_locations_v2"),
				extract.Column{Name: "Location", Value: scalar(extract.Latin1)},
			),
		},
		{
			ID:          "facebook_notifications",
			Title:       table.T("Notifications Facebook sent you", "Notificaties die Facebook je stuurde"),
			Description: table.T("This table contains a history of the notifications you've received from Facebook.", "Deze tabel bevat een overzicht van de notificaties die je van Facebook hebt ontvangen."),
			Run: extract.JSONRecords("notifications/notifications.json", extract.Items("notifications_v2"),
				extract.Column{Name: "Text", Path: "text", Normalize: extract.Latin1},
				extract.Column{Name: "Link", Path: "href"},
				extract.Column{Name: "Gelezen", Path: "unread"},
				extract.Column{Name: "Datum", Path: "timestamp", Normalize: extract.EpochISO},
			),
		},
		{
			ID:          "facebook_reels_usage",
			Title:       table.T("Interactions with Facebook Reels", "Interacties met Facebook Reels"),
			Description: table.T("This table shows your interactions with Facebook Reels, such as videos you've watched or engaged with.", "Deze tabel toont je interacties met Facebook Reels, zoals video's die je hebt bekeken of waarmee je hebt gecommuniceerd."),
			Run: extract.JSONRecords("facebook_reels_usage_information.json", reelsUsage,
				extract.Column{Name: "Interactie met reels", Key: "label"},
				extract.Column{Name: "Waarde", Key: "value"},
			),
		},
		{
			ID:          "facebook_last_28",
			Title:       table.T("How many videos you watched in the last 28 days", "Hoeveel video's je de afgelopen 28 dagen hebt bekeken"),
			Description: table.T("This table indicates the number of videos you have watched on Facebook in the past 28 days.", "Deze tabel geeft het aantal video's aan dat je de afgelopen 28 dagen op Facebook hebt bekeken."),
			Run: extract.JSONRecords("your_facebook_watch_activity_in_the_last_28_days.json", extract.Items(),
				extract.Column{Name: "Aantal", Path: "-value"},
			),
		},
		{
			ID:          "facebook_search_history",
			Title:       table.T("Your search history", "Je zoekgeschiedenis"),
			Description: table.T("This table contains a record of your search queries on Facebook.", "Deze tabel bevat een overzicht van je zoekopdrachten op Facebook."),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("Terms you searched for", "Zoektermen waar je naar zocht"), "Zoekterm", false),
			},
			Run: extract.JSONRecords("your_search_history.json", extract.Items("searches_v2"),
				extract.Column{Name: "Zoekterm", Path: "text", Normalize: extract.Latin1},
				extract.Column{Name: "Datum", Key: "timestamp", Normalize: extract.EpochISO},
			),
		},
		{
			ID:          "facebook_recently_visited",
			Title:       table.T("Profiles you visited recently", "Profielen die je recentelijk hebt bezocht"),
			Description: table.T("This table lists the Facebook profiles you have visited most recently.", "Deze tabel toont de Facebook-profielen die je recentelijk hebt bezocht."),
			Run:         visits("recently_visited.json", "visited_things_v2", false),
		},
		{
			ID:          "facebook_recently_viewed",
			Title:       table.T("Facebook items you recently viewed", "Facebook items die je recentelijk hebt bekeken"),
			Description: table.T("This table shows the Facebook posts, videos, and other items you have recently viewed.", "Deze tabel toont de Facebook-posts, video's en andere items die je recentelijk hebt bekeken."),
			Run:         visits("recently_viewed.json", "recently_viewed", true),
		},
		{
			ID:          "facebook_profile_update_history",
			Title:       table.T("History of your profile updates", "Geschiedenis van je profielupdates"),
			Description: table.T("This table contains a log of changes you've made to your Facebook profile information.", "Deze tabel bevat een logboek van de wijzigingen die je in je Facebook-profielinformatie hebt aangebracht."),
			Run:         titled("profile_update_history.json", "profile_updates_v2"),
		},
		{
			ID:          "facebook_likes_and_reactions",
			Title:       table.T("Likes and reactions on Facebook", "Likes en reacties op Facebook"),
			Description: table.T("This table shows your likes and reactions to posts, comments, and other content on Facebook.", "Deze tabel toont je likes en reacties op berichten, commentaren en andere content op Facebook."),
			Run:         extract.Post(likesAndReactions, extract.SortISO("Timestamp")),
		},
		{
			ID:          "facebook_your_group_membership_activity",
			Title:       table.T("Facebook groups you are a member of", "Facebookgroepen waar je lid van bent"),
			Description: table.T("This table lists the Facebook groups you are currently a member of.", "Deze tabel toont de Facebookgroepen waar je momenteel lid van bent."),
			Run: extract.Post(
				extract.JSONRecords("your_group_membership_activity.json", extract.Items("groups_joined_v2"),
					title,
					extract.Column{Name: "Group name", Path: "name", Normalize: extract.Latin1},
					timestamp,
				),
				extract.SortISO("Timestamp"),
			),
		},
		{
			ID:          "facebook_pages_and_profiles_you_follow_to_df",
			Title:       table.T("Pages and profiles that you follow", "Pagina's en profielen die je volgt"),
			Description: table.T("This table displays the Facebook Pages and profiles that you actively follow.", "Deze tabel toont de Facebookpagina's en -profielen die je actief volgt."),
			Run:         titled("pages_and_profiles_you_follow.json", "pages_followed_v2"),
		},
		{
			ID:          "facebook_pages_youve_liked_to_df",
			Title:       table.T("Pages that you have liked", "Pagina's die je leuk vindt"),
			Description: table.T("This table contains a history of the Facebook Pages you have liked.", "Deze tabel bevat een overzicht van de Facebookpagina's die je leuk vindt."),
			Run:         pages("page_likes_v2", "pages_you've_liked.json", "pages_you_ve_liked.json"),
		},
		{
			ID:          "facebook_your_posts_and_check_ins",
			Title:       table.T("Your posts and check-ins", "Je posts en check-ins"),
			Description: table.T("This table shows the posts and places you have checked into on Facebook.", "Deze tabel toont de berichten en plaatsen waar je op Facebook hebt ingecheckt."),
			Run: extract.Post(
				extract.JSONRecords("your_posts__check_ins__photos_and_videos_1.json", extract.Items(), title, timestamp),
				extract.SortISO("Timestamp"),
			),
		},
		{
			ID:          "facebook_story_reactions",
			Title:       table.T("Your story reactions", "Je story-reacties"),
			Description: table.T("This table contains your reactions to Facebook Stories.", "Deze tabel bevat je reacties op Facebook Stories."),
			Run: extract.JSONRecords("story_reactions.json", extract.Items("stories_feedback_v2"),
				extract.Column{Name: "Titel", Key: "title", Normalize: extract.Latin1},
			),
		},
		{
			ID:          "facebook_content_sharing_links_you_created",
			Title:       table.T("Links you shared", "Links die je hebt gedeeld"),
			Description: table.T("This table displays the external links you have shared on Facebook.", "Deze tabel toont de externe links die je op Facebook hebt gedeeld."),
			Run: extract.JSONRecords("content_sharing_links_you_have_created.json", extract.Items(),
				extract.Column{Name: "Link", Path: "href"},
				extract.Column{Name: "Datum en Tijd", Path: "timestamp", Normalize: extract.EpochISO},
			),
		},
		{
			ID:          "facebook_your_friends",
			Title:       table.T("Your friends on Facebook", "Je vrienden op Facebook"),
			Description: table.T("This table lists your current friends on Facebook.", "Deze tabel toont je huidige vrienden op Facebook."),
			Run:         friendCount,
		},
		{
			ID:          "facebook_ads_interests",
			Title:       table.T("Your ad interests", "Je advertentie-interesses"),
			Description: table.T("This table shows the interests Facebook has identified for showing you personalized ads.", "Deze tabel toont de interesses die Facebook heeft geïdentificeerd om je gepersonaliseerde advertenties te tonen."),
			Run: extract.JSONRecords("ads_interests.json", extract.Items("topics_v2"),
				extract.Column{Name: "Ad", Value: scalar(extract.Latin1)},
			),
		},
		{
			ID:          "facebook_your_event_responses",
			Title:       table.T("Your event responses", "Je reacties op evenementen"),
			Description: table.T("This table contains your responses (going, interested, declined) to Facebook events.", "Deze tabel bevat je reacties (gaat, geïnteresseerd, afgewezen) op Facebook-evenementen."),
			Run: extract.Post(
				extract.JSONRecords("your_event_responses.json", extract.Items("event_responses_v2", "events_joined"),
					extract.Column{Name: "Name", Key: "name", Normalize: extract.Latin1},
					extract.Column{Name: "Timestamp", Key: "start_timestamp", Normalize: extract.EpochISO},
				),
				extract.SortISO("Timestamp"),
			),
		},
		{
			ID:          "facebook_group_posts_and_comments",
			Title:       table.T("Your posts and comments in groups", "Je berichten en commentaren in groepen"),
			Description: table.T("This table shows your posts and comments within Facebook groups.", "Deze tabel toont je berichten en commentaren in Facebook-groepen."),
			Run: extract.Post(
				extract.JSONRecords("group_posts_and_comments.json", extract.Items("group_posts_v2"),
					title,
					extract.Column{Name: "Post", Path: "post", Normalize: extract.Latin1},
					extract.Column{Name: "Date", Key: "timestamp", Normalize: extract.EpochISO},
					extract.Column{Name: "Url", Path: "url"},
				),
				extract.SortISO("Date"),
			),
		},
		{
			ID:          "facebook_your_answers_to_membership_questions",
			Title:       table.T("Your answers to group membership questions", "Je antwoorden op vragen voor groepslidmaatschap"),
			Description: table.T("This table contains the answers you provided when requesting to join Facebook groups.", "Deze tabel bevat de antwoorden die je hebt gegeven bij het aanvragen van lidmaatschap van Facebook-groepen."),
			Run: extract.JSONRecords("your_answers_to_membership_questions.json", extract.Items("group_membership_questions_answers_v2", "group_answers"),
				extract.Column{Name: "Group name", Key: "group_name", Normalize: extract.Latin1},
			),
		},
		{
			ID:          "facebook_your_comments_in_groups",
			Title:       table.T("Your comments in groups", "Je commentaren in groepen"),
			Description: table.T("This table specifically lists the comments you have made in Facebook groups.", "Deze tabel toont specifiek de commentaren die je in Facebook-groepen hebt geplaatst."),
			Run: extract.Post(
				extract.JSONRecords("your_comments_in_groups.json", extract.Items("group_comments_v2"),
					title,
					extract.Column{Name: "Comment", Path: "comment-comment", Normalize: extract.Latin1},
					extract.Column{Name: "Group", Path: "group", Normalize: extract.Latin1},
					timestamp,
				),
				extract.SortISO("Timestamp"),
			),
		},
		{
			ID:          "facebook_your_saved_items",
			Title:       table.T("Your saved items", "Je opgeslagen items"),
			Description: table.T("This table contains the posts, videos, and other content you have saved on Facebook.", "Deze tabel bevat de berichten, video's en andere content die je op Facebook hebt opgeslagen."),
			Run:         titled("your_saved_items.json", "saves_v2"),
		},
		{
			ID:          "facebook_comments",
			Title:       table.T("Your comments", "Je commentaren"),
			Description: table.T("This table shows all the comments you have made on Facebook posts and other content.", "Deze tabel toont alle commentaren die je op Facebook-berichten en andere content hebt geplaatst."),
			// The leading slash keeps group_posts_and_comments.json out.
			Run: extract.Post(
				extract.JSONRecords("/comments.json", extract.Items("comments_v2"),
					title,
					extract.Column{Name: "Comment", Path: "comment-comment", Normalize: extract.Latin1},
					timestamp,
				),
				extract.SortISO("Timestamp"),
			),
		},
		{
			ID:          "facebook_your_comment_active_days",
			Title:       table.T("Days you actively commented", "Dagen waarop je actief commentaren hebt geplaatst"),
			Description: table.T("This table indicates the days on which you made comments on Facebook.", "Deze tabel toont de dagen waarop je commentaren op Facebook hebt geplaatst."),
			Run: extract.JSONRecords("your_comment_active_days.json", extract.Items("label_values"),
				extract.Column{Name: "Label", Key: "label"},
				extract.Column{Name: "Value", Key: "value"},
			),
		},
		{
			ID:          "facebook_your_pages",
			Title:       table.T("Pages you manage", "Pagina's die je beheert"),
			Description: table.T("This table lists the Facebook Pages that you administer.", "Deze tabel toont de Facebookpagina's die je beheert."),
			Run:         pages("pages_v2", "your_pages.json"),
		},
	}
}
