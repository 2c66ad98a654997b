// Package x extracts the tweets, likes, follows and ad engagement of an X (formerly Twitter) export.
//
// The export stores its data as JavaScript files assigning a JSON document to a global.
package x

import (
	"log/slog"

	"github.com/ubuntu/ddp-insights/internal/denest"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Catalog lists the known shapes of an X export.
var Catalog = []validate.Category{
	{
		ID:       "js_en",
		FileType: validate.JSON,
		Language: validate.LangEN,
		KnownFiles: []string{
			"account-creation-ip.js", "app.js", "community-tweet.js", "expanded-profile.js", "ni-devices.js",
			"professional-data.js", "tweet-headers.js", "account-label.js", "article-metadata.js",
			"connected-application.js", "follower.js", "note-tweet.js", "profile.js", "tweetdeck.js",
			"account-suspension.js", "article.js", "contact.js", "following.js", "periscope-account-information.js",
			"profile_media", "tweets.js", "account-timezone.js", "audio-video-calls-in-dm-recipient-sessions.js",
			"deleted-note-tweet.js", "grok-chat-item.js", "periscope-ban-information.js", "protected-history.js",
			"tweets_media", "account.js", "audio-video-calls-in-dm.js", "deleted-tweet-headers.js", "ip-audit.js",
			"periscope-broadcast-metadata.js", "README.txt", "twitter-shop.js", "ad-engagements.js", "block.js",
			"deleted-tweets.js", "key-registry.js", "periscope-comments-made-by-user.js", "reply-prompt.js",
			"user-link-clicks.js", "ad-impressions.js", "branch-links.js", "device-token.js", "like.js",
			"periscope-expired-broadcasts.js", "saved-search.js", "verified-organization.js",
			"ad-mobile-conversions-attributed.js", "catalog-item.js", "direct-message-group-headers.js",
			"lists-created.js", "periscope-followers.js", "screen-name-change.js", "verified.js",
			"ad-mobile-conversions-unattributed.js", "commerce-catalog.js", "direct-message-headers.js",
			"lists-member.js", "periscope-profile-description.js", "shop-module.js",
			"ad-online-conversions-attributed.js", "community-note-batsignal.js", "direct-message-mute.js",
			"lists-subscribed.js", "personalization.js", "shopify-account.js", "ad-online-conversions-unattributed.js",
			"community-note-rating.js", "direct-messages-group.js", "manifest.js", "phone-number.js", "smartblock.js",
			"ads-revenue-sharing.js", "community-note-tombstone.js", "direct-messages.js", "moment.js",
			"product-drop.js", "spaces-metadata.js", "ageinfo.js", "community-note.js", "email-address-change.js",
			"mute.js", "product-set.js", "sso.js",
		},
	},
}

// New returns the X platform.
func New() extract.Platform {
	return extract.Definition{
		PlatformID:  "x",
		DisplayName: "X",
		Catalog:     Catalog,
		Datasets:    datasets,
	}
}

// statusURL prefixes the tweet ids of liked tweets.
const statusURL = "https://twitter.com/a/status/"

// records extracts one row per item of the JavaScript data member ending with member.
func records(member string, sel extract.Selector, columns ...extract.Column) extract.RunFunc {
	load := func(src *extract.Source) denest.Value { return src.JS(member) }
	return extract.JSONRecordsFrom(load, sel, nil, columns...)
}

// userLinks lists the user link of every item wrapped under key.
func userLinks(member, key, column string) extract.RunFunc {
	return records(member, extract.Items(), extract.Column{Name: column, Key: key + "-userLink"})
}

// interests walks to the interests of the first personalization document.
func interests(doc denest.Value) []denest.Value {
	first, ok := doc.Index(0)
	if !ok {
		return nil
	}
	return extract.Items("p13nData", "interests", "interests")(first)
}

func datasets(validate.Result) []extract.Sub {
	return []extract.Sub{
		{
			ID:          "x_ad_engagement",
			Title:       table.T("Your engagement with ads", "Je interactie met advertenties"),
			Description: table.T("Shows data about your interactions with advertisements on the platform", "Toont gegevens over je interacties met advertenties op het platform"),
			Run: records("ad-engagements.js", extract.Items(),
				extract.Column{Name: "Text", Path: "tweetText"},
				extract.Column{Name: "Impression time", Path: "impressionTime"},
			),
		},
		{
			ID:          "x_follower",
			Title:       table.T("Your followers", "Je volgers"),
			Description: table.T("List of accounts that follow your profile", "Lijst van accounts die jouw profiel volgen"),
			Run:         userLinks("/follower.js", "follower", "Link to user"),
		},
		{
			ID:          "x_following",
			Title:       table.T("Accounts you follow", "Accounts die je volgt"),
			Description: table.T("List of accounts that you are following", "Lijst van accounts die je volgt"),
			Run:         userLinks("/following.js", "following", "Link to user"),
		},
		{
			ID:          "x_block",
			Title:       table.T("Accounts you blocked", "Accounts die je hebt geblokkeerd"),
			Description: table.T("List of accounts you have blocked", "Lijst van accounts die je hebt geblokkeerd"),
			Run:         userLinks("/block.js", "blocking", "Blocked users"),
		},
		{
			ID:          "x_like",
			Title:       table.T("Posts that you liked", "Berichten die je hebt geliket"),
			Description: table.T("Posts that you've marked as liked", "Berichten die je hebt geliket"),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T(
					"Words in Tweets you liked, larger words mean they occur more often",
					"Woorden in Tweets die je hebt geliket, grotere woorden komen vaker voor",
				), "Tweet", true),
			},
			Run: records("/like.js", extract.Items(),
				extract.Column{Name: "Tweet Id", Value: func(_ *slog.Logger, r *denest.Record) any {
					id, _ := r.Get("like-tweetId")
					return statusURL + id.String()
				}},
				extract.Column{Name: "Tweet", Key: "like-fullText"},
			),
		},
		{
			ID:          "x_tweet",
			Title:       table.T("Your tweets", "Jouw Tweets"),
			Description: table.T("Posts you have created on the platform", "Berichten die je hebt geplaatst op het platform"),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T(
					"Words in your Tweets, larger words mean they occur more often in your Tweets",
					"Woorden in je Tweets, grotere woorden komen vaker voor in je Tweets",
				), "Tweet", true),
			},
			Run: records("/tweets.js", extract.Items(),
				extract.Column{Name: "Date", Key: "tweet-created_at"},
				extract.Column{Name: "Tweet", Key: "tweet-full_text"},
				extract.Column{Name: "Retweeted", Key: "tweet-retweeted"},
			),
		},
		{
			ID:          "x_personalization",
			Title:       table.T("Your personalization", "Je personalisatie"),
			Description: table.T("Information about your personalization settings and preferences", "Informatie over je personalisatie-instellingen en voorkeuren"),
			Run: records("personalization.js", interests,
				extract.Column{Name: "Interest", Path: "name"},
				extract.Column{Name: "is disabled", Path: "isDisabled"},
			),
		},
		{
			ID:          "x_mute",
			Title:       table.T("Accounts you muted", "Accounts die je hebt gedempt"),
			Description: table.T("List of accounts you have muted", "Lijst van accounts die je hebt gedempt"),
			Run:         userLinks("/mute.js", "muting", "Muted users"),
		},
		{
			ID:          "x_tweet_headers",
			Title:       table.T("Tweet headers", "Tweet headers"),
			Description: table.T("Metadata information about your tweets", "Metadata-informatie over je tweets"),
			Run: records("/tweet-headers.js", extract.Items(),
				extract.Column{Name: "Tweet id", Path: "tweet_id"},
				extract.Column{Name: "User id", Path: "user_id"},
				extract.Column{Name: "Created at", Path: "created_at"},
			),
		},
		{
			ID:          "x_user_link_clicks",
			Title:       table.T("Links you clicked", "Links waarop je hebt geklikt"),
			Description: table.T("Record of links you've clicked on while using the platform", "Overzicht van links waarop je hebt geklikt tijdens het gebruik van het platform"),
			Run: records("/user-link-clicks.js", extract.Items(),
				extract.Column{Name: "Tweet id", Path: "tweetId"},
				extract.Column{Name: "Link", Path: "finalUrl"},
				extract.Column{Name: "Datum en tijd", Path: "timeStampOfInteraction"},
			),
		},
	}
}
