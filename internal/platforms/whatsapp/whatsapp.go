// Package whatsapp extracts the messages, emoji usage and participant statistics of an exported WhatsApp group chat.
//
// The export is a plain text file, or a zip archive whose first member is that file. Its line format
// depends on the phone locale, so the first known format matching a line is used for the whole chat.
package whatsapp

import (
	"fmt"
	"log/slog"

	"github.com/ubuntu/ddp-insights/internal/archive"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// maxEmojis bounds the emoji usage table.
const maxEmojis = 100

// Category is the category reported for any parsable chat.
var Category = validate.Category{
	ID:       "txt_chat",
	FileType: validate.TXT,
	Language: validate.LangUnknown,
}

// Platform is the WhatsApp group chat platform.
type Platform struct{}

// New returns the WhatsApp platform.
func New() extract.Platform {
	return Platform{}
}

// ID implements extract.Platform.
func (Platform) ID() string { return "whatsapp" }

// Categories implements extract.Categorized.
func (Platform) Categories() []validate.Category { return []validate.Category{Category} }

// Name implements extract.Platform.
func (Platform) Name() string { return "WhatsApp Group Chat" }

// Choice implements extract.Platform. A chat has no choice.
func (Platform) Choice(*slog.Logger, string, validate.Result) *extract.Choice { return nil }

func parse(log *slog.Logger, path string) ([]Message, error) {
	lines := Lines(archive.ReadText(log, archive.ReadFileOrFirstMember(log, path)))
	messages, pattern, err := Parse(lines)
	if err != nil {
		log.Error("Could not parse chat", "error", err)
		return nil, err
	}
	log.Info("Matched chat format", "pattern", pattern, "messages", len(messages))
	return messages, nil
}

// Validate recognizes any file with at least one line in a known chat format.
func (Platform) Validate(log *slog.Logger, path string) validate.Result {
	_, err := parse(log, path)
	return validate.ValidateFunc(Category, func() bool { return err == nil })
}

// Extract returns the chat, the emoji usage and one statistics table per participant.
func (p Platform) Extract(log *slog.Logger, path string, result validate.Result, selection string) []table.ExtractedTable {
	messages, err := parse(log, path)
	if err != nil {
		return []table.ExtractedTable{}
	}
	messages = WithText(messages)
	users := Users(messages)
	messages = FromUsers(messages, users)

	subs := []extract.Sub{
		{
			ID:    "whatsapp_group_chat",
			Title: table.T("Your group chat", "Je groepschat"),
			Description: table.T(
				"The contents of your group chat. Try searching for stuff in your group chat, the figures should change accordingly! Timestamps (and therefore some tables) can be incorrect as it assumes the European format.",
				"De inhoud van je groepschat. Probeer iets te zoeken in je groepschat, de figuren passen zich daarop aan! Tijdstippen (en daardoor sommige tabellen) kunnen onjuist zijn omdat het Europese formaat wordt aangenomen.",
			),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("Most common words in your chats", "Meest gebruikte woorden in je chats"), "Message", true),
				{
					Title:  table.T("Total chats per month of the year", "Totaal aantal chats per maand van het jaar"),
					Type:   "area",
					Group:  &table.Group{Column: "Timestamp", DateFormat: "month"},
					Values: []table.Aggregate{{}},
				},
				{
					Title:  table.T("Total chats per hour of the day", "Totaal aantal chats per uur van de dag"),
					Type:   "bar",
					Group:  &table.Group{Column: "Timestamp", DateFormat: "hour_cycle"},
					Values: []table.Aggregate{{}},
				},
			},
			Run: func(*extract.Source) (*table.Frame, error) {
				f := table.NewFrame("Timestamp", "Name", "Message")
				for _, m := range messages {
					f.Append(m.Date, m.Name, m.Text)
				}
				return f, nil
			},
		},
		{
			ID:          "emoji_usage",
			Title:       table.T("The 100 most used emojis in the group", "De 100 meest gebruikte emojis in de groep"),
			Description: table.T("Analysis of emoji frequency used by all members in the chat", "Analyse van emoji-frequentie gebruikt door alle leden in de chat"),
			Run: func(*extract.Source) (*table.Frame, error) {
				f := table.NewFrame("Emoji", "Count")
				for _, c := range Emojis(messages, maxEmojis) {
					f.Append(c.Value, c.N)
				}
				return f, nil
			},
		},
	}

	for i, user := range users {
		subs = append(subs, extract.Sub{
			ID:          fmt.Sprintf("user_statistics_%d", i),
			Title:       table.T("Chat statistics for user: "+user, "Chatstatistieken voor gebruiker: "+user),
			Description: table.T("Detailed messaging patterns and activity metrics for "+user, "Gedetailleerde berichtpatronen en activiteitsgegevens voor "+user),
			Run: func(*extract.Source) (*table.Frame, error) {
				s := UserStats(messages, user)
				f := table.NewFrame("Description", "Statistic")
				f.Append("who reacted to you the most", s.ReactedToYouMost)
				f.Append("who you reacted to the most", s.YouReactedToMost)
				f.Append("total number of messages you send", s.Messages)
				f.Append("total number of words you send", s.Words)
				f.Append("The emoji you used most", s.FavoriteEmoji)
				return f, nil
			},
		})
	}

	return extract.Run(extract.NewSource(log, path, result, selection), subs)
}
