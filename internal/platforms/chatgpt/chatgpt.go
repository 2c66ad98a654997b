// Package chatgpt extracts the conversations of a ChatGPT data export.
package chatgpt

import (
	"strings"

	"github.com/ubuntu/ddp-insights/internal/denest"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/normalize"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Catalog lists the known shapes of a ChatGPT export.
var Catalog = []validate.Category{
	{
		ID:       "json",
		FileType: validate.JSON,
		Language: validate.LangEN,
		KnownFiles: []string{
			"chat.html",
			"conversations.json",
			"message_feedback.json",
			"model_comparisons.json",
			"user.json",
		},
	},
}

// New returns the ChatGPT platform.
func New() extract.Platform {
	return extract.Definition{
		PlatformID:  "chatgpt",
		DisplayName: "ChatGPT",
		Catalog:     Catalog,
		Datasets:    datasets,
	}
}

func datasets(validate.Result) []extract.Sub {
	return []extract.Sub{
		{
			ID:    "chatgpt_conversations",
			Title: table.T("Your conversations with ChatGPT", "Uw gesprekken met ChatGPT"),
			Description: table.T(
				"In this table you find your conversations with ChatGPT sorted by time. Below, you find a wordcloud, where the size of the words represents how frequent these words have been used in the conversations.",
				"In deze tabel vindt u uw gesprekken met ChatGPT, gesorteerd op tijd. Hieronder vindt u een woordwolk, waarin de grootte van de woorden aangeeft hoe vaak deze woorden in de gesprekken zijn gebruikt.",
			),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("Your messages in a wordcloud", "Uw berichten in een woordwolk"), "message", true),
			},
			Run: conversations,
		},
	}
}

// conversations returns one row per visible turn with a role.
func conversations(src *extract.Source) (*table.Frame, error) {
	f := table.NewFrame("conversation title", "role", "message", "model", "time")

	doc := src.JSON("conversations.json")
	for _, conv := range doc.Items() {
		title, _ := conv.Get("title")
		mapping, _ := conv.Get("mapping")

		for _, turn := range mapping.Pairs() {
			rec := denest.Denest(turn.Value)
			if rec.Truncated() {
				src.Log.Warn("Conversation turn nested too deeply, deepest values dropped", "turn", turn.Key)
			}
			if denest.FindItem(rec, "is_visually_hidden_from_conversation") == "true" {
				continue
			}

			role := denest.FindItem(rec, "role")
			if role == "" {
				continue
			}
			f.Append(
				title.String(),
				role,
				strings.Join(denest.FindItems(rec, "part"), ""),
				denest.FindItem(rec, "-model_slug"),
				normalize.EpochToISO(src.Log, denest.FindItem(rec, "create_time")),
			)
		}
	}
	return f, nil
}
