// Package linkedin extracts the activity tables of a LinkedIn export.
package linkedin

import (
	"bytes"
	"regexp"

	"github.com/ubuntu/ddp-insights/internal/archive"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Catalog lists the known shapes of a LinkedIn export.
var Catalog = []validate.Category{
	{
		ID:       "csv_en",
		FileType: validate.CSV,
		Language: validate.LangEN,
		KnownFiles: []string{
			"Ad_Targeting.csv", "Endorsement_Given_Info.csv", "Member_Follows.csv", "Recommendations_Given.csv",
			"Company Follows.csv", "Endorsement_Received_Info.csv", "messages.csv", "Registration.csv",
			"Connections.csv", "Inferences_about_you.csv", "PhoneNumbers.csv", "Rich Media.csv", "Contacts.csv",
			"Invitations.csv", "Positions.csv", "Skills.csv", "Education.csv", "Profile.csv", "Votes.csv",
			"Email Addresses.csv", "Learning.csv", "Reactions.csv",
		},
	},
}

// New returns the LinkedIn platform.
func New() extract.Platform {
	return extract.Definition{
		PlatformID:  "linkedin",
		DisplayName: "LinkedIn",
		Catalog:     Catalog,
		Datasets:    datasets,
	}
}

// notes matches the free text LinkedIn writes before the header of some files.
var notes = regexp.MustCompile(`(?s)^(.*?)\n\n`)

// StripNotes removes everything up to the first blank line.
func StripNotes(b []byte) []byte {
	return notes.ReplaceAll(b, nil)
}

func withoutNotes(member string) extract.RunFunc {
	return func(src *extract.Source) (*table.Frame, error) {
		return archive.ReadCSV(src.Log, bytes.NewBuffer(StripNotes(src.Member(member).Bytes()))), nil
	}
}

func datasets(validate.Result) []extract.Sub {
	return []extract.Sub{
		{
			ID:          "linkedin_ads_clicked",
			Title:       table.T("Ads you clicked on", "Advertenties waarop je klikte"),
			Description: table.T("Record of advertisements you have clicked on while using LinkedIn", "Overzicht van advertenties waarop je hebt geklikt tijdens het gebruik van LinkedIn"),
			Run:         extract.CSVFile("Ads Clicked.csv"),
		},
		{
			ID:          "linkedin_comments",
			Title:       table.T("Your comments on LinkedIn", "Je reacties op LinkedIn"),
			Description: table.T("Comments you've posted on LinkedIn content", "Reacties die je hebt geplaatst op LinkedIn-content"),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("Words in your comments", "Woorden in je reacties"), "Message", true),
			},
			Run: extract.CSVFile("Comments.csv"),
		},
		{
			ID:          "linked_in_company_follows",
			Title:       table.T("Companies you follow", "Bedrijven die je volgt"),
			Description: table.T("List of companies you are following on LinkedIn", "Lijst van bedrijven die je volgt op LinkedIn"),
			Run:         extract.CSVFile("Company Follows.csv"),
		},
		{
			ID:          "linkedin_member_follows",
			Title:       table.T("Members you follow", "Leden die je volgt"),
			Description: table.T("List of members you are following on LinkedIn", "Lijst van leden die je volgt op LinkedIn"),
			Run:         withoutNotes("Member_Follows.csv"),
		},
		{
			ID:          "linkedin_connections",
			Title:       table.T("Your connections", "Je connecties"),
			Description: table.T("List of the people you are connected with on LinkedIn", "Lijst van de mensen met wie je verbonden bent op LinkedIn"),
			Run:         withoutNotes("Connections.csv"),
		},
		{
			ID:          "linkedin_shares",
			Title:       table.T("Posts you shared on LinkedIn", "Berichten die je deelde op LinkedIn"),
			Description: table.T("Content you've shared with your network on LinkedIn", "Content die je hebt gedeeld met je netwerk op LinkedIn"),
			Run:         extract.CSVFile("Shares.csv"),
		},
		{
			ID:          "linkedin_reactions",
			Title:       table.T("Your reactions on LinkedIn", "Je reacties op LinkedIn-berichten"),
			Description: table.T("Record of your reactions to posts and content on LinkedIn", "Overzicht van je reacties op berichten en content op LinkedIn"),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("The type of reactions you put under posts on Linkedin", "Het soort reacties dat je onder berichten op LinkedIn plaatste"), "Type", true),
			},
			Run: extract.CSVFile("Reactions.csv"),
		},
		{
			ID:          "linkedin_search_queries",
			Title:       table.T("Your search queries on LinkedIn", "Je zoekopdrachten op LinkedIn"),
			Description: table.T("Terms and phrases you've searched for on LinkedIn", "Termen en zinnen waarnaar je hebt gezocht op LinkedIn"),
			Visualizations: []table.Visualization{
				table.Wordcloud(table.T("What you searched for on Linkedin", "Waar je naar zocht op LinkedIn"), "Search Query", true),
			},
			Run: extract.CSVFile("SearchQueries.csv"),
		},
	}
}
