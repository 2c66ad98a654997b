// Package netflix extracts the ratings and viewing activity of one profile of a Netflix export.
package netflix

import (
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ubuntu/ddp-insights/internal/archive"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Catalog lists the known shapes of a Netflix export.
var Catalog = []validate.Category{
	{
		ID:       "csv",
		FileType: validate.CSV,
		Language: validate.LangEN,
		KnownFiles: []string{
			"MyList.csv", "ViewingActivity.csv", "SearchHistory.csv", "IndicatedPreferences.csv",
			"PlaybackRelatedEvents.csv", "InteractiveTitles.csv", "Ratings.csv", "GamePlaySession.txt",
			"IpAddressesLogin.csv", "IpAddressesAccountCreation.txt", "IpAddressesStreaming.csv",
			"Additional Information.pdf", "MessagesSentByNetflix.csv", "SocialMediaConnections.txt",
			"AccountDetails.csv", "ProductCancellationSurvey.txt", "CSContact.csv", "ChatTranscripts.csv",
			"Cover sheet.pdf", "Devices.csv", "ParentalControlsRestrictedTitles.txt", "AvatarHistory.csv",
			"Profiles.csv", "Clickstream.csv", "BillingHistory.csv",
		},
	},
}

// Supplemental video types which are not something the participant chose to watch.
var skippedVideoTypes = []string{"TEASER_TRAILER", "HOOK", "TRAILER", "CINEMAGRAPH"}

// Platform is the Netflix platform. Packages holding several profiles ask which one to extract.
type Platform struct {
	extract.Definition
}

// New returns the Netflix platform.
func New() extract.Platform {
	return Platform{Definition: extract.Definition{
		PlatformID:  "netflix",
		DisplayName: "Netflix",
		Catalog:     Catalog,
	}}
}

// Profiles returns the sorted unique profile names of the viewing activity.
func Profiles(log *slog.Logger, path string) []string {
	f := archive.ReadCSV(log, archive.ExtractMember(log, path, "ViewingActivity.csv"))
	if len(f.Columns) == 0 {
		return []string{}
	}

	profiles := make([]string, 0)
	for _, v := range f.Column(f.Columns[0]) {
		s, _ := v.(string)
		if !slices.Contains(profiles, s) {
			profiles = append(profiles, s)
		}
	}
	slices.Sort(profiles)
	return profiles
}

// Choice asks for the profile when the package holds more than one.
func (p Platform) Choice(log *slog.Logger, path string, _ validate.Result) *extract.Choice {
	profiles := Profiles(log, path)
	if len(profiles) <= 1 {
		return nil
	}
	return &extract.Choice{
		Title:       table.T("Select your Netflix profile name", "Kies jouw Netflix profielnaam"),
		Description: table.T("", ""),
		Items:       profiles,
	}
}

// Extract returns the tables of the selected profile.
// Without selection, the only profile of the package is used.
func (p Platform) Extract(log *slog.Logger, path string, result validate.Result, selection string) []table.ExtractedTable {
	if selection == "" {
		if profiles := Profiles(log, path); len(profiles) == 1 {
			selection = profiles[0]
		}
	}
	return extract.Run(extract.NewSource(log, path, result, selection), datasets())
}

func datasets() []extract.Sub {
	return []extract.Sub{
		{
			ID:          "netflix_ratings",
			Title:       table.T("Your ratings on Netflix", "Uw beoordelingen op Netflix"),
			Description: table.T("Click 'Show Table' to view these ratings per row.", "Klik op ‘Tabel tonen’ om deze beoordelingen per rij te bekijken."),
			Visualizations: []table.Visualization{{
				Title:       table.T("Titles rated by thumbs value", "Gekeken titles, grootte is gebasseerd op het aantal duimpjes omhoog"),
				Type:        "wordcloud",
				TextColumn:  "Titel",
				ValueColumn: "Aantal duimpjes omhoog",
			}},
			Run: profileRows("Ratings.csv",
				extract.CSVColumn{Name: "Titel", Source: "Title Name"},
				extract.CSVColumn{Name: "Aantal duimpjes omhoog", Source: "Thumbs Value"},
				extract.CSVColumn{Name: "Datum en tijd", Source: "Event Utc Ts"},
			),
		},
		{
			ID:    "netflix_viewing_activity",
			Title: table.T("What you watched", "Wanneer kijkt u Netflix"),
			Description: table.T(
				"This table shows what titles you watched when and for how long.",
				"Klik op ‘Tabel tonen’ om voor elke keer dat u iets op Netflix heeft gekeken te zien welke serie of film dit was, wanneer u dit heeft gekeken, hoe lang u het heeft gekeken.",
			),
			Visualizations: []table.Visualization{
				{
					Title:  table.T("Total hours watched per month of the year", "Totaal aantal uren gekeken per maand van het jaar"),
					Type:   "area",
					Group:  &table.Group{Column: "Start tijd", DateFormat: "month", Label: table.T("Month", "Maand")},
					Values: []table.Aggregate{{Column: "Aantal uur gekeken", Aggregate: "sum"}},
				},
				{
					Title:  table.T("Total hours watch by hour of the day", "Totaal aantal uur gekeken op uur van de dag"),
					Type:   "bar",
					Group:  &table.Group{Column: "Start tijd", DateFormat: "hour_cycle"},
					Values: []table.Aggregate{{Column: "Aantal uur gekeken", Aggregate: "sum"}},
				},
			},
			Run: extract.Post(
				profileRows("ViewingActivity.csv",
					extract.CSVColumn{Name: "Start tijd", Source: "Start Time"},
					extract.CSVColumn{Name: "Aantal uur gekeken", Source: "Duration", Normalize: hours},
					extract.CSVColumn{Name: "Titel", Source: "Title"},
					extract.CSVColumn{Name: "Aanvullend informatie", Source: "Supplemental Video Type"},
				),
				extract.DropValues("Aanvullend informatie", skippedVideoTypes...),
				sortAscending("Start tijd"),
			),
		},
	}
}

// profileRows keeps the rows of member whose first column is the selected profile before picking columns.
func profileRows(member string, columns ...extract.CSVColumn) extract.RunFunc {
	return func(src *extract.Source) (*table.Frame, error) {
		in := src.CSV(member)
		if len(in.Columns) == 0 {
			return in, nil
		}
		mine := in.Filter(func(row []any) bool { return row[0] == src.Selection })
		return extract.Pick(src.Log, mine, columns...), nil
	}
}

// hours converts a H:MM:SS duration into hours rounded to 3 decimals, or 0 when it doesn't parse.
func hours(_ *slog.Logger, s string) any {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0.0
	}
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return 0.0
		}
		total += n * mult
	}
	return math.Round(float64(total)/3600*1000) / 1000
}

func sortAscending(column string) extract.Step {
	return func(f *table.Frame) *table.Frame {
		i := f.ColumnIndex(column)
		if i < 0 {
			return f
		}
		slices.SortStableFunc(f.Rows, func(a, b []any) int {
			as, _ := a[i].(string)
			bs, _ := b[i].(string)
			return strings.Compare(as, bs)
		})
		return f
	}
}
