package whatsapp

import (
	"cmp"
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ubuntu/ddp-insights/internal/normalize"
)

// ErrNoChatFormat is returned when no line of a file looks like an exported chat message.
var ErrNoChatFormat = errors.New("no known chat format matches the file")

// Message is one chat message.
type Message struct {
	Date string
	Name string
	Text string
}

// templates are the known line shapes of exported chats, tried in order.
// The last one catches any "<prefix>] name: text" or "<prefix> - name: text" line.
var templates = []string{
	`^%d/%m/%y, %H:%M - %name: %chat_message$`,
	`^\[%d/%m/%y, %H:%M:%S\] %name: %chat_message$`,
	`^%d-%m-%y %H:%M - %name: %chat_message$`,
	`^\[%d-%m-%y %H:%M:%S\] %name: %chat_message$`,
	`^%d/%m/%y, %H:%M – %name: %chat_message$`,
	`^%d.%m.%y, %H:%M – %name: %chat_message$`,
	`^%d.%m.%y, %H:%M - %name: %chat_message$`,
	`^\[%d/%m/%y, %H:%M:%S %P\] %name: %chat_message$`,
	`^\[%m/%d/%y, %H:%M:%S %P\] %name: %chat_message$`,
	`^\[%m/%d/%y, %H:%M:%S\] %name: %chat_message$`,
	`^\[%d.%m.%y, %H:%M:%S\] %name: %chat_message$`,
	`^\[%m/%d/%y %H:%M:%S\] %name: %chat_message$`,
	`^\[%m-%d-%y, %H:%M:%S\] %name: %chat_message$`,
	`^\[%m-%d-%y %H:%M:%S\] %name: %chat_message$`,
	`^%m.%d.%y, %H:%M - %name: %chat_message$`,
	`^%m.%d.%y %H:%M - %name: %chat_message$`,
	`^%m-%d-%y %H:%M - %name: %chat_message$`,
	`^%m-%d-%y, %H:%M - %name: %chat_message$`,
	`^%m-%d-%y, %H:%M , %name: %chat_message$`,
	`^%m/%d/%y, %H:%M , %name: %chat_message$`,
	`^%d-%m-%y, %H:%M , %name: %chat_message$`,
	`^%d/%m/%y, %H:%M , %name: %chat_message$`,
	`^%d.%m.%y %H:%M – %name: %chat_message$`,
	`^%m.%d.%y, %H:%M – %name: %chat_message$`,
	`^%m.%d.%y %H:%M – %name: %chat_message$`,
	`^\[%d.%m.%y %H:%M:%S\] %name: %chat_message$`,
	`^\[%m.%d.%y, %H:%M:%S\] %name: %chat_message$`,
	`^\[%m.%d.%y %H:%M:%S\] %name: %chat_message$`,
	`^%m/%d/%y, %H:%M - %name: %chat_message$`,
	`^(?P<year>.*?)(?:\] | - )%name: %chat_message$`,
}

var codes = map[string]string{
	"%Y":            `(?P<year>\d{2,4})`,
	"%y":            `(?P<year>\d{2,4})`,
	"%m":            `(?P<month>\d{1,2})`,
	"%d":            `(?P<day>\d{1,2})`,
	"%H":            `(?P<hour>\d{1,2})`,
	"%I":            `(?P<hour>\d{1,2})`,
	"%M":            `(?P<minutes>\d{2})`,
	"%S":            `(?P<seconds>\d{2})`,
	"%P":            `(?P<ampm>[AaPp].? ?[Mm].?)`,
	"%p":            `(?P<ampm>[AaPp].? ?[Mm].?)`,
	"%name":         `(?P<name>[^:]*)`,
	"%chat_message": `(?P<chat_message>.*)`,
}

var (
	code     = regexp.MustCompile(`%\w*`)
	patterns = compileTemplates(templates)
)

func compileTemplates(templates []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(templates))
	for _, t := range templates {
		expanded := code.ReplaceAllStringFunc(t, func(c string) string {
			if r, ok := codes[c]; ok {
				return r
			}
			return c
		})
		out = append(out, regexp.MustCompile(expanded))
	}
	return out
}

// Lines splits an exported chat in cleaned lines: control characters are removed and the text is NFKD normalized.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		out = append(out, normalize.StripControl(l))
	}
	return out
}

// detect returns the first pattern matching a line, trying every pattern on a line before the next one.
func detect(lines []string) (*regexp.Regexp, error) {
	for _, l := range lines {
		for _, re := range patterns {
			if re.MatchString(l) {
				return re, nil
			}
		}
	}
	return nil, ErrNoChatFormat
}

// Parse detects the chat format of lines and returns its messages.
//
// Lines which don't start a message are appended, space separated, to the message before them.
// Blank lines are ignored.
func Parse(lines []string) ([]Message, string, error) {
	re, err := detect(lines)
	if err != nil {
		return nil, "", err
	}

	var blocks []string
	for _, l := range lines {
		if l == "" {
			continue
		}
		if len(blocks) == 0 || re.MatchString(l) {
			blocks = append(blocks, l)
			continue
		}
		blocks[len(blocks)-1] += " " + l
	}

	messages := make([]Message, 0, len(blocks))
	for _, b := range blocks {
		m := re.FindStringSubmatch(b)
		if m == nil {
			continue
		}
		groups := make(map[string]string)
		for i, name := range re.SubexpNames() {
			if name != "" && m[i] != "" {
				groups[name] = m[i]
			}
		}
		messages = append(messages, Message{
			Date: chatDate(groups),
			Name: groups["name"],
			Text: groups["chat_message"],
		})
	}
	return messages, re.String(), nil
}

// chatDate builds an ISO timestamp from the date groups of a message.
// The raw prefix is returned when the groups don't form a valid date.
func chatDate(groups map[string]string) string {
	fields := make(map[string]int)
	for _, k := range []string{"year", "month", "day", "hour", "minutes"} {
		n, err := strconv.Atoi(groups[k])
		if err != nil {
			return strings.TrimSpace(strings.TrimPrefix(groups["year"], "["))
		}
		fields[k] = n
	}

	year, hour := fields["year"], fields["hour"]
	if year < 100 {
		year += 2000
	}
	if ampm := strings.ToLower(groups["ampm"]); ampm != "" {
		switch {
		case strings.HasPrefix(ampm, "p") && hour < 12:
			hour += 12
		case strings.HasPrefix(ampm, "a") && hour == 12:
			hour = 0
		}
	}

	t := time.Date(year, time.Month(fields["month"]), fields["day"], hour, fields["minutes"], 0, 0, time.UTC)
	if t.Day() != fields["day"] || int(t.Month()) != fields["month"] || t.Hour() != hour {
		return strings.TrimSpace(groups["year"] + "-" + groups["month"] + "-" + groups["day"] + " " + groups["hour"] + ":" + groups["minutes"])
	}
	return t.Format("2006-01-02T15:04:05")
}

// WithText drops the messages without text.
func WithText(messages []Message) []Message {
	return slices.DeleteFunc(slices.Clone(messages), func(m Message) bool { return m.Text == "" })
}

// Users returns the sorted participant names of messages.
//
// System lines such as "henk changed the group name" are parsed with a name starting with
// another participant's name and a space: those names are dropped.
func Users(messages []Message) []string {
	var detected []string
	for _, m := range messages {
		if !slices.Contains(detected, m.Name) {
			detected = append(detected, m.Name)
		}
	}

	var users []string
	for _, entry := range detected {
		system := slices.ContainsFunc(detected, func(user string) bool {
			return strings.HasPrefix(entry, user+" ")
		})
		if !system {
			users = append(users, entry)
		}
	}
	slices.Sort(users)
	return users
}

// FromUsers keeps the messages sent by one of users.
func FromUsers(messages []Message, users []string) []Message {
	return slices.DeleteFunc(slices.Clone(messages), func(m Message) bool { return !slices.Contains(users, m.Name) })
}

var emoji = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{2300}-\x{23FF}\x{2B05}-\x{2B07}\x{2B1B}\x{2B1C}\x{2B50}\x{2B55}\x{3030}\x{303D}\x{3297}\x{3299}]`)

// Count is a value and its number of occurrences.
type Count struct {
	Value string
	N     int
}

// mostCommon counts values and returns at most n of them, most frequent first.
// Ties keep the order of first occurrence.
func mostCommon(values []string, n int) []Count {
	var counts []Count
	index := make(map[string]int)
	for _, v := range values {
		i, ok := index[v]
		if !ok {
			index[v] = len(counts)
			counts = append(counts, Count{Value: v})
			i = len(counts) - 1
		}
		counts[i].N++
	}
	slices.SortStableFunc(counts, func(a, b Count) int { return cmp.Compare(b.N, a.N) })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// Emojis returns the n most used emojis of messages.
func Emojis(messages []Message, n int) []Count {
	var all []string
	for _, m := range messages {
		all = append(all, emoji.FindAllString(m.Text, -1)...)
	}
	return mostCommon(all, n)
}

// Stats summarizes the messages of one participant.
type Stats struct {
	ReactedToYouMost string
	YouReactedToMost string
	Messages         int
	Words            int
	FavoriteEmoji    string
}

// UserStats computes the statistics of user over messages.
// A reaction is a message directly following a message from someone else.
func UserStats(messages []Message, user string) Stats {
	var s Stats
	var reactedToYou, youReactedTo, emojis []string
	for i, m := range messages {
		if i > 0 {
			prev := messages[i-1].Name
			if m.Name != user && prev == user {
				reactedToYou = append(reactedToYou, m.Name)
			}
			if m.Name == user && prev != user {
				youReactedTo = append(youReactedTo, prev)
			}
		}
		if m.Name != user {
			continue
		}
		s.Messages++
		s.Words += len(strings.Fields(m.Text))
		emojis = append(emojis, emoji.FindAllString(m.Text, -1)...)
	}

	s.ReactedToYouMost = first(mostCommon(reactedToYou, 1))
	s.YouReactedToMost = first(mostCommon(youReactedTo, 1))
	s.FavoriteEmoji = first(mostCommon(emojis, 1))
	return s
}

func first(counts []Count) string {
	if len(counts) == 0 {
		return ""
	}
	return counts[0].Value
}
