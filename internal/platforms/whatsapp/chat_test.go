package whatsapp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/platforms/whatsapp"
)

const groupChat = "14/05/2023, 10:29 - Messages and calls are end-to-end encrypted.\r\n" +
	"14/05/2023, 10:30 - Ann: Hello \U0001F600\r\n" +
	"14/05/2023, 10:31 - Bob: Hi Ann\r\n" +
	"how are you \U0001F600\U0001F600\r\n" +
	"\r\n" +
	"14/05/2023, 10:32 - Ann: fine\r\n" +
	"14/05/2023, 10:33 - Ann changed the subject to \"x: y\"\r\n"

func TestParse(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		text string

		want    []whatsapp.Message
		wantErr bool
	}{
		"Continuation lines are joined": {
			text: groupChat,
			want: []whatsapp.Message{
				{Date: "2023-05-14T10:30:00", Name: "Ann", Text: "Hello \U0001F600"},
				{Date: "2023-05-14T10:31:00", Name: "Bob", Text: "Hi Ann how are you \U0001F600\U0001F600"},
				{Date: "2023-05-14T10:32:00", Name: "Ann", Text: "fine"},
				{Date: "2023-05-14T10:33:00", Name: "Ann changed the subject to \"x", Text: "y\""},
			},
		},
		"Bracketed format with seconds and afternoon": {
			text: "[14/05/23, 1:05:09 PM] Ann: hi\n[14/05/23, 12:10:00 AM] Bob: late\n",
			want: []whatsapp.Message{
				{Date: "2023-05-14T13:05:00", Name: "Ann", Text: "hi"},
				{Date: "2023-05-14T00:10:00", Name: "Bob", Text: "late"},
			},
		},
		"Invalid dates are kept raw": {
			text: "31/02/2023, 10:30 - Ann: hi\n",
			want: []whatsapp.Message{{Date: "2023-02-31 10:30", Name: "Ann", Text: "hi"}},
		},
		"Unknown date shape falls back to the prefix": {
			text: "[yesterday] Ann: hi\n",
			want: []whatsapp.Message{{Date: "yesterday", Name: "Ann", Text: "hi"}},
		},
		"Control characters are removed": {
			text: "14/05/2023, 10:30 - Ann\u200e: hi\u200f\n",
			want: []whatsapp.Message{{Date: "2023-05-14T10:30:00", Name: "Ann", Text: "hi"}},
		},

		"Error when no line is a message": {text: "hello world\nnothing here\n", wantErr: true},
		"Error on empty text":             {text: "", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, _, err := whatsapp.Parse(whatsapp.Lines(tc.text))
			if tc.wantErr {
				require.ErrorIs(t, err, whatsapp.ErrNoChatFormat, "Parse should return the expected error")
				return
			}
			require.NoError(t, err, "Parse should not return an error")
			assert.Equal(t, tc.want, got, "Parse should return the expected messages")
		})
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()

	messages := []whatsapp.Message{
		{Name: "Bob"}, {Name: "Ann"}, {Name: "Ann changed the subject to \"x"}, {Name: "Bob"}, {Name: "Annie"},
	}

	got := whatsapp.Users(messages)
	assert.Equal(t, []string{"Ann", "Annie", "Bob"}, got, "Users should drop system lines and sort the names")
	assert.Len(t, whatsapp.FromUsers(messages, got), 4, "FromUsers should drop the system lines")
}

func TestWithText(t *testing.T) {
	t.Parallel()

	got := whatsapp.WithText([]whatsapp.Message{{Name: "a", Text: "x"}, {Name: "b"}})
	assert.Equal(t, []whatsapp.Message{{Name: "a", Text: "x"}}, got, "WithText should drop messages without text")
}

func TestEmojis(t *testing.T) {
	t.Parallel()

	messages := []whatsapp.Message{
		{Text: "\u2764 \U0001F600"},
		{Text: "\U0001F600 \U0001F44D \u2764"},
		{Text: "\U0001F600 no more"},
	}

	assert.Equal(t, []whatsapp.Count{
		{Value: "\U0001F600", N: 3},
		{Value: "\u2764", N: 2},
		{Value: "\U0001F44D", N: 1},
	}, whatsapp.Emojis(messages, 100), "Emojis should count most used first")
	assert.Len(t, whatsapp.Emojis(messages, 1), 1, "Emojis should be bounded")
	assert.Empty(t, whatsapp.Emojis(nil, 10), "Emojis of no message should be empty")
}

func TestUserStats(t *testing.T) {
	t.Parallel()

	messages := []whatsapp.Message{
		{Name: "Ann", Text: "Hello \U0001F600"},
		{Name: "Bob", Text: "Hi Ann how are you"},
		{Name: "Ann", Text: "fine"},
		{Name: "Cid", Text: "me too"},
		{Name: "Ann", Text: "\U0001F44D \U0001F44D \U0001F44D"},
	}

	tests := map[string]struct {
		user string

		want whatsapp.Stats
	}{
		"Active user": {user: "Ann", want: whatsapp.Stats{
			ReactedToYouMost: "Bob", YouReactedToMost: "Bob", Messages: 3, Words: 6, FavoriteEmoji: "\U0001F44D",
		}},
		"Single message": {user: "Cid", want: whatsapp.Stats{
			ReactedToYouMost: "Ann", YouReactedToMost: "Ann", Messages: 1, Words: 2,
		}},
		"Unknown user": {user: "Dan"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, whatsapp.UserStats(messages, tc.user), "UserStats should return the expected statistics")
		})
	}
}
