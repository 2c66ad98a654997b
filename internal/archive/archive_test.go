package archive_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/archive"
	"github.com/ubuntu/ddp-insights/internal/denest"
	"github.com/ubuntu/ddp-insights/internal/testutils"
)

func TestExtractMember(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		entries []testutils.ZipEntry
		notZip  bool
		missing bool
		target  string

		want       string
		wantLevels map[slog.Level]uint
	}{
		"Member matched by suffix": {
			entries: []testutils.ZipEntry{{Name: "export/data/conversations.json", Content: "[]"}},
			target:  "conversations.json",
			want:    "[]",
		},
		"First member in archive order wins": {
			entries: []testutils.ZipEntry{
				{Name: "a/likes_1.json", Content: "first"},
				{Name: "b/likes_1.json", Content: "second"},
			},
			target: "likes_1.json",
			want:   "first",
		},
		"Matching is case sensitive": {
			entries:    []testutils.ZipEntry{{Name: "Conversations.json", Content: "[]"}},
			target:     "conversations.json",
			wantLevels: map[slog.Level]uint{slog.LevelWarn: 1},
		},
		"Absent member is empty": {
			entries:    []testutils.ZipEntry{{Name: "user.json", Content: "{}"}},
			target:     "conversations.json",
			wantLevels: map[slog.Level]uint{slog.LevelWarn: 1},
		},
		"Not a zip is empty": {
			notZip:     true,
			target:     "conversations.json",
			wantLevels: map[slog.Level]uint{slog.LevelError: 1},
		},
		"Missing archive is empty": {
			missing:    true,
			target:     "conversations.json",
			wantLevels: map[slog.Level]uint{slog.LevelError: 1},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var path string
			switch {
			case tc.notZip:
				path = testutils.WriteFile(t, t.TempDir(), "export.zip", "definitely not a zip")
			case tc.missing:
				path = filepath.Join(t.TempDir(), "absent.zip")
			default:
				path = testutils.BuildZip(t, tc.entries...)
			}

			l := testutils.NewMockHandler(slog.LevelDebug)
			got := archive.ExtractMember(slog.New(&l), path, tc.target)
			require.NotNil(t, got, "ExtractMember should never return nil")
			assert.Equal(t, tc.want, got.String(), "ExtractMember should return the member content")

			if !l.AssertLevels(t, tc.wantLevels) {
				l.OutputLogs(t)
			}
		})
	}
}

func TestMembers(t *testing.T) {
	t.Parallel()

	path := testutils.BuildZip(t,
		testutils.ZipEntry{Name: "dir/"},
		testutils.ZipEntry{Name: "dir/user.json", Content: "{}"},
		testutils.ZipEntry{Name: "chat.html", Content: "<html></html>"},
	)

	members, ok := archive.Members(slog.Default(), path)
	require.True(t, ok, "Members should read a valid archive")
	require.Len(t, members, 2, "Members should skip directories")
	assert.Equal(t, "dir/user.json", members[0].Name, "Members should keep the full member name")
	assert.Equal(t, uint64(2), members[0].Size, "Members should report the uncompressed size")

	names, ok := archive.MemberNames(slog.Default(), path)
	require.True(t, ok, "MemberNames should read a valid archive")
	assert.Equal(t, []string{"user.json", "chat.html"}, names, "MemberNames should return base names in archive order")

	bad := testutils.WriteFile(t, t.TempDir(), "bad.zip", "nope")
	_, ok = archive.Members(slog.Default(), bad)
	assert.False(t, ok, "Members should report unreadable archives")
	_, ok = archive.MemberNames(slog.Default(), bad)
	assert.False(t, ok, "MemberNames should report unreadable archives")
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		data []byte

		wantKind   denest.Kind
		wantLen    int
		wantLevels map[slog.Level]uint
	}{
		"Object": {data: []byte(`{"a": 1, "b": 2}`), wantKind: denest.KindMapping, wantLen: 2},
		"Array":  {data: []byte(`[1, 2, 3]`), wantKind: denest.KindSequence, wantLen: 3},
		"Byte order mark is accepted": {
			data:       append([]byte("\xef\xbb\xbf"), []byte(`{"a": 1}`)...),
			wantKind:   denest.KindMapping,
			wantLen:    1,
			wantLevels: map[slog.Level]uint{slog.LevelError: 1},
		},
		"Scalar document is rejected": {
			data:       []byte(`"just a string"`),
			wantKind:   denest.KindMapping,
			wantLevels: map[slog.Level]uint{slog.LevelError: 1},
		},
		"Garbage is an empty mapping": {
			data:       []byte(`{"a": `),
			wantKind:   denest.KindMapping,
			wantLevels: map[slog.Level]uint{slog.LevelError: 2},
		},
		"Empty buffer is an empty mapping": {
			data:       nil,
			wantKind:   denest.KindMapping,
			wantLevels: map[slog.Level]uint{slog.LevelError: 2},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := testutils.NewMockHandler(slog.LevelDebug)
			got := archive.ReadJSON(slog.New(&l), bytes.NewBuffer(tc.data))
			assert.Equal(t, tc.wantKind, got.Kind(), "ReadJSON should return the expected kind")
			assert.Equal(t, tc.wantLen, got.Len(), "ReadJSON should return the expected number of entries")

			if !l.AssertLevels(t, tc.wantLevels) {
				l.OutputLogs(t)
			}
		})
	}
}

func TestReadJS(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		data string

		wantKind denest.Kind
		wantLen  int
	}{
		"Assignment is removed":        {data: "window.YTD.like.part0 = [\n  {\"like\": {}},\n  {\"like\": {}}\n]", wantKind: denest.KindSequence, wantLen: 2},
		"Plain JSON is accepted":       {data: `[{"a": 1}]`, wantKind: denest.KindSequence, wantLen: 1},
		"Later lines are kept as is":   {data: "window.a = {\n\"k\": \"x = y\"}", wantKind: denest.KindMapping, wantLen: 1},
		"Empty file is empty mapping":  {data: "", wantKind: denest.KindMapping},
		"Assignment only is a mapping": {data: "window.a = ", wantKind: denest.KindMapping},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := archive.ReadJS(slog.Default(), bytes.NewBufferString(tc.data))
			assert.Equal(t, tc.wantKind, got.Kind(), "ReadJS should return the expected kind")
			assert.Equal(t, tc.wantLen, got.Len(), "ReadJS should return the expected number of entries")
		})
	}
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		data string

		wantColumns []string
		wantRows    [][]any
	}{
		"Header and rows": {
			data:        "name,age\nAlice,30\nBob,25\n",
			wantColumns: []string{"name", "age"},
			wantRows:    [][]any{{"Alice", "30"}, {"Bob", "25"}},
		},
		"Byte order mark is stripped": {
			data:        "\ufeffTitle,Date\nMovie,2024-01-01\n",
			wantColumns: []string{"Title", "Date"},
			wantRows:    [][]any{{"Movie", "2024-01-01"}},
		},
		"Ragged rows are tolerated": {
			data:        "a,b\n1\n1,2,3\n",
			wantColumns: []string{"a", "b"},
			wantRows:    [][]any{{"1", ""}, {"1", "2"}},
		},
		"Quoted fields keep separators": {
			data:        "a,b\n\"x, y\",z\n",
			wantColumns: []string{"a", "b"},
			wantRows:    [][]any{{"x, y", "z"}},
		},
		"Empty buffer is an empty frame": {
			data:     "",
			wantRows: [][]any{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := archive.ReadCSV(slog.Default(), bytes.NewBufferString(tc.data))
			assert.Equal(t, tc.wantColumns, got.Columns, "ReadCSV should return the header")
			assert.Equal(t, tc.wantRows, got.Rows, "ReadCSV should return the rows")
		})
	}
}

func TestReadText(t *testing.T) {
	t.Parallel()

	got := archive.ReadText(slog.Default(), bytes.NewBufferString("\ufeffhello\nworld"))
	assert.Equal(t, "hello\nworld", got, "ReadText should strip the byte order mark")
}

func TestExtractedMemberDecodes(t *testing.T) {
	t.Parallel()

	path := testutils.Zip(t, "Your Activity/search-history.json", `[{"title": "Searched for go"}]`)
	v := archive.ReadJSON(slog.Default(), archive.ExtractMember(slog.Default(), path, "search-history.json"))

	item, ok := v.Index(0)
	require.True(t, ok, "Decoded document should hold one item")
	title, _ := item.Get("title")
	assert.Equal(t, "Searched for go", title.String(), "Decoded document should hold the member content")

	_, err := os.Stat(path)
	require.NoError(t, err, "Archive should be left in place")
}

func TestReadFileOrFirstMember(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		zip     []testutils.ZipEntry
		plain   string
		missing bool

		want string
	}{
		"First member of an archive": {zip: []testutils.ZipEntry{{Name: "chat.txt", Content: "one"}, {Name: "media.jpg", Content: "two"}}, want: "one"},
		"Plain file is read as is":   {plain: "line\n", want: "line\n"},
		"Missing file is empty":      {missing: true, want: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var p string
			switch {
			case tc.missing:
				p = filepath.Join(t.TempDir(), "absent")
			case tc.zip != nil:
				p = testutils.BuildZip(t, tc.zip...)
			default:
				p = testutils.WriteFile(t, t.TempDir(), "chat.txt", tc.plain)
			}

			got := archive.ReadFileOrFirstMember(slog.Default(), p)
			require.NotNil(t, got, "ReadFileOrFirstMember should never return nil")
			assert.Equal(t, tc.want, got.String(), "ReadFileOrFirstMember should return the expected content")
		})
	}
}
