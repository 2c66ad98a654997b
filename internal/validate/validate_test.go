package validate_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ubuntu/ddp-insights/internal/testutils"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

var catalog = []validate.Category{
	{ID: "json_en", FileType: validate.JSON, Language: validate.LangEN, KnownFiles: []string{"a.json", "b.json"}},
	{ID: "json_nl", FileType: validate.JSON, Language: validate.LangNL, KnownFiles: []string{"a.json", "c.json"}},
	{ID: "csv", FileType: validate.CSV, Language: validate.LangEN, KnownFiles: []string{"d.csv", "e.csv", "f.csv", "g.csv"}},
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		names   []string
		catalog []validate.Category

		wantID     string
		wantStatus int
	}{
		"Half of the known files matches":    {names: []string{"b.json"}, wantID: "json_en", wantStatus: 0},
		"Best score wins":                    {names: []string{"a.json", "c.json"}, wantID: "json_nl", wantStatus: 0},
		"Equal scores take the first":        {names: []string{"a.json"}, wantID: "json_en", wantStatus: 0},
		"No known file is unrecognized":      {names: []string{"z.txt"}, wantID: "unknown", wantStatus: 1},
		"Empty listing is unrecognized":      {names: nil, wantID: "unknown", wantStatus: 1},
		"Empty catalog is unrecognized":      {names: []string{"a.json"}, catalog: []validate.Category{}, wantID: "unknown", wantStatus: 1},
		"Duplicated members do not inflate":  {names: []string{"d.csv", "d.csv", "d.csv", "d.csv"}, wantID: "csv", wantStatus: 0},
		"Other members do not lower a score": {names: []string{"x", "y", "z", "d.csv"}, wantID: "csv", wantStatus: 0},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := catalog
			if tc.catalog != nil {
				c = tc.catalog
			}

			got := validate.Classify(slog.Default(), c, tc.names)
			assert.Equal(t, tc.wantID, got.Category.ID, "Classify should select the expected category")
			assert.Equal(t, tc.wantStatus, got.Status, "Classify should return the expected status")
			assert.Equal(t, tc.wantStatus == 0, got.OK(), "OK should match the status")
			if !got.OK() {
				assert.Empty(t, got.Category.KnownFiles, "Unknown category should not list known files")
			}
		})
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 25.0, validate.Score(catalog[2], []string{"d.csv", "d.csv"}), 1e-9, "Score should count each known file once")
	assert.InDelta(t, 0.0, validate.Score(validate.Category{}, []string{"a"}), 1e-9, "Score should be 0 without known files")
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	known := make([]string, 20)
	for i := range known {
		known[i] = string(rune('a'+i)) + ".json"
	}
	wide := []validate.Category{{ID: "wide", KnownFiles: known}}

	got := validate.Classify(slog.Default(), wide, []string{"a.json"})
	assert.Equal(t, 0, got.Status, "A score of exactly the threshold should match")

	known = append(known, "u.json")
	wide = []validate.Category{{ID: "wide", KnownFiles: known}}
	got = validate.Classify(slog.Default(), wide, []string{"a.json"})
	assert.Equal(t, 1, got.Status, "A score below the threshold should not match")
}

func TestValidateZip(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		notZip bool

		wantID     string
		wantStatus int
	}{
		"Nested members are matched on base name": {wantID: "json_en", wantStatus: 0},
		"Bad archive is unrecognized":             {notZip: true, wantID: "unknown", wantStatus: 1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := testutils.BuildZip(t,
				testutils.ZipEntry{Name: "export/deep/a.json", Content: "{}"},
				testutils.ZipEntry{Name: "export/b.json", Content: "{}"},
			)
			if tc.notZip {
				path = testutils.WriteFile(t, t.TempDir(), "bad.zip", "PK but not really")
			}

			got := validate.ValidateZip(slog.Default(), catalog, path)
			assert.Equal(t, tc.wantID, got.Category.ID, "ValidateZip should select the expected category")
			assert.Equal(t, tc.wantStatus, got.Status, "ValidateZip should return the expected status")
		})
	}
}

func TestValidateFunc(t *testing.T) {
	t.Parallel()

	c := validate.Category{ID: "txt", FileType: validate.TXT, Language: validate.LangEN, KnownFiles: []string{"chat.txt"}}

	assert.Equal(t, validate.Result{Category: c, Status: 0}, validate.ValidateFunc(c, func() bool { return true }),
		"ValidateFunc should match when the check succeeds")
	assert.Equal(t, validate.Unrecognized(), validate.ValidateFunc(c, func() bool { return false }),
		"ValidateFunc should be unrecognized when the check fails")
}
