package commands_test

import (
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/testutils"
	"github.com/ubuntu/ddp-insights/internal/validate"
	"gopkg.in/yaml.v3"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		notZip    bool
		args      []string
		platform  string
		noArchive bool

		wantCategory string
		wantStatus   int
		wantErr      bool
		wantUsageErr bool
	}{
		"Recognized archive":           {wantCategory: "zip", wantStatus: validate.StatusMatched},
		"Recognized archive as JSON":   {args: []string{"--format", "json"}, wantCategory: "zip", wantStatus: validate.StatusMatched},
		"Unrecognized archive":         {notZip: true, wantCategory: "unknown", wantStatus: validate.StatusUnrecognized},
		"Platform not matching":        {platform: "chatgpt", wantCategory: "unknown", wantStatus: validate.StatusUnrecognized},
		"Missing archive unrecognized": {noArchive: true, wantCategory: "unknown", wantStatus: validate.StatusUnrecognized},

		"Error on unknown platform": {platform: "myspace", wantErr: true, wantUsageErr: true},
		"Error on unknown format":   {args: []string{"--format", "xml"}, wantErr: true, wantUsageErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := testutils.Zip(t, "notes.txt", "hello")
			if tc.notZip {
				path = testutils.WriteFile(t, t.TempDir(), "export.zip", "not a zip")
			}
			if tc.noArchive {
				path = filepath.Join(t.TempDir(), "missing.zip")
			}
			if tc.platform == "" {
				tc.platform = "zipcontents"
			}

			a := newAppForTests(t, "", append([]string{"validate", tc.platform, path}, tc.args...)...)
			err := a.Run()
			if tc.wantErr {
				require.Error(t, err, "validate should fail")
				assert.Equal(t, tc.wantUsageErr, a.UsageError(), "Usage error should match")
				return
			}
			require.NoError(t, err, "validate should not fail")

			var got validate.Result
			if len(tc.args) > 0 {
				require.NoError(t, json.Unmarshal(a.out.Bytes(), &got), "Output should be JSON")
			} else {
				require.NoError(t, yaml.Unmarshal(a.out.Bytes(), &got), "Output should be YAML")
			}
			assert.Equal(t, tc.wantCategory, got.Category.ID, "Category should match")
			assert.Equal(t, tc.wantStatus, got.Status, "Status should match")
		})
	}
}

func TestValidateRequiresTwoArguments(t *testing.T) {
	t.Parallel()

	a := newAppForTests(t, "", "validate", "zipcontents")
	require.Error(t, a.Run(), "validate should require an archive")
	assert.True(t, a.UsageError(), "A missing argument should be a usage error")
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		format string
		notZip bool

		wantErr      bool
		wantUsageErr bool
	}{
		"JSON donation payload": {},
		"YAML rows":             {format: "yaml"},

		"Error on unrecognized archive": {notZip: true, wantErr: true},
		"Error on unknown format":       {format: "csv", wantErr: true, wantUsageErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := testutils.BuildZip(t,
				testutils.ZipEntry{Name: "a.json", Content: "{}"},
				testutils.ZipEntry{Name: "b.csv", Content: "x,y\n1,2\n"},
			)
			if tc.notZip {
				path = testutils.WriteFile(t, t.TempDir(), "export.zip", "not a zip")
			}
			args := []string{"extract", "zipcontents", path}
			if tc.format != "" {
				args = append(args, "--format", tc.format)
			}

			a := newAppForTests(t, "", args...)
			err := a.Run()
			if tc.wantErr {
				require.Error(t, err, "extract should fail")
				assert.Equal(t, tc.wantUsageErr, a.UsageError(), "Usage error should match")
				return
			}
			require.NoError(t, err, "extract should not fail")

			if tc.format == "yaml" {
				var got []struct {
					ID   string           `yaml:"id"`
					Rows []map[string]any `yaml:"rows"`
				}
				require.NoError(t, yaml.Unmarshal(a.out.Bytes(), &got), "Output should be YAML")
				require.Len(t, got, 1, "There should be one table")
				assert.Equal(t, "zip_contents", got[0].ID, "Table id should match")
				require.Len(t, got[0].Rows, 2, "There should be one row per member")
				assert.Equal(t, "a.json", got[0].Rows[0]["File name"], "First row should be the first member")
				return
			}

			var got []map[string]map[string]map[string]any
			require.NoError(t, json.Unmarshal(a.out.Bytes(), &got), "Output should be the JSON donation payload")
			require.Len(t, got, 1, "There should be one table")
			names := got[0]["zip_contents"]["File name"]
			assert.Equal(t, map[string]any{"0": "a.json", "1": "b.csv"}, names, "File names should be column oriented")
		})
	}
}
