package consent_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/consent"
	"github.com/ubuntu/ddp-insights/internal/testutils"
)

const (
	validTrue    = "consent_state = true\n"
	validFalse   = "consent_state = false\n"
	invalidValue = "consent_state = 2\n"
	invalidFile  = "not toml at all {"
	missingKey   = "other = true\n"
)

// setupConsentDir writes a consent directory with one file per platform named after its content.
// global is written as the global consent file when not empty.
func setupConsentDir(t *testing.T, global string) string {
	t.Helper()

	dir := t.TempDir()
	testutils.WriteFile(t, dir, "valid_true-consent.toml", validTrue)
	testutils.WriteFile(t, dir, "valid_false-consent.toml", validFalse)
	testutils.WriteFile(t, dir, "invalid_value-consent.toml", invalidValue)
	testutils.WriteFile(t, dir, "invalid_file-consent.toml", invalidFile)
	testutils.WriteFile(t, dir, "missing_key-consent.toml", missingKey)
	testutils.WriteFile(t, dir, "unrelated.toml", validTrue)
	if global != "" {
		testutils.WriteFile(t, dir, "consent.toml", global)
	}
	return dir
}

func TestGetState(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		platform string
		global   string

		want    bool
		wantErr bool
	}{
		"Global true":                 {global: validTrue, want: true},
		"Global false":                {global: validFalse},
		"Platform true":               {platform: "valid_true", want: true},
		"Platform false":              {platform: "valid_false", global: validTrue},
		"Platform ignores the global": {platform: "valid_false", global: validTrue, want: false},

		"Error on missing global":         {wantErr: true},
		"Error on invalid global value":   {global: invalidValue, wantErr: true},
		"Error on invalid platform value": {platform: "invalid_value", global: validTrue, wantErr: true},
		"Error on invalid platform file":  {platform: "invalid_file", global: validTrue, wantErr: true},
		"Error on missing consent_state":  {platform: "missing_key", global: validTrue, wantErr: true},
		"Error on missing platform file":  {platform: "not_a_file", global: validTrue, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cm := consent.New(slog.Default(), setupConsentDir(t, tc.global))

			got, err := cm.GetState(tc.platform)
			if tc.wantErr {
				require.Error(t, err, "GetState should fail")
				return
			}
			require.NoError(t, err, "GetState should not fail")
			assert.Equal(t, tc.want, got, "GetState should return the stored state")
		})
	}
}

func TestSetState(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		global   string
		platform string
		state    bool
		noDir    bool

		wantFile string
		wantErr  bool
	}{
		"New global false":             {state: false, wantFile: "consent.toml"},
		"New global true":              {state: true, wantFile: "consent.toml"},
		"Overwrite global":             {global: validTrue, state: false, wantFile: "consent.toml"},
		"New platform":                 {platform: "netflix", state: true, wantFile: "netflix-consent.toml"},
		"Overwrite platform":           {platform: "valid_true", state: false, wantFile: "valid_true-consent.toml"},
		"Overwrite invalid platform":   {platform: "invalid_file", state: true, wantFile: "invalid_file-consent.toml"},
		"Missing directory is created": {noDir: true, platform: "x", state: true, wantFile: "x-consent.toml"},

		"Error on platform with separator": {platform: "../escape", state: true, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := setupConsentDir(t, tc.global)
			if tc.noDir {
				dir = filepath.Join(t.TempDir(), "nested", "consent")
			}
			cm := consent.New(slog.Default(), dir)

			err := cm.SetState(tc.platform, tc.state)
			if tc.wantErr {
				require.Error(t, err, "SetState should fail")
				return
			}
			require.NoError(t, err, "SetState should not fail")

			require.FileExists(t, filepath.Join(dir, tc.wantFile), "SetState should write the consent file")
			got, err := cm.GetState(tc.platform)
			require.NoError(t, err, "Written state should be readable")
			assert.Equal(t, tc.state, got, "Written state should be returned by GetState")

			entries, err := os.ReadDir(dir)
			require.NoError(t, err, "Setup: failed to read consent directory")
			for _, e := range entries {
				assert.NotContains(t, e.Name(), ".tmp", "No temporary file should be left behind")
			}
		})
	}
}

func TestHasConsent(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		platform string
		global   string

		want    bool
		wantErr bool
	}{
		"True global, true platform":       {platform: "valid_true", global: validTrue, want: true},
		"True global, false platform":      {platform: "valid_false", global: validTrue, want: false},
		"True global, invalid platform":    {platform: "invalid_value", global: validTrue, want: true},
		"True global, unreadable platform": {platform: "invalid_file", global: validTrue, want: true},
		"True global, no platform file":    {platform: "not_a_file", global: validTrue, want: true},
		"False global, true platform":      {platform: "valid_true", global: validFalse, want: true},
		"False global, no platform file":   {platform: "not_a_file", global: validFalse, want: false},
		"No global, true platform":         {platform: "valid_true", want: true},
		"No global, false platform":        {platform: "valid_false", want: false},
		"Empty platform uses the global":   {global: validTrue, want: true},

		"Error with no global and invalid platform": {platform: "invalid_value", wantErr: true},
		"Error with no global and no platform file": {platform: "not_a_file", wantErr: true},
		"Error with invalid global only":            {global: invalidFile, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cm := consent.New(slog.Default(), setupConsentDir(t, tc.global))

			got, err := cm.HasConsent(tc.platform)
			if tc.wantErr {
				require.Error(t, err, "HasConsent should fail")
				return
			}
			require.NoError(t, err, "HasConsent should not fail")
			assert.Equal(t, tc.want, got, "HasConsent should return the expected decision")
		})
	}
}

func TestStates(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		continueOnErr bool
		emptyDir      bool
		missingDir    bool

		want    map[string]bool
		wantErr bool
	}{
		"Unreadable files are skipped": {continueOnErr: true, want: map[string]bool{"valid_true": true, "valid_false": false}},
		"Empty directory":              {emptyDir: true, want: map[string]bool{}},
		"Missing directory":            {missingDir: true, want: map[string]bool{}},

		"Error on unreadable file": {wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := setupConsentDir(t, validTrue)
			if tc.emptyDir {
				dir = t.TempDir()
			}
			if tc.missingDir {
				dir = filepath.Join(t.TempDir(), "missing")
			}
			cm := consent.New(slog.Default(), dir)

			got, err := cm.States(tc.continueOnErr)
			if tc.wantErr {
				require.Error(t, err, "States should fail")
				return
			}
			require.NoError(t, err, "States should not fail")
			assert.Equal(t, tc.want, got, "States should return every readable platform decision")
		})
	}
}
