package commands_test

import (
	"bytes"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/cmd/ddp-insights/commands"
	"github.com/ubuntu/ddp-insights/internal/constants"
	"github.com/ubuntu/ddp-insights/internal/testutils"
)

type appForTests struct {
	*commands.App

	consentDir string
	dataDir    string
	out        *bytes.Buffer
}

// newAppForTests returns an app reading stdin, with its consent and donation directories in temporary directories.
func newAppForTests(t *testing.T, stdin string, args ...string) appForTests {
	t.Helper()

	a := appForTests{
		consentDir: t.TempDir(),
		dataDir:    t.TempDir(),
		out:        &bytes.Buffer{},
	}

	app, err := commands.New()
	require.NoError(t, err, "Setup: could not create app")

	args = append(args, "--consent-dir", a.consentDir, "--data-dir", a.dataDir)
	app.SetArgs(args...)
	app.SetIO(strings.NewReader(stdin), a.out, &bytes.Buffer{})
	a.App = app
	return a
}

var sessionRe = regexp.MustCompile(`\(session ([0-9a-f-]+)\)`)

// sessionID returns the id of the session printed at the end of a run.
func (a appForTests) sessionID(t *testing.T) string {
	t.Helper()

	m := sessionRe.FindStringSubmatch(a.out.String())
	require.Len(t, m, 2, "Run should print the session id, got:\n%s", a.out.String())
	return m[1]
}

// donations returns the donation key suffixes written for session id and their content.
func (a appForTests) donations(t *testing.T, id string) map[string]string {
	t.Helper()

	files, err := testutils.GetDirContents(t, a.dataDir, 1)
	require.NoError(t, err, "Could not read donation directory")

	got := make(map[string]string)
	for name, data := range files {
		key := strings.TrimSuffix(name, constants.DonationExtension)
		require.True(t, strings.HasPrefix(key, id), "Donation %q should belong to session %s", name, id)
		got[strings.TrimPrefix(key, id)] = data
	}
	return got
}

func keys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	conf := testutils.WriteFile(t, t.TempDir(), "ddp-insights.yaml", fmt.Sprintf(`verbose: 2
donation:
  sinks: [file]
  file:
    dir: %q
run:
  yes: true
  preview: 0
`, dataDir))

	app, err := commands.New()
	require.NoError(t, err, "Setup: could not create app")
	out := &bytes.Buffer{}
	app.SetArgs("run", "zipcontents", testutils.Zip(t, "a.txt", "a"), "--config", conf, "--consent-dir", t.TempDir())
	app.SetIO(strings.NewReader(""), out, &bytes.Buffer{})

	require.NoError(t, app.Run(), "run should not fail")

	got := app.Config()
	assert.Equal(t, 2, got.Verbosity, "Verbosity should be read from the configuration file")
	assert.Equal(t, dataDir, got.Donation.File.Dir, "Donation directory should be read from the configuration file")
	assert.True(t, got.Run.Yes, "Run options should be read from the configuration file")

	a := appForTests{App: app, dataDir: dataDir, out: out}
	donated := a.donations(t, a.sessionID(t))
	assert.Equal(t, []string{"", "-DONATED", "-tracking"}, keys(donated), "Consent should be given by the configuration file")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Parallel()

	a := newAppForTests(t, "", "migrate")
	require.Error(t, a.Run(), "migrate should fail without database configuration")
	assert.False(t, a.UsageError(), "A missing database is not a usage error")
}
