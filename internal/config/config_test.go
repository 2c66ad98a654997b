package config_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/config"
	"github.com/ubuntu/ddp-insights/internal/testutils"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string
		noFile  bool

		want    []string
		wantErr bool
	}{
		"Valid config":           {content: `{"allowList": ["chatgpt", "netflix"]}`, want: []string{"chatgpt", "netflix"}},
		"Unknown keys ignored":   {content: `{"base_dir": "/tmp", "allowList": ["x"]}`, want: []string{"x"}},
		"Empty allow-list":       {content: `{"allowList": []}`, want: []string{}},
		"Missing allow-list key": {content: `{}`, want: nil},

		"Error on invalid JSON": {content: `{"allowList": ["x"]`, wantErr: true},
		"Error on wrong type":   {content: `{"allowList": "x"}`, wantErr: true},
		"Error on missing file": {noFile: true, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.json")
			if !tc.noFile {
				testutils.WriteFile(t, filepath.Dir(path), "config.json", tc.content)
			}

			cm := config.New(path)
			err := cm.Load()
			if tc.wantErr {
				require.Error(t, err, "Load should fail")
				assert.False(t, cm.Allowed("x"), "Nothing should be allowed without a configuration")
				return
			}
			require.NoError(t, err, "Load should not fail")
			assert.Equal(t, tc.want, cm.AllowList(), "AllowList should return the loaded platforms")
		})
	}
}

func TestLoadKeepsPreviousConfigOnError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutils.WriteFile(t, dir, "config.json", `{"allowList": ["chatgpt"]}`)

	cm := config.New(path)
	require.NoError(t, cm.Load(), "Setup: initial Load should not fail")

	testutils.WriteFile(t, dir, "config.json", `{"allowList": [`)
	require.Error(t, cm.Load(), "Load should fail on malformed JSON")
	assert.True(t, cm.Allowed("chatgpt"), "Previous configuration should be kept")
	assert.False(t, cm.Allowed("netflix"), "Platforms outside the allow-list should not be allowed")
}

func TestAllowListIsACopy(t *testing.T) {
	t.Parallel()

	path := testutils.WriteFile(t, t.TempDir(), "config.json", `{"allowList": ["chatgpt"]}`)
	cm := config.New(path)
	require.NoError(t, cm.Load(), "Setup: Load should not fail")

	l := cm.AllowList()
	l[0] = "netflix"
	assert.Equal(t, []string{"chatgpt"}, cm.AllowList(), "Modifying the returned slice should not change the configuration")
}

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutils.WriteFile(t, dir, "config.json", `{"allowList": ["chatgpt"]}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cm := config.New(path)
	changes, errs, err := cm.Watch(ctx)
	require.NoError(t, err, "Watch should not fail")
	assert.Equal(t, []string{"chatgpt"}, cm.AllowList(), "Watch should load the initial configuration")

	testutils.WriteFile(t, dir, "unrelated.json", `{"allowList": ["x"]}`)
	testutils.WriteFile(t, dir, "config.json", `{"allowList": ["chatgpt", "netflix"]}`)

	require.Eventually(t, func() bool {
		return cm.Allowed("netflix")
	}, 5*time.Second, 10*time.Millisecond, "Watch should reload the configuration after a write")
	assert.False(t, cm.Allowed("x"), "Changes to other files should be ignored")

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch should signal the reload")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-errs:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "Channels should be closed once the context is done")
}

func TestWatchMissingDirectory(t *testing.T) {
	t.Parallel()

	cm := config.New(filepath.Join(t.TempDir(), "missing", "config.json"))
	_, _, err := cm.Watch(context.Background())
	require.Error(t, err, "Watch should fail when the directory does not exist")
}
