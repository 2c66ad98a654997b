package commands_test

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/testutils"
)

func TestServe(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		allowList string

		wantIDs []string
		wantLen int
	}{
		"Serves every platform without allow list": {wantLen: 10},
		"Serves the allowed platforms":             {allowList: `{"allowList": ["zipcontents", "x"]}`, wantIDs: []string{"x", "zipcontents"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			port := testutils.FreePort(t, "127.0.0.1")
			args := []string{"serve", "--listen-host", "127.0.0.1", "--listen-port", strconv.Itoa(port), "--upload-dir", t.TempDir()}
			if tc.allowList != "" {
				args = append(args, "--allow-list", testutils.WriteFile(t, t.TempDir(), "allow.json", tc.allowList))
			}

			a := newAppForTests(t, "", args...)
			done := make(chan error, 1)
			go func() { done <- a.Run() }()

			require.Eventually(t, func() bool {
				return testutils.PortOpen("127.0.0.1", port)
			}, 5*time.Second, 50*time.Millisecond, "Server should start listening")

			resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/v1/platforms", port))
			require.NoError(t, err, "Listing platforms should not fail")
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode, "Listing platforms should succeed")

			var got []struct {
				ID string `json:"id"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got), "Platforms should be JSON")
			if tc.wantIDs != nil {
				var ids []string
				for _, p := range got {
					ids = append(ids, p.ID)
				}
				assert.Equal(t, tc.wantIDs, ids, "Only allowed platforms should be listed, in registration order")
			} else {
				assert.Len(t, got, tc.wantLen, "Every platform should be listed")
			}

			a.Quit()
			select {
			case err := <-done:
				require.NoError(t, err, "Server should stop gracefully")
			case <-time.After(5 * time.Second):
				t.Fatal("Server did not stop after Quit")
			}
		})
	}
}

func TestServeErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string

		wantUsageErr bool
	}{
		"Error on missing allow list":    {args: []string{"--allow-list", "/nonexistent/allow.json"}},
		"Error on zero sessions":         {args: []string{"--max-sessions", "0"}},
		"Error on bad questionnaire":     {args: []string{"--questionnaire", "/nonexistent.yaml"}},
		"Error on unknown sink":          {args: []string{"--sink", "carrier-pigeon"}},
		"Usage error on bad port":        {args: []string{"--listen-port", "http"}, wantUsageErr: true},
		"Usage error on extra arguments": {args: []string{"now"}, wantUsageErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := newAppForTests(t, "", append([]string{"serve", "--upload-dir", t.TempDir()}, tc.args...)...)
			require.Error(t, a.Run(), "serve should fail")
			assert.Equal(t, tc.wantUsageErr, a.UsageError(), "Usage error should match")
		})
	}
}
