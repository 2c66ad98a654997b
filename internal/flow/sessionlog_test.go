package flow_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/flow"
	"github.com/ubuntu/ddp-insights/internal/testutils"
)

func TestSessionLog(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level slog.Level
		log   func(l *slog.Logger)

		wantLines  []string
		wantParent map[slog.Level]uint
	}{
		"Records info and above": {
			level: slog.LevelInfo,
			log: func(l *slog.Logger) {
				l.Debug("hidden")
				l.Info("shown", "k", 1)
				l.Warn("warned")
			},
			wantLines:  []string{"INFO --- shown k=1", "WARN --- warned"},
			wantParent: map[slog.Level]uint{slog.LevelDebug: 1, slog.LevelInfo: 1, slog.LevelWarn: 1},
		},
		"Attributes and groups are flattened": {
			level: slog.LevelInfo,
			log: func(l *slog.Logger) {
				l.With("session", "s1").WithGroup("g").Info("msg", "a", "b", slog.Group("sub", "c", 2))
			},
			wantLines:  []string{"INFO --- msg session=s1 g.a=b g.sub.c=2"},
			wantParent: map[slog.Level]uint{slog.LevelInfo: 1},
		},
		"Debug level records everything": {
			level: slog.LevelDebug,
			log: func(l *slog.Logger) {
				l.Debug("details")
			},
			wantLines:  []string{"DEBUG --- details"},
			wantParent: map[slog.Level]uint{slog.LevelDebug: 1},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			parent := testutils.NewMockHandler(slog.LevelDebug - 1)
			h := flow.NewSessionLog(&parent, tc.level)
			tc.log(slog.New(h))

			lines := h.Lines()
			require.Len(t, lines, len(tc.wantLines), "Session log should record the expected number of lines")
			for i, want := range tc.wantLines {
				assert.Contains(t, lines[i], want, "Line %d should hold the record", i)
			}
			if !parent.AssertLevels(t, tc.wantParent) {
				parent.OutputLogs(t)
			}
		})
	}
}

func TestSessionLogTracking(t *testing.T) {
	t.Parallel()

	h := flow.NewSessionLog(nil, nil)
	got, err := h.Tracking()
	require.NoError(t, err, "Tracking should not fail")
	assert.JSONEq(t, `["no logs"]`, string(got), "Empty log should report no logs")

	slog.New(h).Info("hello")
	got, err = h.Tracking()
	require.NoError(t, err, "Tracking should not fail")
	assert.Contains(t, string(got), "INFO --- hello", "Tracking should hold the recorded lines")
}
