package flow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

const trackingTimeLayout = "2006-01-02T15:04:05-0700"

// SessionLog is a slog.Handler recording the log lines of one session.
// Records are also forwarded to the parent handler, if any.
type SessionLog struct {
	parent      slog.Handler
	level       slog.Leveler
	attrs       []slog.Attr
	groupPrefix string

	lines *lineBuffer
}

type lineBuffer struct {
	mu    sync.Mutex
	lines []string
}

// NewSessionLog returns a SessionLog recording records at or above level.
// parent can be nil.
func NewSessionLog(parent slog.Handler, level slog.Leveler) *SessionLog {
	if level == nil {
		level = slog.LevelInfo
	}
	return &SessionLog{parent: parent, level: level, lines: &lineBuffer{}}
}

// Enabled reports whether the session or the parent handles records at the given level.
func (h *SessionLog) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level.Level() {
		return true
	}
	return h.parent != nil && h.parent.Enabled(ctx, level)
}

// Handle records r and forwards it to the parent handler.
func (h *SessionLog) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		h.record(r)
	}

	if h.parent == nil || !h.parent.Enabled(ctx, r.Level) {
		return nil
	}
	return h.parent.Handle(ctx, r)
}

func (h *SessionLog) record(r slog.Record) {
	var sb strings.Builder
	if !r.Time.IsZero() {
		sb.WriteString(r.Time.Format(trackingTimeLayout))
		sb.WriteString(" --- ")
	}
	sb.WriteString(r.Level.String())
	sb.WriteString(" --- ")
	sb.WriteString(r.Message)

	writeAttr := func(a slog.Attr) {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value.Any())
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, fa := range flattenAttr(a, h.groupPrefix) {
			writeAttr(fa)
		}
		return true
	})

	h.lines.mu.Lock()
	defer h.lines.mu.Unlock()
	h.lines.lines = append(h.lines.lines, sb.String())
}

// WithAttrs returns a handler sharing the same lines with attrs appended.
func (h *SessionLog) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := slices.Clone(h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, flattenAttr(a, h.groupPrefix)...)
	}

	h2 := *h
	h2.attrs = newAttrs
	if h.parent != nil {
		h2.parent = h.parent.WithAttrs(attrs)
	}
	return &h2
}

// WithGroup returns a handler sharing the same lines with name appended to the key prefix.
func (h *SessionLog) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groupPrefix += name + "."
	if h.parent != nil {
		h2.parent = h.parent.WithGroup(name)
	}
	return &h2
}

// Lines returns a copy of the recorded lines.
func (h *SessionLog) Lines() []string {
	h.lines.mu.Lock()
	defer h.lines.mu.Unlock()
	return slices.Clone(h.lines.lines)
}

// Tracking returns the recorded lines as a JSON array, donated as the session tracking data.
// An empty log is reported as a single "no logs" line.
func (h *SessionLog) Tracking() ([]byte, error) {
	lines := h.Lines()
	if len(lines) == 0 {
		lines = []string{"no logs"}
	}
	return json.Marshal(lines)
}

// flattenAttr recursively flattens groups and applies prefix to keys.
func flattenAttr(a slog.Attr, prefix string) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return nil
		}
		var ret []slog.Attr
		newPrefix := prefix
		if a.Key != "" {
			newPrefix += a.Key + "."
		}
		for _, child := range attrs {
			ret = append(ret, flattenAttr(child, newPrefix)...)
		}
		return ret
	}

	if a.Key == "" {
		return nil
	}

	a.Key = prefix + a.Key
	return []slog.Attr{a}
}
