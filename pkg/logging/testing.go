package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestHandler is a slog.Handler that writes each record to a testing.TB,
// so engine logs show up next to the test that produced them.
type TestHandler struct {
	tb    testing.TB
	level slog.Leveler
	attrs []slog.Attr
	group string
	mu    *sync.Mutex
}

// NewTestHandler creates a handler logging to tb at level and above.
func NewTestHandler(tb testing.TB, level slog.Leveler) *TestHandler {
	if level == nil {
		level = LevelDebug
	}
	return &TestHandler{tb: tb, level: level, mu: &sync.Mutex{}}
}

// ForTest returns a debug-level logger writing to tb.
func ForTest(tb testing.TB) *slog.Logger {
	return slog.New(NewTestHandler(tb, LevelDebug))
}

// Enabled reports whether level is at or above the handler level.
func (h *TestHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats the record as "LEVEL msg key=value ..." and logs it.
func (h *TestHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Level.String())
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.tb.Helper()
	h.tb.Log(b.String())
	return nil
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *TestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup returns a handler that prefixes attribute keys with name.
func (h *TestHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		next.group += "." + name
	} else {
		next.group = name
	}
	return &next
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	b.WriteByte(' ')
	if group != "" {
		b.WriteString(group)
		b.WriteByte('.')
	}
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}
