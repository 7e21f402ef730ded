package web

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogSink receives formatted log lines. *Server implements it.
type LogSink interface {
	AddLog(level, message string)
}

// LogHandler is a slog.Handler that mirrors records onto the dashboard.
// Combine it with the console handler through log.Fanout.
type LogHandler struct {
	sink   LogSink
	level  slog.Leveler
	prefix string
	attrs  []slog.Attr
}

// NewLogHandler creates a handler that forwards records at or above level.
func NewLogHandler(sink LogSink, level slog.Leveler) *LogHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &LogHandler{sink: sink, level: level}
}

func (h *LogHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	write := func(prefix string, a slog.Attr) {
		if a.Equal(slog.Attr{}) {
			return
		}
		fmt.Fprintf(&b, " %s%s=%v", prefix, a.Key, a.Value.Resolve())
	}
	for _, a := range h.attrs {
		write("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(h.prefix, a)
		return true
	})
	h.sink.AddLog(strings.ToLower(r.Level.String()), b.String())
	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}
