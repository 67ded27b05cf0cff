package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

//nolint:gochecknoglobals
var levelColor = map[Level]string{
	LevelDebug: ansiCyan,
	LevelInfo:  ansiGreen,
	LevelWarn:  ansiYellow,
	LevelError: ansiRed,
}

// ConsoleHandler writes one human-readable line per record:
//
//	15:04:05.000 INFO  svc.sessionsvc.session_manager signed in | user.email=a@b.c (session_manager.go:181)
//
// Records are dropped when a Filter entry matching the logger name asks for a
// higher level. The longest matching name prefix wins.
type ConsoleHandler struct {
	out     io.Writer
	mu      *sync.Mutex
	level   Level
	filter  map[string]Level
	colored bool

	attrs  []slog.Attr
	groups []string
}

var _ Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler creates a console handler writing to out.
func NewConsoleHandler(out io.Writer, level Level, filter map[string]Level, colored bool) *ConsoleHandler {
	return &ConsoleHandler{
		out:     out,
		mu:      &sync.Mutex{},
		level:   level,
		filter:  filter,
		colored: colored,
	}
}

// Enabled implements slog.Handler.Enabled. Per-name filters can only be
// applied in Handle because the name is an attribute.
func (h *ConsoleHandler) Enabled(_ context.Context, level Level) bool {
	if len(h.filter) > 0 {
		return true
	}

	return level >= h.level
}

// Handle implements slog.Handler.Handle.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	var name string

	rest := attrs[:0:0]

	for _, a := range attrs {
		switch a.Key {
		case loggerNameKey:
			name = a.Value.String()
		case "app":
		default:
			rest = append(rest, a)
		}
	}

	if r.Level < h.levelFor(name) {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(h.paint(ansiGray, r.Time.Format("15:04:05.000")))
	sb.WriteByte(' ')
	sb.WriteString(h.paint(levelColor[r.Level], padRight(r.Level.String(), 5)))
	sb.WriteByte(' ')

	if name != "" {
		sb.WriteString(h.paint(ansiGray, name))
		sb.WriteByte(' ')
	}

	sb.WriteString(r.Message)

	if len(rest) > 0 {
		sb.WriteString(" |")

		prefix := ""
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		h.writeAttrs(&sb, prefix, rest)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		sb.WriteString(h.paint(ansiGray, " ("+filepath.Base(frame.File)+":"+strconv.Itoa(frame.Line)+")"))
	}

	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.out, sb.String())

	return err //nolint:wrapcheck
}

func (h *ConsoleHandler) levelFor(name string) Level {
	for key := name; ; {
		if level, ok := h.filter[key]; ok {
			return level
		}

		if key == "" {
			return h.level
		}

		if i := strings.LastIndexByte(key, '.'); i >= 0 {
			key = key[:i]
		} else {
			key = ""
		}
	}
}

func (h *ConsoleHandler) writeAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, a := range attrs {
		if a.Value.Kind() == slog.KindGroup {
			h.writeAttrs(sb, prefix+a.Key+".", a.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + a.Key + "=")
		sb.WriteString(h.paint(ansiGray, a.Value.String()))
	}
}

func (h *ConsoleHandler) paint(color, s string) string {
	if !h.colored || color == "" {
		return s
	}

	return color + s + ansiReset
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &c
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)

	return &c
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}

	return s + strings.Repeat(" ", n-len(s))
}
