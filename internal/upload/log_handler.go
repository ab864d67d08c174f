package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
)

const logTimeFormat = "2006-01-02 15:04:05,000"

// ColorHandler is a slog.Handler writing one human readable line per
// record, "time - LEVEL - message key=value ...", colored by severity.
type ColorHandler struct {
	opts   slog.HandlerOptions
	attrs  []slog.Attr
	groups []string

	mu      *sync.Mutex
	w       io.Writer
	colored bool
	palette map[slog.Level]*color.Color
}

func newPalette(colored bool) map[slog.Level]*color.Color {
	palette := map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgHiBlack),
		slog.LevelInfo:  color.New(color.FgGreen),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed, color.Bold),
	}
	// color.NoColor follows stdout; the handler decides for its own writer.
	for _, c := range palette {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return palette
}

// NewColorHandler returns a handler writing to w. When colored is false
// the lines are written without escape sequences.
func NewColorHandler(w io.Writer, colored bool, opts *slog.HandlerOptions) *ColorHandler {
	h := &ColorHandler{
		mu:      &sync.Mutex{},
		w:       w,
		colored: colored,
		palette: newPalette(colored),
	}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled implements slog.Handler.
func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle implements slog.Handler.
func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format(logTimeFormat))
		buf.WriteString(" - ")
	}
	buf.WriteString(r.Level.String())
	buf.WriteString(" - ")
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		appendAttr(&buf, a)
	}
	prefix := groupPrefix(h.groups)
	r.Attrs(func(a slog.Attr) bool {
		if prefix != "" {
			a.Key = prefix + a.Key
		}
		appendAttr(&buf, a)
		return true
	})

	line := buf.String()
	if h.colored {
		line = h.colorFor(r.Level).Sprint(line)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, line)
	return err
}

// WithAttrs implements slog.Handler.
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	prefix := groupPrefix(h.groups)
	h2.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup implements slog.Handler.
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string{}, h.groups...), name)
	return &h2
}

func (h *ColorHandler) colorFor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return h.palette[slog.LevelError]
	case level >= slog.LevelWarn:
		return h.palette[slog.LevelWarn]
	case level >= slog.LevelInfo:
		return h.palette[slog.LevelInfo]
	}
	return h.palette[slog.LevelDebug]
}

func groupPrefix(groups []string) string {
	var prefix string
	for _, g := range groups {
		prefix += g + "."
	}
	return prefix
}

func appendAttr(buf *bytes.Buffer, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			if a.Key != "" {
				ga.Key = a.Key + "." + ga.Key
			}
			appendAttr(buf, ga)
		}
		return
	}

	buf.WriteByte(' ')
	buf.WriteString(a.Key)
	buf.WriteByte('=')

	var s string
	switch a.Value.Kind() {
	case slog.KindTime:
		s = a.Value.Time().Format(time.RFC3339)
	default:
		s = a.Value.String()
	}
	if needsQuoting(s) {
		s = strconv.Quote(s)
	}
	buf.WriteString(s)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == ' ' || r == '=' || r == '"' || r < 0x20 {
			return true
		}
	}
	return false
}
