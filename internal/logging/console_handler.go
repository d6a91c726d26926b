package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// field is a flattened attribute; grouped keys are joined with dots.
type field struct {
	key   string
	value slog.Value
}

// consoleHandler renders one header line per record followed by indented
// fields. Info and above show a curated subset; debug shows everything.
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	fields []field
	prefix string
	source bool
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{mu: new(sync.Mutex), w: w, level: level, source: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = slicesClip(h.fields)
	for _, attr := range attrs {
		next.fields = appendFlat(next.fields, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slicesClip(h.fields)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFlat(fields, h.prefix, attr)
		return true
	})
	fields = lastWins(fields)

	var loc location
	body := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			loc.component = formatValue(f.value, false)
			continue
		case FieldRank:
			loc.rank = formatValue(f.value, false)
		case FieldBatch:
			loc.batch = formatValue(f.value, false)
		case FieldStep:
			loc.step = formatValue(f.value, false)
		}
		body = append(body, f)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	loc.writeTo(&buf)
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(" – ")
		buf.WriteString(msg)
	}
	if src := record.Source(); h.source && src != nil {
		buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
	}
	buf.WriteByte('\n')

	if record.Level < slog.LevelInfo {
		writeAllFields(&buf, body)
	} else {
		writeSummaryFields(&buf, body)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// location is the "[component] Rank 0 · Batch #4 (write)" part of a header.
type location struct {
	component string
	rank      string
	batch     string
	step      string
}

func (l location) writeTo(buf *bytes.Buffer) {
	if l.component != "" {
		buf.WriteString(" [" + l.component + "]")
	}
	var parts []string
	if l.rank != "" {
		parts = append(parts, "Rank "+l.rank)
	}
	switch {
	case l.batch != "" && l.step != "":
		parts = append(parts, "Batch #"+l.batch+" ("+l.step+")")
	case l.batch != "":
		parts = append(parts, "Batch #"+l.batch)
	case l.step != "":
		parts = append(parts, l.step)
	}
	if len(parts) > 0 {
		buf.WriteString(" " + strings.Join(parts, " · "))
	}
}

func writeSummaryFields(buf *bytes.Buffer, fields []field) {
	shown, hidden := selectInfoFields(fields, infoAttrLimit)
	for _, f := range shown {
		buf.WriteString("    - " + f.label + ": " + f.value + "\n")
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}
}

func writeAllFields(buf *bytes.Buffer, fields []field) {
	for _, f := range fields {
		buf.WriteString("    " + f.key + ": " + formatValue(f.value, true) + "\n")
	}
}

// appendFlat resolves attr and appends it, expanding groups into dotted keys.
func appendFlat(dst []field, prefix string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = prefix + attr.Key + "."
		}
		for _, member := range value.Group() {
			dst = appendFlat(dst, inner, member)
		}
		return dst
	}
	key := prefix + attr.Key
	if attr.Key == "" {
		key = strings.TrimSuffix(prefix, ".")
	}
	if key == "" {
		return dst
	}
	return append(dst, field{key: key, value: value})
}

// lastWins drops earlier duplicates of a key while keeping first-seen order.
func lastWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

// slicesClip returns fields with no spare capacity so appends never share a
// backing array between derived handlers.
func slicesClip(fields []field) []field {
	return fields[:len(fields):len(fields)]
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
