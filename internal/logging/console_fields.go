package logging

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

// infoPriority orders the fields an info line shows first. Keys not listed
// follow in the order they were logged.
var infoPriority = []string{
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
	"model",
	"language",
	"utterances",
	"batches",
	"batch_size",
	"audio_seconds",
	"elapsed",
	"output",
	"output_bytes",
	"mean_score",
	"progress_percent",
	"skipped",
	"failed_probes",
}

var fieldLabels = map[string]string{
	FieldEventType: "Event",
	FieldErrorHint: "Hint",
	FieldAudioPath: "Audio",
	"audio_seconds": "Audio Duration",
	"failed_probes": "Failed Probes",
	"output_bytes":  "Written",
}

// selectInfoFields picks at most limit fields for an info-level line and
// reports how many were left out. limit=0 means no limit.
func selectInfoFields(fields []field, limit int) ([]infoField, int) {
	var visible []field
	hidden := 0
	for _, f := range fields {
		switch {
		case headerKey(f.key):
		case debugOnlyKey(f.key):
			hidden++
		default:
			visible = append(visible, f)
		}
	}
	slices.SortStableFunc(visible, func(a, b field) int {
		return priority(a.key) - priority(b.key)
	})
	if limit > 0 && len(visible) > limit {
		hidden += len(visible) - limit
		visible = visible[:limit]
	}

	out := make([]infoField, len(visible))
	for i, f := range visible {
		out[i] = infoField{label: displayLabel(f.key), value: formatValueForKey(f.key, f.value)}
	}
	return out, hidden
}

func priority(key string) int {
	if i := slices.Index(infoPriority, key); i >= 0 {
		return i
	}
	return len(infoPriority)
}

// formatValueForKey applies friendlier formatting based on the key name.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	bytesKey := strings.HasSuffix(key, "_bytes") || key == "size"
	switch {
	case bytesKey && v.Kind() == slog.KindInt64:
		return humanize.IBytes(uint64(max(v.Int64(), 0)))
	case bytesKey && v.Kind() == slog.KindUint64:
		return humanize.IBytes(v.Uint64())
	case v.Kind() == slog.KindDuration:
		if d := v.Duration(); d < time.Second {
			return d.Round(time.Millisecond).String()
		}
		return v.Duration().Round(time.Second).String()
	case key == "audio_seconds" && v.Kind() == slog.KindFloat64:
		return humanize.FormatFloat("#,###.#", v.Float64()) + " s"
	case strings.HasSuffix(key, "_percent") && v.Kind() == slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 1, 64) + "%"
	case v.Kind() == slog.KindInt64 && (key == "utterances" || key == "skipped"):
		return humanize.Comma(v.Int64())
	case v.Kind() == slog.KindBool:
		return map[bool]string{true: "yes", false: "no"}[v.Bool()]
	case key == "error":
		const maxLen = 240
		s := strings.TrimSpace(formatValue(v, false))
		if len(s) > maxLen {
			s = s[:maxLen] + "…"
		}
		return s
	}
	return formatValue(v, false)
}

func headerKey(key string) bool {
	switch key {
	case FieldComponent, FieldRank, FieldBatch, FieldStep:
		return true
	}
	return false
}

func debugOnlyKey(key string) bool {
	switch key {
	case FieldRunID, "command", "args", "token_count", "vocab_size", "stderr":
		return true
	}
	return strings.HasSuffix(key, "_dir") || strings.HasPrefix(key, "ffprobe.")
}

func displayLabel(key string) string {
	if label, ok := fieldLabels[key]; ok {
		return label
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
