package offlinesync

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ConflictDetector decides whether an incoming update was based on an
// older version of the record than the one the server holds.
type ConflictDetector interface {
	IsStale(server, incoming Record) bool
}

// TimestampDetector is last-write-wins with detection: the update is stale when the
// server's updated_at is strictly later than the updated_at carried in the payload.
// Equal timestamps are safe to apply. A payload without a readable updated_at is
// treated as based on the zero time.
type TimestampDetector struct{}

func (TimestampDetector) IsStale(server, incoming Record) bool {
	serverAt, ok := RecordUpdatedAt(server)
	if !ok {
		return false
	}
	clientAt, _ := RecordUpdatedAt(incoming)
	return serverAt.After(clientAt)
}

// DetectorFunc adapts a plain function to ConflictDetector.
type DetectorFunc func(server, incoming Record) bool

func (f DetectorFunc) IsStale(server, incoming Record) bool { return f(server, incoming) }

var updatedAtKeys = []string{"updated_at", "updatedAt"}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// RecordUpdatedAt reads the updated_at (or updatedAt) field of r.
// Accepted forms: time.Time, RFC3339 strings, MySQL datetime strings (UTC)
// and epoch milliseconds as number or numeric string.
func RecordUpdatedAt(r Record) (time.Time, bool) {
	for _, k := range updatedAtKeys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if t, ok := parseTimestamp(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms), true
		}
		if f, err := t.Float64(); err == nil {
			return time.UnixMilli(int64(f)), true
		}
	case float64:
		return time.UnixMilli(int64(t)), true
	case int64:
		return time.UnixMilli(t), true
	case int:
		return time.UnixMilli(int64(t)), true
	}
	return time.Time{}, false
}
