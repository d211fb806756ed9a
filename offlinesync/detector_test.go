package offlinesync

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampDetector(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	cases := []struct {
		name     string
		server   Record
		incoming Record
		stale    bool
	}{
		{"server newer", Record{"updated_at": t1}, Record{"updated_at": t0.Format(time.RFC3339)}, true},
		{"equal timestamps apply", Record{"updated_at": t1}, Record{"updated_at": t1.Format(time.RFC3339Nano)}, false},
		{"client newer", Record{"updated_at": t0}, Record{"updated_at": t1.Format(time.RFC3339)}, false},
		{"camelCase client key", Record{"updated_at": t1}, Record{"updatedAt": t0.Format(time.RFC3339)}, true},
		{"epoch millis", Record{"updated_at": t1}, Record{"updated_at": float64(t1.UnixMilli())}, false},
		{"json number", Record{"updated_at": t1}, Record{"updated_at": json.Number("1")}, true},
		{"mysql datetime string", Record{"updated_at": "2024-05-01 09:00:00"}, Record{"updated_at": t0.Format(time.RFC3339)}, true},
		{"missing client timestamp", Record{"updated_at": t1}, Record{"total": "1"}, true},
		{"server without timestamp", Record{"id": "B1"}, Record{"updated_at": t0.Format(time.RFC3339)}, false},
		{"unparseable client timestamp", Record{"updated_at": t1}, Record{"updated_at": "yesterday"}, true},
	}

	d := TimestampDetector{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.IsStale(tc.server, tc.incoming); got != tc.stale {
				t.Fatalf("IsStale = %v, want %v", got, tc.stale)
			}
		})
	}
}

func TestRecordUpdatedAtPrefersSnakeCase(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got, ok := RecordUpdatedAt(Record{
		"updated_at": want.Format(time.RFC3339),
		"updatedAt":  "2000-01-01T00:00:00Z",
	})
	if !ok {
		t.Fatalf("expected timestamp")
	}
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
}
