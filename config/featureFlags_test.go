package config

import (
	"testing"
	"time"
)

func TestSyncStoreDriver(t *testing.T) {
	cases := map[string]string{
		"":        SyncStoreMySQL,
		"mysql":   SyncStoreMySQL,
		"MEMORY":  SyncStoreMemory,
		" memory": SyncStoreMemory,
		"redis":   SyncStoreMySQL,
	}
	for in, want := range cases {
		t.Setenv("SYNC_STORE_DRIVER", in)
		if got := SyncStoreDriver(); got != want {
			t.Fatalf("SyncStoreDriver(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSyncPassLockFlags(t *testing.T) {
	t.Setenv("SYNC_PASS_LOCK", "")
	if SyncPassLockEnabled() {
		t.Fatalf("pass lock must be off by default")
	}
	for _, v := range []string{"1", "true", "YES", "y"} {
		t.Setenv("SYNC_PASS_LOCK", v)
		if !SyncPassLockEnabled() {
			t.Fatalf("SYNC_PASS_LOCK=%q should enable the lock", v)
		}
	}

	t.Setenv("SYNC_PASS_LOCK_TTL_SECONDS", "")
	if got := SyncPassLockTTL(); got != time.Minute {
		t.Fatalf("default ttl = %s", got)
	}
	t.Setenv("SYNC_PASS_LOCK_TTL_SECONDS", "15")
	if got := SyncPassLockTTL(); got != 15*time.Second {
		t.Fatalf("ttl = %s", got)
	}
	t.Setenv("SYNC_PASS_LOCK_TTL_SECONDS", "abc")
	if got := SyncPassLockTTL(); got != time.Minute {
		t.Fatalf("invalid ttl should fall back to default, got %s", got)
	}
}

func TestSyncEventsTopicDefault(t *testing.T) {
	t.Setenv("SYNC_EVENTS_TOPIC", "")
	if got := SyncEventsTopic(); got != "offline-sync-events" {
		t.Fatalf("topic = %q", got)
	}
	t.Setenv("SYNC_EVENTS_TOPIC", "custom")
	if got := SyncEventsTopic(); got != "custom" {
		t.Fatalf("topic = %q", got)
	}
}

func TestDefaultPhoneRegion(t *testing.T) {
	t.Setenv("DEFAULT_PHONE_REGION", "")
	if got := DefaultPhoneRegion(); got != "IN" {
		t.Fatalf("region = %q", got)
	}
	t.Setenv("DEFAULT_PHONE_REGION", "mm")
	if got := DefaultPhoneRegion(); got != "MM" {
		t.Fatalf("region = %q", got)
	}
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "bizbooks")

	t.Setenv("DB_HOST", "10.0.0.5")
	if got, want := DatabaseDSN(), "app:secret@tcp(10.0.0.5:3306)/bizbooks?multiStatements=true&parseTime=true&loc=UTC"; got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}

	t.Setenv("DB_HOST", "/cloudsql/proj:region:inst")
	if got, want := DatabaseDSN(), "app:secret@unix(/cloudsql/proj:region:inst)/bizbooks?multiStatements=true&parseTime=true&loc=UTC"; got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}
