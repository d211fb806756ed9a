package config

import (
	"os"
	"strings"
	"time"
)

const (
	SyncStoreMySQL  = "mysql"
	SyncStoreMemory = "memory"
)

func envBoolDefault(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SyncStoreDriver selects where queued operations and entities live.
//
// Set via env:
// - SYNC_STORE_DRIVER=mysql (default) | memory
func SyncStoreDriver() string {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("SYNC_STORE_DRIVER")), SyncStoreMemory) {
		return SyncStoreMemory
	}
	return SyncStoreMySQL
}

// SyncPassLockEnabled serialises sync passes per (user, company) through redislock.
// Off by default: concurrent passes for the same scope are allowed.
//
// Set via env:
// - SYNC_PASS_LOCK=true
// - SYNC_PASS_LOCK_TTL_SECONDS=60
func SyncPassLockEnabled() bool {
	return envBoolDefault("SYNC_PASS_LOCK", false)
}

func SyncPassLockTTL() time.Duration {
	return time.Duration(intFromEnv("SYNC_PASS_LOCK_TTL_SECONDS", 60)) * time.Second
}

// SyncEventsEnabled publishes sync pass and conflict events to Pub/Sub.
//
// Set via env:
// - SYNC_EVENTS_ENABLED=true
// - SYNC_EVENTS_TOPIC=offline-sync-events
func SyncEventsEnabled() bool {
	return envBoolDefault("SYNC_EVENTS_ENABLED", false)
}

func SyncEventsTopic() string {
	if v := strings.TrimSpace(os.Getenv("SYNC_EVENTS_TOPIC")); v != "" {
		return v
	}
	return "offline-sync-events"
}

func SyncBatchMaxOperations() int {
	return intFromEnv("SYNC_BATCH_MAX_OPERATIONS", 500)
}

// DefaultPhoneRegion is the region used to parse customer phone numbers without a country prefix.
func DefaultPhoneRegion() string {
	if v := strings.TrimSpace(os.Getenv("DEFAULT_PHONE_REGION")); v != "" {
		return strings.ToUpper(v)
	}
	return "IN"
}
