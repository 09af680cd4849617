package config

import (
	"os"
	"strings"
)

// CheckpointResumeEnabled lets a retry run resume from the last committed
// page cursor instead of re-paging from the start. Full idempotent re-run is
// the guaranteed-correct baseline; resumption is an optimization only.
//
// Set via env:
// - VMS_SYNC_RESUME=true
func CheckpointResumeEnabled() bool {
	return boolFromEnv("VMS_SYNC_RESUME")
}

// AlertsEnabled controls whether quality/failure alerts are published to
// the alert topic. PUBSUB_ALERT_TOPIC must also be set.
//
// Set via env:
// - VMS_ALERTS=true
func AlertsEnabled() bool {
	return boolFromEnv("VMS_ALERTS")
}

// ReportArchiveEnabled controls whether finished run reports are archived
// to GCS. GCS_BUCKET must also be set.
//
// Set via env:
// - VMS_REPORT_ARCHIVE=true
func ReportArchiveEnabled() bool {
	return boolFromEnv("VMS_REPORT_ARCHIVE")
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
