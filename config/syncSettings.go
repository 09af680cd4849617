package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SeverityThresholds tunes how far a finding may drift before it escalates.
type SeverityThresholds struct {
	// CountWarnWithin: a count discrepancy beyond the expected delta but
	// within this many rows is a warning; further out it is an error.
	CountWarnWithin int64
	// Completeness: populated fraction below CompletenessError is an error,
	// below CompletenessWarn (but at or above CompletenessError) a warning.
	CompletenessWarn  float64
	CompletenessError float64
	// ScoreAlert: a quality score strictly below this publishes an alert.
	ScoreAlert decimal.Decimal
}

// SyncSettings is the one place sync tuning lives. Every recognized option
// is an explicit field; nothing reads sync env vars outside LoadSyncSettings.
type SyncSettings struct {
	// ChunkSize is the number of records per batch transaction.
	ChunkSize int
	// InterPageDelay throttles between connector pages (0 = none).
	InterPageDelay time.Duration
	// RetryCount bounds transient-error retries per connector call.
	RetryCount int
	// RetryBaseDelay seeds the exponential backoff (doubles per attempt).
	RetryBaseDelay time.Duration
	// RequestTimeout applies to each connector HTTP request.
	RequestTimeout time.Duration
	// RateLimit is the minimum interval between connector requests (0 = none).
	RateLimit time.Duration
	// CountTolerance holds the documented expected count delta per entity
	// type (source records intentionally excluded from import).
	CountTolerance map[string]int64
	Thresholds     SeverityThresholds
}

// LoadSyncSettings reads the sync configuration from env with defaults.
//
// Env:
// - VMS_SYNC_CHUNK_SIZE (default 50)
// - VMS_SYNC_PAGE_DELAY_MS (default 0)
// - VMS_SYNC_RETRY_COUNT (default 3)
// - VMS_SYNC_RETRY_BASE_MS (default 500)
// - VMS_SYNC_REQUEST_TIMEOUT_SECONDS (default 30)
// - VMS_SYNC_RATE_LIMIT_MS (default 0)
// - VMS_COUNT_TOLERANCE (e.g. "events:3605,volunteers:12")
// - VMS_COUNT_WARN_WITHIN (default 25)
// - VMS_COMPLETENESS_WARN (default 0.95)
// - VMS_COMPLETENESS_ERROR (default 0.80)
// - VMS_SCORE_ALERT_BELOW (default 70)
func LoadSyncSettings() SyncSettings {
	return SyncSettings{
		ChunkSize:      intFromEnv("VMS_SYNC_CHUNK_SIZE", 50),
		InterPageDelay: time.Duration(intFromEnv("VMS_SYNC_PAGE_DELAY_MS", 0)) * time.Millisecond,
		RetryCount:     intFromEnv("VMS_SYNC_RETRY_COUNT", 3),
		RetryBaseDelay: time.Duration(intFromEnv("VMS_SYNC_RETRY_BASE_MS", 500)) * time.Millisecond,
		RequestTimeout: time.Duration(intFromEnv("VMS_SYNC_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		RateLimit:      time.Duration(intFromEnv("VMS_SYNC_RATE_LIMIT_MS", 0)) * time.Millisecond,
		CountTolerance: ParseCountTolerance(os.Getenv("VMS_COUNT_TOLERANCE")),
		Thresholds: SeverityThresholds{
			CountWarnWithin:   int64(intFromEnv("VMS_COUNT_WARN_WITHIN", 25)),
			CompletenessWarn:  floatFromEnv("VMS_COMPLETENESS_WARN", 0.95),
			CompletenessError: floatFromEnv("VMS_COMPLETENESS_ERROR", 0.80),
			ScoreAlert:        decimalFromEnv("VMS_SCORE_ALERT_BELOW", "70"),
		},
	}
}

// ParseCountTolerance parses "entity:delta,entity:delta" pairs. Unknown or
// malformed pairs are skipped; absent entities default to zero tolerance.
func ParseCountTolerance(raw string) map[string]int64 {
	out := map[string]int64{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(kv[1]), 10, 64)
		if err != nil {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(kv[0]))] = n
	}
	return out
}

func floatFromEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func decimalFromEnv(key string, def string) decimal.Decimal {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		d, _ = decimal.NewFromString(def)
	}
	return d
}
