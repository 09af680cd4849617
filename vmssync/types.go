package vmssync

import (
	"encoding/json"
	"time"

	"github.com/admiralorbiter/VMS-sub007/models"
)

// TriggerSyncRequest is the body of POST /api/sync/trigger. Zero values fall
// back to the configured defaults; an empty entity list means every type.
type TriggerSyncRequest struct {
	Entities         []string `json:"entities"`
	Exclude          []string `json:"exclude"`
	DryRun           bool     `json:"dryRun"`
	ValidateOnly     bool     `json:"validateOnly"`
	ChunkSize        int      `json:"chunkSize"`
	InterPageDelayMs int      `json:"interPageDelayMs"`
}

// SyncDispatchPayload is the Pub/Sub message that carries one trigger to the
// worker. Runs are pre-created by the trigger endpoint so callers get their
// ids back immediately; the worker imports into those rows.
type SyncDispatchPayload struct {
	RunIds           map[string]uint `json:"run_ids"`
	Entities         []string        `json:"entities"`
	Exclude          []string        `json:"exclude"`
	DryRun           bool            `json:"dry_run"`
	ValidateOnly     bool            `json:"validate_only"`
	ChunkSize        int             `json:"chunk_size"`
	InterPageDelayMs int             `json:"inter_page_delay_ms"`
	TriggeredBy      string          `json:"triggered_by"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// ImportCursor is the checkpoint persisted on a run after each committed
// batch when resume is enabled: the last fully-persisted source page.
type ImportCursor struct {
	PageToken string `json:"page_token"`
	Pages     int    `json:"pages"`
}

func DecodeImportCursor(raw []byte) ImportCursor {
	if len(raw) == 0 {
		return ImportCursor{}
	}
	var cursor ImportCursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return ImportCursor{}
	}
	return cursor
}

func EncodeImportCursor(cursor ImportCursor) []byte {
	b, _ := json.Marshal(cursor)
	return b
}

// ImportStats is the per-run stats breakdown stored on SyncRun.StatsJSON and
// returned in run summaries. In dry-run mode the counts are what would have
// happened.
type ImportStats struct {
	Inserted    int   `json:"inserted"`
	Updated     int   `json:"updated"`
	Unchanged   int   `json:"unchanged"`
	Errors      int   `json:"errors"`
	Pages       int   `json:"pages"`
	SourceTotal int64 `json:"source_total"`
	// ValidateOnly marks anchor runs created by validation-only passes.
	ValidateOnly bool `json:"validate_only,omitempty"`
}

type ResolveSummary struct {
	EntityType string `json:"entity_type"`
	Resolved   int    `json:"resolved"`
	Unresolved int    `json:"unresolved"`
}

// EntityOutcome is one entity type's slice of a pipeline run.
type EntityOutcome struct {
	EntityType      string           `json:"entity_type"`
	RunId           uint             `json:"run_id"`
	Status          models.RunStatus `json:"status"`
	SuccessCount    int              `json:"success_count"`
	ErrorCount      int              `json:"error_count"`
	UnresolvedCount int              `json:"unresolved_count"`
	Score           *string          `json:"score,omitempty"`
	FailedRules     []string         `json:"failed_rules,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// RunSummary is the operator-facing result of one pipeline invocation.
// Fatal carries the run-aborting condition (authentication or setup); it is
// empty for runs that finished, even partially.
type RunSummary struct {
	StartedAt   time.Time                 `json:"started_at"`
	CompletedAt time.Time                 `json:"completed_at"`
	DryRun      bool                      `json:"dry_run"`
	Entities    map[string]*EntityOutcome `json:"entities"`
	Fatal       string                    `json:"fatal,omitempty"`
}

// HasFatal reports whether the invocation should exit non-zero.
func (s *RunSummary) HasFatal() bool {
	return s.Fatal != ""
}

type SyncRunResponse struct {
	ID              uint    `json:"id"`
	EntityType      string  `json:"entityType"`
	Status          string  `json:"status"`
	TriggeredBy     string  `json:"triggeredBy"`
	DryRun          bool    `json:"dryRun"`
	StartedAt       *string `json:"startedAt"`
	CompletedAt     *string `json:"completedAt"`
	DurationMs      int64   `json:"durationMs"`
	SuccessCount    int     `json:"successCount"`
	ErrorCount      int     `json:"errorCount"`
	UnresolvedCount int     `json:"unresolvedCount"`
}

type SyncRunDetailResponse struct {
	SyncRunResponse
	Errors            []ImportErrorResponse      `json:"errors"`
	ValidationResults []ValidationResultResponse `json:"validationResults"`
	Score             *string                    `json:"score"`
}

type ImportErrorResponse struct {
	ID               uint   `json:"id"`
	RecordExternalId string `json:"recordExternalId"`
	Field            string `json:"field"`
	ErrorCode        string `json:"errorCode"`
	Message          string `json:"message"`
	Severity         string `json:"severity"`
	IsRetryable      bool   `json:"isRetryable"`
}

type ValidationResultResponse struct {
	Tier     string `json:"tier"`
	RuleName string `json:"ruleName"`
	Passed   bool   `json:"passed"`
	Severity string `json:"severity"`
	Details  string `json:"details"`
}

type EntityStatusResponse struct {
	EntityType string           `json:"entityType"`
	LastRun    *SyncRunResponse `json:"lastRun"`
	LastScore  *string          `json:"lastScore"`
	ScoredAt   *string          `json:"scoredAt"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapRunToResponse(run *models.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:              run.ID,
		EntityType:      run.EntityType,
		Status:          string(run.Status),
		TriggeredBy:     run.TriggeredBy,
		DryRun:          run.DryRun,
		StartedAt:       formatTime(run.StartedAt),
		CompletedAt:     formatTime(run.CompletedAt),
		DurationMs:      run.DurationMs,
		SuccessCount:    run.SuccessCount,
		ErrorCount:      run.ErrorCount,
		UnresolvedCount: run.UnresolvedCount,
	}
}

func mapErrorsToResponse(rows []*models.ImportError) []ImportErrorResponse {
	out := make([]ImportErrorResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ImportErrorResponse{
			ID:               row.ID,
			RecordExternalId: row.RecordExternalId,
			Field:            row.Field,
			ErrorCode:        row.ErrorCode,
			Message:          row.Message,
			Severity:         string(row.Severity),
			IsRetryable:      row.IsRetryable,
		})
	}
	return out
}

func mapResultsToResponse(rows []*models.ValidationResult) []ValidationResultResponse {
	out := make([]ValidationResultResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ValidationResultResponse{
			Tier:     string(row.Tier),
			RuleName: row.RuleName,
			Passed:   row.Passed,
			Severity: string(row.Severity),
			Details:  row.Details,
		})
	}
	return out
}
