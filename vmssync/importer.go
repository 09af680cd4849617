package vmssync

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/admiralorbiter/VMS-sub007/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const moduleName = "vmssync"

// runLockTTL must outlive the longest realistic single-type import.
const runLockTTL = time.Hour

// Importer executes Phase 1 for one entity type: paged fetch from the
// connector, batched idempotent upsert keyed by external id, per-record
// failure isolation through savepoints. Foreign keys are never written here;
// the resolver fills them in Phase 2.
type Importer struct {
	connector Connector
	settings  config.SyncSettings
}

func NewImporter(connector Connector, settings config.SyncSettings) *Importer {
	return &Importer{connector: connector, settings: settings}
}

type ImportOptions struct {
	// Filter overrides the descriptor's documented source filter.
	Filter      string
	DryRun      bool
	TriggeredBy string
	ParentRunId *uint
	// Run, when set, is the pre-created Pending row the dispatch path hands
	// over; otherwise the importer creates its own.
	Run *models.SyncRun
}

// Import synchronizes one entity type and finalizes its SyncRun. The
// returned error is the run-fatal condition if any; record-level failures
// are absorbed into ImportError rows and a PartiallyCompleted status.
// Re-running with unchanged source data inserts zero rows.
func (imp *Importer) Import(ctx context.Context, entityType string, opts ImportOptions) (*models.SyncRun, error) {
	logger := config.GetLogger()

	desc, err := DescriptorFor(entityType)
	if err != nil {
		return nil, err
	}

	run := opts.Run
	if run == nil {
		triggeredBy := opts.TriggeredBy
		if triggeredBy == "" {
			triggeredBy = models.SyncTriggeredManual
		}
		run, err = models.CreateSyncRun(ctx, entityType, triggeredBy, opts.DryRun, opts.ParentRunId)
		if err != nil {
			return nil, err
		}
	}
	// Pub/Sub redelivers at least once; a finished run must not rerun.
	if run.Status.IsTerminal() {
		return run, nil
	}

	release, err := utils.SyncRunLock(ctx, entityType, runLockTTL, moduleName, "Import")
	if err != nil {
		return run, err
	}
	defer release()

	if err := run.MarkRunning(ctx); err != nil {
		return run, err
	}

	// Authentication failures are fatal and never retried; the run fails
	// before any page is processed.
	if err := imp.connector.Authenticate(ctx); err != nil {
		imp.failRun(ctx, run, ImportStats{SourceTotal: -1}, models.ErrCodeAuthentication, err)
		return run, err
	}

	// The source count is pre-run sizing and the count tier's comparison
	// base, never a correctness dependency: log and continue on failure.
	sourceTotal := int64(-1)
	if err := withRetry(ctx, imp.settings, moduleName, "Import", func() error {
		n, cErr := imp.connector.Count(ctx, entityType, opts.Filter)
		if cErr != nil {
			return cErr
		}
		sourceTotal = n
		return nil
	}); err != nil {
		config.LogError(logger, moduleName, "Import", "Source count unavailable", entityType, err)
	}

	logger.WithFields(logrus.Fields{
		"module":       moduleName,
		"entity_type":  entityType,
		"run_id":       run.ID,
		"source":       imp.connector.Name(),
		"source_total": sourceTotal,
		"dry_run":      opts.DryRun,
	}).Info("import started")

	stats := ImportStats{SourceTotal: sourceTotal}

	pageToken := ""
	cursor := ImportCursor{}
	if config.CheckpointResumeEnabled() && !opts.DryRun {
		cursor = DecodeImportCursor(run.CursorJSON)
		pageToken = cursor.PageToken
		stats.Pages = cursor.Pages
	}

	chunkSize := imp.settings.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50
	}

	for {
		// Cancellation is cooperative and page-granular: an in-flight
		// record's savepoint always completes before an abort takes effect.
		if ctxErr := ctx.Err(); ctxErr != nil {
			imp.abortRun(ctx, run, stats, ctxErr)
			return run, ctxErr
		}

		var page *QueryPage
		err := withRetry(ctx, imp.settings, moduleName, "Import", func() error {
			p, qErr := imp.connector.Query(ctx, entityType, opts.Filter, pageToken)
			if qErr != nil {
				return qErr
			}
			page = p
			return nil
		})
		if err != nil {
			// Retries exhausted or a non-transient source error: the run
			// keeps whatever pages already committed.
			imp.abortRun(context.WithoutCancel(ctx), run, stats, err)
			return run, err
		}

		for start := 0; start < len(page.Records); start += chunkSize {
			end := start + chunkSize
			if end > len(page.Records) {
				end = len(page.Records)
			}
			if err := imp.processBatch(ctx, run, desc, page.Records[start:end], opts.DryRun, &stats); err != nil {
				// A batch-transaction failure (not a record failure) is a
				// storage-level fault; abort with what committed so far.
				imp.abortRun(context.WithoutCancel(ctx), run, stats, err)
				return run, err
			}
		}
		stats.Pages++

		// Checkpoint after the whole page committed, so a resumed retry
		// never skips a half-persisted page.
		if config.CheckpointResumeEnabled() && !opts.DryRun {
			cursor.PageToken = page.NextPageToken
			cursor.Pages = stats.Pages
			if err := run.SaveCursor(ctx, EncodeImportCursor(cursor)); err != nil {
				config.LogError(logger, moduleName, "Import", "Failed to save cursor", run.ID, err)
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken

		if imp.settings.InterPageDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(imp.settings.InterPageDelay):
			}
		}
	}

	status := models.RunStatusCompleted
	if stats.Errors > 0 {
		status = models.RunStatusPartiallyCompleted
	}
	imp.finalize(ctx, run, stats, status)

	logger.WithFields(logrus.Fields{
		"module":      moduleName,
		"entity_type": entityType,
		"run_id":      run.ID,
		"status":      status,
		"inserted":    stats.Inserted,
		"updated":     stats.Updated,
		"unchanged":   stats.Unchanged,
		"errors":      stats.Errors,
		"pages":       stats.Pages,
	}).Info("import finished")

	return run, nil
}

// processBatch persists one chunk in a single transaction. Every record runs
// inside its own savepoint: a bad record rolls back alone and its
// ImportError row commits with the surrounding batch.
func (imp *Importer) processBatch(ctx context.Context, run *models.SyncRun, desc *EntityDescriptor, records []json.RawMessage, dryRun bool, stats *ImportStats) error {
	if len(records) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, raw := range records {
			entity, mErr := desc.Map(raw)
			if mErr != nil {
				stats.Errors++
				if err := models.CreateImportError(ctx, tx, run.ID, externalIdFromRaw(raw),
					mErr.Field, mErr.Code, mErr.Reason, models.SeverityError, false, raw); err != nil {
					return err
				}
				continue
			}

			action := models.ImportActionUnchanged
			err := tx.Transaction(func(recordTx *gorm.DB) error {
				a, upErr := entity.UpsertFromImport(ctx, recordTx, dryRun)
				if upErr != nil {
					return upErr
				}
				action = a
				return nil
			})
			if err != nil {
				stats.Errors++
				code, severity, retryable := classifyRecordError(err)
				if ieErr := models.CreateImportError(ctx, tx, run.ID, entity.GetExternalId(),
					"", code, err.Error(), severity, retryable, raw); ieErr != nil {
					return ieErr
				}
				continue
			}

			switch action {
			case models.ImportActionInserted:
				stats.Inserted++
			case models.ImportActionUpdated:
				stats.Updated++
			default:
				stats.Unchanged++
			}
		}
		return nil
	})
}

func (imp *Importer) finalize(ctx context.Context, run *models.SyncRun, stats ImportStats, status models.RunStatus) {
	statsJSON, _ := json.Marshal(stats)
	success := stats.Inserted + stats.Updated + stats.Unchanged
	if err := run.Finalize(ctx, status, success, stats.Errors, 0, statsJSON); err != nil {
		config.LogError(config.GetLogger(), moduleName, "Import", "Failed to finalize run", run.ID, err)
	}
}

// failRun finalizes a run that died before any page was processed.
func (imp *Importer) failRun(ctx context.Context, run *models.SyncRun, stats ImportStats, code string, cause error) {
	config.LogError(config.GetLogger(), moduleName, "Import", "Run failed", run.EntityType, cause)
	if err := models.CreateImportError(ctx, nil, run.ID, "", "", code, cause.Error(), models.SeverityCritical, false, nil); err != nil {
		config.LogError(config.GetLogger(), moduleName, "Import", "Failed to record run error", run.ID, err)
	}
	imp.finalize(ctx, run, stats, models.RunStatusFailed)
}

// abortRun finalizes a run interrupted mid-paging (transport exhaustion,
// storage fault or cancellation). Committed batches are kept: the run is
// partial if anything landed, failed if nothing did.
func (imp *Importer) abortRun(ctx context.Context, run *models.SyncRun, stats ImportStats, cause error) {
	config.LogError(config.GetLogger(), moduleName, "Import", "Run aborted", run.EntityType, cause)
	retryable := true
	if ce, ok := AsConnectorError(cause); ok {
		retryable = ce.IsTransient()
	}
	if err := models.CreateImportError(ctx, nil, run.ID, "", "", models.ErrCodeTransport,
		cause.Error(), models.SeverityCritical, retryable, nil); err != nil {
		config.LogError(config.GetLogger(), moduleName, "Import", "Failed to record run error", run.ID, err)
	}
	stats.Errors++
	status := models.RunStatusFailed
	if stats.Inserted+stats.Updated+stats.Unchanged > 0 {
		status = models.RunStatusPartiallyCompleted
	}
	imp.finalize(ctx, run, stats, status)
}

// classifyRecordError maps a record-level failure to a persisted error code.
// The savepoint already rolled the write back; classification only decides
// the code and whether a retry run could succeed.
func classifyRecordError(err error) (string, models.Severity, bool) {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062:
			return models.ErrCodeConstraintViolation, models.SeverityError, false
		case 1265, 1366:
			return models.ErrCodeInvalidEnum, models.SeverityError, false
		case 1406:
			return models.ErrCodeConstraintViolation, models.SeverityError, false
		}
		return models.ErrCodeWriteFailed, models.SeverityError, true
	}
	if ce, ok := AsConnectorError(err); ok {
		return models.ErrCodeTransport, models.SeverityError, ce.IsTransient()
	}
	return models.ErrCodeWriteFailed, models.SeverityError, true
}

// externalIdFromRaw best-effort extracts the source id for an error row when
// mapping failed before an entity existed.
func externalIdFromRaw(raw json.RawMessage) string {
	var peek struct {
		Id string `json:"Id"`
	}
	_ = json.Unmarshal(raw, &peek)
	return strings.TrimSpace(peek.Id)
}
