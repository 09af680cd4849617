package vmssync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/admiralorbiter/VMS-sub007/alerting"
	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/admiralorbiter/VMS-sub007/utils"
	"github.com/admiralorbiter/VMS-sub007/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator sequences one pipeline invocation: staged imports (parallel
// within a stage), reference resolution in stage order, then validation,
// scoring and alerting per entity type.
type Orchestrator struct {
	connector Connector
	settings  config.SyncSettings
	notifier  alerting.Notifier
	resolver  *Resolver
}

func NewOrchestrator(connector Connector, settings config.SyncSettings, notifier alerting.Notifier) *Orchestrator {
	return &Orchestrator{
		connector: connector,
		settings:  settings,
		notifier:  notifier,
		resolver:  NewResolver(),
	}
}

type PipelineOptions struct {
	Entities     []string
	Exclude      []string
	DryRun       bool
	ValidateOnly bool
	TriggeredBy  string
	// Runs holds pre-created Pending rows keyed by entity type when the
	// trigger endpoint created them ahead of dispatch.
	Runs map[string]*models.SyncRun
}

// Execute runs the pipeline and always returns a summary; the error is the
// fatal condition when the summary reports one.
func (o *Orchestrator) Execute(ctx context.Context, opts PipelineOptions) (*RunSummary, error) {
	summary := &RunSummary{
		StartedAt: time.Now().UTC(),
		DryRun:    opts.DryRun,
		Entities:  map[string]*EntityOutcome{},
	}

	stages, err := PlanStages(opts.Entities, opts.Exclude)
	if err != nil {
		summary.Fatal = err.Error()
		summary.CompletedAt = time.Now().UTC()
		return summary, err
	}

	tracer := otel.Tracer("vmssync")

	if opts.ValidateOnly {
		o.validateOnly(ctx, tracer, stages, opts, summary)
		summary.CompletedAt = time.Now().UTC()
		return summary, nil
	}

	importer := NewImporter(o.connector, o.settings)
	var mu sync.Mutex
	runs := map[string]*models.SyncRun{}

	for _, stage := range stages {
		var wg sync.WaitGroup
		for _, desc := range stage {
			wg.Add(1)
			go func(desc *EntityDescriptor) {
				defer wg.Done()
				spanCtx, span := tracer.Start(ctx, "vmssync.import."+desc.Type)
				defer span.End()

				outcome := &EntityOutcome{EntityType: desc.Type}
				run, importErr := importer.Import(spanCtx, desc.Type, ImportOptions{
					DryRun:      opts.DryRun,
					TriggeredBy: opts.TriggeredBy,
					Run:         opts.Runs[desc.Type],
				})
				if run != nil {
					outcome.RunId = run.ID
					outcome.Status = run.Status
					outcome.SuccessCount = run.SuccessCount
					outcome.ErrorCount = run.ErrorCount
				}
				if importErr != nil {
					span.RecordError(importErr)
					outcome.Error = importErr.Error()
				}

				mu.Lock()
				summary.Entities[desc.Type] = outcome
				if run != nil {
					runs[desc.Type] = run
				}
				mu.Unlock()
			}(desc)
		}
		wg.Wait()

		// Later stages depend on earlier ones; stop between stages once
		// cancelled.
		if ctx.Err() != nil {
			summary.Fatal = ctx.Err().Error()
			break
		}
	}

	if !opts.DryRun && summary.Fatal == "" {
		runner := validation.NewRunner(o.settings)
		for _, stage := range stages {
			for _, desc := range stage {
				o.finishEntity(ctx, tracer, runner, desc.Type, runs[desc.Type], summary.Entities[desc.Type])
			}
		}
	}

	summary.CompletedAt = time.Now().UTC()
	if summary.Fatal != "" {
		return summary, ctx.Err()
	}
	return summary, nil
}

// finishEntity runs the post-import phases for one entity type: resolve,
// validate, score, alert. Failed runs only alert; there is nothing new to
// link or score.
func (o *Orchestrator) finishEntity(ctx context.Context, tracer trace.Tracer, runner *validation.Runner, entityType string, run *models.SyncRun, outcome *EntityOutcome) {
	logger := config.GetLogger()
	if outcome == nil || run == nil {
		return
	}
	if run.Status == models.RunStatusFailed {
		o.notifier.Notify(ctx, alerting.AlertPayload{
			EntityType:   entityType,
			RunId:        run.ID,
			Reason:       alerting.ReasonRunFailed,
			SuccessCount: run.SuccessCount,
			ErrorCount:   run.ErrorCount,
			Message:      "sync run failed before any page completed",
		})
		return
	}

	resolveSummary, err := o.resolver.Resolve(ctx, entityType)
	if err != nil {
		if outcome.Error == "" {
			outcome.Error = err.Error()
		}
		return
	}
	outcome.UnresolvedCount = resolveSummary.Unresolved
	if err := run.RecordUnresolved(ctx, resolveSummary.Unresolved); err != nil {
		config.LogError(logger, moduleName, "finishEntity", "Failed to record unresolved count", run.ID, err)
	}

	spanCtx, span := tracer.Start(ctx, "vmssync.validate."+entityType)
	defer span.End()
	_, score, err := runner.Validate(spanCtx, entityType, run, runSourceTotal(run))
	if err != nil {
		span.RecordError(err)
		if outcome.Error == "" {
			outcome.Error = err.Error()
		}
		return
	}

	scoreText := score.Score.StringFixed(2)
	outcome.Score = &scoreText
	failing, err := models.FailingRuleNames(ctx, run.ID)
	if err != nil {
		config.LogError(logger, moduleName, "finishEntity", "Failed to list failing rules", run.ID, err)
	}
	outcome.FailedRules = failing

	if score.Score.LessThan(o.settings.Thresholds.ScoreAlert) {
		o.notifier.Notify(ctx, alerting.AlertPayload{
			EntityType:   entityType,
			RunId:        run.ID,
			Reason:       alerting.ReasonScoreBelowThreshold,
			Score:        scoreText,
			FailingRules: failing,
			SuccessCount: run.SuccessCount,
			ErrorCount:   run.ErrorCount,
		})
	}

	o.archiveReport(ctx, entityType, run, outcome)
}

// validateOnly skips import and resolution entirely: each selected type gets
// a validation-only run row anchoring a pass over current persisted state.
func (o *Orchestrator) validateOnly(ctx context.Context, tracer trace.Tracer, stages [][]*EntityDescriptor, opts PipelineOptions, summary *RunSummary) {
	logger := config.GetLogger()
	runner := validation.NewRunner(o.settings)

	sourceReady := false
	if o.connector != nil {
		if err := o.connector.Authenticate(ctx); err != nil {
			config.LogError(logger, moduleName, "validateOnly", "Source unavailable for counts", o.connector.Name(), err)
		} else {
			sourceReady = true
		}
	}

	for _, stage := range stages {
		for _, desc := range stage {
			outcome := &EntityOutcome{EntityType: desc.Type}
			summary.Entities[desc.Type] = outcome

			sourceTotal := int64(-1)
			if sourceReady {
				if n, err := o.connector.Count(ctx, desc.Type, ""); err != nil {
					config.LogError(logger, moduleName, "validateOnly", "Source count unavailable", desc.Type, err)
				} else {
					sourceTotal = n
				}
			}

			run := opts.Runs[desc.Type]
			if run == nil {
				created, err := models.CreateSyncRun(ctx, desc.Type, opts.TriggeredBy, false, nil)
				if err != nil {
					outcome.Error = err.Error()
					continue
				}
				run = created
			}
			if run.Status.IsTerminal() {
				outcome.RunId = run.ID
				outcome.Status = run.Status
				continue
			}
			if err := run.MarkRunning(ctx); err != nil {
				outcome.Error = err.Error()
				continue
			}

			pending, err := PendingLinkCount(ctx, desc.Type)
			if err != nil {
				outcome.Error = err.Error()
				continue
			}
			statsJSON, _ := json.Marshal(ImportStats{SourceTotal: sourceTotal, ValidateOnly: true})
			if err := run.Finalize(ctx, models.RunStatusCompleted, 0, 0, pending, statsJSON); err != nil {
				outcome.Error = err.Error()
				continue
			}
			outcome.RunId = run.ID
			outcome.Status = run.Status
			outcome.UnresolvedCount = pending

			spanCtx, span := tracer.Start(ctx, "vmssync.validate."+desc.Type)
			_, score, err := runner.Validate(spanCtx, desc.Type, run, sourceTotal)
			span.End()
			if err != nil {
				outcome.Error = err.Error()
				continue
			}
			scoreText := score.Score.StringFixed(2)
			outcome.Score = &scoreText
			failing, err := models.FailingRuleNames(ctx, run.ID)
			if err != nil {
				config.LogError(logger, moduleName, "validateOnly", "Failed to list failing rules", run.ID, err)
			}
			outcome.FailedRules = failing

			if score.Score.LessThan(o.settings.Thresholds.ScoreAlert) {
				o.notifier.Notify(ctx, alerting.AlertPayload{
					EntityType:   desc.Type,
					RunId:        run.ID,
					Reason:       alerting.ReasonScoreBelowThreshold,
					Score:        scoreText,
					FailingRules: failing,
				})
			}
		}
	}
}

func (o *Orchestrator) archiveReport(ctx context.Context, entityType string, run *models.SyncRun, outcome *EntityOutcome) {
	if !config.ReportArchiveEnabled() {
		return
	}
	objectName := fmt.Sprintf("%s/%s-run-%d.json", time.Now().UTC().Format("2006/01/02"), entityType, run.ID)
	if err := utils.ArchiveRunReport(ctx, objectName, outcome); err != nil {
		config.LogError(config.GetLogger(), moduleName, "archiveReport", "Failed to archive run report", run.ID, err)
	}
}

// runSourceTotal recovers the source-side count captured during import.
func runSourceTotal(run *models.SyncRun) int64 {
	if run == nil || len(run.StatsJSON) == 0 {
		return -1
	}
	var stats ImportStats
	if err := json.Unmarshal(run.StatsJSON, &stats); err != nil {
		return -1
	}
	return stats.SourceTotal
}
