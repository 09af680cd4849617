package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/admiralorbiter/VMS-sub007/validation"
)

// Recomputes stored quality scores from their persisted validation results.
// Run after changing severity weights so historical runs score on the same
// scale as new ones.
func main() {
	entity := flag.String("entity", "", "Optional: recompute only this entity type")
	runID := flag.Int("run-id", 0, "Optional: recompute only the score for this sync run")
	dryRun := flag.Bool("dry-run", true, "Show what would change (no writes)")
	confirm := flag.String("confirm", "", "Type RECOMPUTE to proceed when dry-run=false")
	flag.Parse()

	if !*dryRun && strings.TrimSpace(*confirm) != "RECOMPUTE" {
		fmt.Fprintln(os.Stderr, "set --confirm=RECOMPUTE to proceed")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	query := db.WithContext(ctx).Model(&models.QualityScore{}).Order("id ASC")
	if strings.TrimSpace(*entity) != "" {
		query = query.Where("entity_type = ?", strings.TrimSpace(*entity))
	}
	if *runID > 0 {
		query = query.Where("sync_run_id = ?", *runID)
	}

	var scores []*models.QualityScore
	if err := query.Find(&scores).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list quality scores: %v\n", err)
		os.Exit(1)
	}
	if len(scores) == 0 {
		fmt.Println("no quality scores found")
		return
	}

	changed, unchanged, skipped := 0, 0, 0
	for _, stored := range scores {
		rows, err := models.ListValidationResults(ctx, stored.SyncRunId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run %d: failed to load validation results: %v\n", stored.SyncRunId, err)
			os.Exit(1)
		}
		if len(rows) == 0 {
			skipped++
			continue
		}

		results := make([]models.ValidationResult, 0, len(rows))
		for _, row := range rows {
			results = append(results, *row)
		}

		recomputed := validation.Score(results)
		if recomputed.Equal(stored.Score) {
			unchanged++
			continue
		}

		fmt.Printf("run %d (%s): %s -> %s\n",
			stored.SyncRunId, stored.EntityType, stored.Score.StringFixed(2), recomputed.StringFixed(2))
		changed++
		if *dryRun {
			continue
		}

		statsJSON, _ := json.Marshal(validation.Breakdown(results))
		if err := db.WithContext(ctx).Model(stored).Updates(map[string]any{
			"score":       recomputed,
			"stats_json":  statsJSON,
			"computed_at": time.Now().UTC(),
		}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "run %d: failed to update score: %v\n", stored.SyncRunId, err)
			os.Exit(1)
		}
	}

	mode := "updated"
	if *dryRun {
		mode = "would update"
	}
	fmt.Printf("%s %d score(s); %d unchanged; %d without stored results\n", mode, changed, unchanged, skipped)
}
