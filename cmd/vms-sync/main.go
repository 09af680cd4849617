package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/admiralorbiter/VMS-sub007/alerting"
	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/admiralorbiter/VMS-sub007/vmssync"
)

func main() {
	entities := flag.String("entities", "", "Comma-separated entity types to sync. Empty means all types in stage order.")
	exclude := flag.String("exclude", "", "Comma-separated entity types to skip.")
	dryRun := flag.Bool("dry-run", false, "Map and report without persisting anything.")
	validateOnly := flag.Bool("validate-only", false, "Skip the import and run the validation tiers against current local data.")
	chunkSize := flag.Int("chunk-size", 0, "Records per transaction batch (default from VMS_SYNC_CHUNK_SIZE).")
	pageDelayMs := flag.Int("page-delay-ms", 0, "Pause between source pages in milliseconds (default from VMS_SYNC_PAGE_DELAY_MS).")
	source := flag.String("source", "salesforce", "Source connector: salesforce or spreadsheet.")
	spreadsheet := flag.String("spreadsheet", "", "Path to the .xlsx workbook when -source=spreadsheet.")
	flag.Parse()

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != "" {
		config.ConnectRedisWithRetry()
	}

	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	}

	settings := config.LoadSyncSettings()
	if *chunkSize > 0 {
		settings.ChunkSize = *chunkSize
	}
	if *pageDelayMs > 0 {
		settings.InterPageDelay = time.Duration(*pageDelayMs) * time.Millisecond
	}

	connector, err := buildConnector(*source, *spreadsheet, settings)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	orchestrator := vmssync.NewOrchestrator(connector, settings, alerting.NewNotifier())
	summary, err := orchestrator.Execute(ctx, vmssync.PipelineOptions{
		Entities:     splitAndTrim(*entities),
		Exclude:      splitAndTrim(*exclude),
		DryRun:       *dryRun,
		ValidateOnly: *validateOnly,
		TriggeredBy:  models.SyncTriggeredManual,
	})
	if err != nil && summary == nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if summary.HasFatal() {
		os.Exit(1)
	}
}

func buildConnector(source, spreadsheet string, settings config.SyncSettings) (vmssync.Connector, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "salesforce", "":
		return vmssync.NewSalesforceConnector(settings)
	case "spreadsheet":
		if strings.TrimSpace(spreadsheet) == "" {
			return nil, fmt.Errorf("-spreadsheet path is required when -source=spreadsheet")
		}
		return vmssync.NewSpreadsheetConnector(spreadsheet)
	default:
		return nil, fmt.Errorf("unknown source %q (want salesforce or spreadsheet)", source)
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
