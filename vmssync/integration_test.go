package vmssync_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/admiralorbiter/VMS-sub007/alerting"
	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/admiralorbiter/VMS-sub007/vmssync"
	"github.com/shopspring/decimal"
)

// fakeSource serves canned records per entity type with offset-token paging,
// mimicking the connector contract without a network.
type fakeSource struct {
	mu       sync.Mutex
	records  map[string][]json.RawMessage
	pageSize int
	authErr  error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Authenticate(ctx context.Context) error { return f.authErr }

func (f *fakeSource) Query(ctx context.Context, entityType, filter, pageToken string) (*vmssync.QueryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := f.records[entityType]
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, fmt.Errorf("bad page token %q", pageToken)
		}
		offset = n
	}
	if offset > len(records) {
		offset = len(records)
	}
	size := f.pageSize
	if size <= 0 {
		size = len(records)
	}
	end := offset + size
	next := ""
	if end >= len(records) {
		end = len(records)
	} else {
		next = strconv.Itoa(end)
	}
	return &vmssync.QueryPage{
		Records:       records[offset:end],
		NextPageToken: next,
		TotalSize:     int64(len(records)),
	}, nil
}

func (f *fakeSource) Count(ctx context.Context, entityType, filter string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records[entityType])), nil
}

type captureNotifier struct {
	mu     sync.Mutex
	alerts []alerting.AlertPayload
}

func (c *captureNotifier) Notify(ctx context.Context, payload alerting.AlertPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, payload)
}

func (c *captureNotifier) captured() []alerting.AlertPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]alerting.AlertPayload, len(c.alerts))
	copy(out, c.alerts)
	return out
}

func jsonRecord(t *testing.T, fields map[string]interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return b
}

func volunteerRecord(id, first, last, email, title string) map[string]interface{} {
	return map[string]interface{}{
		"Id":                  id,
		"FirstName":           first,
		"LastName":            last,
		"Email":               email,
		"Title":               title,
		"Volunteer_Status__c": "Current",
		"MailingCity":         "Kansas City",
		"MailingState":        "MO",
	}
}

func pipelineSettings() config.SyncSettings {
	return config.SyncSettings{
		ChunkSize:      2,
		RetryCount:     1,
		RetryBaseDelay: 10 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
		CountTolerance: map[string]int64{},
		Thresholds: config.SeverityThresholds{
			CountWarnWithin:   25,
			CompletenessWarn:  0.95,
			CompletenessError: 0.80,
			// A perfect pass scores 100, so any failed finding alerts.
			ScoreAlert: decimal.NewFromInt(100),
		},
	}
}

func TestImportPipelineAgainstMySQL(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "vms_sync_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	settings := pipelineSettings()

	// Six volunteer records: four clean, one with an unparseable email and
	// one whose first name exceeds the column width. Page size 4 forces two
	// pages; chunk size 2 forces multiple batch transactions per page.
	source := &fakeSource{
		pageSize: 4,
		records: map[string][]json.RawMessage{
			models.EntityTypeVolunteers: {
				jsonRecord(t, volunteerRecord("003V000000000001", "Ana", "Reyes", "Ana.Reyes@Example.org", "Mentor")),
				jsonRecord(t, volunteerRecord("003V000000000002", "Ben", "Okafor", "ben.okafor@example.org", "Mentor")),
				jsonRecord(t, volunteerRecord("003V000000000003", "Cara", "Nguyen", "cara.nguyen@example.org", "Speaker")),
				jsonRecord(t, volunteerRecord("003V000000000004", "Dev", "Patel", "dev.patel@example.org", "Judge")),
				jsonRecord(t, volunteerRecord("003V000000000005", "Eve", "Stone", "not-an-email", "Mentor")),
				jsonRecord(t, volunteerRecord("003V000000000006", strings.Repeat("x", 150), "Long", "too.long@example.org", "Mentor")),
			},
			models.EntityTypeSchools: {
				jsonRecord(t, map[string]interface{}{
					"Id": "001S000000000001", "Name": "Lincoln Elementary",
					"School_Code__c": "LNC-ELEM", "School_Level__c": "Elementary",
					"BillingCity": "Kansas City", "BillingState": "MO",
				}),
				jsonRecord(t, map[string]interface{}{
					"Id": "001S000000000002", "Name": "Truman High",
					"School_Code__c": "TRU-HIGH", "School_Level__c": "High",
				}),
			},
		},
	}
	importer := vmssync.NewImporter(source, settings)

	// 1) Dry run classifies every record but writes nothing.
	dryRun, err := importer.Import(ctx, models.EntityTypeSchools, vmssync.ImportOptions{
		DryRun:      true,
		TriggeredBy: models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("dry-run import: %v", err)
	}
	if dryRun.Status != models.RunStatusCompleted {
		t.Fatalf("dry-run status = %s, want Completed", dryRun.Status)
	}
	if dryRun.SuccessCount != 2 {
		t.Fatalf("dry-run success count = %d, want 2", dryRun.SuccessCount)
	}
	var schoolCount int64
	if err := db.WithContext(ctx).Table("schools").Count(&schoolCount).Error; err != nil {
		t.Fatalf("count schools: %v", err)
	}
	if schoolCount != 0 {
		t.Fatalf("dry run persisted %d school rows", schoolCount)
	}

	// 2) First live import: the four clean records land, the two bad ones
	// become error rows without poisoning their batch.
	run1, err := importer.Import(ctx, models.EntityTypeVolunteers, vmssync.ImportOptions{
		TriggeredBy: models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("volunteer import: %v", err)
	}
	if run1.Status != models.RunStatusPartiallyCompleted {
		t.Fatalf("run status = %s, want PartiallyCompleted", run1.Status)
	}
	if run1.SuccessCount != 4 || run1.ErrorCount != 2 {
		t.Fatalf("run counts = %d success / %d errors, want 4/2", run1.SuccessCount, run1.ErrorCount)
	}
	var volunteerCount int64
	if err := db.WithContext(ctx).Table("volunteers").Count(&volunteerCount).Error; err != nil {
		t.Fatalf("count volunteers: %v", err)
	}
	if volunteerCount != 4 {
		t.Fatalf("volunteer rows = %d, want 4", volunteerCount)
	}

	var stats1 vmssync.ImportStats
	if err := json.Unmarshal(run1.StatsJSON, &stats1); err != nil {
		t.Fatalf("unmarshal run stats: %v", err)
	}
	if stats1.Inserted != 4 || stats1.Errors != 2 || stats1.Pages != 2 || stats1.SourceTotal != 6 {
		t.Fatalf("run stats = %+v, want 4 inserted, 2 errors, 2 pages, source 6", stats1)
	}

	importErrors, err := models.ListImportErrors(ctx, run1.ID)
	if err != nil {
		t.Fatalf("list import errors: %v", err)
	}
	if len(importErrors) != 2 {
		t.Fatalf("import errors = %d, want 2", len(importErrors))
	}
	byExternalId := map[string]*models.ImportError{}
	for _, ie := range importErrors {
		byExternalId[ie.RecordExternalId] = ie
	}
	if ie := byExternalId["003V000000000005"]; ie == nil || ie.ErrorCode != models.ErrCodeInvalidPayload || ie.Field != "Email" {
		t.Fatalf("bad-email error row = %+v", ie)
	}
	if ie := byExternalId["003V000000000006"]; ie == nil || ie.ErrorCode != models.ErrCodeConstraintViolation || ie.IsRetryable {
		t.Fatalf("oversized-name error row = %+v", ie)
	}

	// Normalization happened on the way in.
	var ana models.Volunteer
	if err := db.WithContext(ctx).Where("external_id = ?", "003V000000000001").First(&ana).Error; err != nil {
		t.Fatalf("fetch imported volunteer: %v", err)
	}
	if ana.Email != "ana.reyes@example.org" {
		t.Fatalf("stored email = %q, want lowercased", ana.Email)
	}
	if ana.Status != models.VolunteerStatusActive {
		t.Fatalf("stored status = %s, want active", ana.Status)
	}

	// 3) Re-running unchanged source data inserts nothing.
	run2, err := importer.Import(ctx, models.EntityTypeVolunteers, vmssync.ImportOptions{
		TriggeredBy: models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("second volunteer import: %v", err)
	}
	var stats2 vmssync.ImportStats
	if err := json.Unmarshal(run2.StatsJSON, &stats2); err != nil {
		t.Fatalf("unmarshal second run stats: %v", err)
	}
	if stats2.Inserted != 0 || stats2.Updated != 0 || stats2.Unchanged != 4 {
		t.Fatalf("second run stats = %+v, want all 4 unchanged", stats2)
	}
	if err := db.WithContext(ctx).Table("volunteers").Count(&volunteerCount).Error; err != nil {
		t.Fatalf("count volunteers: %v", err)
	}
	if volunteerCount != 4 {
		t.Fatalf("volunteer rows after re-run = %d, want 4", volunteerCount)
	}

	// 4) A changed source field updates exactly that row.
	source.records[models.EntityTypeVolunteers][1] = jsonRecord(t,
		volunteerRecord("003V000000000002", "Ben", "Okafor", "ben.okafor@example.org", "Lead Mentor"))
	run3, err := importer.Import(ctx, models.EntityTypeVolunteers, vmssync.ImportOptions{
		TriggeredBy: models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("third volunteer import: %v", err)
	}
	var stats3 vmssync.ImportStats
	if err := json.Unmarshal(run3.StatsJSON, &stats3); err != nil {
		t.Fatalf("unmarshal third run stats: %v", err)
	}
	if stats3.Updated != 1 || stats3.Unchanged != 3 || stats3.Inserted != 0 {
		t.Fatalf("third run stats = %+v, want 1 updated / 3 unchanged", stats3)
	}
	var ben models.Volunteer
	if err := db.WithContext(ctx).Where("external_id = ?", "003V000000000002").First(&ben).Error; err != nil {
		t.Fatalf("fetch updated volunteer: %v", err)
	}
	if ben.Title != "Lead Mentor" {
		t.Fatalf("updated title = %q, want Lead Mentor", ben.Title)
	}

	// 5) Participations import before their event exists; the volunteer side
	// links, the event side stays pending.
	source.records[models.EntityTypeParticipations] = []json.RawMessage{
		jsonRecord(t, map[string]interface{}{
			"Id":                "a2cP000000000001",
			"Contact__c":        "003V000000000001",
			"Session__c":        "a1bE000000000001",
			"Status__c":         "Attended",
			"Delivery_Hours__c": "2.5",
		}),
	}
	runP, err := importer.Import(ctx, models.EntityTypeParticipations, vmssync.ImportOptions{
		TriggeredBy: models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("participation import: %v", err)
	}
	if runP.Status != models.RunStatusCompleted {
		t.Fatalf("participation run status = %s, want Completed", runP.Status)
	}

	resolver := vmssync.NewResolver()
	firstPass, err := resolver.Resolve(ctx, models.EntityTypeParticipations)
	if err != nil {
		t.Fatalf("first resolve pass: %v", err)
	}
	if firstPass.Resolved != 1 || firstPass.Unresolved != 1 {
		t.Fatalf("first resolve pass = %+v, want 1 resolved / 1 unresolved", firstPass)
	}
	pending, err := vmssync.PendingLinkCount(ctx, models.EntityTypeParticipations)
	if err != nil {
		t.Fatalf("pending link count: %v", err)
	}
	if pending != 1 {
		t.Fatalf("pending links = %d, want 1", pending)
	}
	var part models.Participation
	if err := db.WithContext(ctx).Where("external_id = ?", "a2cP000000000001").First(&part).Error; err != nil {
		t.Fatalf("fetch participation: %v", err)
	}
	if part.VolunteerId == nil {
		t.Fatal("volunteer link not resolved")
	}
	if part.EventId != nil {
		t.Fatal("event link resolved before the event was imported")
	}

	// 6) Once the event arrives, the next pass converges; further passes are
	// no-ops that never touch linked rows.
	source.records[models.EntityTypeEvents] = []json.RawMessage{
		jsonRecord(t, map[string]interface{}{
			"Id":                     "a1bE000000000001",
			"Name":                   "Career Day",
			"Status__c":              "Completed",
			"Format__c":              "In-Person",
			"Start_Date_and_Time__c": "2025-06-05T13:00:00.000-0500",
			"End_Date_and_Time__c":   "2025-06-05T15:00:00.000-0500",
			"Location__c":            "Gym",
			"Capacity__c":            120,
		}),
	}
	runE, err := importer.Import(ctx, models.EntityTypeEvents, vmssync.ImportOptions{
		TriggeredBy: models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("event import: %v", err)
	}
	if runE.Status != models.RunStatusCompleted {
		t.Fatalf("event run status = %s, want Completed", runE.Status)
	}

	secondPass, err := resolver.Resolve(ctx, models.EntityTypeParticipations)
	if err != nil {
		t.Fatalf("second resolve pass: %v", err)
	}
	if secondPass.Resolved != 1 || secondPass.Unresolved != 0 {
		t.Fatalf("second resolve pass = %+v, want 1 resolved / 0 unresolved", secondPass)
	}
	thirdPass, err := resolver.Resolve(ctx, models.EntityTypeParticipations)
	if err != nil {
		t.Fatalf("third resolve pass: %v", err)
	}
	if thirdPass.Resolved != 0 || thirdPass.Unresolved != 0 {
		t.Fatalf("third resolve pass = %+v, want no pending work", thirdPass)
	}
	if err := db.WithContext(ctx).Where("external_id = ?", "a2cP000000000001").First(&part).Error; err != nil {
		t.Fatalf("refetch participation: %v", err)
	}
	if part.VolunteerId == nil || part.EventId == nil {
		t.Fatal("participation links incomplete after convergence")
	}

	// 7) Retargeting a reference severs the stale link; the next resolve
	// pass re-links against the new target.
	source.records[models.EntityTypeEvents] = append(source.records[models.EntityTypeEvents],
		jsonRecord(t, map[string]interface{}{
			"Id":                     "a1bE000000000002",
			"Name":                   "Mock Interviews",
			"Status__c":              "Confirmed",
			"Format__c":              "Virtual",
			"Start_Date_and_Time__c": "2025-06-12T09:00:00.000-0500",
		}))
	if _, err := importer.Import(ctx, models.EntityTypeEvents, vmssync.ImportOptions{
		TriggeredBy: models.SyncTriggeredManual,
	}); err != nil {
		t.Fatalf("second event import: %v", err)
	}
	source.records[models.EntityTypeParticipations][0] = jsonRecord(t, map[string]interface{}{
		"Id":                "a2cP000000000001",
		"Contact__c":        "003V000000000001",
		"Session__c":        "a1bE000000000002",
		"Status__c":         "Attended",
		"Delivery_Hours__c": "2.5",
	})
	runP2, err := importer.Import(ctx, models.EntityTypeParticipations, vmssync.ImportOptions{
		TriggeredBy: models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("retargeted participation import: %v", err)
	}
	var statsP2 vmssync.ImportStats
	if err := json.Unmarshal(runP2.StatsJSON, &statsP2); err != nil {
		t.Fatalf("unmarshal retarget run stats: %v", err)
	}
	if statsP2.Updated != 1 {
		t.Fatalf("retarget run stats = %+v, want 1 updated", statsP2)
	}
	if err := db.WithContext(ctx).Where("external_id = ?", "a2cP000000000001").First(&part).Error; err != nil {
		t.Fatalf("refetch retargeted participation: %v", err)
	}
	if part.EventId != nil {
		t.Fatal("stale event link survived the key change")
	}
	retargetPass, err := resolver.Resolve(ctx, models.EntityTypeParticipations)
	if err != nil {
		t.Fatalf("retarget resolve pass: %v", err)
	}
	if retargetPass.Resolved != 1 || retargetPass.Unresolved != 0 {
		t.Fatalf("retarget resolve pass = %+v, want 1 resolved / 0 unresolved", retargetPass)
	}
	var newEvent models.Event
	if err := db.WithContext(ctx).Where("external_id = ?", "a1bE000000000002").First(&newEvent).Error; err != nil {
		t.Fatalf("fetch retarget event: %v", err)
	}
	if err := db.WithContext(ctx).Where("external_id = ?", "a2cP000000000001").First(&part).Error; err != nil {
		t.Fatalf("refetch participation after retarget resolve: %v", err)
	}
	if part.EventId == nil || *part.EventId != newEvent.ID {
		t.Fatal("participation did not re-link to the new event")
	}

	// 8) Full pipeline pass: import, resolve, validate, score, alert. The
	// source still holds the two bad records, so the count tier fails as a
	// warning and the score dips below the alert threshold.
	notifier := &captureNotifier{}
	orch := vmssync.NewOrchestrator(source, settings, notifier)
	summary, err := orch.Execute(ctx, vmssync.PipelineOptions{
		Entities:    []string{models.EntityTypeVolunteers},
		TriggeredBy: models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("pipeline execute: %v", err)
	}
	if summary.HasFatal() {
		t.Fatalf("pipeline reported fatal: %s", summary.Fatal)
	}
	outcome := summary.Entities[models.EntityTypeVolunteers]
	if outcome == nil {
		t.Fatal("no volunteer outcome in summary")
	}
	if outcome.Status != models.RunStatusPartiallyCompleted {
		t.Fatalf("pipeline run status = %s, want PartiallyCompleted", outcome.Status)
	}
	if outcome.Score == nil {
		t.Fatal("pipeline outcome has no score")
	}
	score, err := decimal.NewFromString(*outcome.Score)
	if err != nil {
		t.Fatalf("parse score %q: %v", *outcome.Score, err)
	}
	if score.IsNegative() || score.GreaterThan(decimal.NewFromInt(100)) {
		t.Fatalf("score %s outside [0,100]", score)
	}

	results, err := models.ListValidationResults(ctx, outcome.RunId)
	if err != nil {
		t.Fatalf("list validation results: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no validation results persisted")
	}
	var countResult *models.ValidationResult
	for _, res := range results {
		if res.Tier == models.TierCount {
			countResult = res
		}
	}
	if countResult == nil {
		t.Fatal("no count tier result persisted")
	}
	if countResult.RuleName != "source_count_delta" || countResult.Passed || countResult.Severity != models.SeverityWarning {
		t.Fatalf("count tier result = %+v, want failed warning", countResult)
	}

	alerts := notifier.captured()
	if len(alerts) == 0 {
		t.Fatal("no alert published for below-threshold score")
	}
	if alerts[0].Reason != alerting.ReasonScoreBelowThreshold || alerts[0].EntityType != models.EntityTypeVolunteers {
		t.Fatalf("alert = %+v, want score alert for volunteers", alerts[0])
	}

	// 9) Validate-only anchors a fresh run over persisted state and writes
	// no entity rows.
	validateSummary, err := orch.Execute(ctx, vmssync.PipelineOptions{
		Entities:     []string{models.EntityTypeVolunteers},
		ValidateOnly: true,
		TriggeredBy:  models.SyncTriggeredManual,
	})
	if err != nil {
		t.Fatalf("validate-only execute: %v", err)
	}
	validateOutcome := validateSummary.Entities[models.EntityTypeVolunteers]
	if validateOutcome == nil {
		t.Fatal("no volunteer outcome in validate-only summary")
	}
	if validateOutcome.Status != models.RunStatusCompleted {
		t.Fatalf("validate-only status = %s, want Completed", validateOutcome.Status)
	}
	if validateOutcome.Score == nil {
		t.Fatal("validate-only outcome has no score")
	}
	if err := db.WithContext(ctx).Table("volunteers").Count(&volunteerCount).Error; err != nil {
		t.Fatalf("count volunteers: %v", err)
	}
	if volunteerCount != 4 {
		t.Fatalf("validate-only changed volunteer rows to %d", volunteerCount)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("vms-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("vms-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=vms_sync_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
