package validation

import (
	"strings"
	"testing"

	"github.com/admiralorbiter/VMS-sub007/models"
)

func finding(tier models.ValidationTier, severity models.Severity, passed bool) models.ValidationResult {
	return models.ValidationResult{Tier: tier, Severity: severity, Passed: passed}
}

func TestScore_EmptyResultSetIsPerfect(t *testing.T) {
	if got := Score(nil); got.StringFixed(2) != "100.00" {
		t.Fatalf("empty score = %s, want 100.00", got)
	}
	if got := Score([]models.ValidationResult{}); got.StringFixed(2) != "100.00" {
		t.Fatalf("empty slice score = %s, want 100.00", got)
	}
}

func TestScore_AllPassed(t *testing.T) {
	results := []models.ValidationResult{
		finding(models.TierCount, models.SeverityInfo, true),
		finding(models.TierType, models.SeverityError, true),
		finding(models.TierBusinessRule, models.SeverityCritical, true),
	}
	if got := Score(results).StringFixed(2); got != "100.00" {
		t.Fatalf("score = %s", got)
	}
}

func TestScore_WeightsBySeverity(t *testing.T) {
	// One failed critical against one passed info: 1 of 11 weight passed.
	results := []models.ValidationResult{
		finding(models.TierBusinessRule, models.SeverityCritical, false),
		finding(models.TierCount, models.SeverityInfo, true),
	}
	if got := Score(results).StringFixed(2); got != "9.09" {
		t.Fatalf("score = %s, want 9.09", got)
	}

	// The same shape with severities swapped barely dents the score.
	results = []models.ValidationResult{
		finding(models.TierBusinessRule, models.SeverityInfo, false),
		finding(models.TierCount, models.SeverityCritical, true),
	}
	if got := Score(results).StringFixed(2); got != "90.91" {
		t.Fatalf("score = %s, want 90.91", got)
	}
}

func TestScore_RoundsToTwoPlaces(t *testing.T) {
	// 15 of 17 weight passed: 88.235... rounds half-up to 88.24.
	results := []models.ValidationResult{
		finding(models.TierCompleteness, models.SeverityWarning, false),
		finding(models.TierType, models.SeverityError, true),
		finding(models.TierType, models.SeverityError, true),
		finding(models.TierRelationship, models.SeverityError, true),
	}
	if got := Score(results).StringFixed(2); got != "88.24" {
		t.Fatalf("score = %s, want 88.24", got)
	}
}

func TestScore_DeterministicAcrossOrder(t *testing.T) {
	results := []models.ValidationResult{
		finding(models.TierCount, models.SeverityInfo, true),
		finding(models.TierCompleteness, models.SeverityWarning, false),
		finding(models.TierType, models.SeverityError, true),
		finding(models.TierRelationship, models.SeverityError, false),
		finding(models.TierBusinessRule, models.SeverityCritical, true),
	}
	want := Score(results)
	reversed := make([]models.ValidationResult, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		reversed = append(reversed, results[i])
	}
	if got := Score(reversed); !got.Equal(want) {
		t.Fatalf("order changed the score: %s vs %s", got, want)
	}
}

func TestBreakdown_CountsPerTier(t *testing.T) {
	results := []models.ValidationResult{
		finding(models.TierCount, models.SeverityInfo, true),
		finding(models.TierType, models.SeverityWarning, false),
		finding(models.TierType, models.SeverityWarning, true),
		finding(models.TierType, models.SeverityError, true),
	}
	got := Breakdown(results)
	if got[models.TierCount].Total != 1 || got[models.TierCount].Passed != 1 {
		t.Fatalf("count tier = %+v", got[models.TierCount])
	}
	if got[models.TierType].Total != 3 || got[models.TierType].Passed != 2 {
		t.Fatalf("type tier = %+v", got[models.TierType])
	}
	if _, present := got[models.TierBusinessRule]; present {
		t.Fatalf("unexpected tier in breakdown")
	}
}

func TestCountFinding_ExpectedDeltaPasses(t *testing.T) {
	// The documented events case: the source holds 4616 sessions but only
	// 1011 survive the import filter, a delta operators accepted as 3605.
	passed, severity, details := countFinding(4616, 1011, 3605, 25)
	if !passed || severity != models.SeverityInfo {
		t.Fatalf("passed=%v severity=%s", passed, severity)
	}
	if !strings.Contains(details, "discrepancy 3605") {
		t.Fatalf("details = %s", details)
	}
}

func TestCountFinding_GradesDrift(t *testing.T) {
	cases := []struct {
		name     string
		source   int64
		local    int64
		expected int64
		passed   bool
		severity models.Severity
	}{
		{"exact match", 1000, 1000, 0, true, models.SeverityInfo},
		{"within warn band", 1000, 990, 0, false, models.SeverityWarning},
		{"beyond warn band", 1000, 900, 0, false, models.SeverityError},
		{"local exceeds source", 990, 1000, 0, false, models.SeverityWarning},
		{"drift from expected delta", 4616, 1031, 3605, false, models.SeverityWarning},
	}
	for _, tc := range cases {
		passed, severity, _ := countFinding(tc.source, tc.local, tc.expected, 25)
		if passed != tc.passed || severity != tc.severity {
			t.Fatalf("%s: passed=%v severity=%s, want %v/%s", tc.name, passed, severity, tc.passed, tc.severity)
		}
	}
}

func TestCountFinding_SourceUnavailable(t *testing.T) {
	passed, severity, details := countFinding(-1, 42, 0, 25)
	if !passed || severity != models.SeverityInfo {
		t.Fatalf("passed=%v severity=%s", passed, severity)
	}
	if !strings.Contains(details, "source count unavailable") {
		t.Fatalf("details = %s", details)
	}
}
