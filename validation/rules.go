package validation

import (
	"context"
	"fmt"

	"github.com/admiralorbiter/VMS-sub007/models"
)

// BusinessRule is one named domain predicate over persisted rows. New checks
// register as entries here, not as new checker types.
type BusinessRule struct {
	Name       string
	EntityType string
	Severity   models.Severity
	// Violations counts rows breaking the rule through the snapshot's
	// readonly handle.
	Violations func(ctx context.Context, snap *Snapshot) (int64, error)
}

var businessRules = defaultBusinessRules()

// RegisterBusinessRule adds a rule. Call during startup, before validation
// passes run; the registry is not synchronized.
func RegisterBusinessRule(rule BusinessRule) {
	businessRules = append(businessRules, rule)
}

func rulesFor(entityType string) []BusinessRule {
	out := make([]BusinessRule, 0, 4)
	for _, rule := range businessRules {
		if rule.EntityType == entityType {
			out = append(out, rule)
		}
	}
	return out
}

func defaultBusinessRules() []BusinessRule {
	return []BusinessRule{
		{
			Name:       "completed_events_final_participation",
			EntityType: models.EntityTypeParticipations,
			Severity:   models.SeverityError,
			Violations: func(ctx context.Context, snap *Snapshot) (int64, error) {
				var n int64
				err := snap.DB.Table("participations AS p").
					Joins("JOIN events AS e ON p.event_id = e.id").
					Where("e.status = ? AND p.status IN ?",
						models.EventStatusCompleted, models.PreCompletionStatuses()).
					Count(&n).Error
				return n, err
			},
		},
		{
			Name:       "participation_hours_within_day",
			EntityType: models.EntityTypeParticipations,
			Severity:   models.SeverityWarning,
			Violations: func(ctx context.Context, snap *Snapshot) (int64, error) {
				var n int64
				err := snap.DB.Table("participations").
					Where("delivery_hours > 24").
					Count(&n).Error
				return n, err
			},
		},
		{
			Name:       "event_end_after_start",
			EntityType: models.EntityTypeEvents,
			Severity:   models.SeverityError,
			Violations: func(ctx context.Context, snap *Snapshot) (int64, error) {
				var n int64
				err := snap.DB.Table("events").
					Where("starts_at IS NOT NULL AND ends_at IS NOT NULL AND ends_at < starts_at").
					Count(&n).Error
				return n, err
			},
		},
		{
			Name:       "completed_event_not_in_future",
			EntityType: models.EntityTypeEvents,
			Severity:   models.SeverityWarning,
			Violations: func(ctx context.Context, snap *Snapshot) (int64, error) {
				var n int64
				err := snap.DB.Table("events").
					Where("status = ? AND starts_at IS NOT NULL AND starts_at > NOW()", models.EventStatusCompleted).
					Count(&n).Error
				return n, err
			},
		},
		{
			Name:       "affiliation_dates_ordered",
			EntityType: models.EntityTypeAffiliations,
			Severity:   models.SeverityWarning,
			Violations: func(ctx context.Context, snap *Snapshot) (int64, error) {
				var n int64
				err := snap.DB.Table("affiliations").
					Where("start_date IS NOT NULL AND end_date IS NOT NULL AND end_date < start_date").
					Count(&n).Error
				return n, err
			},
		},
		{
			Name:       "single_primary_affiliation",
			EntityType: models.EntityTypeAffiliations,
			Severity:   models.SeverityWarning,
			Violations: func(ctx context.Context, snap *Snapshot) (int64, error) {
				var n int64
				err := snap.DB.Raw(`SELECT COUNT(*) FROM (
					SELECT volunteer_id FROM affiliations
					WHERE is_primary = true AND volunteer_id IS NOT NULL
					GROUP BY volunteer_id HAVING COUNT(*) > 1) dup`).Scan(&n).Error
				return n, err
			},
		},
	}
}

// BusinessRuleChecker evaluates every registered rule bound to the
// snapshot's entity type.
type BusinessRuleChecker struct{}

func (c *BusinessRuleChecker) Tier() models.ValidationTier {
	return models.TierBusinessRule
}

func (c *BusinessRuleChecker) Check(ctx context.Context, snap *Snapshot) ([]models.ValidationResult, error) {
	rules := rulesFor(snap.EntityType)
	results := make([]models.ValidationResult, 0, len(rules))
	for _, rule := range rules {
		violations, err := rule.Violations(ctx, snap)
		if err != nil {
			return nil, err
		}
		if violations == 0 {
			results = append(results, result(snap, models.TierBusinessRule,
				rule.Name, true, models.SeverityInfo, "no violations"))
			continue
		}
		results = append(results, result(snap, models.TierBusinessRule,
			rule.Name, false, rule.Severity,
			fmt.Sprintf("%d rows violate %s", violations, rule.Name)))
	}
	return results, nil
}
