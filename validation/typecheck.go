package validation

import (
	"context"
	"fmt"

	"github.com/admiralorbiter/VMS-sub007/models"
)

// TypeChecker verifies format conformance of persisted values: shapes the
// schema cannot express (e-mail, E.164, timestamp sanity, grade codes).
// Enum-typed columns are already constrained by the database and are not
// re-checked here.
type TypeChecker struct{}

func (c *TypeChecker) Tier() models.ValidationTier {
	return models.TierType
}

type typeRule struct {
	name string
	// predicate counts violating rows
	predicate string
	severity  models.Severity
}

const (
	emailShape = "email <> '' AND email NOT LIKE '%_@_%._%'"
	phoneShape = `phone <> '' AND phone NOT REGEXP '^\\+[1-9][0-9]{7,14}$'`
)

// timestampSanity flags values before 1990 or more than a year out.
func timestampSanity(col string) string {
	return fmt.Sprintf("%s IS NOT NULL AND (%s < '1990-01-01' OR %s > DATE_ADD(NOW(), INTERVAL 1 YEAR))", col, col, col)
}

var typeRules = map[string][]typeRule{
	models.EntityTypeSchools: {
		{name: "state_code_shape", predicate: "state <> '' AND CHAR_LENGTH(state) <> 2", severity: models.SeverityWarning},
	},
	models.EntityTypeOrganizations: {
		{name: "website_shape", predicate: "website <> '' AND website NOT LIKE 'http%'", severity: models.SeverityWarning},
	},
	models.EntityTypeVolunteers: {
		{name: "email_format", predicate: emailShape, severity: models.SeverityWarning},
		{name: "phone_e164_format", predicate: phoneShape, severity: models.SeverityWarning},
		{name: "last_activity_at_sanity", predicate: timestampSanity("last_activity_at"), severity: models.SeverityWarning},
	},
	models.EntityTypeAffiliations: {
		{name: "start_date_sanity", predicate: timestampSanity("start_date"), severity: models.SeverityWarning},
		{name: "end_date_sanity", predicate: timestampSanity("end_date"), severity: models.SeverityWarning},
	},
	models.EntityTypeEvents: {
		{name: "starts_at_sanity", predicate: timestampSanity("starts_at"), severity: models.SeverityWarning},
		{name: "ends_at_sanity", predicate: timestampSanity("ends_at"), severity: models.SeverityWarning},
	},
	models.EntityTypeStudents: {
		{name: "grade_format", predicate: `grade <> '' AND grade NOT IN ('K','PK') AND grade NOT REGEXP '^[0-9]{1,2}$'`, severity: models.SeverityWarning},
	},
	models.EntityTypeTeachers: {
		{name: "email_format", predicate: emailShape, severity: models.SeverityWarning},
		{name: "phone_e164_format", predicate: phoneShape, severity: models.SeverityWarning},
	},
	models.EntityTypeParticipations: {
		{name: "delivery_hours_non_negative", predicate: "delivery_hours < 0", severity: models.SeverityError},
	},
}

func (c *TypeChecker) Check(ctx context.Context, snap *Snapshot) ([]models.ValidationResult, error) {
	rules := typeRules[snap.EntityType]
	results := make([]models.ValidationResult, 0, len(rules))
	for _, rule := range rules {
		var violations int64
		if err := snap.DB.Table(snap.Table()).Where(rule.predicate).Count(&violations).Error; err != nil {
			return nil, err
		}
		if violations == 0 {
			results = append(results, result(snap, models.TierType, rule.name, true,
				models.SeverityInfo, "no violations"))
			continue
		}
		results = append(results, result(snap, models.TierType, rule.name, false,
			rule.severity, fmt.Sprintf("%d rows violate %s", violations, rule.name)))
	}
	return results, nil
}
