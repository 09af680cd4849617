package models

import (
	"context"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ImportEntity is what the mapper hands the importer: a fully-formed model
// row identified by its source-side external id.
type ImportEntity interface {
	GetExternalId() string
	UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error)
}

// ImportAction tells the importer what an upsert did (or, in dry-run mode,
// what it would have done).
type ImportAction string

const (
	ImportActionInserted  ImportAction = "inserted"
	ImportActionUpdated   ImportAction = "updated"
	ImportActionUnchanged ImportAction = "unchanged"
)

// Entity type names, grouped by dependency stage. Later stages carry
// foreign keys into earlier ones, so imports are staged in this order.
const (
	EntityTypeSchools        = "schools"
	EntityTypeOrganizations  = "organizations"
	EntityTypeVolunteers     = "volunteers"
	EntityTypeAffiliations   = "affiliations"
	EntityTypeEvents         = "events"
	EntityTypeStudents       = "students"
	EntityTypeTeachers       = "teachers"
	EntityTypeParticipations = "participations"
)

// LinkSpec describes one dependent reference: a nullable FK column paired
// with the business-key column it is resolved from. Imports never fill the
// FK column; the reference resolver does, once the target type is in.
type LinkSpec struct {
	Name            string
	FKColumn        string
	KeyColumn       string
	TargetTable     string
	TargetKeyColumn string
	// Required links with a null FK are findings in the relationship tier.
	// AllowPending downgrades a missing target to an informational pending
	// state (the target may simply not be imported yet).
	Required     bool
	AllowPending bool
}

type entitySchema struct {
	Stage           int
	Table           string
	RequiredColumns []string
	Links           []LinkSpec
}

var entitySchemas = map[string]entitySchema{
	EntityTypeSchools: {
		Stage:           1,
		Table:           "schools",
		RequiredColumns: []string{"external_id", "code", "name"},
	},
	EntityTypeOrganizations: {
		Stage:           1,
		Table:           "organizations",
		RequiredColumns: []string{"external_id", "name"},
	},
	EntityTypeVolunteers: {
		Stage:           1,
		Table:           "volunteers",
		RequiredColumns: []string{"external_id", "first_name", "last_name", "email"},
	},
	EntityTypeAffiliations: {
		Stage:           2,
		Table:           "affiliations",
		RequiredColumns: []string{"external_id", "volunteer_external_id", "organization_external_id"},
		Links: []LinkSpec{
			{Name: "volunteer", FKColumn: "volunteer_id", KeyColumn: "volunteer_external_id",
				TargetTable: "volunteers", TargetKeyColumn: "external_id", Required: true, AllowPending: true},
			{Name: "organization", FKColumn: "organization_id", KeyColumn: "organization_external_id",
				TargetTable: "organizations", TargetKeyColumn: "external_id", Required: true, AllowPending: true},
		},
	},
	EntityTypeEvents: {
		Stage:           2,
		Table:           "events",
		RequiredColumns: []string{"external_id", "title", "starts_at"},
		Links: []LinkSpec{
			// Virtual and district-wide events carry no school at all.
			{Name: "school", FKColumn: "school_id", KeyColumn: "school_code",
				TargetTable: "schools", TargetKeyColumn: "code", Required: false, AllowPending: true},
		},
	},
	EntityTypeStudents: {
		Stage:           2,
		Table:           "students",
		RequiredColumns: []string{"external_id", "first_name", "last_name", "school_code"},
		Links: []LinkSpec{
			{Name: "school", FKColumn: "school_id", KeyColumn: "school_code",
				TargetTable: "schools", TargetKeyColumn: "code", Required: true, AllowPending: true},
		},
	},
	EntityTypeTeachers: {
		Stage:           2,
		Table:           "teachers",
		RequiredColumns: []string{"external_id", "first_name", "last_name", "school_code"},
		Links: []LinkSpec{
			{Name: "school", FKColumn: "school_id", KeyColumn: "school_code",
				TargetTable: "schools", TargetKeyColumn: "code", Required: true, AllowPending: true},
		},
	},
	EntityTypeParticipations: {
		Stage:           3,
		Table:           "participations",
		RequiredColumns: []string{"external_id", "volunteer_external_id", "event_external_id", "status"},
		Links: []LinkSpec{
			{Name: "volunteer", FKColumn: "volunteer_id", KeyColumn: "volunteer_external_id",
				TargetTable: "volunteers", TargetKeyColumn: "external_id", Required: true, AllowPending: true},
			{Name: "event", FKColumn: "event_id", KeyColumn: "event_external_id",
				TargetTable: "events", TargetKeyColumn: "external_id", Required: true, AllowPending: true},
		},
	},
}

// AllEntityTypes returns every importable entity type in stage order.
func AllEntityTypes() []string {
	return []string{
		EntityTypeSchools,
		EntityTypeOrganizations,
		EntityTypeVolunteers,
		EntityTypeAffiliations,
		EntityTypeEvents,
		EntityTypeStudents,
		EntityTypeTeachers,
		EntityTypeParticipations,
	}
}

func KnownEntityType(entityType string) bool {
	_, ok := entitySchemas[entityType]
	return ok
}

func EntityStage(entityType string) int {
	return entitySchemas[entityType].Stage
}

func EntityTable(entityType string) string {
	return entitySchemas[entityType].Table
}

func EntityLinks(entityType string) []LinkSpec {
	return entitySchemas[entityType].Links
}

func RequiredColumns(entityType string) []string {
	return entitySchemas[entityType].RequiredColumns
}

// MaxStage is the highest dependency stage in use.
func MaxStage() int {
	max := 0
	for _, s := range entitySchemas {
		if s.Stage > max {
			max = s.Stage
		}
	}
	return max
}

// upsertByExternalId decides the write path for an imported entity: insert
// when the external id is new, update when a tracked column changed,
// unchanged otherwise so re-imports of identical source data never rewrite
// rows. FK columns are deliberately absent from the tracked column maps;
// the resolver owns them. Returns the matched row so applyImport can diff
// link keys.
func upsertByExternalId[T any](ctx context.Context, tx *gorm.DB, externalId string, incoming *T, values func(*T) map[string]interface{}) (ImportAction, *T, error) {
	var existing T
	err := tx.WithContext(ctx).Where("external_id = ?", externalId).First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ImportActionInserted, nil, nil
		}
		return "", nil, err
	}
	if importValuesEqual(values(&existing), values(incoming)) {
		return ImportActionUnchanged, &existing, nil
	}
	return ImportActionUpdated, &existing, nil
}

// applyImport executes the action decided by upsertByExternalId. Split from
// the decision so dry-run shares the exact code path minus the writes.
func applyImport[T any](ctx context.Context, tx *gorm.DB, entityType string, externalId string, incoming *T, values func(*T) map[string]interface{}, dryRun bool) (ImportAction, error) {
	action, existing, err := upsertByExternalId(ctx, tx, externalId, incoming, values)
	if err != nil {
		return "", err
	}
	if dryRun || action == ImportActionUnchanged {
		return action, nil
	}
	if existing == nil {
		return action, tx.WithContext(ctx).Create(incoming).Error
	}
	updates := values(incoming)
	updates["last_synced_at"] = time.Now().UTC()
	// A changed business key severs the old link; the next resolve pass
	// re-links against the new target.
	existingValues := values(existing)
	for _, link := range EntityLinks(entityType) {
		if !importValueEqual(existingValues[link.KeyColumn], updates[link.KeyColumn]) {
			updates[link.FKColumn] = nil
		}
	}
	var model T
	return action, tx.WithContext(ctx).Model(&model).
		Where("external_id = ?", externalId).
		Updates(updates).Error
}

// importValuesEqual compares two tracked-column maps. Times are compared at
// millisecond precision in UTC (the column precision) and decimals by value,
// since driver round-trips change exponent and location without changing
// meaning.
func importValuesEqual(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			return false
		}
		if !importValueEqual(av, bv) {
			return false
		}
	}
	return true
}

func importValueEqual(a, b interface{}) bool {
	switch at := a.(type) {
	case time.Time:
		bt, ok := b.(time.Time)
		return ok && timesEqual(&at, &bt)
	case *time.Time:
		bt, ok := b.(*time.Time)
		return ok && timesEqual(at, bt)
	case decimal.Decimal:
		bd, ok := b.(decimal.Decimal)
		return ok && at.Equal(bd)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UTC().Truncate(time.Millisecond).Equal(b.UTC().Truncate(time.Millisecond))
}
