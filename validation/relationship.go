package validation

import (
	"context"
	"fmt"

	"github.com/admiralorbiter/VMS-sub007/models"
)

// RelationshipChecker verifies referential integrity: every filled FK must
// point at an existing target, and required links must either be filled or
// be explicitly allowed to stay pending until their target type imports.
type RelationshipChecker struct{}

func (c *RelationshipChecker) Tier() models.ValidationTier {
	return models.TierRelationship
}

func (c *RelationshipChecker) Check(ctx context.Context, snap *Snapshot) ([]models.ValidationResult, error) {
	links := models.EntityLinks(snap.EntityType)
	results := make([]models.ValidationResult, 0, len(links)*2)
	table := snap.Table()

	for _, link := range links {
		// A filled FK with no target row means something deleted the target
		// out from under us; the resolver never writes dangling ids.
		var orphans int64
		err := snap.DB.Table(table+" AS t").
			Joins(fmt.Sprintf("LEFT JOIN %s AS g ON t.%s = g.id", link.TargetTable, link.FKColumn)).
			Where(fmt.Sprintf("t.%s IS NOT NULL AND g.id IS NULL", link.FKColumn)).
			Count(&orphans).Error
		if err != nil {
			return nil, err
		}
		if orphans == 0 {
			results = append(results, result(snap, models.TierRelationship,
				"orphan_"+link.Name, true, models.SeverityInfo, "no orphaned references"))
		} else {
			results = append(results, result(snap, models.TierRelationship,
				"orphan_"+link.Name, false, models.SeverityError,
				fmt.Sprintf("%d rows reference a missing %s", orphans, link.Name)))
		}

		var pending int64
		err = snap.DB.Table(table).
			Where(fmt.Sprintf("%s IS NULL AND %s IS NOT NULL AND %s <> ''", link.FKColumn, link.KeyColumn, link.KeyColumn)).
			Count(&pending).Error
		if err != nil {
			return nil, err
		}
		switch {
		case pending == 0:
			results = append(results, result(snap, models.TierRelationship,
				"pending_links_"+link.Name, true, models.SeverityInfo, "all references resolved"))
		case link.AllowPending || !link.Required:
			// The target type may simply not be imported yet; the next
			// resolve pass converges.
			results = append(results, result(snap, models.TierRelationship,
				"pending_links_"+link.Name, true, models.SeverityInfo,
				fmt.Sprintf("%d rows pending %s linkage", pending, link.Name)))
		default:
			results = append(results, result(snap, models.TierRelationship,
				"pending_links_"+link.Name, false, models.SeverityError,
				fmt.Sprintf("%d rows missing required %s reference", pending, link.Name)))
		}
	}
	return results, nil
}
