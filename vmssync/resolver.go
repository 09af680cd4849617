package vmssync

import (
	"context"
	"fmt"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Resolver is Phase 2: it fills foreign keys for rows whose stored business
// keys now have an imported target. Each pass links what it can and leaves
// the rest null, so re-running after more imports converges without ever
// touching an already-linked row.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// targetReader batch-loads target row ids by business key for one link. A
// zero id means the key has no imported target yet.
type targetReader struct {
	db        *gorm.DB
	table     string
	keyColumn string
}

func (r *targetReader) getTargetIds(ctx context.Context, keys []string) []*dataloader.Result[uint] {
	type row struct {
		ID  uint   `gorm:"column:id"`
		Key string `gorm:"column:link_key"`
	}
	var rows []row
	err := r.db.WithContext(ctx).Table(r.table).
		Select(fmt.Sprintf("id, %s AS link_key", r.keyColumn)).
		Where(fmt.Sprintf("%s IN ?", r.keyColumn), keys).
		Scan(&rows).Error
	if err != nil {
		results := make([]*dataloader.Result[uint], len(keys))
		for i := range results {
			results[i] = &dataloader.Result[uint]{Error: err}
		}
		return results
	}

	byKey := make(map[string]uint, len(rows))
	for _, matched := range rows {
		byKey[matched.Key] = matched.ID
	}
	results := make([]*dataloader.Result[uint], 0, len(keys))
	for _, key := range keys {
		results = append(results, &dataloader.Result[uint]{Data: byKey[key]})
	}
	return results
}

// Resolve links every pending foreign key of one entity type. Unresolved
// counts link instances still waiting for a target, which is expected data
// flow, not an error.
func (r *Resolver) Resolve(ctx context.Context, entityType string) (*ResolveSummary, error) {
	logger := config.GetLogger()
	if !models.KnownEntityType(entityType) {
		return nil, fmt.Errorf("unknown entity type %s", entityType)
	}

	db := config.GetDB()
	summary := &ResolveSummary{EntityType: entityType}
	for _, link := range models.EntityLinks(entityType) {
		resolved, unresolved, err := r.resolveLink(ctx, db, entityType, link)
		if err != nil {
			config.LogError(logger, moduleName, "Resolve", "Link resolution failed", link.Name, err)
			return summary, err
		}
		summary.Resolved += resolved
		summary.Unresolved += unresolved
	}

	logger.WithFields(logrus.Fields{
		"module":      moduleName,
		"entity_type": entityType,
		"resolved":    summary.Resolved,
		"unresolved":  summary.Unresolved,
	}).Info("reference resolution finished")
	return summary, nil
}

func (r *Resolver) resolveLink(ctx context.Context, db *gorm.DB, entityType string, link models.LinkSpec) (int, int, error) {
	table := models.EntityTable(entityType)

	type pendingRow struct {
		ID  uint   `gorm:"column:id"`
		Key string `gorm:"column:link_key"`
	}
	var pending []pendingRow
	err := db.WithContext(ctx).Table(table).
		Select(fmt.Sprintf("id, %s AS link_key", link.KeyColumn)).
		Where(fmt.Sprintf("%s IS NULL AND %s IS NOT NULL AND %s <> ''", link.FKColumn, link.KeyColumn, link.KeyColumn)).
		Scan(&pending).Error
	if err != nil {
		return 0, 0, err
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	idsByKey := make(map[string][]uint)
	keys := make([]string, 0, len(pending))
	for _, p := range pending {
		if _, seen := idsByKey[p.Key]; !seen {
			keys = append(keys, p.Key)
		}
		idsByKey[p.Key] = append(idsByKey[p.Key], p.ID)
	}

	// The loader dedupes and chunks target lookups, so a pass over many
	// pending rows costs a handful of IN queries.
	reader := &targetReader{db: db, table: link.TargetTable, keyColumn: link.TargetKeyColumn}
	loader := dataloader.NewBatchedLoader(reader.getTargetIds,
		dataloader.WithWait[string, uint](time.Millisecond),
		dataloader.WithBatchCapacity[string, uint](200))

	targetIds, errs := loader.LoadMany(ctx, keys)()
	for _, lErr := range errs {
		if lErr != nil {
			return 0, 0, lErr
		}
	}

	resolved, unresolved := 0, 0
	for i, key := range keys {
		targetId := targetIds[i]
		if targetId == 0 {
			unresolved += len(idsByKey[key])
			continue
		}
		// One set-based update links every pending row holding this key.
		res := db.WithContext(ctx).Table(table).
			Where("id IN ?", idsByKey[key]).
			Update(link.FKColumn, targetId)
		if res.Error != nil {
			return resolved, unresolved, res.Error
		}
		resolved += int(res.RowsAffected)
	}
	return resolved, unresolved, nil
}

// PendingLinkCount reports how many link instances of an entity type still
// lack a resolved target; validation and run bookkeeping both read it.
func PendingLinkCount(ctx context.Context, entityType string) (int, error) {
	db := config.GetDB()
	table := models.EntityTable(entityType)
	total := 0
	for _, link := range models.EntityLinks(entityType) {
		var count int64
		err := db.WithContext(ctx).Table(table).
			Where(fmt.Sprintf("%s IS NULL AND %s IS NOT NULL AND %s <> ''", link.FKColumn, link.KeyColumn, link.KeyColumn)).
			Count(&count).Error
		if err != nil {
			return 0, err
		}
		total += int(count)
	}
	return total, nil
}
