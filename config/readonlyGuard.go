package config

import (
	"context"
	"errors"

	"github.com/admiralorbiter/VMS-sub007/appctx"
	"gorm.io/gorm"
)

// ErrReadonlyWrite is returned for any create/update/delete issued under a
// validation context. Validation passes must never mutate entity state.
var ErrReadonlyWrite = errors.New("write rejected: context is readonly (validation pass)")

// ReadonlyGuardPlugin rejects writes issued under a context flagged readonly.
//
// NOTE:
// - This does NOT apply to Raw SQL. Validation code must not issue raw writes.
type ReadonlyGuardPlugin struct{}

func NewReadonlyGuardPlugin() *ReadonlyGuardPlugin { return &ReadonlyGuardPlugin{} }

func (p *ReadonlyGuardPlugin) Name() string { return "readonly_guard" }

func (p *ReadonlyGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("readonly_guard:create", readonlyGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("readonly_guard:update", readonlyGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("readonly_guard:delete", readonlyGuardCallback); err != nil {
		return err
	}
	return nil
}

func readonlyGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if isReadonlyContext(ctx) {
		db.AddError(ErrReadonlyWrite)
	}
}

func isReadonlyContext(ctx context.Context) bool {
	v, ok := appctx.GetBool(ctx, appctx.ContextKeyReadonly)
	return ok && v
}
