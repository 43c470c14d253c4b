// Package donations manages projects, donations to them, and the callbacks
// that keep each project's raised total in sync with its donations.
package donations

import (
	"fmt"
	"reflect"

	"giveback/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	createSignal = "giveback:donation_totals_after_create"
	updateSignal = "giveback:donation_totals_after_update"
	deleteSignal = "giveback:donation_totals_after_delete"
)

// raisedExpr recomputes projects.amount_raised from the donations table.
const raisedExpr = "(SELECT COALESCE(SUM(donations.amount), 0) FROM donations WHERE donations.project_id = projects.id)"

// RegisterSignals hooks the donation totals into db's create, update and
// delete callbacks. Call it once, at startup, before serving requests.
func RegisterSignals(db *gorm.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	s := &totals{log: log.Named("donations")}
	if err := db.Callback().Create().After("gorm:create").Register(createSignal, s.afterWrite); err != nil {
		return fmt.Errorf("register %s: %w", createSignal, err)
	}
	if err := db.Callback().Update().After("gorm:update").Register(updateSignal, s.afterUpdate); err != nil {
		return fmt.Errorf("register %s: %w", updateSignal, err)
	}
	if err := db.Callback().Delete().After("gorm:delete").Register(deleteSignal, s.afterWrite); err != nil {
		return fmt.Errorf("register %s: %w", deleteSignal, err)
	}
	log.Info("donation signals registered")
	return nil
}

type totals struct {
	log *zap.Logger
}

// afterWrite runs inside the statement's transaction, so a failed recompute
// rolls the donation write back with it.
func (s *totals) afterWrite(tx *gorm.DB) {
	if !isDonationWrite(tx) {
		return
	}
	s.recompute(tx, touchedProjects(tx))
}

// afterUpdate recomputes every project: an update may move a donation away
// from a project the statement no longer names.
func (s *totals) afterUpdate(tx *gorm.DB) {
	if !isDonationWrite(tx) {
		return
	}
	s.recompute(tx, nil)
}

func isDonationWrite(tx *gorm.DB) bool {
	if tx.Error != nil || tx.RowsAffected == 0 {
		return false
	}
	return tx.Statement.Schema != nil && tx.Statement.Schema.Table == "donations"
}

// recompute refreshes amount_raised for ids, or for every project when ids is empty.
func (s *totals) recompute(tx *gorm.DB, ids []uint) {
	q := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).Model(&models.Project{})
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	} else {
		q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := q.UpdateColumn("amount_raised", gorm.Expr(raisedExpr))
	if res.Error != nil {
		s.log.Error("failed to update project totals", zap.Uints("project_ids", ids), zap.Error(res.Error))
		_ = tx.AddError(fmt.Errorf("update project totals: %w", res.Error))
		return
	}
	s.log.Debug("project totals updated",
		zap.Uints("project_ids", ids),
		zap.Int64("projects", res.RowsAffected),
	)
}

// touchedProjects collects the non-zero ProjectID values of the statement's
// model, whether it is a single donation or a slice of them.
func touchedProjects(tx *gorm.DB) []uint {
	field := tx.Statement.Schema.LookUpField("ProjectID")
	if field == nil {
		return nil
	}
	ctx := tx.Statement.Context
	seen := map[uint]bool{}
	var ids []uint
	collect := func(rv reflect.Value) {
		rv = reflect.Indirect(rv)
		if rv.Kind() != reflect.Struct {
			return
		}
		v, zero := field.ValueOf(ctx, rv)
		if zero {
			return
		}
		if id, ok := v.(uint); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	rv := tx.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			collect(rv.Index(i))
		}
	default:
		collect(rv)
	}
	return ids
}
