package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockForUpdate adds a FOR UPDATE clause so that rows read inside a
// transaction are held until commit. Guards against concurrent stock
// decrements and debt increases racing on the same row. SQLite locks
// the whole database per write transaction, so the clause is skipped
// there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
