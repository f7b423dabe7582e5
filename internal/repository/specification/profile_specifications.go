package specification

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ByUID struct {
	UID string
}

func (s ByUID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("uid = ?", s.UID)
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
type ForUpdate struct{}

func (s ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
