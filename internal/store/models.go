package store

import (
	"database/sql"
	"time"
)

func yearToNull(y *int) sql.NullInt64 {
	if y == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*y), Valid: true}
}

func yearFromNull(ns sql.NullInt64) *int {
	if !ns.Valid {
		return nil
	}
	y := int(ns.Int64)
	return &y
}

// dateKey renders a calendar day as the TEXT value stored in sent_date columns.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
