package persist

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

type Persistable interface {
	Persist(tx Transaction) error
}

type Transaction interface {
	Insert(list ...interface{}) error
}

type InsertFunc func(...interface{}) error

func (f InsertFunc) Insert(list ...interface{}) error {
	return f(list...)
}

// InsertIgnoringDupes turns unique constraint violations into no-ops, so that
// saving the same rows twice leaves a single copy behind.
func InsertIgnoringDupes(t Transaction) Transaction {
	return InsertFunc(func(list ...interface{}) error {
		for _, item := range list {
			if err := t.Insert(item); err != nil && !IsDuplicate(err) {
				return err
			}
		}
		return nil
	})
}

func IsDuplicate(err error) bool {
	var sqliteError sqlite3.Error
	if errors.As(err, &sqliteError) {
		return errors.Is(sqliteError.ExtendedCode, sqlite3.ErrConstraintUnique) ||
			errors.Is(sqliteError.ExtendedCode, sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}
