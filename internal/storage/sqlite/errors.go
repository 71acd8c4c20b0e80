package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Oxyrus/gallery/internal/storage"
)

// wrapWriteError maps unique constraint violations to storage.ErrConflict and
// wraps everything else with the operation name.
func wrapWriteError(op string, err error) error {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("sqlite: %s: %w", op, storage.ErrConflict)
		}
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

// checkAffected turns a zero-row write into storage.ErrNotFound.
func checkAffected(op string, res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: %s: %w", op, err)
	}
	if rowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
