package memory

import "database/sql"

// DB exposes the internal *sql.DB for test helpers in memory_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// FailWrites makes every exec and transaction start return err.
// Passing nil restores normal behavior.
func (s *Store) FailWrites(err error) {
	if err == nil {
		s.hooks = storeHooks{}
		return
	}
	s.hooks.exec = func(execer, string, ...any) (sql.Result, error) { return nil, err }
	s.hooks.beginTx = func(*sql.DB) (*sql.Tx, error) { return nil, err }
}
