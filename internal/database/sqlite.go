package database

import (
	_ "modernc.org/sqlite"
)

// SQLiteDriver writes to a local SQLite file, or memory with a ":memory:" DSN.
type SQLiteDriver struct {
	sqlDriver
}

func (sd *SQLiteDriver) Name() string { return "sqlite" }

func (sd *SQLiteDriver) Connect(dsn string) error {
	sd.driverName = "sqlite"
	if err := sd.connect(dsn); err != nil {
		return err
	}
	// A single connection keeps ":memory:" databases alive across transactions.
	sd.db.SetMaxOpenConns(1)
	return nil
}
