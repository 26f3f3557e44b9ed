package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqlDriver carries the database/sql plumbing shared by MySQL and SQLite.
type sqlDriver struct {
	driverName string
	db         *sql.DB
}

func (sd *sqlDriver) connect(dsn string) error {
	db, err := sql.Open(sd.driverName, dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return err
	}
	sd.db = db
	return nil
}

func (sd *sqlDriver) Close() error {
	if sd.db == nil {
		return nil
	}
	return sd.db.Close()
}

func (sd *sqlDriver) Reset(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := sd.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return err
		}
	}
	return nil
}

func (sd *sqlDriver) ExecuteTx(ctx context.Context, txFunc func(interface{}) error) (err error) {
	if sd.db == nil {
		return fmt.Errorf("%s: not connected", sd.driverName)
	}
	tx, err := sd.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
		} else {
			err = tx.Commit()
		}
	}()

	err = txFunc(tx)
	return err
}
