package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type PostgresDriver struct {
	conn *pgx.Conn
}

func (pd *PostgresDriver) Name() string { return "postgres" }

func (pd *PostgresDriver) Connect(dsn string) error {
	conn, err := pgx.Connect(context.Background(), dsn)
	if err != nil {
		return err
	}
	pd.conn = conn
	return nil
}

func (pd *PostgresDriver) Close() error {
	if pd.conn == nil {
		return nil
	}
	return pd.conn.Close(context.Background())
}

func (pd *PostgresDriver) Reset(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		_, err := pd.conn.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize()+" CASCADE")
		if err != nil {
			return err
		}
	}
	return nil
}

func (pd *PostgresDriver) ExecuteTx(ctx context.Context, txFunc func(interface{}) error) (err error) {
	if pd.conn == nil {
		return errors.New("postgres: not connected")
	}
	tx, err := pd.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p) // re-panic after rollback
		} else if err != nil {
			_ = tx.Rollback(ctx) // err is non-nil; don't change it
		} else {
			err = tx.Commit(ctx) // err is nil; if Commit returns error, update err
		}
	}()

	err = txFunc(tx)
	return err
}
