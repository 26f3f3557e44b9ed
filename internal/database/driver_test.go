package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range []string{"postgres", "mysql", "mongo", "sqlite"} {
		d, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}

	_, err := New("oracle")
	assert.ErrorContains(t, err, "unsupported database type: oracle")
	assert.Equal(t, []string{"mongo", "mysql", "postgres", "sqlite"}, Names())
}

func TestSQLiteDriver_ExecuteTx(t *testing.T) {
	ctx := context.Background()
	d := &SQLiteDriver{}
	require.NoError(t, d.Connect(":memory:"))
	t.Cleanup(func() { d.Close() })

	require.NoError(t, d.ExecuteTx(ctx, func(tx interface{}) error {
		_, err := tx.(*sql.Tx).ExecContext(ctx, "CREATE TABLE t (v INTEGER)")
		return err
	}))

	boom := errors.New("boom")
	err := d.ExecuteTx(ctx, func(tx interface{}) error {
		if _, err := tx.(*sql.Tx).ExecContext(ctx, "INSERT INTO t (v) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, d.ExecuteTx(ctx, func(tx interface{}) error {
		_, err := tx.(*sql.Tx).ExecContext(ctx, "INSERT INTO t (v) VALUES (2)")
		return err
	}))

	var count int
	require.NoError(t, d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 1, count, "rolled back insert must not persist")

	require.NoError(t, d.Reset(ctx, "t"))
	_, err = d.db.ExecContext(ctx, "SELECT COUNT(*) FROM t")
	assert.Error(t, err)
}

func TestExecuteTx_NotConnected(t *testing.T) {
	noop := func(interface{}) error { return nil }
	assert.Error(t, (&SQLiteDriver{}).ExecuteTx(context.Background(), noop))
	assert.Error(t, (&PostgresDriver{}).ExecuteTx(context.Background(), noop))
	assert.Error(t, (&MongoDriver{}).ExecuteTx(context.Background(), noop))
}
