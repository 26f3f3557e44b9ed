package database

import (
	"context"
	"fmt"
	"sort"
)

// DatabaseDriver is a storage backend a dataset can be loaded into. The value
// handed to ExecuteTx's callback is the backend's native transaction handle:
// pgx.Tx, *sql.Tx or mongo.SessionContext.
type DatabaseDriver interface {
	Name() string
	Connect(dsn string) error
	Close() error
	// Reset drops the named tables or collections if they exist.
	Reset(ctx context.Context, tables ...string) error
	ExecuteTx(ctx context.Context, txFunc func(interface{}) error) error
}

var drivers = map[string]func() DatabaseDriver{
	"postgres": func() DatabaseDriver { return &PostgresDriver{} },
	"mysql":    func() DatabaseDriver { return &MySQLDriver{} },
	"mongo":    func() DatabaseDriver { return &MongoDriver{} },
	"sqlite":   func() DatabaseDriver { return &SQLiteDriver{} },
}

// New returns an unconnected driver by name.
func New(name string) (DatabaseDriver, error) {
	newDriver, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s (want one of %v)", name, Names())
	}
	return newDriver(), nil
}

// Names lists the supported driver names in sorted order.
func Names() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
