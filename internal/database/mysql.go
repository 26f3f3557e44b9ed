package database

import (
	_ "github.com/go-sql-driver/mysql"
)

type MySQLDriver struct {
	sqlDriver
}

func (md *MySQLDriver) Name() string { return "mysql" }

func (md *MySQLDriver) Connect(dsn string) error {
	md.driverName = "mysql"
	return md.connect(dsn)
}
