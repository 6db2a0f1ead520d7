// Package mysql provides the MySQL client and dialect. A MySQL database is
// introspected as one schema.
package mysql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/prisma/dml"
	"github.com/prisma/dml/databases/sqldb"
	"github.com/prisma/dml/introspection"
)

// ErrInvalidConfig is returned when an invalid configuration is provided.
var ErrInvalidConfig = errors.New("mysql: expected *dml.MySQLConfig")

//nolint:gochecknoinits // Database self-registration pattern
func init() {
	dml.RegisterDatabase(dml.DatabaseMySQL, func(cfg any) (dml.Database, error) {
		mysqlCfg, ok := cfg.(*dml.MySQLConfig)
		if !ok {
			return nil, fmt.Errorf("%w, got %T", ErrInvalidConfig, cfg)
		}

		return New(context.Background(), mysqlCfg)
	})

	introspection.RegisterDialect(NewDialect())
}

// DSN returns the driver data source name of the configuration. An explicit
// DSN wins over the individual settings.
func DSN(cfg *dml.MySQLConfig) (string, error) {
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("mysql: invalid dsn: %w", err)
		}

		return parsed.FormatDSN(), nil
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = cfg.Database

	return c.FormatDSN(), nil
}

// New opens a connection pool from the given configuration and verifies
// connectivity.
func New(ctx context.Context, cfg *dml.MySQLConfig) (*sqldb.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	return sqldb.Open(ctx, dml.DatabaseMySQL, "mysql", dsn)
}
