package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/prisma/dml"
	"github.com/urfave/cli/v3"
)

// Database selection errors.
var (
	ErrNoDatabase          = errors.New("no database specified (use --url or a database section in .prisma-introspect.yaml)")
	ErrUnsupportedDatabase = errors.New("unsupported database")
	ErrUnsupportedURL      = errors.New("unsupported database URL")
)

// databaseFlags are shared by every command that connects.
func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Usage:   "database URL (postgres://, mysql:// or file:)",
			Sources: cli.EnvVars("PRISMA_DATABASE_URL", "DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "database",
			Aliases: []string{"d"},
			Usage:   "database to use (overrides config)",
		},
		&cli.StringFlag{
			Name:    "schema",
			Aliases: []string{"s"},
			Usage:   "schema to introspect",
			Sources: cli.EnvVars("PRISMA_SCHEMA"),
		},
	}
}

// loadConfig loads the config named by --config, or the nearest one walking
// up from the working directory. Having no config at all is fine.
func loadConfig(cmd *cli.Command) (*dml.Config, error) {
	if path := cmd.String("config"); path != "" {
		return dml.LoadConfigFile(path)
	}

	cfg, err := dml.LoadConfig(".")
	if errors.Is(err, dml.ErrConfigNotFound) {
		return &dml.Config{}, nil
	}

	return cfg, err
}

// connection is a resolved database selection.
type connection struct {
	name   string
	config any
	schema string
}

// resolveConnection applies the command's database flags to cfg.
func resolveConnection(cmd *cli.Command, cfg *dml.Config) (*connection, error) {
	if s := cmd.String("schema"); s != "" {
		cfg.Schema = s
	}

	return selectDatabase(cfg, cmd.String("database"), cmd.String("url"))
}

// selectDatabase picks the database to connect to. A URL replaces the
// database sections of the config; an explicit name must have a section
// unless it needs no settings at all.
func selectDatabase(cfg *dml.Config, name, rawURL string) (*connection, error) {
	if rawURL != "" {
		if err := applyURL(cfg, rawURL); err != nil {
			return nil, err
		}
	}

	name = firstNonEmpty(name, cfg.DatabaseName())

	var dbCfg any

	switch name {
	case "":
		return nil, ErrNoDatabase
	case dml.DatabasePostgres:
		if cfg.Postgres == nil {
			cfg.Postgres = &dml.PostgresConfig{}
		}

		dbCfg = cfg.Postgres
	case dml.DatabaseMySQL:
		if cfg.MySQL == nil {
			cfg.MySQL = &dml.MySQLConfig{}
		}

		dbCfg = cfg.MySQL
	case dml.DatabaseSQLite:
		if cfg.SQLite == nil {
			return nil, fmt.Errorf("%w: sqlite needs a path", ErrNoDatabase)
		}

		dbCfg = cfg.SQLite
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabase, name)
	}

	schema := cfg.Schema
	if schema == "" {
		schema = dml.DefaultSchemaFor(name)
		if name == dml.DatabaseMySQL {
			schema = cfg.MySQL.Database
		}
	}

	return &connection{name: name, config: dbCfg, schema: schema}, nil
}

// applyURL replaces the database sections of cfg with the one a URL
// describes. A "schema" query parameter selects the schema unless one is
// already set.
func applyURL(cfg *dml.Config, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}

	query := u.Query()
	if s := query.Get("schema"); s != "" && cfg.Schema == "" {
		cfg.Schema = s
	}

	query.Del("schema")
	u.RawQuery = query.Encode()

	cfg.Postgres, cfg.MySQL, cfg.SQLite = nil, nil, nil

	switch u.Scheme {
	case "postgres", "postgresql":
		cfg.Postgres = &dml.PostgresConfig{URI: u.String()}
	case "mysql":
		port := 0
		if p := u.Port(); p != "" {
			port, err = strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("%w: invalid port %q", ErrUnsupportedURL, p)
			}
		}

		password, _ := u.User.Password()
		cfg.MySQL = &dml.MySQLConfig{
			Host:     u.Hostname(),
			Port:     port,
			User:     u.User.Username(),
			Password: password,
			Database: strings.TrimPrefix(u.Path, "/"),
		}
	case "file", "sqlite":
		path := u.Opaque
		if path == "" {
			path = u.Host + u.Path
		}

		cfg.SQLite = &dml.SQLiteConfig{Path: path}
	default:
		return fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
