package dml

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the .prisma-introspect.yaml configuration file.
type Config struct {
	// Database-specific configurations. Only one should be set; its presence
	// selects the database to introspect.
	Postgres *PostgresConfig `yaml:"postgres,omitempty"`
	MySQL    *MySQLConfig    `yaml:"mysql,omitempty"`
	SQLite   *SQLiteConfig   `yaml:"sqlite,omitempty"`

	// Schema to introspect. Defaults per database (public, main, DSN database).
	Schema string `yaml:"schema,omitempty"`

	// Style of the rendered datamodel: "v1" (legacy) or "v2".
	Style string `yaml:"style,omitempty"`

	// Reference is the path of a previously rendered datamodel.
	Reference string `yaml:"reference,omitempty"`

	// Output is the path the datamodel is written to. Empty means stdout.
	Output string `yaml:"output,omitempty"`

	// Filter is an expression selecting the tables to introspect,
	// e.g. `not (name startsWith "_")`.
	Filter string `yaml:"filter,omitempty"`

	// Concurrency bounds the per-table catalog queries running at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// InferEmbedded enables the embedded type heuristic (v2 only).
	InferEmbedded bool `yaml:"infer_embedded,omitempty"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
	// Alternative: connection string
	URI string `yaml:"uri,omitempty"`
	// Driver selects the client: "pgx" (default) or "pq".
	Driver string `yaml:"driver,omitempty"`
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	// Alternative: go-sql-driver DSN
	DSN string `yaml:"dsn,omitempty"`
}

// SQLiteConfig holds SQLite settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DatabaseName returns the configured database name, or empty if none.
func (c *Config) DatabaseName() string {
	switch {
	case c.Postgres != nil:
		return DatabasePostgres
	case c.MySQL != nil:
		return DatabaseMySQL
	case c.SQLite != nil:
		return DatabaseSQLite
	default:
		return ""
	}
}

// DatabaseConfig returns the driver configuration of the selected database,
// suitable for NewDatabase.
func (c *Config) DatabaseConfig() any {
	switch {
	case c.Postgres != nil:
		return c.Postgres
	case c.MySQL != nil:
		return c.MySQL
	case c.SQLite != nil:
		return c.SQLite
	default:
		return nil
	}
}

// SchemaName returns the configured schema or the database default.
func (c *Config) SchemaName() string {
	if c.Schema != "" {
		return c.Schema
	}

	if c.MySQL != nil {
		return c.MySQL.Database
	}

	return DefaultSchemaFor(c.DatabaseName())
}

// RenderStyle returns the configured style, defaulting to v2.
func (c *Config) RenderStyle() (Style, error) {
	if c.Style == "" {
		return StyleV2, nil
	}

	return StyleFromString(c.Style)
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{
	".prisma-introspect.yaml", ".prisma-introspect.yml",
	"prisma-introspect.yaml", "prisma-introspect.yml",
}

// LoadConfig finds and loads the nearest config walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path. Relative reference and
// output paths are resolved against the config file's directory.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)

	if cfg.Reference != "" && !filepath.IsAbs(cfg.Reference) {
		cfg.Reference = filepath.Join(dir, cfg.Reference)
	}

	if cfg.Output != "" && !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Join(dir, cfg.Output)
	}

	if cfg.SQLite != nil && cfg.SQLite.Path != "" && !filepath.IsAbs(cfg.SQLite.Path) {
		cfg.SQLite.Path = filepath.Join(dir, cfg.SQLite.Path)
	}

	return &cfg, nil
}
