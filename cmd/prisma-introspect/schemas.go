package main

import (
	"context"
	"fmt"

	"github.com/prisma/dml"
	"github.com/prisma/dml/introspection"
	"github.com/urfave/cli/v3"
)

func schemasCommand() *cli.Command {
	return &cli.Command{
		Name:   "schemas",
		Usage:  "List the schemas of a database",
		Flags:  databaseFlags(),
		Action: runSchemas,
	}
}

func runSchemas(ctx context.Context, cmd *cli.Command) error {
	database, dialect, _, err := connect(cmd)
	if err != nil {
		return err
	}

	defer func() {
		_ = database.Close()
	}()

	schemas, err := dialect.ListSchemas(ctx, database)
	if err != nil {
		return err
	}

	for _, s := range schemas {
		fmt.Println(s)
	}

	return nil
}

// connect opens the selected database and looks up its dialect.
func connect(cmd *cli.Command) (dml.Database, introspection.Dialect, *connection, error) { //nolint:ireturn
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	conn, err := resolveConnection(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	dialect, err := introspection.DialectFor(conn.name)
	if err != nil {
		return nil, nil, nil, err
	}

	database, err := dml.NewDatabase(conn.name, conn.config)
	if err != nil {
		return nil, nil, nil, err
	}

	return database, dialect, conn, nil
}
