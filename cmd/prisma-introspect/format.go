package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/boyter/gocodewalker"
	"github.com/prisma/dml"
	"github.com/urfave/cli/v3"
)

// Format command errors.
var (
	ErrNoDatamodelFiles = errors.New("no .prisma or .graphql files found")
	ErrUnformatted      = errors.New("datamodel files are not formatted")
)

// datamodelExtensions are the extensions of datamodel files, without dots.
var datamodelExtensions = []string{"prisma", "graphql"}

func formatCommand() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "Rewrite datamodel files in canonical form",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "style",
				Usage: "datamodel style: v1 or v2 (default: config, then v2)",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "list unformatted files instead of rewriting them",
			},
		},
		Action: runFormat,
	}
}

func runFormat(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		args = []string{"."}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	style, err := dml.StyleFromString(firstNonEmpty(cmd.String("style"), cfg.Style))
	if err != nil {
		return err
	}

	files, err := collectDatamodelFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return ErrNoDatamodelFiles
	}

	var unformatted int

	for _, path := range files {
		changed, err := formatFile(path, style, !cmd.Bool("check"))
		if err != nil {
			return err
		}

		if changed {
			unformatted++

			fmt.Println(path)
		}
	}

	if cmd.Bool("check") && unformatted > 0 {
		return cli.Exit(fmt.Sprintf("%v: %d", ErrUnformatted, unformatted), 1)
	}

	return nil
}

// formatFile re-renders a datamodel file and reports whether it changed.
func formatFile(path string, style dml.Style, write bool) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: file path from user input is expected
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	formatted, err := formatDatamodel(data, style)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}

	if bytes.Equal(data, formatted) {
		return false, nil
	}

	if write {
		err := os.WriteFile(path, formatted, 0o644) //nolint:gosec // G306: datamodel files are not secret
		if err != nil {
			return false, fmt.Errorf("writing %s: %w", path, err)
		}
	}

	return true, nil
}

func formatDatamodel(data []byte, style dml.Style) ([]byte, error) {
	m, err := dml.ParseWithStyle(data, style)
	if err != nil {
		return nil, err
	}

	return []byte(dml.Render(m, style)), nil
}

// collectDatamodelFiles expands directories into the datamodel files below
// them, respecting .gitignore. The result is sorted.
func collectDatamodelFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if isDatamodelFile(arg) {
				files = append(files, arg)
			}

			continue
		}

		var mu sync.Mutex

		if err := walkDir(arg, func(path string) {
			mu.Lock()
			files = append(files, path)
			mu.Unlock()
		}); err != nil {
			return nil, err
		}
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

func isDatamodelFile(path string) bool {
	ext := filepath.Ext(path)

	return ext != "" && slices.Contains(datamodelExtensions, ext[1:])
}

// walkDir walks a directory for datamodel files, respecting .gitignore.
func walkDir(root string, callback func(path string)) error {
	fileListQueue := make(chan *gocodewalker.File, 100)

	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)
	fileWalker.AllowListExtensions = datamodelExtensions

	var walkErr error

	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e

		return true
	})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for f := range fileListQueue {
			callback(f.Location)
		}
	}()

	if err := fileWalker.Start(); err != nil {
		return err
	}

	wg.Wait()

	return walkErr
}
