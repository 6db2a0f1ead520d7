// Package datamodel loads datamodel files from disk. A datamodel may be split
// over several files, which are merged into one before use.
package datamodel

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/prisma/dml"
)

var (
	// ErrFileNotFound is returned when no datamodel file exists at a path.
	ErrFileNotFound = errors.New("datamodel file not found")

	// ErrParse wraps parse failures of a datamodel file.
	ErrParse = errors.New("parse error")
)

// Extensions tried, in order, for paths given without one.
var Extensions = []string{".prisma", ".graphql"}

// LoadError reports a file that could not be read or parsed.
type LoadError struct {
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// File is a parsed datamodel file.
type File struct {
	Path     string
	Data     []byte
	Document *dml.Document
}

// Loader loads and caches datamodel files.
type Loader struct {
	// cache stores loaded files by absolute path.
	cache map[string]*File

	// Parser parses file contents. Defaults to dml.ParseDocument.
	Parser func(data []byte) (*dml.Document, error)
}

// NewLoader creates a new loader.
func NewLoader() *Loader {
	return &Loader{
		cache:  make(map[string]*File),
		Parser: dml.ParseDocument,
	}
}

// Load loads a file. Relative paths are resolved from the working directory.
func (l *Loader) Load(path string) (*File, error) {
	return l.LoadFrom(path, "")
}

// LoadFrom loads a file, resolving a relative path from baseDir. An empty
// baseDir means the working directory.
func (l *Loader) LoadFrom(path, baseDir string) (*File, error) {
	absPath, err := resolvePath(path, baseDir)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	if f, ok := l.cache[absPath]; ok {
		return f, nil
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // G304: datamodel paths come from the user
	if err != nil {
		return nil, &LoadError{Path: absPath, Cause: err}
	}

	doc, err := l.Parser(data)
	if err != nil {
		return nil, &LoadError{Path: absPath, Cause: fmt.Errorf("%w: %w", ErrParse, err)}
	}

	f := &File{Path: absPath, Data: data, Document: doc}
	l.cache[absPath] = f

	return f, nil
}

// LoadAll loads files in order.
func (l *Loader) LoadAll(paths []string, baseDir string) ([]*File, error) {
	files := make([]*File, 0, len(paths))

	for _, path := range paths {
		f, err := l.LoadFrom(path, baseDir)
		if err != nil {
			return nil, err
		}

		files = append(files, f)
	}

	return files, nil
}

// Clear clears the cache.
func (l *Loader) Clear() {
	l.cache = make(map[string]*File)
}

// Cached returns all cached files by absolute path.
func (l *Loader) Cached() map[string]*File {
	result := make(map[string]*File, len(l.cache))
	maps.Copy(result, l.cache)

	return result
}

// resolvePath returns the absolute path of an existing datamodel file.
func resolvePath(path, baseDir string) (string, error) {
	if !filepath.IsAbs(path) {
		if baseDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("failed to get working directory: %w", err)
			}

			baseDir = wd
		}

		path = filepath.Join(baseDir, path)
	}

	path = filepath.Clean(path)

	if _, err := os.Stat(path); err == nil {
		return filepath.Abs(path)
	}

	if filepath.Ext(path) == "" {
		for _, ext := range Extensions {
			if _, err := os.Stat(path + ext); err == nil {
				return filepath.Abs(path + ext)
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
}
