package datamodel

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/prisma/dml"
)

// Merge codes.
const (
	CodeDuplicateFile       = "duplicate-file"
	CodeEmptyFile           = "empty-file"
	CodeDuplicateDefinition = "duplicate-definition"
)

// MergeWarning is a non-fatal issue found while merging.
type MergeWarning struct {
	Path    string
	Code    string
	Message string
}

// MergeError reports files that cannot be merged.
type MergeError struct {
	Path    string
	Pos     lexer.Position
	Code    string
	Message string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Pos.Line, e.Pos.Column, e.Code, e.Message)
}

// Merged is the union of several datamodel files.
type Merged struct {
	// Data is the concatenated source, in file order.
	Data     []byte
	Document *dml.Document
	// Files lists the merged files.
	Files []string
}

// Merge combines files into one datamodel. A type or enum declared in more
// than one file is an error. Files given twice are merged once.
func Merge(files []*File) (*Merged, []MergeWarning, error) {
	merged := &Merged{Document: &dml.Document{}}

	var warnings []MergeWarning

	type declaration struct {
		path string
		pos  lexer.Position
	}

	declared := make(map[string]declaration)
	seen := make(map[string]bool, len(files))

	for _, f := range files {
		if seen[f.Path] {
			warnings = append(warnings, MergeWarning{
				Path:    f.Path,
				Code:    CodeDuplicateFile,
				Message: "file given more than once",
			})

			continue
		}

		seen[f.Path] = true

		if len(f.Document.Definitions) == 0 {
			warnings = append(warnings, MergeWarning{
				Path:    f.Path,
				Code:    CodeEmptyFile,
				Message: "file declares no types or enums",
			})
		}

		for _, def := range f.Document.Definitions {
			name, pos := definition(def)

			if prev, ok := declared[name]; ok {
				return nil, warnings, &MergeError{
					Path:    f.Path,
					Pos:     pos,
					Code:    CodeDuplicateDefinition,
					Message: fmt.Sprintf("%s is already declared at %s:%d", name, prev.path, prev.pos.Line),
				}
			}

			declared[name] = declaration{path: f.Path, pos: pos}
			merged.Document.Definitions = append(merged.Document.Definitions, def)
		}

		if len(merged.Data) > 0 {
			merged.Data = append(merged.Data, '\n')
		}

		merged.Data = append(merged.Data, bytes.TrimRight(f.Data, "\n")...)
		merged.Data = append(merged.Data, '\n')
		merged.Files = append(merged.Files, f.Path)
	}

	return merged, warnings, nil
}

func definition(def *dml.Definition) (string, lexer.Position) {
	switch {
	case def.Type != nil:
		return def.Type.Name, def.Type.Pos
	case def.Enum != nil:
		return def.Enum.Name, def.Enum.Pos
	default:
		return "", def.Pos
	}
}

// Load loads and merges the files of a datamodel.
func Load(loader *Loader, paths []string, baseDir string) (*Merged, []MergeWarning, error) {
	files, err := loader.LoadAll(paths, baseDir)
	if err != nil {
		return nil, nil, err
	}

	return Merge(files)
}
