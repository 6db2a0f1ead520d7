package dml

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Span represents a range in source code.
type Span struct {
	Start lexer.Position
	End   lexer.Position
}

// Trivia is a comment collected during lexing.
type Trivia struct {
	Text string
	Span Span
	// HasBlankLineBefore is true if a blank line precedes the comment.
	HasBlankLineBefore bool
}

// TriviaList holds all trivia collected during lexing.
type TriviaList struct {
	items []Trivia
}

// Add appends trivia to the list.
func (t *TriviaList) Add(trivia Trivia) {
	t.items = append(t.items, trivia)
}

// All returns all collected trivia.
func (t *TriviaList) All() []Trivia {
	return t.items
}

// collectTrivia lexes data and returns its comments in source order.
func collectTrivia(filename string, data []byte) (*TriviaList, error) {
	l := newLexerState(filename, string(data))
	list := &TriviaList{}
	blank := false

	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case tEOF:
			return list, nil
		case tWhitespace:
			blank = strings.Count(tok.Value, "\n") > 1
		case tComment:
			end := tok.Pos
			end.Offset += len(tok.Value)
			end.Column += len([]rune(tok.Value))

			list.Add(Trivia{
				Text:               commentText(tok.Value),
				Span:               Span{Start: tok.Pos, End: end},
				HasBlankLineBefore: blank,
			})

			blank = false
		default:
			blank = false
		}
	}
}

// commentText strips the comment marker and one following space.
func commentText(raw string) string {
	text := strings.TrimPrefix(raw, "#")
	text = strings.TrimPrefix(text, " ")

	return strings.TrimRight(text, " \t")
}

// attachComments associates comments with the definitions and fields they
// precede.
//
// Comment attachment rules:
//   - A comment on the same line after a field start is that field's trailing comment
//   - Comments inside a type body attach to the next field of the body
//   - Inside a body, a comment that parses as a field and follows at least one
//     other comment is a commented-out field; the comments above it explain it
//   - Comments outside bodies attach to the next definition
//   - Comments inside enum bodies and after the last definition are dropped
func attachComments(doc *Document, trivia *TriviaList) {
	if trivia == nil || doc == nil {
		return
	}

	type block struct {
		def   *TypeDef
		index int
		texts []string
	}

	var blocks []*block

	for _, c := range trivia.All() {
		def := containingDefinition(doc, c.Span.Start)

		switch {
		case def == nil:
			if next := nextDefinition(doc, c.Span.Start); next != nil {
				meta := definitionComments(next)
				meta.LeadingComments = append(meta.LeadingComments, c.Text)
			}
		case def.Type != nil:
			td := def.Type

			if f := fieldOnLine(td, c.Span.Start); f != nil {
				f.TrailingComment = c.Text

				continue
			}

			index := len(td.Fields)

			for i, f := range td.Fields {
				if f.Pos.Offset > c.Span.Start.Offset {
					index = i

					break
				}
			}

			if n := len(blocks); n > 0 && blocks[n-1].def == td && blocks[n-1].index == index {
				blocks[n-1].texts = append(blocks[n-1].texts, c.Text)
			} else {
				blocks = append(blocks, &block{def: td, index: index, texts: []string{c.Text}})
			}
		}
	}

	for _, b := range blocks {
		var pending []string

		for _, text := range b.texts {
			if len(pending) > 0 {
				if fd := parseCommentedField(text); fd != nil {
					b.def.Unsupported = append(b.def.Unsupported, &CommentedField{
						Index:    b.index,
						Field:    fd,
						Comments: pending,
					})
					pending = nil

					continue
				}
			}

			pending = append(pending, text)
		}

		if b.index < len(b.def.Fields) {
			f := b.def.Fields[b.index]
			f.LeadingComments = append(f.LeadingComments, pending...)
		}
	}
}

func definitionComments(def *Definition) *CommentMeta {
	if def.Type != nil {
		return &def.Type.CommentMeta
	}

	return &def.Enum.CommentMeta
}

func definitionBounds(def *Definition) (lexer.Position, lexer.Position) {
	if def.Type != nil {
		return def.Type.Pos, def.Type.Close.Pos
	}

	return def.Enum.Pos, def.Enum.Close.Pos
}

func containingDefinition(doc *Document, pos lexer.Position) *Definition {
	for _, def := range doc.Definitions {
		start, end := definitionBounds(def)
		if pos.Offset > start.Offset && pos.Offset < end.Offset {
			return def
		}
	}

	return nil
}

func nextDefinition(doc *Document, pos lexer.Position) *Definition {
	for _, def := range doc.Definitions {
		start, _ := definitionBounds(def)
		if start.Offset > pos.Offset {
			return def
		}
	}

	return nil
}

func fieldOnLine(td *TypeDef, pos lexer.Position) *FieldDef {
	for _, f := range td.Fields {
		if f.Pos.Line == pos.Line && f.Pos.Offset < pos.Offset {
			return f
		}
	}

	return nil
}
