package dml

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token types. Participle reserves non-negative values, so ours count down from -2.
const (
	tEOF        lexer.TokenType = lexer.EOF
	tComment    lexer.TokenType = -(iota + 2) //nolint:mnd // participle convention
	tString                                   // quoted strings
	tNumber                                   // integers and decimals
	tIdent                                    // identifiers
	tPunct                                    // @ : ! = , ( ) [ ] { }
	tWhitespace                               // spaces, tabs, newlines
)

// Lexer errors.
var (
	ErrUnterminatedString  = &LexerError{msg: "unterminated string"}
	ErrUnexpectedCharacter = &LexerError{msg: "unexpected character"}
)

// LexerError is a lexing failure at a source position.
type LexerError struct {
	msg string
	pos lexer.Position
	ch  rune
}

func (e *LexerError) Error() string {
	if e.ch != 0 {
		return e.pos.String() + ": " + e.msg + ": " + string(e.ch)
	}

	return e.pos.String() + ": " + e.msg
}

// Is matches lexer errors by message so the exported sentinels work with errors.Is.
func (e *LexerError) Is(target error) bool {
	t, ok := target.(*LexerError)

	return ok && t.msg == e.msg
}

// Position returns where the error occurred.
func (e *LexerError) Position() lexer.Position {
	return e.pos
}

// Message returns the error without its position.
func (e *LexerError) Message() string {
	if e.ch != 0 {
		return e.msg + ": " + string(e.ch)
	}

	return e.msg
}

func (e *LexerError) withPos(pos lexer.Position) *LexerError {
	return &LexerError{msg: e.msg, pos: pos, ch: e.ch}
}

func (e *LexerError) withChar(ch rune) *LexerError {
	return &LexerError{msg: e.msg, pos: e.pos, ch: ch}
}

// dmlDefinition implements lexer.Definition for the datamodel language.
type dmlDefinition struct {
	symbols map[string]lexer.TokenType
}

func newDMLLexer() *dmlDefinition {
	return &dmlDefinition{
		symbols: map[string]lexer.TokenType{
			"EOF":        tEOF,
			"Comment":    tComment,
			"String":     tString,
			"Number":     tNumber,
			"Ident":      tIdent,
			"Punct":      tPunct,
			"Whitespace": tWhitespace,
		},
	}
}

// Symbols names the token types for the grammar.
func (d *dmlDefinition) Symbols() map[string]lexer.TokenType {
	return d.symbols
}

// Lex reads r fully and lexes it.
//
//nolint:ireturn // Required by participle's lexer.Definition interface.
func (d *dmlDefinition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return d.LexBytes(filename, data)
}

// LexBytes implements lexer.BytesDefinition.
//
//nolint:ireturn // Required by participle's lexer.BytesDefinition interface.
func (d *dmlDefinition) LexBytes(filename string, data []byte) (lexer.Lexer, error) {
	return newLexerState(filename, string(data)), nil
}

// LexString implements lexer.StringDefinition.
//
//nolint:ireturn // Required by participle's lexer.StringDefinition interface.
func (d *dmlDefinition) LexString(filename string, input string) (lexer.Lexer, error) {
	return newLexerState(filename, input), nil
}

type lexerState struct {
	filename string
	input    string
	offset   int
	line     int
	col      int
}

func newLexerState(filename, input string) *lexerState {
	return &lexerState{
		filename: filename,
		input:    input,
		line:     1,
		col:      1,
	}
}

// Next scans one token. Whitespace and comments are tokens too; the parser elides them.
func (l *lexerState) Next() (lexer.Token, error) {
	if l.eof() {
		return lexer.EOFToken(l.pos()), nil
	}

	start := l.pos()
	r := l.peek()

	if isSpace(r) {
		for !l.eof() && isSpace(l.peek()) {
			l.advance()
		}

		return l.token(tWhitespace, start), nil
	}

	if r == '#' {
		for !l.eof() && l.peek() != '\n' && l.peek() != '\r' {
			l.advance()
		}

		return l.token(tComment, start), nil
	}

	if r == '"' {
		return l.scanString(start)
	}

	if isDigit(r) || r == '-' && isDigit(l.peekAt(1)) {
		return l.scanNumber(start), nil
	}

	if isIdentStart(r) {
		l.advance()

		for !l.eof() && isIdentContinue(l.peek()) {
			l.advance()
		}

		return l.token(tIdent, start), nil
	}

	l.advance()

	if strings.ContainsRune("@:!=,()[]{}", r) {
		return l.token(tPunct, start), nil
	}

	return lexer.Token{}, ErrUnexpectedCharacter.withPos(start).withChar(r)
}

func (l *lexerState) pos() lexer.Position {
	return lexer.Position{
		Filename: l.filename,
		Offset:   l.offset,
		Line:     l.line,
		Column:   l.col,
	}
}

func (l *lexerState) eof() bool {
	return l.offset >= len(l.input)
}

func (l *lexerState) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])

	return r
}

func (l *lexerState) peekAt(n int) rune {
	off := l.offset + n
	if off >= len(l.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[off:])

	return r
}

func (l *lexerState) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.offset:])
	l.offset += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexerState) token(typ lexer.TokenType, start lexer.Position) lexer.Token {
	return lexer.Token{
		Type:  typ,
		Value: l.input[start.Offset:l.offset],
		Pos:   start,
	}
}

func (l *lexerState) scanString(start lexer.Position) (lexer.Token, error) {
	l.advance() // opening quote

	for !l.eof() {
		ch := l.peek()
		if ch == '\\' && l.peekAt(1) != 0 {
			l.advance() // backslash
			l.advance() // escaped char

			continue
		}

		if ch == '"' {
			l.advance() // closing quote

			return l.token(tString, start), nil
		}

		if ch == '\n' {
			return lexer.Token{}, ErrUnterminatedString.withPos(start)
		}

		l.advance()
	}

	return lexer.Token{}, ErrUnterminatedString.withPos(start)
}

func (l *lexerState) scanNumber(start lexer.Position) lexer.Token {
	if l.peek() == '-' {
		l.advance()
	}

	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}

	// Fractional part
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance() // .

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	// Exponent
	if (l.peek() == 'e' || l.peek() == 'E') && (isDigit(l.peekAt(1)) || l.peekAt(1) == '-' || l.peekAt(1) == '+') {
		l.advance() // e/E

		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	return l.token(tNumber, start)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether s lexes as a single identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 && !isIdentStart(r) || i > 0 && !isIdentContinue(r) {
			return false
		}
	}

	return true
}
