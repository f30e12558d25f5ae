// Package tslex tokenizes the small subset of TypeScript the generator has
// to read back: field type expressions and previously generated modules.
package tslex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType classifies a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString // quoted literal; Literal holds the unquoted value
	TokenNumber
	TokenPunct // single punctuation rune; Literal holds it
	TokenRegex // regular expression literal; Literal holds the source text
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "Ident"
	case TokenString:
		return "String"
	case TokenNumber:
		return "Number"
	case TokenPunct:
		return "Punct"
	case TokenRegex:
		return "Regex"
	}
	return "Unknown"
}

// Token is one lexical unit. Pos and End are byte offsets into the input so
// callers can slice the original text back out.
type Token struct {
	Type    TokenType
	Literal string
	Quote   rune // quote rune for TokenString
	Pos     int
	End     int
	Line    int
	Col     int
}

// Is reports whether tok is the punctuation p.
func (t Token) Is(p string) bool { return t.Type == TokenPunct && t.Literal == p }

// Lexer tokenizes TypeScript-ish source text.
type Lexer struct {
	input  string
	pos    int
	line   int
	col    int
	tokens []Token
	errors []error
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize scans the entire input and returns all tokens plus any errors.
// Comments are skipped. The token list always ends with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, []error) {
	for {
		tok := l.next()
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return l.tokens, l.errors
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) peekAt(offset int) rune {
	p := l.pos + offset
	if p >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// skipSpaceAndComments advances past whitespace, // and /* */ comments.
func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.input) {
		r := l.peek()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.input) && !(l.peek() == '*' && l.peekAt(1) == '/') {
				l.advance()
			}
			if l.pos >= len(l.input) {
				l.errors = append(l.errors, &ParseError{Message: "unterminated block comment", Line: l.line, Col: l.col, Pos: l.pos})
				return
			}
			l.advance()
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) next() Token {
	l.skipSpaceAndComments()

	start := Token{Pos: l.pos, Line: l.line, Col: l.col}
	if l.pos >= len(l.input) {
		start.Type = TokenEOF
		start.End = l.pos
		return start
	}

	r := l.peek()
	switch {
	case r == '"' || r == '\'' || r == '`':
		return l.scanString(start)
	case r >= '0' && r <= '9':
		return l.scanNumber(start)
	case r == '/' && l.regexAllowed():
		if tok, ok := l.scanRegex(start); ok {
			return tok
		}
	case isIdentStart(r):
		for l.pos < len(l.input) && isIdentPart(l.peek()) {
			l.advance()
		}
		start.Type = TokenIdent
		start.Literal = l.input[start.Pos:l.pos]
		start.End = l.pos
		return start
	}

	l.advance()
	start.Type = TokenPunct
	start.Literal = l.input[start.Pos:l.pos]
	start.End = l.pos
	return start
}

func (l *Lexer) scanString(tok Token) Token {
	quote := l.advance()
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			l.errors = append(l.errors, NewParseErrorf(tok, "unterminated string"))
			break
		}
		r := l.advance()
		if r == quote {
			break
		}
		if r == '\\' && l.pos < len(l.input) {
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
	}
	tok.Type = TokenString
	tok.Literal = sb.String()
	tok.Quote = quote
	tok.End = l.pos
	return tok
}

// regexOperands are the punctuation and keywords after which a slash starts
// an expression rather than dividing one.
var regexOperands = map[string]bool{
	"(": true, ",": true, "=": true, ":": true, "[": true, "!": true, "&": true,
	"|": true, "?": true, "{": true, "}": true, ";": true, "+": true, "-": true,
	"*": true, "%": true, "<": true, ">": true, "~": true, "^": true,
	"return": true, "typeof": true, "case": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "instanceof": true,
	"yield": true, "await": true,
}

func (l *Lexer) regexAllowed() bool {
	if len(l.tokens) == 0 {
		return true
	}
	prev := l.tokens[len(l.tokens)-1]
	switch prev.Type {
	case TokenPunct, TokenIdent:
		return regexOperands[prev.Literal]
	}
	return false
}

// scanRegex consumes /body/flags. A literal must close on its line; when it
// does not the lexer rewinds and the slash is read as punctuation.
func (l *Lexer) scanRegex(tok Token) (Token, bool) {
	l.advance()
	inClass := false
	for {
		if l.pos >= len(l.input) || l.peek() == '\n' {
			l.pos, l.line, l.col = tok.Pos, tok.Line, tok.Col
			return Token{}, false
		}
		r := l.advance()
		switch {
		case r == '\\' && l.pos < len(l.input) && l.peek() != '\n':
			l.advance()
		case r == '[':
			inClass = true
		case r == ']':
			inClass = false
		case r == '/' && !inClass:
			for l.pos < len(l.input) && isIdentPart(l.peek()) {
				l.advance()
			}
			tok.Type = TokenRegex
			tok.Literal = l.input[tok.Pos:l.pos]
			tok.End = l.pos
			return tok, true
		}
	}
}

func (l *Lexer) scanNumber(tok Token) Token {
	for l.pos < len(l.input) {
		r := l.peek()
		if (r >= '0' && r <= '9') || r == '.' || r == '_' {
			l.advance()
			continue
		}
		break
	}
	tok.Type = TokenNumber
	tok.Literal = l.input[tok.Pos:l.pos]
	tok.End = l.pos
	return tok
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
