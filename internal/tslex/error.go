package tslex

import "fmt"

// ParseError is a lexing or parsing error with position information.
type ParseError struct {
	Message string
	Line    int
	Col     int
	Pos     int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Message)
}

// NewParseErrorf creates a formatted ParseError located at tok.
func NewParseErrorf(tok Token, format string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Col:     tok.Col,
		Pos:     tok.Pos,
	}
}
