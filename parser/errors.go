package parser

import (
	"fmt"

	"evmc/token"
)

// ExpectedError reports that the parser needed a token of a particular
// kind (optionally a particular lexeme) but found something else.
type ExpectedError struct {
	Kind   token.Kind
	Value  string // expected lexeme; empty when any lexeme of Kind is acceptable
	Actual token.Token
}

func (e ExpectedError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("line %d, column %d: expected %s %q, got %s %q",
			e.Actual.Line, e.Actual.Column, e.Kind, e.Value, e.Actual.Kind, e.Actual.Lexeme)
	}
	return fmt.Sprintf("line %d, column %d: expected %s, got %s %q",
		e.Actual.Line, e.Actual.Column, e.Kind, e.Actual.Kind, e.Actual.Lexeme)
}

// UnknownTypeError reports a type annotation that names no recognized
// primitive type.
type UnknownTypeError struct {
	Name  string
	Token token.Token
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("line %d, column %d: unknown type %q", e.Token.Line, e.Token.Column, e.Name)
}

// UnexpectedTokenError reports a token that cannot begin any valid
// grammar production at the parser's current position.
type UnexpectedTokenError struct {
	Token token.Token
}

func (e UnexpectedTokenError) Error() string {
	return fmt.Sprintf("line %d, column %d: unexpected token %s %q", e.Token.Line, e.Token.Column, e.Token.Kind, e.Token.Lexeme)
}
