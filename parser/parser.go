// Package parser implements the recursive-descent, precedence-climbing
// parser that turns a token sequence into an ast.Program. The parser
// performs no error recovery: the first failure aborts compilation.
package parser

import (
	"math/big"

	"evmc/ast"
	"evmc/token"
)

// Parser is a cursor over a token sequence.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New constructs a Parser over the tokens produced by the scanner.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the entire token stream and returns the resulting
// Program, or the first parse error encountered.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).Parse()
}

// Parse is the entry point: it parses statements until tokens run out.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{}
	for !p.isAtEnd() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}
	return program, nil
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) checkKind(kind token.Kind) bool {
	return !p.isAtEnd() && p.peek().Kind == kind
}

func (p *Parser) checkKeyword(word string) bool {
	tok := p.peek()
	return tok.Kind == token.Keyword && tok.Lexeme == word
}

func (p *Parser) checkOperator(op string) bool {
	tok := p.peek()
	return tok.Kind == token.Operator && tok.Lexeme == op
}

func (p *Parser) checkPunctuation(sym string) bool {
	tok := p.peek()
	return tok.Kind == token.Punctuation && tok.Lexeme == sym
}

func (p *Parser) matchKeyword(word string) bool {
	if p.checkKeyword(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchOperator(op string) bool {
	if p.checkOperator(op) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchPunctuation(sym string) bool {
	if p.checkPunctuation(sym) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectPunctuation(sym string) (token.Token, error) {
	if p.checkPunctuation(sym) {
		return p.advance(), nil
	}
	return token.Token{}, ExpectedError{Kind: token.Punctuation, Value: sym, Actual: p.peek()}
}

func (p *Parser) expectOperator(op string) (token.Token, error) {
	if p.checkOperator(op) {
		return p.advance(), nil
	}
	return token.Token{}, ExpectedError{Kind: token.Operator, Value: op, Actual: p.peek()}
}

func (p *Parser) expectIdentifier() (token.Token, error) {
	if p.checkKind(token.Identifier) {
		return p.advance(), nil
	}
	return token.Token{}, ExpectedError{Kind: token.Identifier, Actual: p.peek()}
}

// statement dispatches on the current token to one of the five statement
// forms the grammar recognizes.
func (p *Parser) statement() (ast.Statement, error) {
	switch {
	case p.checkKeyword("if"):
		return p.ifStatement()
	case p.checkKeyword("while"):
		return p.whileStatement()
	case p.checkKeyword("let"):
		return p.variableDeclaration()
	case p.checkKind(token.Identifier) && p.peekAt(1).Kind == token.Operator && p.peekAt(1).Lexeme == "=":
		return p.assignment()
	default:
		return p.expressionStatement()
	}
}

var typeNames = map[string]ast.PrimitiveType{
	"u8":   ast.U8,
	"u16":  ast.U16,
	"u32":  ast.U32,
	"u256": ast.U256,
}

// variableDeclaration parses `let <identifier> [: <type-name>] = <expr> ;`.
func (p *Parser) variableDeclaration() (ast.Statement, error) {
	p.advance() // consume 'let'

	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	var declared ast.PrimitiveType
	hasAnnotation := false
	if p.matchPunctuation(":") {
		typeTok, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		prim, ok := typeNames[typeTok.Lexeme]
		if !ok {
			return nil, UnknownTypeError{Name: typeTok.Lexeme, Token: typeTok}
		}
		declared = prim
		hasAnnotation = true
	}

	if _, err := p.expectOperator("="); err != nil {
		return nil, err
	}

	initializer, err := p.expression()
	if err != nil {
		return nil, err
	}

	if !hasAnnotation {
		if _, isBool := initializer.(ast.BooleanLiteral); isBool {
			declared = ast.Bool
		} else {
			declared = ast.U256
		}
	}

	// If the initializer is a bare number literal, rewrite its bit width
	// to the declared/inferred primitive's width so later semantic checks
	// use the correct bound.
	if num, ok := initializer.(*ast.NumberLiteral); ok {
		num.BitWidth = declared.BitWidth()
	}

	if _, err := p.expectPunctuation(";"); err != nil {
		return nil, err
	}

	return ast.VariableDeclaration{Type: declared, Name: nameTok.Lexeme, Initializer: initializer}, nil
}

// assignment parses `<identifier> = <expr> ;`.
func (p *Parser) assignment() (ast.Statement, error) {
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOperator("="); err != nil {
		return nil, err
	}
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunctuation(";"); err != nil {
		return nil, err
	}
	return ast.Assignment{Name: nameTok.Lexeme, Expression: expr}, nil
}

func (p *Parser) ifStatement() (ast.Statement, error) {
	p.advance() // consume 'if'
	if _, err := p.expectPunctuation("("); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunctuation(")"); err != nil {
		return nil, err
	}
	thenBody, err := p.block()
	if err != nil {
		return nil, err
	}

	var elseBody []ast.Statement
	if p.matchKeyword("else") {
		elseBody, err = p.block()
		if err != nil {
			return nil, err
		}
	}

	return ast.IfStatement{Condition: cond, Then: thenBody, Else: elseBody}, nil
}

func (p *Parser) whileStatement() (ast.Statement, error) {
	p.advance() // consume 'while'
	if _, err := p.expectPunctuation("("); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunctuation(")"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return ast.WhileStatement{Condition: cond, Body: body}, nil
}

func (p *Parser) block() ([]ast.Statement, error) {
	if _, err := p.expectPunctuation("{"); err != nil {
		return nil, err
	}
	statements := []ast.Statement{}
	for !p.checkPunctuation("}") {
		if p.isAtEnd() {
			return nil, ExpectedError{Kind: token.Punctuation, Value: "}", Actual: p.peek()}
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	p.advance() // consume '}'
	return statements, nil
}

func (p *Parser) expressionStatement() (ast.Statement, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunctuation(";"); err != nil {
		return nil, err
	}
	return ast.ExpressionStatement{Expression: expr}, nil
}

// expression is the entry point into the precedence chain: or is the
// lowest-precedence rule.
func (p *Parser) expression() (ast.Expression, error) {
	return p.or()
}

func (p *Parser) or() (ast.Expression, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.matchOperator("||") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpression{Operator: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) and() (ast.Expression, error) {
	left, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.matchOperator("&&") {
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpression{Operator: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) equality() (ast.Expression, error) {
	left, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.checkOperator("=="):
			op = "=="
		case p.checkOperator("!="):
			op = "!="
		default:
			return left, nil
		}
		p.advance()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpression{Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) comparison() (ast.Expression, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.checkOperator("<="):
			op = "<="
		case p.checkOperator(">="):
			op = ">="
		case p.checkOperator("<"):
			op = "<"
		case p.checkOperator(">"):
			op = ">"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpression{Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) additive() (ast.Expression, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.checkOperator("+"):
			op = "+"
		case p.checkOperator("-"):
			op = "-"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpression{Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) multiplicative() (ast.Expression, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.checkOperator("*"):
			op = "*"
		case p.checkOperator("/"):
			op = "/"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpression{Operator: op, Left: left, Right: right}
	}
}

// unary parses prefix "!" and "-". Both are modeled as
// BinaryExpression(op, NumberLiteral(0, 256), operand) per the Design
// Notes' unary-minus convention, generalized to "!" as well.
func (p *Parser) unary() (ast.Expression, error) {
	if p.checkOperator("!") || p.checkOperator("-") {
		op := p.advance().Lexeme
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		zero := &ast.NumberLiteral{Value: big.NewInt(0), BitWidth: 256}
		return ast.BinaryExpression{Operator: op, Left: zero, Right: operand}, nil
	}
	return p.primary()
}

func (p *Parser) primary() (ast.Expression, error) {
	tok := p.peek()

	switch {
	case tok.Kind == token.NumberLiteral:
		p.advance()
		value, ok := new(big.Int).SetString(tok.Lexeme, 10)
		if !ok {
			return nil, ExpectedError{Kind: token.NumberLiteral, Actual: tok}
		}
		return &ast.NumberLiteral{Value: value, BitWidth: 256}, nil

	case tok.Kind == token.StringLiteral:
		p.advance()
		return ast.StringLiteral{Value: tok.Lexeme}, nil

	case tok.Kind == token.BooleanLiteral:
		p.advance()
		return ast.BooleanLiteral{Value: tok.Lexeme == "true"}, nil

	case tok.Kind == token.Identifier:
		p.advance()
		var expr ast.Expression = ast.Identifier{Name: tok.Lexeme}
		if p.matchPunctuation("[") {
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunctuation("]"); err != nil {
				return nil, err
			}
			expr = ast.ArrayAccess{Array: expr, Index: index}
		}
		return expr, nil

	case tok.Kind == token.Punctuation && tok.Lexeme == "(":
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunctuation(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case tok.Kind == token.Punctuation && tok.Lexeme == "[":
		return p.arrayLiteral()

	default:
		return nil, UnexpectedTokenError{Token: tok}
	}
}

// arrayLiteral parses `[ e1, e2, ... ]` or `[ ]`; a trailing comma is not
// allowed.
func (p *Parser) arrayLiteral() (ast.Expression, error) {
	p.advance() // consume '['

	elements := []ast.Expression{}
	if p.matchPunctuation("]") {
		return ast.ArrayLiteral{Elements: elements}, nil
	}

	for {
		elem, err := p.expression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)

		if p.matchPunctuation(",") {
			continue
		}
		if _, err := p.expectPunctuation("]"); err != nil {
			return nil, err
		}
		break
	}

	return ast.ArrayLiteral{Elements: elements}, nil
}
