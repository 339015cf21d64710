package codegen

import (
	"math/big"
	"testing"

	"evmc/ast"
	"evmc/lexer"
	"evmc/parser"
	"evmc/semantic"
)

func semanticEmptyTable() *semantic.SymbolTable {
	return semantic.NewSymbolTable()
}

func badBinaryExpression() ast.BinaryExpression {
	return ast.BinaryExpression{
		Operator: "%",
		Left:     &ast.NumberLiteral{Value: big.NewInt(1), BitWidth: 256},
		Right:    &ast.NumberLiteral{Value: big.NewInt(1), BitWidth: 256},
	}
}

func compileSource(t *testing.T, source string) (*ast.Program, *semantic.SymbolTable) {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	symbols, err := semantic.Analyze(program)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	return program, symbols
}
