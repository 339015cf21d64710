package parser

import (
	"testing"

	"evmc/ast"
	"evmc/lexer"
)

func parseSource(t *testing.T, source string) *ast.Program {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	program, err := Parse(tokens)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return program
}

func TestVariableDeclarationDefaultsToU256(t *testing.T) {
	program := parseSource(t, "let x = 5;")
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	decl, ok := program.Statements[0].(ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected VariableDeclaration, got %T", program.Statements[0])
	}
	if decl.Type != ast.U256 {
		t.Errorf("Type = %v, want U256", decl.Type)
	}
	num, ok := decl.Initializer.(*ast.NumberLiteral)
	if !ok {
		t.Fatalf("expected *ast.NumberLiteral, got %T", decl.Initializer)
	}
	if num.BitWidth != 256 {
		t.Errorf("BitWidth = %d, want 256", num.BitWidth)
	}
}

func TestVariableDeclarationBitWidthRewrite(t *testing.T) {
	program := parseSource(t, "let x: u8 = 300;")
	decl := program.Statements[0].(ast.VariableDeclaration)
	num := decl.Initializer.(*ast.NumberLiteral)
	if num.BitWidth != 8 {
		t.Errorf("BitWidth = %d, want 8", num.BitWidth)
	}
}

func TestVariableDeclarationInfersBoolFromInitializer(t *testing.T) {
	program := parseSource(t, "let ok = true;")
	decl := program.Statements[0].(ast.VariableDeclaration)
	if decl.Type != ast.Bool {
		t.Errorf("Type = %v, want Bool", decl.Type)
	}
}

func TestUnknownTypeAnnotation(t *testing.T) {
	tokens, _ := lexer.New("let x: u64 = 1;").Scan()
	_, err := Parse(tokens)
	if _, ok := err.(UnknownTypeError); !ok {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
}

func TestAssignment(t *testing.T) {
	program := parseSource(t, "let x = 1; x = 2;")
	assign, ok := program.Statements[1].(ast.Assignment)
	if !ok {
		t.Fatalf("expected Assignment, got %T", program.Statements[1])
	}
	if assign.Name != "x" {
		t.Errorf("Name = %q, want x", assign.Name)
	}
}

func TestIfElse(t *testing.T) {
	program := parseSource(t, "if (1 < 2) { let x = 1; } else { let y = 2; }")
	ifStmt, ok := program.Statements[0].(ast.IfStatement)
	if !ok {
		t.Fatalf("expected IfStatement, got %T", program.Statements[0])
	}
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("unexpected branch shapes: then=%d else=%d", len(ifStmt.Then), len(ifStmt.Else))
	}
}

func TestWhile(t *testing.T) {
	program := parseSource(t, "while (1 < 2) { let x = 1; }")
	whileStmt, ok := program.Statements[0].(ast.WhileStatement)
	if !ok {
		t.Fatalf("expected WhileStatement, got %T", program.Statements[0])
	}
	if len(whileStmt.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(whileStmt.Body))
	}
}

func TestOperatorPrecedence(t *testing.T) {
	program := parseSource(t, "let x = 1 + 2 * 3;")
	decl := program.Statements[0].(ast.VariableDeclaration)
	bin, ok := decl.Initializer.(ast.BinaryExpression)
	if !ok {
		t.Fatalf("expected BinaryExpression, got %T", decl.Initializer)
	}
	if bin.Operator != "+" {
		t.Fatalf("outermost operator = %q, want +", bin.Operator)
	}
	right, ok := bin.Right.(ast.BinaryExpression)
	if !ok || right.Operator != "*" {
		t.Fatalf("expected nested '*' on the right, got %#v", bin.Right)
	}
}

func TestArrayLiteralAndAccess(t *testing.T) {
	program := parseSource(t, "let arr = [1, 2, 3]; let first = arr[0];")
	decl := program.Statements[0].(ast.VariableDeclaration)
	arr, ok := decl.Initializer.(ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("expected 3-element ArrayLiteral, got %#v", decl.Initializer)
	}

	second := program.Statements[1].(ast.VariableDeclaration)
	access, ok := second.Initializer.(ast.ArrayAccess)
	if !ok {
		t.Fatalf("expected ArrayAccess, got %T", second.Initializer)
	}
	if _, ok := access.Array.(ast.Identifier); !ok {
		t.Fatalf("expected Identifier array operand, got %T", access.Array)
	}
}

func TestArrayLiteralTrailingCommaRejected(t *testing.T) {
	tokens, _ := lexer.New("let arr = [1, 2,];").Scan()
	_, err := Parse(tokens)
	if err == nil {
		t.Fatal("expected an error for trailing comma in array literal")
	}
}

func TestUnaryMinusModeledAsBinary(t *testing.T) {
	program := parseSource(t, "let x = -5;")
	decl := program.Statements[0].(ast.VariableDeclaration)
	bin, ok := decl.Initializer.(ast.BinaryExpression)
	if !ok || bin.Operator != "-" {
		t.Fatalf("expected BinaryExpression('-', 0, 5), got %#v", decl.Initializer)
	}
	zero, ok := bin.Left.(*ast.NumberLiteral)
	if !ok || zero.Value.Sign() != 0 {
		t.Fatalf("expected zero literal on the left, got %#v", bin.Left)
	}
}
