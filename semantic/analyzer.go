package semantic

import (
	"fmt"
	"math/big"

	"evmc/ast"
)

// Analyzer performs the single pass over the AST that builds the symbol
// table: type inference, type checking, and memory layout.
type Analyzer struct {
	table *SymbolTable
}

// NewAnalyzer returns an Analyzer with an empty symbol table.
func NewAnalyzer() *Analyzer {
	return &Analyzer{table: NewSymbolTable()}
}

// Analyze runs semantic analysis over program and returns the resulting
// SymbolTable, or the first semantic error encountered.
func Analyze(program *ast.Program) (*SymbolTable, error) {
	return NewAnalyzer().Analyze(program)
}

// Analyze is the instance form of the package-level Analyze function.
// Calling it again on the same Analyzer keeps the existing symbol table,
// so later programs extend the same flat memory region.
func (a *Analyzer) Analyze(program *ast.Program) (*SymbolTable, error) {
	for _, stmt := range program.Statements {
		if err := a.analyzeStatement(stmt); err != nil {
			return nil, err
		}
	}
	return a.table, nil
}

func (a *Analyzer) analyzeStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.VariableDeclaration:
		return a.analyzeVariableDeclaration(s)
	case ast.Assignment:
		return a.analyzeAssignment(s)
	case ast.IfStatement:
		return a.analyzeIf(s)
	case ast.WhileStatement:
		return a.analyzeWhile(s)
	case ast.ExpressionStatement:
		return a.analyzeExpression(s.Expression)
	default:
		return fmt.Errorf("semantic: unhandled statement type %T", stmt)
	}
}

// analyzeVariableDeclaration analyzes the initializer first, then infers
// its TypeInfo: a non-empty, homogeneous ArrayLiteral becomes
// ArrayType(elem, n); anything else is Primitive(declared type). The
// identifier is then declared at the next free offset, which advances by
// the type's bit width.
func (a *Analyzer) analyzeVariableDeclaration(decl ast.VariableDeclaration) error {
	if err := a.analyzeExpression(decl.Initializer); err != nil {
		return err
	}

	var typ TypeInfo
	if _, ok := decl.Initializer.(ast.ArrayLiteral); ok {
		t, err := a.infer(decl.Initializer)
		if err != nil {
			return err
		}
		typ = t
	} else {
		typ = Primitive{Type: decl.Type}
	}

	_, err := a.table.Declare(decl.Name, typ)
	return err
}

// analyzeAssignment requires the target to already be declared. Two
// primitives must match tags exactly; any array-typed operand on either
// side is rejected outright.
func (a *Analyzer) analyzeAssignment(assign ast.Assignment) error {
	sym, ok := a.table.Lookup(assign.Name)
	if !ok {
		return UndeclaredError{Name: assign.Name}
	}
	if err := a.analyzeExpression(assign.Expression); err != nil {
		return err
	}
	rhsType, err := a.infer(assign.Expression)
	if err != nil {
		return err
	}

	lhsPrim, lhsIsPrimitive := sym.Type.(Primitive)
	rhsPrim, rhsIsPrimitive := rhsType.(Primitive)
	if lhsIsPrimitive && rhsIsPrimitive {
		if lhsPrim.Type != rhsPrim.Type {
			return TypeMismatchError{Expected: lhsPrim.Type, Actual: rhsPrim.Type}
		}
		return nil
	}
	return ArrayAssignmentUnsupportedError{}
}

func (a *Analyzer) analyzeIf(stmt ast.IfStatement) error {
	if err := a.analyzeExpression(stmt.Condition); err != nil {
		return err
	}
	for _, s := range stmt.Then {
		if err := a.analyzeStatement(s); err != nil {
			return err
		}
	}
	for _, s := range stmt.Else {
		if err := a.analyzeStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeWhile(stmt ast.WhileStatement) error {
	if err := a.analyzeExpression(stmt.Condition); err != nil {
		return err
	}
	for _, s := range stmt.Body {
		if err := a.analyzeStatement(s); err != nil {
			return err
		}
	}
	return nil
}

// analyzeExpression recursively validates an expression: literal ranges,
// string length, declaration of referenced identifiers, and structural
// requirements of arrays.
func (a *Analyzer) analyzeExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		limit := new(big.Int).Lsh(big.NewInt(1), uint(e.BitWidth))
		if e.Value.Sign() < 0 || e.Value.Cmp(limit) >= 0 {
			return LiteralOutOfRangeError{Value: e.Value.String(), BitWidth: e.BitWidth}
		}
		return nil

	case ast.StringLiteral:
		if n := len(e.Value); n > 32 {
			return StringTooLongError{Length: n}
		}
		return nil

	case ast.BooleanLiteral:
		return nil

	case ast.Identifier:
		if _, ok := a.table.Lookup(e.Name); !ok {
			return UndeclaredError{Name: e.Name}
		}
		return nil

	case ast.BinaryExpression:
		if err := a.analyzeExpression(e.Left); err != nil {
			return err
		}
		return a.analyzeExpression(e.Right)

	case ast.ArrayLiteral:
		if len(e.Elements) == 0 {
			return EmptyArrayTypeError{}
		}
		firstType, err := a.infer(e.Elements[0])
		if err != nil {
			return err
		}
		for _, elem := range e.Elements {
			if err := a.analyzeExpression(elem); err != nil {
				return err
			}
			elemType, err := a.infer(elem)
			if err != nil {
				return err
			}
			if !sameType(firstType, elemType) {
				return HeterogeneousArrayError{}
			}
		}
		return nil

	case ast.ArrayAccess:
		if err := a.analyzeExpression(e.Array); err != nil {
			return err
		}
		if err := a.analyzeExpression(e.Index); err != nil {
			return err
		}
		arrType, err := a.infer(e.Array)
		if err != nil {
			return err
		}
		if _, ok := arrType.(ArrayType); !ok {
			return ArrayIndexOnNonArrayError{Name: describeExpr(e.Array)}
		}
		return nil

	default:
		return fmt.Errorf("semantic: unhandled expression type %T", expr)
	}
}

// infer computes the TypeInfo of an expression. Callers analyze an
// expression with analyzeExpression before trusting infer's result.
func (a *Analyzer) infer(expr ast.Expression) (TypeInfo, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return Primitive{Type: FromBitWidth(e.BitWidth)}, nil

	case ast.BooleanLiteral:
		return Primitive{Type: ast.Bool}, nil

	case ast.StringLiteral:
		return Primitive{Type: ast.U256}, nil

	case ast.Identifier:
		sym, ok := a.table.Lookup(e.Name)
		if !ok {
			return nil, UndeclaredError{Name: e.Name}
		}
		return sym.Type, nil

	case ast.ArrayLiteral:
		if len(e.Elements) == 0 {
			return nil, EmptyArrayTypeError{}
		}
		elemType, err := a.infer(e.Elements[0])
		if err != nil {
			return nil, err
		}
		return ArrayType{Element: elemType, Length: len(e.Elements)}, nil

	case ast.ArrayAccess:
		arrType, err := a.infer(e.Array)
		if err != nil {
			return nil, err
		}
		arr, ok := arrType.(ArrayType)
		if !ok {
			return nil, ArrayIndexOnNonArrayError{Name: describeExpr(e.Array)}
		}
		return arr.Element, nil

	case ast.BinaryExpression:
		return a.infer(e.Left)

	default:
		return nil, fmt.Errorf("semantic: cannot infer type of %T", expr)
	}
}

func sameType(a, b TypeInfo) bool {
	switch av := a.(type) {
	case Primitive:
		bv, ok := b.(Primitive)
		return ok && av.Type == bv.Type
	case ArrayType:
		bv, ok := b.(ArrayType)
		return ok && av.Length == bv.Length && sameType(av.Element, bv.Element)
	default:
		return false
	}
}

func describeExpr(expr ast.Expression) string {
	if id, ok := expr.(ast.Identifier); ok {
		return id.Name
	}
	return "<expression>"
}
