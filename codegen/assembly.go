package codegen

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"evmc/ast"
	"evmc/semantic"
)

// AssemblyEmitter walks the AST and symbol table into a human-readable
// mnemonic-per-line listing. Unlike BytecodeEmitter, it never resolves a
// label to a byte offset: jump sites carry the raw label id as a 1-byte
// PUSH immediate, and "// label {id}" marks where each JUMPDEST lands.
// The listing is for reading, not for reassembling back to bytecode.
type AssemblyEmitter struct {
	symbols    *semantic.SymbolTable
	lines      []string
	labelCount int
}

// NewAssemblyEmitter returns an emitter over symbols with an empty
// listing.
func NewAssemblyEmitter(symbols *semantic.SymbolTable) *AssemblyEmitter {
	return &AssemblyEmitter{symbols: symbols}
}

// EmitAssembly compiles program against symbols into a mnemonic listing.
func EmitAssembly(program *ast.Program, symbols *semantic.SymbolTable) ([]string, error) {
	e := NewAssemblyEmitter(symbols)
	for _, stmt := range program.Statements {
		if err := e.statement(stmt); err != nil {
			return nil, err
		}
	}
	return e.lines, nil
}

func (e *AssemblyEmitter) emitLine(line string) { e.lines = append(e.lines, line) }

func (e *AssemblyEmitter) emitOpcode(op byte) {
	name, ok := mnemonicFor(op)
	if !ok {
		name = fmt.Sprintf("0x%02X", op)
	}
	e.emitLine(name)
}

// emitPush writes "PUSHn 0x{HEX}" with HEX uppercase and padded to 2n
// hex digits.
func (e *AssemblyEmitter) emitPush(n int, value *big.Int) {
	buf := make([]byte, n)
	value.FillBytes(buf)
	e.emitLine(fmt.Sprintf("PUSH%d 0x%s", n, strings.ToUpper(hex.EncodeToString(buf))))
}

func (e *AssemblyEmitter) push1(v int) { e.emitPush(1, big.NewInt(int64(v))) }
func (e *AssemblyEmitter) push2(v int) { e.emitPush(2, big.NewInt(int64(v))) }

func (e *AssemblyEmitter) pushInt(v int) { e.emitPush(bytesFor(v), big.NewInt(int64(v))) }

func (e *AssemblyEmitter) newLabel() int {
	id := e.labelCount
	e.labelCount++
	return id
}

// emitLabelPush encodes the raw label id as a 1-byte PUSH immediate; see
// the type doc for why this never becomes a resolved offset.
func (e *AssemblyEmitter) emitLabelPush(labelID int) {
	e.emitLine(fmt.Sprintf("PUSH1 0x%02X", labelID))
}

func (e *AssemblyEmitter) markLabel(labelID int) {
	e.emitLine(fmt.Sprintf("// label %d", labelID))
}

func (e *AssemblyEmitter) statement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.VariableDeclaration:
		return e.store(s.Name, s.Initializer)
	case ast.Assignment:
		return e.store(s.Name, s.Expression)
	case ast.IfStatement:
		return e.ifStatement(s)
	case ast.WhileStatement:
		return e.whileStatement(s)
	case ast.ExpressionStatement:
		return e.expression(s.Expression)
	default:
		return fmt.Errorf("codegen: unhandled statement type %T", stmt)
	}
}

func (e *AssemblyEmitter) store(name string, value ast.Expression) error {
	if err := e.expression(value); err != nil {
		return err
	}
	sym, ok := e.symbols.Lookup(name)
	if !ok {
		return fmt.Errorf("codegen: %q has no symbol table entry", name)
	}
	e.pushInt(sym.Offset)
	if prim, ok := sym.Type.(semantic.Primitive); ok && prim.Type == ast.U8 {
		e.emitOpcode(MSTORE8)
	} else {
		e.emitOpcode(MSTORE)
	}
	return nil
}

func (e *AssemblyEmitter) ifStatement(stmt ast.IfStatement) error {
	elseID := e.newLabel()
	endID := e.newLabel()

	if err := e.expression(stmt.Condition); err != nil {
		return err
	}
	e.emitLabelPush(elseID)
	e.emitOpcode(JUMPI)

	for _, s := range stmt.Then {
		if err := e.statement(s); err != nil {
			return err
		}
	}
	e.emitLabelPush(endID)
	e.emitOpcode(JUMP)

	e.markLabel(elseID)
	e.emitOpcode(JUMPDEST)
	for _, s := range stmt.Else {
		if err := e.statement(s); err != nil {
			return err
		}
	}

	e.markLabel(endID)
	e.emitOpcode(JUMPDEST)
	return nil
}

func (e *AssemblyEmitter) whileStatement(stmt ast.WhileStatement) error {
	startID := e.newLabel()
	endID := e.newLabel()

	e.markLabel(startID)
	e.emitOpcode(JUMPDEST)

	if err := e.expression(stmt.Condition); err != nil {
		return err
	}
	e.emitLabelPush(endID)
	e.emitOpcode(JUMPI)

	for _, s := range stmt.Body {
		if err := e.statement(s); err != nil {
			return err
		}
	}
	e.emitLabelPush(startID)
	e.emitOpcode(JUMP)

	e.markLabel(endID)
	e.emitOpcode(JUMPDEST)
	return nil
}

func (e *AssemblyEmitter) expression(expr ast.Expression) error {
	switch ex := expr.(type) {
	case *ast.NumberLiteral:
		e.emitPush(ex.BitWidth/8, ex.Value)
		return nil

	case ast.BooleanLiteral:
		if ex.Value {
			e.push1(1)
		} else {
			e.push1(0)
		}
		return nil

	case ast.StringLiteral:
		encoded := []byte(ex.Value)
		if len(encoded) > 32 {
			return StringTooLongError{Length: len(encoded)}
		}
		e.emitPush(32, new(big.Int).SetBytes(encoded))
		return nil

	case ast.Identifier:
		sym, ok := e.symbols.Lookup(ex.Name)
		if !ok {
			return fmt.Errorf("codegen: %q has no symbol table entry", ex.Name)
		}
		e.pushInt(sym.Offset)
		e.emitOpcode(MLOAD)
		return nil

	case ast.BinaryExpression:
		return e.binary(ex)

	case ast.ArrayLiteral:
		return e.arrayLiteral(ex)

	case ast.ArrayAccess:
		return e.arrayAccess(ex)

	default:
		return fmt.Errorf("codegen: unhandled expression type %T", expr)
	}
}

func (e *AssemblyEmitter) binary(expr ast.BinaryExpression) error {
	if err := e.expression(expr.Left); err != nil {
		return err
	}
	if err := e.expression(expr.Right); err != nil {
		return err
	}
	ops, ok := operatorOpcodes[expr.Operator]
	if !ok {
		return UnsupportedOperatorError{Operator: expr.Operator}
	}
	for _, op := range ops {
		e.emitOpcode(op)
	}
	return nil
}

func (e *AssemblyEmitter) emitFreePointerBump(count int) {
	e.push1(0x40)
	e.emitOpcode(MLOAD)
	e.emitOpcode(DUP1)
	e.push2(count * 32)
	e.emitOpcode(ADD)
	e.push1(0x40)
	e.emitOpcode(SWAP1)
	e.emitOpcode(MSTORE)
}

// arrayLiteral re-duplicates the base pointer per element via DUP2/SWAP1,
// diverging from the bytecode emitter's form -- see its doc comment.
func (e *AssemblyEmitter) arrayLiteral(expr ast.ArrayLiteral) error {
	e.emitFreePointerBump(len(expr.Elements))
	for i, elem := range expr.Elements {
		e.push2(i * 32)
		e.emitOpcode(ADD)
		e.emitOpcode(DUP2)
		if err := e.expression(elem); err != nil {
			return err
		}
		e.emitOpcode(SWAP1)
		e.emitOpcode(MSTORE)
	}
	return nil
}

func (e *AssemblyEmitter) arrayAccess(expr ast.ArrayAccess) error {
	if err := e.expression(expr.Array); err != nil {
		return err
	}
	if err := e.expression(expr.Index); err != nil {
		return err
	}
	e.push1(0x20)
	e.emitOpcode(MUL)
	e.emitOpcode(ADD)
	e.emitOpcode(MLOAD)
	return nil
}
