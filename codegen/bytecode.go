package codegen

import (
	"fmt"
	"math/big"

	"evmc/ast"
	"evmc/semantic"
)

// BytecodeEmitter walks the AST and symbol table into a raw EVM byte
// sequence. Control-flow labels are backpatched once traversal completes;
// the caller obtains the byte slice only after EmitBytecode's patching
// pass succeeds.
type BytecodeEmitter struct {
	symbols *semantic.SymbolTable
	buf     []byte
	labels  *Labels
}

// NewBytecodeEmitter returns an emitter over symbols with an empty output
// buffer.
func NewBytecodeEmitter(symbols *semantic.SymbolTable) *BytecodeEmitter {
	return &BytecodeEmitter{symbols: symbols, labels: NewLabels()}
}

// EmitBytecode compiles program against symbols into raw bytecode.
func EmitBytecode(program *ast.Program, symbols *semantic.SymbolTable) ([]byte, error) {
	e := NewBytecodeEmitter(symbols)
	for _, stmt := range program.Statements {
		if err := e.statement(stmt); err != nil {
			return nil, err
		}
	}
	if err := e.labels.Patch(e.buf); err != nil {
		return nil, err
	}
	return e.buf, nil
}

func (e *BytecodeEmitter) emit(op byte) { e.buf = append(e.buf, op) }

// emitPush writes a PUSHn opcode followed by value encoded big-endian,
// zero-padded, in n bytes.
func (e *BytecodeEmitter) emitPush(n int, value *big.Int) {
	e.emit(pushOpcode(n))
	start := len(e.buf)
	e.buf = append(e.buf, make([]byte, n)...)
	value.FillBytes(e.buf[start:])
}

func (e *BytecodeEmitter) push1(v int) { e.emitPush(1, big.NewInt(int64(v))) }
func (e *BytecodeEmitter) push2(v int) { e.emitPush(2, big.NewInt(int64(v))) }

// pushInt pushes v with the narrowest width bytesFor allows.
func (e *BytecodeEmitter) pushInt(v int) { e.emitPush(bytesFor(v), big.NewInt(int64(v))) }

// emitPlaceholderPush reserves size zero bytes for a forward-referenced
// label and registers the pending push for later patching.
func (e *BytecodeEmitter) emitPlaceholderPush(size, labelID int) {
	e.emit(pushOpcode(size))
	e.labels.Pending(len(e.buf), labelID, size)
	e.buf = append(e.buf, make([]byte, size)...)
}

func (e *BytecodeEmitter) newLabel() int { return e.labels.New() }

func (e *BytecodeEmitter) markLabel(labelID int) { e.labels.Record(labelID, len(e.buf)) }

func (e *BytecodeEmitter) statement(stmt ast.Statement) error {
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

// store emits value, then the variable's offset, then MSTORE8 (for a
// Primitive(U8) symbol) or MSTORE -- the rule shared by declarations and
// assignments alike.
func (e *BytecodeEmitter) store(name string, value ast.Expression) error {
	if err := e.expression(value); err != nil {
		return err
	}
	sym, ok := e.symbols.Lookup(name)
	if !ok {
		return fmt.Errorf("codegen: %q has no symbol table entry", name)
	}
	e.pushInt(sym.Offset)
	if prim, ok := sym.Type.(semantic.Primitive); ok && prim.Type == ast.U8 {
		e.emit(MSTORE8)
	} else {
		e.emit(MSTORE)
	}
	return nil
}

func (e *BytecodeEmitter) ifStatement(stmt ast.IfStatement) error {
	elseID := e.newLabel()
	endID := e.newLabel()

	if err := e.expression(stmt.Condition); err != nil {
		return err
	}
	e.emitPlaceholderPush(1, elseID)
	e.emit(JUMPI)

	for _, s := range stmt.Then {
		if err := e.statement(s); err != nil {
			return err
		}
	}
	e.emitPlaceholderPush(1, endID)
	e.emit(JUMP)

	e.markLabel(elseID)
	e.emit(JUMPDEST)
	for _, s := range stmt.Else {
		if err := e.statement(s); err != nil {
			return err
		}
	}

	e.markLabel(endID)
	e.emit(JUMPDEST)
	return nil
}

func (e *BytecodeEmitter) whileStatement(stmt ast.WhileStatement) error {
	startID := e.newLabel()
	endID := e.newLabel()

	e.markLabel(startID)
	e.emit(JUMPDEST)

	if err := e.expression(stmt.Condition); err != nil {
		return err
	}
	e.emitPlaceholderPush(1, endID)
	e.emit(JUMPI)

	for _, s := range stmt.Body {
		if err := e.statement(s); err != nil {
			return err
		}
	}
	e.emitPlaceholderPush(1, startID)
	e.emit(JUMP)

	e.markLabel(endID)
	e.emit(JUMPDEST)
	return nil
}

func (e *BytecodeEmitter) expression(expr ast.Expression) error {
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
		e.emit(MLOAD)
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

func (e *BytecodeEmitter) binary(expr ast.BinaryExpression) error {
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
		e.emit(op)
	}
	return nil
}

// emitFreePointerBump reads the free-memory pointer, leaves it on the
// stack as the array's base, and advances it by count*32 bytes.
func (e *BytecodeEmitter) emitFreePointerBump(count int) {
	e.push1(0x40)
	e.emit(MLOAD)
	e.emit(DUP1)
	e.push2(count * 32)
	e.emit(ADD)
	e.push1(0x40)
	e.emit(SWAP1)
	e.emit(MSTORE)
}

// arrayLiteral reproduces the bytecode emitter's element-store sequence
// verbatim: the base pointer left by emitFreePointerBump is not
// re-duplicated per element, unlike the assembly emitter's form.
func (e *BytecodeEmitter) arrayLiteral(expr ast.ArrayLiteral) error {
	e.emitFreePointerBump(len(expr.Elements))
	for i, elem := range expr.Elements {
		e.push2(i * 32)
		e.emit(ADD)
		if err := e.expression(elem); err != nil {
			return err
		}
		e.emit(MSTORE)
	}
	return nil
}

func (e *BytecodeEmitter) arrayAccess(expr ast.ArrayAccess) error {
	if err := e.expression(expr.Array); err != nil {
		return err
	}
	if err := e.expression(expr.Index); err != nil {
		return err
	}
	e.push1(0x20)
	e.emit(MUL)
	e.emit(ADD)
	e.emit(MLOAD)
	return nil
}
