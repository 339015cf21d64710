// Package semantic implements the single-pass semantic analyzer: type
// inference, type checking, and memory layout. Its output is a read-only
// SymbolTable shared by both code emitters.
package semantic

import "evmc/ast"

// TypeInfo describes the bit width and shape of a declared value.
type TypeInfo interface {
	BitWidth() int
	isTypeInfo()
}

// Primitive wraps one of the language's scalar types (U8, U16, U32, U256,
// Bool).
type Primitive struct {
	Type ast.PrimitiveType
}

func (p Primitive) BitWidth() int { return p.Type.BitWidth() }
func (Primitive) isTypeInfo()     {}

// ArrayType describes a fixed-length array of a uniform element type.
// Its bit width is element.BitWidth() * Length — this is the layout
// convention §3.3 specifies, not a rounded-up byte count.
type ArrayType struct {
	Element TypeInfo
	Length  int
}

func (a ArrayType) BitWidth() int { return a.Element.BitWidth() * a.Length }
func (ArrayType) isTypeInfo()     {}

// PrimitiveTypeOf returns the ast.PrimitiveType tag of t, and false if t is
// not a Primitive.
func PrimitiveTypeOf(t TypeInfo) (ast.PrimitiveType, bool) {
	p, ok := t.(Primitive)
	if !ok {
		return "", false
	}
	return p.Type, true
}

// FromBitWidth maps a literal's declared bit width back to its primitive
// type tag, as used when inferring the type of a NumberLiteral.
func FromBitWidth(width int) ast.PrimitiveType {
	switch width {
	case 8:
		return ast.U8
	case 16:
		return ast.U16
	case 32:
		return ast.U32
	default:
		return ast.U256
	}
}
