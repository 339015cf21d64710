// Package evmtest is a minimal stack-and-memory EVM opcode interpreter.
// It exists only to let tests execute the bytecode codegen.EmitBytecode
// produces and assert on the resulting stack/memory contents; it is not
// part of the public core API and is imported only from _test.go files.
// It implements no gas accounting, calls, storage, logs, or any other
// full-EVM behavior.
package evmtest

import (
	"math/big"

	"evmc/codegen"
)

const memoryWordSize = 32

// VM is a stack-based runtime for the opcode subset codegen emits.
type VM struct {
	stack  Stack
	memory []byte
	ip     int
}

// New returns a VM with empty stack and memory.
func New() *VM {
	return &VM{}
}

// Stack exposes the VM's stack for assertions after Run returns.
func (vm *VM) Stack() Stack { return vm.stack }

// MemoryWord reads the 32-byte word at offset, growing memory with zero
// bytes first if necessary -- mirroring how MLOAD/MSTORE auto-expand
// memory on a real EVM.
func (vm *VM) MemoryWord(offset int) []byte {
	vm.ensureMemory(offset + memoryWordSize)
	word := make([]byte, memoryWordSize)
	copy(word, vm.memory[offset:offset+memoryWordSize])
	return word
}

func (vm *VM) ensureMemory(size int) {
	if len(vm.memory) >= size {
		return
	}
	grown := make([]byte, size)
	copy(grown, vm.memory)
	vm.memory = grown
}

// Run executes code from offset 0 until STOP or the instructions are
// exhausted.
func (vm *VM) Run(code []byte) error {
	for vm.ip < len(code) {
		op := code[vm.ip]

		if n, ok := codegen.IsPush(op); ok {
			if vm.ip+1+n > len(code) {
				return RuntimeError{Message: "truncated PUSH immediate"}
			}
			value := new(big.Int).SetBytes(code[vm.ip+1 : vm.ip+1+n])
			vm.stack.Push(value)
			vm.ip += 1 + n
			continue
		}

		switch op {
		case codegen.STOP:
			return nil

		case codegen.ADD, codegen.SUB, codegen.MUL, codegen.DIV:
			if err := vm.binaryArith(op); err != nil {
				return err
			}
			vm.ip++

		case codegen.LT, codegen.GT, codegen.EQ:
			if err := vm.binaryCompare(op); err != nil {
				return err
			}
			vm.ip++

		case codegen.ISZERO:
			v, ok := vm.stack.Pop()
			if !ok {
				return RuntimeError{Message: "ISZERO: stack underflow"}
			}
			vm.stack.Push(boolWord(v.Sign() == 0))
			vm.ip++

		case codegen.AND, codegen.OR:
			if err := vm.binaryBitwise(op); err != nil {
				return err
			}
			vm.ip++

		case codegen.POP:
			if _, ok := vm.stack.Pop(); !ok {
				return RuntimeError{Message: "POP: stack underflow"}
			}
			vm.ip++

		case codegen.DUP1, codegen.DUP2:
			n := 0
			if op == codegen.DUP2 {
				n = 1
			}
			v, ok := vm.stack.PeekN(n)
			if !ok {
				return RuntimeError{Message: "DUP: stack underflow"}
			}
			vm.stack.Push(new(big.Int).Set(v))
			vm.ip++

		case codegen.SWAP1:
			top, ok1 := vm.stack.Pop()
			next, ok2 := vm.stack.Pop()
			if !ok1 || !ok2 {
				return RuntimeError{Message: "SWAP1: stack underflow"}
			}
			vm.stack.Push(top)
			vm.stack.Push(next)
			vm.ip++

		case codegen.MLOAD:
			offset, ok := vm.stack.Pop()
			if !ok {
				return RuntimeError{Message: "MLOAD: stack underflow"}
			}
			vm.stack.Push(new(big.Int).SetBytes(vm.MemoryWord(int(offset.Int64()))))
			vm.ip++

		case codegen.MSTORE:
			offset, ok1 := vm.stack.Pop()
			value, ok2 := vm.stack.Pop()
			if !ok1 || !ok2 {
				return RuntimeError{Message: "MSTORE: stack underflow"}
			}
			off := int(offset.Int64())
			vm.ensureMemory(off + memoryWordSize)
			buf := make([]byte, memoryWordSize)
			value.FillBytes(buf)
			copy(vm.memory[off:off+memoryWordSize], buf)
			vm.ip++

		case codegen.MSTORE8:
			offset, ok1 := vm.stack.Pop()
			value, ok2 := vm.stack.Pop()
			if !ok1 || !ok2 {
				return RuntimeError{Message: "MSTORE8: stack underflow"}
			}
			off := int(offset.Int64())
			vm.ensureMemory(off + 1)
			vm.memory[off] = byte(value.Int64())
			vm.ip++

		case codegen.JUMP:
			target, ok := vm.stack.Pop()
			if !ok {
				return RuntimeError{Message: "JUMP: stack underflow"}
			}
			if err := vm.jumpTo(code, int(target.Int64())); err != nil {
				return err
			}

		case codegen.JUMPI:
			target, ok1 := vm.stack.Pop()
			cond, ok2 := vm.stack.Pop()
			if !ok1 || !ok2 {
				return RuntimeError{Message: "JUMPI: stack underflow"}
			}
			if cond.Sign() != 0 {
				if err := vm.jumpTo(code, int(target.Int64())); err != nil {
					return err
				}
			} else {
				vm.ip++
			}

		case codegen.JUMPDEST:
			vm.ip++

		default:
			return RuntimeError{Message: "unknown opcode"}
		}
	}
	return nil
}

func (vm *VM) jumpTo(code []byte, target int) error {
	if target < 0 || target >= len(code) || code[target] != codegen.JUMPDEST {
		return RuntimeError{Message: "jump target is not a JUMPDEST"}
	}
	vm.ip = target
	return nil
}

func (vm *VM) binaryArith(op byte) error {
	right, ok1 := vm.stack.Pop()
	left, ok2 := vm.stack.Pop()
	if !ok1 || !ok2 {
		return RuntimeError{Message: "arithmetic: stack underflow"}
	}
	result := new(big.Int)
	switch op {
	case codegen.ADD:
		result.Add(left, right)
	case codegen.SUB:
		result.Sub(left, right)
	case codegen.MUL:
		result.Mul(left, right)
	case codegen.DIV:
		if right.Sign() == 0 {
			result.SetInt64(0)
		} else {
			result.Div(left, right)
		}
	}
	vm.stack.Push(wrapToWord(result))
	return nil
}

func (vm *VM) binaryCompare(op byte) error {
	right, ok1 := vm.stack.Pop()
	left, ok2 := vm.stack.Pop()
	if !ok1 || !ok2 {
		return RuntimeError{Message: "comparison: stack underflow"}
	}
	var result bool
	switch op {
	case codegen.LT:
		result = left.Cmp(right) < 0
	case codegen.GT:
		result = left.Cmp(right) > 0
	case codegen.EQ:
		result = left.Cmp(right) == 0
	}
	vm.stack.Push(boolWord(result))
	return nil
}

func (vm *VM) binaryBitwise(op byte) error {
	right, ok1 := vm.stack.Pop()
	left, ok2 := vm.stack.Pop()
	if !ok1 || !ok2 {
		return RuntimeError{Message: "bitwise: stack underflow"}
	}
	result := new(big.Int)
	switch op {
	case codegen.AND:
		result.And(left, right)
	case codegen.OR:
		result.Or(left, right)
	}
	vm.stack.Push(result)
	return nil
}

var wordCeiling = new(big.Int).Lsh(big.NewInt(1), 256)

// wrapToWord reduces v modulo 2^256, matching EVM word arithmetic.
// big.Int.Mod always returns a non-negative result for a positive
// modulus, so this also handles SUB underflow correctly.
func wrapToWord(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, wordCeiling)
}

func boolWord(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}
