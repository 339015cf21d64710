package evmtest

import (
	"math/big"
	"testing"

	"evmc/codegen"
	"evmc/lexer"
	"evmc/parser"
	"evmc/semantic"
)

func compileAndRun(t *testing.T, source string) *VM {
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
	code, err := codegen.EmitBytecode(program, symbols)
	if err != nil {
		t.Fatalf("EmitBytecode() error: %v", err)
	}
	vm := New()
	if err := vm.Run(code); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return vm
}

func TestRunStoresLiteralAtOffsetZero(t *testing.T) {
	vm := compileAndRun(t, "let x = 42;")
	got := new(big.Int).SetBytes(vm.MemoryWord(0))
	if got.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("memory[0] = %s, want 42", got)
	}
}

func TestRunArithmetic(t *testing.T) {
	vm := compileAndRun(t, "let x = 2 + 3 * 4;")
	got := new(big.Int).SetBytes(vm.MemoryWord(0))
	if got.Cmp(big.NewInt(14)) != 0 {
		t.Errorf("memory[0] = %s, want 14", got)
	}
}

// TestRunIfConditionIsInverted exercises the frozen JUMPI-sense behavior
// directly: the then-branch executes when the condition is false, so a
// true condition here leaves x untouched.
func TestRunIfConditionIsInverted(t *testing.T) {
	vm := compileAndRun(t, "let x = 0; if (1 < 2) { x = 99; }")
	got := new(big.Int).SetBytes(vm.MemoryWord(0))
	if got.Sign() != 0 {
		t.Errorf("memory[0] = %s, want 0 (condition true means the then-branch is SKIPPED per the frozen JUMPI sense)", got)
	}
}

func TestRunIfConditionFalseRunsThenBranch(t *testing.T) {
	vm := compileAndRun(t, "let x = 0; if (2 < 1) { x = 99; }")
	got := new(big.Int).SetBytes(vm.MemoryWord(0))
	if got.Cmp(big.NewInt(99)) != 0 {
		t.Errorf("memory[0] = %s, want 99", got)
	}
}

func TestRunU8StoreUsesSingleByte(t *testing.T) {
	// Offsets advance by bit width (8 for a u8), and that bit-count is
	// used directly as a byte memory address -- an intentional, frozen
	// quirk of the offset layout, not a bug in this test.
	vm := compileAndRun(t, "let x: u8 = 7; let y: u8 = 9;")
	if vm.memory[0] != 7 {
		t.Errorf("memory[0] = %d, want 7", vm.memory[0])
	}
	if vm.memory[8] != 9 {
		t.Errorf("memory[8] = %d, want 9", vm.memory[8])
	}
}

func TestStackArithmeticWrapsModuloWordSize(t *testing.T) {
	vm := New()
	a := new(big.Int).Lsh(big.NewInt(1), 255)
	vm.stack.Push(a)
	vm.stack.Push(a)
	if err := vm.binaryArith(codegen.ADD); err != nil {
		t.Fatalf("binaryArith() error: %v", err)
	}
	result, _ := vm.stack.Pop()
	if result.Sign() != 0 {
		t.Errorf("2^255 + 2^255 mod 2^256 = %s, want 0", result)
	}
}

func TestJumpToNonJumpdestFails(t *testing.T) {
	vm := New()
	code := []byte{codegen.STOP, codegen.JUMPDEST}
	vm.stack.Push(big.NewInt(0))
	err := vm.jumpTo(code, 0)
	if _, ok := err.(RuntimeError); !ok {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
}
