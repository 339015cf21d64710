package codegen

import "testing"

func TestDisassembleRoundTripsPushImmediate(t *testing.T) {
	program, symbols := compileSource(t, "let x = 5;")
	code, err := EmitBytecode(program, symbols)
	if err != nil {
		t.Fatalf("EmitBytecode() error: %v", err)
	}
	lines, err := Disassemble(code)
	if err != nil {
		t.Fatalf("Disassemble() error: %v", err)
	}
	want := []string{
		"PUSH32 0x0000000000000000000000000000000000000000000000000000000000000005",
		"PUSH1 0x00",
		"MSTORE",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDisassembleTruncatedPush(t *testing.T) {
	code := []byte{pushOpcode(4), 0x01, 0x02}
	if _, err := Disassemble(code); err == nil {
		t.Fatal("expected an error for a truncated PUSH immediate")
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	code := []byte{0x0C} // not in this compiler's emitted subset
	if _, err := Disassemble(code); err == nil {
		t.Fatal("expected an error for an unknown opcode")
	}
}

func TestAssemblyAndBytecodePushImmediatesAgree(t *testing.T) {
	// The shared testable property from spec §8's Round-trips section:
	// assembly and bytecode PUSH immediates must decode to the same
	// integer value, even though jump-target widths can differ.
	program, symbols := compileSource(t, "let x: u16 = 1000;")

	asmLines, err := EmitAssembly(program, symbols)
	if err != nil {
		t.Fatalf("EmitAssembly() error: %v", err)
	}
	code, err := EmitBytecode(program, symbols)
	if err != nil {
		t.Fatalf("EmitBytecode() error: %v", err)
	}
	byteLines, err := Disassemble(code)
	if err != nil {
		t.Fatalf("Disassemble() error: %v", err)
	}

	if asmLines[0] != byteLines[0] {
		t.Errorf("asm PUSH line = %q, bytecode PUSH line = %q", asmLines[0], byteLines[0])
	}
}
