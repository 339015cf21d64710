package codegen

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Disassemble walks raw bytecode produced by EmitBytecode back into a
// mnemonic-per-line listing, decoding each PUSH immediate as hex. It is
// the inverse of EmitBytecode for everything except jump targets: a
// patched bytecode JUMPDEST offset has no label id to recover, so the
// output carries no "// label" markers the way EmitAssembly's does.
func Disassemble(code []byte) ([]string, error) {
	var lines []string
	ip := 0
	for ip < len(code) {
		op := code[ip]
		if op >= pushOpcode(1) && op <= pushOpcode(32) {
			n := int(op) - pushBase
			if ip+1+n > len(code) {
				return nil, fmt.Errorf("codegen: truncated PUSH%d immediate at offset %d", n, ip)
			}
			immediate := code[ip+1 : ip+1+n]
			lines = append(lines, fmt.Sprintf("PUSH%d 0x%s", n, strings.ToUpper(hex.EncodeToString(immediate))))
			ip += 1 + n
			continue
		}
		name, ok := mnemonicFor(op)
		if !ok {
			return nil, fmt.Errorf("codegen: unknown opcode 0x%02X at offset %d", op, ip)
		}
		lines = append(lines, name)
		ip++
	}
	return lines, nil
}
