package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"evmc/ast"
	"evmc/codegen"
	"evmc/lexer"
	"evmc/parser"
	"evmc/semantic"
)

type buildCmd struct {
	disassemble bool
}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "Compile a source file to assembly and bytecode" }
func (*buildCmd) Usage() string {
	return `build <file>:
  Write <file>.asm (assembly listing) and <file>.bin (hex-encoded
  bytecode) next to the source file.
`
}

func (cmd *buildCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", false, "also print a disassembly of the emitted bytecode to stdout")
}

func (cmd *buildCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "file not provided")
		return subcommands.ExitUsageError
	}
	sourceFile := args[0]

	data, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	program, symbols, err := compile(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	asmLines, err := codegen.EmitAssembly(program, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "assembly emission error: %v\n", err)
		return subcommands.ExitFailure
	}
	bytecode, err := codegen.EmitBytecode(program, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bytecode emission error: %v\n", err)
		return subcommands.ExitFailure
	}

	base := strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile))
	asmPath := base + ".asm"
	binPath := base + ".bin"

	if err := os.WriteFile(asmPath, []byte(strings.Join(asmLines, "\n")+"\n"), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", asmPath, err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(binPath, []byte(hex.EncodeToString(bytecode)+"\n"), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", binPath, err)
		return subcommands.ExitFailure
	}

	if cmd.disassemble {
		lines, err := codegen.Disassemble(bytecode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "disassemble error: %v\n", err)
			return subcommands.ExitFailure
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	}

	return subcommands.ExitSuccess
}

// compile runs the full pipeline through semantic analysis, sharing the
// result between the assembly and bytecode emitters.
func compile(source string) (*ast.Program, *semantic.SymbolTable, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return nil, nil, fmt.Errorf("lexing error: %w", err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("parse error: %w", err)
	}
	symbols, err := semantic.Analyze(program)
	if err != nil {
		return nil, nil, fmt.Errorf("semantic error: %w", err)
	}
	return program, symbols, nil
}
