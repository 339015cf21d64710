package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"evmc/lexer"
)

type tokenizeCmd struct{}

func (*tokenizeCmd) Name() string     { return "tokenize" }
func (*tokenizeCmd) Synopsis() string { return "Scan a source file and print its tokens" }
func (*tokenizeCmd) Usage() string {
	return `tokenize <file>:
  Print one token per line.
`
}
func (*tokenizeCmd) SetFlags(f *flag.FlagSet) {}

func (*tokenizeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexing error: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, tok := range tokens {
		fmt.Println(tok)
	}
	return subcommands.ExitSuccess
}
