package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"evmc/codegen"
	"evmc/lexer"
	"evmc/parser"
	"evmc/semantic"
	"evmc/token"
)

type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive assembly session" }
func (*replCmd) Usage() string {
	return `repl:
  Read a statement, compile it, and print its assembly listing. Nothing
  is executed; this driver has no VM.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Println(err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buffer.Len() == 0 {
				break
			}
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println(err)
			return subcommands.ExitFailure
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, lexErr := lexer.New(source).Scan()
		if lexErr != nil {
			fmt.Println(lexErr)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		program, parseErr := parser.Parse(tokens)
		if parseErr != nil {
			if isEOFError(parseErr, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Println(parseErr)
			buffer.Reset()
			continue
		}

		symbols, semErr := semantic.Analyze(program)
		if semErr != nil {
			fmt.Println(semErr)
			buffer.Reset()
			continue
		}

		asmLines, emitErr := codegen.EmitAssembly(program, symbols)
		if emitErr != nil {
			fmt.Println(emitErr)
			buffer.Reset()
			continue
		}
		for _, asmLine := range asmLines {
			fmt.Println(asmLine)
		}
		buffer.Reset()
	}
	return subcommands.ExitSuccess
}

// isInputReady reports whether tokens form a complete statement: braces
// balance, and the last non-EOF token isn't one that expects a
// continuation. Otherwise the REPL keeps accumulating lines.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		if tok.Kind != token.Punctuation {
			continue
		}
		switch tok.Lexeme {
		case "{":
			braceBalance++
		case "}":
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	if last.Kind == token.Operator {
		return false
	}
	if last.Kind == token.Punctuation && (last.Lexeme == "(" || last.Lexeme == "," || last.Lexeme == "{") {
		return false
	}
	if last.Kind == token.Keyword {
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Kind != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// isEOFError reports whether err is a parser error positioned at eof,
// meaning the statement is merely incomplete rather than malformed.
func isEOFError(err error, eof token.Token) bool {
	var pos token.Token
	switch e := err.(type) {
	case parser.ExpectedError:
		pos = e.Actual
	case parser.UnexpectedTokenError:
		pos = e.Token
	default:
		return false
	}
	return pos.Line == eof.Line && pos.Column == eof.Column
}
