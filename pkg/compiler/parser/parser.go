package parser

import (
	"strings"

	"github.com/agenthands/nlogo/pkg/compiler/lexer"
	"github.com/agenthands/nlogo/pkg/core/diag"
)

// Validate checks bracket balance before anything runs. An extra ']' fails
// at its own line; an unclosed '[' fails without a line because the opening
// bracket cannot be told apart from its neighbours reliably.
func Validate(prog lexer.Program) error {
	depth := 0
	for _, tok := range prog {
		switch tok.Kind {
		case lexer.KindLBracket:
			depth++
		case lexer.KindRBracket:
			depth--
			if depth < 0 {
				return diag.Errorf(diag.KindStructure, tok.Line, "Found extra ']' without '['")
			}
		}
	}
	if depth > 0 {
		return diag.Errorf(diag.KindStructure, 0, "Missing ']' for a REPEAT loop! Check your brackets.")
	}
	return nil
}

// Block extracts the balanced bracketed block that starts at tokens[start].
// It returns the tokens strictly inside the brackets and the index just past
// the closing ']'. ok is false when tokens[start] is not '[' or the block is
// never closed.
func Block(tokens []lexer.Token, start int) (body []lexer.Token, next int, ok bool) {
	if start >= len(tokens) || tokens[start].Kind != lexer.KindLBracket {
		return nil, start, false
	}

	depth := 1
	for i := start + 1; i < len(tokens); i++ {
		switch tokens[i].Kind {
		case lexer.KindLBracket:
			depth++
		case lexer.KindRBracket:
			depth--
			if depth == 0 {
				return tokens[start+1 : i], i + 1, true
			}
		}
	}
	return nil, len(tokens), false
}

// Definition extracts a procedure body that starts at tokens[start], the
// first token after the procedure name. Nested DEF/END pairs are part of the
// body. next is the index just past the matching END.
func Definition(tokens []lexer.Token, start int) (body []lexer.Token, next int, ok bool) {
	depth := 1
	for i := start; i < len(tokens); i++ {
		if tokens[i].Kind != lexer.KindWord {
			continue
		}
		switch strings.ToUpper(tokens[i].Text) {
		case "DEF":
			depth++
		case "END":
			depth--
			if depth == 0 {
				return tokens[start:i], i + 1, true
			}
		}
	}
	return nil, len(tokens), false
}

// Incomplete reports whether more input could still close the program: a
// '[' or a DEF is left open and no stray ']' has appeared.
func Incomplete(prog lexer.Program) bool {
	brackets, defs := 0, 0
	for _, tok := range prog {
		switch tok.Kind {
		case lexer.KindLBracket:
			brackets++
		case lexer.KindRBracket:
			brackets--
			if brackets < 0 {
				return false
			}
		case lexer.KindWord:
			switch strings.ToUpper(tok.Text) {
			case "DEF":
				defs++
			case "END":
				if defs > 0 {
					defs--
				}
			}
		}
	}
	return brackets > 0 || defs > 0
}
