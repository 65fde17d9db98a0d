package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/agenthands/nlogo/pkg/compiler/lexer"
	"github.com/agenthands/nlogo/pkg/compiler/parser"
	"github.com/agenthands/nlogo/pkg/core/diag"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantErr  bool
		wantLine int
	}{
		{"Empty", "", false, 0},
		{"Balanced", "REPEAT 4 [ FD 10 REPEAT 2 [ RT 45 ] ]", false, 0},
		{"NoBrackets", "FD 10 RT 90", false, 0},
		{"ExtraClose", "FD 10\nRT 90 ]\nFD 5", true, 2},
		{"CloseBeforeOpen", "] [", true, 1},
		{"Unclosed", "REPEAT 4 [ FD 10\nRT 90", true, 0},
		{"UnclosedNested", "REPEAT 4 [ REPEAT 2 [ FD 1 ]", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parser.Validate(lexer.Tokenize(tt.src))
			if tt.wantErr != (err != nil) {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, diag.ErrStructure) {
				t.Errorf("expected a structural error, got %v", err)
			}
			if got := diag.LineOf(err); got != tt.wantLine {
				t.Errorf("expected line %d, got %d (%v)", tt.wantLine, got, err)
			}
		})
	}
}

func TestValidateUnclosedMessage(t *testing.T) {
	err := parser.Validate(lexer.Tokenize("FD 1\nFD 2\nREPEAT 3 [ FD 3"))
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "Line") {
		t.Errorf("unclosed '[' must not cite a line: %v", err)
	}
}

func texts(tokens []lexer.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

func TestBlock(t *testing.T) {
	prog := lexer.Tokenize("REPEAT 2 [ FD 1 [ RT 2 ] ] PU")

	body, next, ok := parser.Block(prog, 2)
	if !ok {
		t.Fatal("expected block")
	}
	if got := texts(body); got != "FD 1 [ RT 2 ]" {
		t.Errorf("unexpected body %q", got)
	}
	if prog[next].Text != "PU" {
		t.Errorf("expected next to point at PU, got %q", prog[next].Text)
	}

	if _, _, ok := parser.Block(prog, 0); ok {
		t.Errorf("block must start at '['")
	}
	if _, _, ok := parser.Block(prog, len(prog)); ok {
		t.Errorf("block past the end must fail")
	}
	if _, _, ok := parser.Block(lexer.Tokenize("[ FD 1"), 0); ok {
		t.Errorf("unclosed block must fail")
	}

	empty, next, ok := parser.Block(lexer.Tokenize("[ ]"), 0)
	if !ok || len(empty) != 0 || next != 2 {
		t.Errorf("empty block: body=%v next=%d ok=%v", empty, next, ok)
	}
}

func TestDefinition(t *testing.T) {
	prog := lexer.Tokenize("DEF OUTER def inner FD 1 end RT 2 END OUTER")

	body, next, ok := parser.Definition(prog, 2)
	if !ok {
		t.Fatal("expected definition")
	}
	if got := texts(body); got != "def inner FD 1 end RT 2" {
		t.Errorf("unexpected body %q", got)
	}
	if prog[next].Text != "OUTER" {
		t.Errorf("expected next to point at the call, got %q", prog[next].Text)
	}

	if _, _, ok := parser.Definition(lexer.Tokenize("DEF A FD 1"), 2); ok {
		t.Errorf("definition without END must fail")
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"FD 10", false},
		{"REPEAT 4 [ FD 10", true},
		{"REPEAT 4 [ FD 10 ]", false},
		{"DEF SQUARE", true},
		{"DEF SQUARE\n REPEAT 4 [ FD 1 ]\nEND", false},
		{"DEF A DEF B END", true},
		{"FD 1 ] [", false},
		{"END END", false},
	}
	for _, tt := range tests {
		if got := parser.Incomplete(lexer.Tokenize(tt.src)); got != tt.want {
			t.Errorf("Incomplete(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
