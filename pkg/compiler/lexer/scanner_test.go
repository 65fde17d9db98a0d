package lexer_test

import (
	"testing"

	"github.com/agenthands/nlogo/pkg/compiler/lexer"
)

func TestScannerKinds(t *testing.T) {
	src := []byte(`REPEAT 4 [ FD 12.5 RT :angle ] "reserved`)
	s := lexer.NewScanner(src)

	expected := []struct {
		kind lexer.Kind
		text string
	}{
		{lexer.KindWord, "REPEAT"},
		{lexer.KindNumber, "4"},
		{lexer.KindLBracket, "["},
		{lexer.KindWord, "FD"},
		{lexer.KindNumber, "12.5"},
		{lexer.KindWord, "RT"},
		{lexer.KindVariable, ":angle"},
		{lexer.KindRBracket, "]"},
		{lexer.KindQuoted, `"reserved`},
		{lexer.KindEOF, ""},
	}

	for i, exp := range expected {
		tok := s.Next()
		if tok.Kind != exp.kind || tok.Text != exp.text {
			t.Errorf("token %d: expected %v %q, got %v %q", i, exp.kind, exp.text, tok.Kind, tok.Text)
		}
	}
}

func TestTokenizeLines(t *testing.T) {
	prog := lexer.Tokenize("FD 10\n\nRT 90\r\n  PU")

	want := []lexer.Token{
		{Kind: lexer.KindWord, Text: "FD", Line: 1},
		{Kind: lexer.KindNumber, Text: "10", Line: 1},
		{Kind: lexer.KindWord, Text: "RT", Line: 3},
		{Kind: lexer.KindNumber, Text: "90", Line: 3},
		{Kind: lexer.KindWord, Text: "PU", Line: 4},
	}
	if len(prog) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(prog), prog)
	}
	for i := range want {
		if prog[i] != want[i] {
			t.Errorf("token %d: expected %+v, got %+v", i, want[i], prog[i])
		}
	}
}

func TestTokenizeSkipsUnknownBytes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"HexColor", "SETCOLOR #ff6b6b", []string{"SETCOLOR", "ff6b6b"}},
		{"DigitLeadingHex", "SETCOLOR #00ff00", []string{"SETCOLOR", "00", "ff00"}},
		{"Punctuation", "FD 10; RT 90!", []string{"FD", "10", "RT", "90"}},
		{"NoSign", "FD -10", []string{"FD", "10"}},
		{"TrailingDot", "FD 1.", []string{"FD", "1"}},
		{"BareSigils", `: " :1`, []string{"1"}},
		{"NumberThenWord", "12abc", []string{"12", "abc"}},
		{"Underscore", "_a1 :b_2", []string{"_a1", ":b_2"}},
		{"NonASCII", "FD 10 ° café", []string{"FD", "10", "caf"}},
		{"Empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := lexer.Tokenize(tt.src)
			if len(prog) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, prog)
			}
			for i, w := range tt.want {
				if prog[i].Text != w {
					t.Errorf("token %d: expected %q, got %q", i, w, prog[i].Text)
				}
			}
		})
	}
}
