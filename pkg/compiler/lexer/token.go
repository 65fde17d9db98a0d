package lexer

// Kind represents the type of token identified by the scanner.
type Kind uint8

const (
	KindEOF      Kind = iota
	KindLBracket      // [
	KindRBracket      // ]
	KindNumber        // 12, 3.5
	KindWord          // FD, SQUARE, red
	KindQuoted        // "word (reserved, no command consumes it yet)
	KindVariable      // :name
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindLBracket:
		return "["
	case KindRBracket:
		return "]"
	case KindNumber:
		return "number"
	case KindWord:
		return "word"
	case KindQuoted:
		return "quoted"
	case KindVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Token is a lexical unit with its literal text and 1-based source line.
type Token struct {
	Kind Kind
	Text string
	Line int
}

// Program is the ordered token sequence of one run.
type Program []Token
