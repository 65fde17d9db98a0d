package lexer

// Scanner performs lexical analysis on turtle program source.
type Scanner struct {
	source []byte
	cursor int
	line   int
}

// NewScanner creates a new scanner for the given source.
func NewScanner(source []byte) *Scanner {
	return &Scanner{
		source: source,
		line:   1,
	}
}

// Tokenize scans the whole source and returns the materialized program.
func Tokenize(src string) Program {
	s := NewScanner([]byte(src))
	var prog Program
	for {
		tok := s.Next()
		if tok.Kind == KindEOF {
			return prog
		}
		prog = append(prog, tok)
	}
}

// Next returns the next token from the source. Bytes that start no token
// are skipped without a diagnostic.
func (s *Scanner) Next() Token {
	for {
		s.skipWhitespace()

		if s.cursor >= len(s.source) {
			return Token{Kind: KindEOF, Line: s.line}
		}

		ch := s.source[s.cursor]
		switch {
		case ch == '[':
			s.cursor++
			return Token{Kind: KindLBracket, Text: "[", Line: s.line}
		case ch == ']':
			s.cursor++
			return Token{Kind: KindRBracket, Text: "]", Line: s.line}
		case isDigit(ch):
			return s.scanNumber()
		case isAlpha(ch):
			return s.scanIdentifier(s.cursor, KindWord)
		case (ch == '"' || ch == ':') && isAlpha(s.peek()):
			kind := KindQuoted
			if ch == ':' {
				kind = KindVariable
			}
			start := s.cursor
			s.cursor++
			return s.scanIdentifier(start, kind)
		}

		s.cursor++
	}
}

func (s *Scanner) skipWhitespace() {
	for s.cursor < len(s.source) {
		ch := s.source[s.cursor]
		if ch == ' ' || ch == '\t' || ch == '\r' {
			s.cursor++
		} else if ch == '\n' {
			s.line++
			s.cursor++
		} else {
			break
		}
	}
}

func (s *Scanner) scanNumber() Token {
	start := s.cursor
	for s.cursor < len(s.source) && isDigit(s.source[s.cursor]) {
		s.cursor++
	}
	// A fraction needs at least one digit after the dot.
	if s.cursor < len(s.source) && s.source[s.cursor] == '.' && isDigit(s.peek()) {
		s.cursor++
		for s.cursor < len(s.source) && isDigit(s.source[s.cursor]) {
			s.cursor++
		}
	}
	return Token{Kind: KindNumber, Text: string(s.source[start:s.cursor]), Line: s.line}
}

// scanIdentifier consumes [A-Za-z_][A-Za-z0-9_]* starting at the cursor.
// start marks the beginning of the token text, which includes any sigil.
func (s *Scanner) scanIdentifier(start int, kind Kind) Token {
	s.cursor++
	for s.cursor < len(s.source) && isWordChar(s.source[s.cursor]) {
		s.cursor++
	}
	return Token{Kind: kind, Text: string(s.source[start:s.cursor]), Line: s.line}
}

func (s *Scanner) peek() byte {
	if s.cursor+1 >= len(s.source) {
		return 0
	}
	return s.source[s.cursor+1]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isWordChar(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}
