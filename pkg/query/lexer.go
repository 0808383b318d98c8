package query

import (
	"math"
	"strconv"
	"unicode"
)

// eof is returned by peek past the end of the input.
const eof rune = -1

// Lexer tokenizes Graphite target strings.
// Positions are counted in runes so that error offsets line up with what the
// user sees in the editor.
type Lexer struct {
	input []rune
	pos   int // index of the next rune to scan
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

// Tokenize returns every token of input in order. The EOF token is not included.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// peek looks at the rune offset positions ahead without advancing
func (l *Lexer) peek(offset int) rune {
	i := l.pos + offset
	if i < 0 || i >= len(l.input) {
		return eof
	}
	return l.input[i]
}

// text returns the next n runes as a string
func (l *Lexer) text(from, to int) string {
	return string(l.input[l.pos+from : l.pos+to])
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: len(l.input) + 1}
	}

	scanners := []func() (Token, int, bool){
		l.scanString,
		l.scanPunctuator,
		l.scanNumber,
		l.scanIdentifier,
		l.scanTemplateSequence,
	}
	for _, scan := range scanners {
		if tok, width, ok := scan(); ok {
			tok.Pos = l.pos + 1
			l.pos += width
			return tok
		}
	}

	// Nothing matched. Hand the rune to the parser as an illegal token.
	tok := Token{Type: TokenIllegal, Literal: l.text(0, 1), Pos: l.pos + 1, Malformed: true}
	l.pos++
	return tok
}

// skipWhitespace skips whitespace between tokens
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

// scanString reads a single or double quoted string. Backslash escapes are kept
// verbatim but an escaped quote does not terminate the literal.
func (l *Lexer) scanString() (Token, int, bool) {
	quote := l.peek(0)
	if quote != '"' && quote != '\'' {
		return Token{}, 0, false
	}

	i := 1
	for {
		switch ch := l.peek(i); {
		case ch == eof:
			return Token{Type: TokenString, Literal: l.text(1, i), Unclosed: true, Malformed: true}, i, true
		case ch == '\\' && l.peek(i+1) != eof:
			i += 2
		case ch == quote:
			return Token{Type: TokenString, Literal: l.text(1, i)}, i + 1, true
		default:
			i++
		}
	}
}

func (l *Lexer) scanPunctuator() (Token, int, bool) {
	ch := l.peek(0)
	t, ok := punctuators[ch]
	if !ok {
		return Token{}, 0, false
	}
	return Token{Type: t, Literal: string(ch)}, 1, true
}

var punctuators = map[rune]TokenType{
	'.': TokenDot,
	'(': TokenLeftParen,
	')': TokenRightParen,
	',': TokenComma,
	'{': TokenLeftBrace,
	'}': TokenRightBrace,
}

// scanNumber reads decimal, hex and octal literals with an optional leading
// minus and exponent. A number has to be followed by a punctuator, whitespace
// or the end of input; anything else means the text is an identifier such as
// 1h or 5xx.
func (l *Lexer) scanNumber() (Token, int, bool) {
	i := 0
	ch := l.peek(0)
	if ch == '-' {
		i++
		ch = l.peek(i)
	}
	if ch != '.' && !isDecimalDigit(ch) {
		return Token{}, 0, false
	}

	if ch != '.' {
		first := ch
		i++
		ch = l.peek(i)

		if first == '0' {
			switch {
			case ch == 'x' || ch == 'X':
				i++
				digits := 0
				for isHexDigit(l.peek(i)) {
					i++
					digits++
				}
				if !l.terminates(i) {
					return Token{}, 0, false
				}
				return Token{Type: TokenNumber, Literal: l.text(0, i), Base: 16, Malformed: digits == 0}, i, true

			case isDecimalDigit(ch):
				// 0 followed by digits is octal; 8 and 9 make it malformed
				bad := false
				for isDecimalDigit(l.peek(i)) {
					if !isOctalDigit(l.peek(i)) {
						bad = true
					}
					i++
				}
				if !l.terminates(i) {
					return Token{}, 0, false
				}
				return Token{Type: TokenNumber, Literal: l.text(0, i), Base: 8, Malformed: bad}, i, true
			}
		}

		for isDecimalDigit(l.peek(i)) {
			i++
		}
		ch = l.peek(i)
	}

	if ch == '.' {
		i++
		for isDecimalDigit(l.peek(i)) {
			i++
		}
		ch = l.peek(i)
	}

	if ch == 'e' || ch == 'E' {
		i++
		if sign := l.peek(i); sign == '+' || sign == '-' {
			i++
		}
		if !isDecimalDigit(l.peek(i)) {
			return Token{}, 0, false
		}
		for isDecimalDigit(l.peek(i)) {
			i++
		}
	}

	if !l.terminates(i) {
		return Token{}, 0, false
	}

	literal := l.text(0, i)
	value, err := strconv.ParseFloat(literal, 64)
	malformed := err != nil || math.IsInf(value, 0)
	return Token{Type: TokenNumber, Literal: literal, Base: 10, Malformed: malformed}, i, true
}

// scanIdentifier reads metric path components, function names, series
// references and template variables. true and false become bool tokens.
func (l *Lexer) scanIdentifier() (Token, int, bool) {
	i := 0
	for isIdentifierRune(l.peek(i)) {
		i++
	}
	if i == 0 {
		return Token{}, 0, false
	}

	literal := l.text(0, i)
	if literal == "true" || literal == "false" {
		return Token{Type: TokenBool, Literal: literal}, i, true
	}
	return Token{Type: TokenIdentifier, Literal: literal}, i, true
}

func (l *Lexer) scanTemplateSequence() (Token, int, bool) {
	switch {
	case l.peek(0) == '[' && l.peek(1) == '[':
		return Token{Type: TokenTemplateStart, Literal: "[["}, 2, true
	case l.peek(0) == ']' && l.peek(1) == ']':
		return Token{Type: TokenTemplateEnd, Literal: "]]"}, 2, true
	}
	return Token{}, 0, false
}

// terminates reports whether a number ending offset runes ahead is complete.
func (l *Lexer) terminates(offset int) bool {
	ch := l.peek(offset)
	if ch == eof || unicode.IsSpace(ch) {
		return true
	}
	_, ok := punctuators[ch]
	return ok
}

// identifierTable holds the ASCII runes allowed in identifiers.
var identifierTable = func() [128]bool {
	var table [128]bool
	for ch := '0'; ch <= '9'; ch++ {
		table[ch] = true
	}
	for ch := 'a'; ch <= 'z'; ch++ {
		table[ch] = true
	}
	for ch := 'A'; ch <= 'Z'; ch++ {
		table[ch] = true
	}
	for _, ch := range "$~|_-*:[]?%#=" {
		table[ch] = true
	}
	return table
}()

func isIdentifierRune(ch rune) bool {
	if ch < 0 {
		return false
	}
	if ch < 128 {
		return identifierTable[ch]
	}
	return unicode.Is(unicode.Letter, ch)
}

func isDecimalDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isOctalDigit(ch rune) bool {
	return ch >= '0' && ch <= '7'
}

func isHexDigit(ch rune) bool {
	return isDecimalDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
