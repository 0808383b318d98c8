package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{
			input:    "metric.test.*.asd.count",
			expected: []TokenType{TokenIdentifier, TokenDot, TokenIdentifier, TokenDot, TokenIdentifier, TokenDot, TokenIdentifier, TokenDot, TokenIdentifier},
		},
		{
			input:    "sum(test)",
			expected: []TokenType{TokenIdentifier, TokenLeftParen, TokenIdentifier, TokenRightParen},
		},
		{
			input:    "metric.{a,b}.count",
			expected: []TokenType{TokenIdentifier, TokenDot, TokenLeftBrace, TokenIdentifier, TokenComma, TokenIdentifier, TokenRightBrace, TokenDot, TokenIdentifier},
		},
		{
			input:    "scale(test, 0.002)",
			expected: []TokenType{TokenIdentifier, TokenLeftParen, TokenIdentifier, TokenComma, TokenNumber, TokenRightParen},
		},
		{
			input:    "func(a, 'str', \"str\", true, false)",
			expected: []TokenType{TokenIdentifier, TokenLeftParen, TokenIdentifier, TokenComma, TokenString, TokenComma, TokenString, TokenComma, TokenBool, TokenComma, TokenBool, TokenRightParen},
		},
		{
			input:    "asPercent(#A, #B)",
			expected: []TokenType{TokenIdentifier, TokenLeftParen, TokenIdentifier, TokenComma, TokenIdentifier, TokenRightParen},
		},
		{
			input:    "a@b",
			expected: []TokenType{TokenIdentifier, TokenIllegal, TokenIdentifier},
		},
		{
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		types := make([]TokenType, 0, len(tokens))
		for _, tok := range tokens {
			types = append(types, tok.Type)
		}
		if len(tt.expected) == 0 {
			assert.Empty(t, types, "input %q", tt.input)
			continue
		}
		assert.Equal(t, tt.expected, types, "input %q", tt.input)
	}
}

func TestLexerPositions(t *testing.T) {
	tokens := Tokenize("metric.test.*.asd.count")
	require.Len(t, tokens, 9)

	assert.Equal(t, "metric", tokens[0].Literal)
	assert.Equal(t, 1, tokens[0].Pos)

	assert.Equal(t, TokenIdentifier, tokens[4].Type)
	assert.Equal(t, "*", tokens[4].Literal)
	assert.Equal(t, 13, tokens[4].Pos)

	assert.Equal(t, "asd", tokens[6].Literal)
	assert.Equal(t, 15, tokens[6].Pos)
}

func TestLexerPositionsCountRunes(t *testing.T) {
	tokens := Tokenize("ünïcode.cpu")
	require.Len(t, tokens, 3)
	assert.Equal(t, "ünïcode", tokens[0].Literal)
	assert.Equal(t, 8, tokens[1].Pos)
	assert.Equal(t, 9, tokens[2].Pos)
}

func TestLexerEOF(t *testing.T) {
	l := NewLexer("ab ")
	tok := l.NextToken()
	require.Equal(t, TokenIdentifier, tok.Type)

	tok = l.NextToken()
	assert.Equal(t, TokenEOF, tok.Type)
	assert.Equal(t, 4, tok.Pos)

	// EOF is sticky
	assert.Equal(t, TokenEOF, l.NextToken().Type)
}

func TestLexerTemplateVariable(t *testing.T) {
	tokens := Tokenize("metric.[[server]].test")
	require.Len(t, tokens, 5)
	assert.Equal(t, TokenIdentifier, tokens[2].Type)
	assert.Equal(t, "[[server]]", tokens[2].Literal)

	tokens = Tokenize("metric.$server.test")
	require.Len(t, tokens, 5)
	assert.Equal(t, "$server", tokens[2].Literal)
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input    string
		literal  string
		unclosed bool
	}{
		{input: "'hello world'", literal: "hello world"},
		{input: `"double"`, literal: "double"},
		{input: `'it\'s'`, literal: `it\'s`},
		{input: `'a"b'`, literal: `a"b`},
		{input: "'unclosed", literal: "unclosed", unclosed: true},
		{input: `"unclosed \"`, literal: `unclosed \"`, unclosed: true},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		require.Len(t, tokens, 1, "input %q", tt.input)
		tok := tokens[0]
		assert.Equal(t, TokenString, tok.Type, "input %q", tt.input)
		assert.Equal(t, tt.literal, tok.Literal, "input %q", tt.input)
		assert.Equal(t, tt.unclosed, tok.Unclosed, "input %q", tt.input)
		assert.Equal(t, tt.unclosed, tok.Malformed, "input %q", tt.input)
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input     string
		typ       TokenType
		base      int
		malformed bool
	}{
		{input: "42", typ: TokenNumber, base: 10},
		{input: "0.002", typ: TokenNumber, base: 10},
		{input: "-1", typ: TokenNumber, base: 10},
		{input: "1.5e10", typ: TokenNumber, base: 10},
		{input: "-2E-3", typ: TokenNumber, base: 10},
		{input: "0x1F", typ: TokenNumber, base: 16},
		{input: "0x", typ: TokenNumber, base: 16, malformed: true},
		{input: "017", typ: TokenNumber, base: 8},
		{input: "019", typ: TokenNumber, base: 8, malformed: true},
		{input: "1h", typ: TokenIdentifier},
		{input: "5xx", typ: TokenIdentifier},
		{input: "1e", typ: TokenIdentifier},
		{input: "-east", typ: TokenIdentifier},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		require.Len(t, tokens, 1, "input %q", tt.input)
		tok := tokens[0]
		assert.Equal(t, tt.typ, tok.Type, "input %q", tt.input)
		assert.Equal(t, tt.input, tok.Literal, "input %q", tt.input)
		assert.Equal(t, tt.base, tok.Base, "input %q", tt.input)
		assert.Equal(t, tt.malformed, tok.Malformed, "input %q", tt.input)
	}
}

func TestLexerNumberFollowedByPunctuator(t *testing.T) {
	tokens := Tokenize("{001,002}-east")
	require.Len(t, tokens, 6)
	assert.Equal(t, TokenNumber, tokens[1].Type)
	assert.Equal(t, "001", tokens[1].Literal)
	assert.Equal(t, TokenNumber, tokens[3].Type)
	assert.Equal(t, TokenRightBrace, tokens[4].Type)
	assert.Equal(t, TokenIdentifier, tokens[5].Type)
	assert.Equal(t, "-east", tokens[5].Literal)
}

func TestLexerBooleans(t *testing.T) {
	tokens := Tokenize("true false truest")
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenBool, tokens[0].Type)
	assert.Equal(t, TokenBool, tokens[1].Type)
	assert.Equal(t, TokenIdentifier, tokens[2].Type)
}

func TestLexerIllegalRune(t *testing.T) {
	tokens := Tokenize("a.b@")
	require.Len(t, tokens, 4)
	assert.Equal(t, TokenIllegal, tokens[3].Type)
	assert.Equal(t, "@", tokens[3].Literal)
	assert.Equal(t, 4, tokens[3].Pos)
	assert.True(t, tokens[3].Malformed)
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "identifier", TokenIdentifier.String())
	assert.Equal(t, ")", TokenRightParen.String())
	assert.Equal(t, "end of string", TokenEOF.String())
	assert.Equal(t, "unknown", TokenType(99).String())
}
