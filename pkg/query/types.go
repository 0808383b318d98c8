package query

// TokenType represents the type of token in a query
type TokenType int

const (
	// Literals
	TokenIdentifier TokenType = iota // metric path components, function names, #A
	TokenNumber                      // 123, 0.5, -1e3, 0x1F, 017
	TokenString                      // 'value' or "value"
	TokenBool                        // true, false

	// Punctuators
	TokenDot        // .
	TokenLeftParen  // (
	TokenRightParen // )
	TokenComma      // ,
	TokenLeftBrace  // {
	TokenRightBrace // }

	// Template markers
	TokenTemplateStart // [[
	TokenTemplateEnd   // ]]

	// Special
	TokenEOF
	TokenIllegal
)

var tokenNames = map[TokenType]string{
	TokenIdentifier:    "identifier",
	TokenNumber:        "number",
	TokenString:        "string",
	TokenBool:          "bool",
	TokenDot:           ".",
	TokenLeftParen:     "(",
	TokenRightParen:    ")",
	TokenComma:         ",",
	TokenLeftBrace:     "{",
	TokenRightBrace:    "}",
	TokenTemplateStart: "templateStart",
	TokenTemplateEnd:   "templateEnd",
	TokenEOF:           "end of string",
	TokenIllegal:       "illegal",
}

// String returns the name used for the token type in parser error messages.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets token types appear by name in JSON output.
func (t TokenType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Token represents a single token in the query
type Token struct {
	Type    TokenType `json:"type"`
	Literal string    `json:"value"`
	Pos     int       `json:"pos"` // 1-based rune offset in the input

	// Malformed is set for unterminated strings, numbers such as 019 or 0x,
	// and runes that start no token at all.
	Malformed bool `json:"malformed,omitempty"`
	// Unclosed is set when a string literal reaches end of input.
	Unclosed bool `json:"unclosed,omitempty"`
	// Base is 8, 10 or 16 for number tokens.
	Base int `json:"base,omitempty"`
}
