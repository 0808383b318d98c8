package query

import (
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parser parses Graphite targets using recursive descent over the token list
// produced by the lexer.
type Parser struct {
	tokens []Token
	index  int
	end    int // position reported when the input ends early
}

// NewParser creates a new parser for the given input
func NewParser(input string) *Parser {
	l := NewLexer(input)
	p := &Parser{}
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			p.end = tok.Pos
			break
		}
		p.tokens = append(p.tokens, tok)
	}
	return p
}

// Parse is shorthand for NewParser(input).Parse().
func Parse(input string) Node {
	return NewParser(input).Parse()
}

// Tokens returns the tokens the parser works on
func (p *Parser) Tokens() []Token {
	return p.tokens
}

// Parse returns the root of the tree: a *Metric, a *Function or an *Error.
// It returns nil when the input holds neither a function call nor a metric
// path, e.g. an empty string.
func (p *Parser) Parse() Node {
	node, err := p.start()
	if err != nil {
		return err
	}
	if node == nil {
		return nil
	}
	if !p.atEnd() {
		return p.errorMark("Unexpected token after expression")
	}
	return node
}

func (p *Parser) start() (Node, *Error) {
	node, err := p.functionCall()
	if err != nil || node != nil {
		return node, err
	}
	return p.metricExpression()
}

// functionCall parses name(param, ...)
func (p *Parser) functionCall() (Node, *Error) {
	if !p.match(TokenIdentifier, TokenLeftParen) {
		return nil, nil
	}

	name := p.consume()
	p.consume() // consume '('

	params, err := p.functionParameters()
	if err != nil {
		return nil, err
	}

	if !p.match(TokenRightParen) {
		return nil, p.errorMark("Expected closing parenthesis")
	}
	p.consume() // consume ')'

	return &Function{Name: name.Literal, Params: params, Pos: name.Pos}, nil
}

// functionParameters parses a comma separated parameter list. A trailing
// comma before ')' is accepted.
func (p *Parser) functionParameters() ([]Node, *Error) {
	params := []Node{}
	if p.match(TokenRightParen) || p.atEnd() {
		return params, nil
	}

	for {
		param, err := p.functionParameter()
		if err != nil {
			return nil, err
		}
		if param == nil {
			return nil, p.errorMark("Expected function parameter")
		}
		params = append(params, param)

		if !p.match(TokenComma) {
			return params, nil
		}
		p.consume() // consume ','

		if p.match(TokenRightParen) {
			return params, nil
		}
	}
}

func (p *Parser) functionParameter() (Node, *Error) {
	rules := []func() (Node, *Error){
		p.functionCall,
		p.numericLiteral,
		p.seriesRefExpression,
		p.boolExpression,
		p.metricExpression,
		p.stringLiteral,
	}
	for _, rule := range rules {
		node, err := rule()
		if err != nil || node != nil {
			return node, err
		}
	}
	return nil, nil
}

func (p *Parser) numericLiteral() (Node, *Error) {
	if !p.match(TokenNumber) {
		return nil, nil
	}

	tok := p.tokens[p.index]
	value, ok := numberValue(tok)
	if !ok {
		return nil, &Error{Message: "Malformed number " + tok.Literal, Pos: tok.Pos}
	}
	p.consume()

	return &Literal{Kind: LiteralNumber, Text: tok.Literal, Number: value}, nil
}

// seriesRefExpression parses #A style references to other targets
func (p *Parser) seriesRefExpression() (Node, *Error) {
	if !p.match(TokenIdentifier) || !IsSeriesRef(p.tokens[p.index].Literal) {
		return nil, nil
	}
	tok := p.consume()
	return &SeriesRef{ID: tok.Literal, Pos: tok.Pos}, nil
}

// boolExpression parses true or false. A bool followed by '.' starts a
// metric path instead.
func (p *Parser) boolExpression() (Node, *Error) {
	if !p.match(TokenBool) || p.match(TokenBool, TokenDot) {
		return nil, nil
	}
	tok := p.consume()
	return &Literal{Kind: LiteralBool, Text: tok.Literal, Bool: tok.Literal == "true"}, nil
}

func (p *Parser) stringLiteral() (Node, *Error) {
	if !p.match(TokenString) {
		return nil, nil
	}

	tok := p.consume()
	if tok.Unclosed {
		return nil, &Error{Message: "Unclosed string parameter", Pos: tok.Pos}
	}

	return &Literal{Kind: LiteralString, Text: tok.Literal}, nil
}

// metricExpression parses segment ('.' segment)*
func (p *Parser) metricExpression() (Node, *Error) {
	if !p.match(TokenTemplateStart) && !p.match(TokenIdentifier) && !p.match(TokenNumber) &&
		!p.match(TokenBool) && !p.match(TokenLeftBrace) {
		return nil, nil
	}

	segment, err := p.metricSegment()
	if err != nil {
		return nil, err
	}
	metric := &Metric{Segments: []Segment{segment}}

	for p.match(TokenDot) {
		p.consume() // consume '.'

		segment, err := p.metricSegment()
		if err != nil {
			return nil, err
		}
		metric.Segments = append(metric.Segments, segment)
	}

	return metric, nil
}

func (p *Parser) metricSegment() (Segment, *Error) {
	segment, ok, err := p.curlyBraceSegment()
	if err != nil || ok {
		return segment, err
	}

	if p.match(TokenIdentifier) || p.match(TokenNumber) || p.match(TokenBool) {
		tok := p.consume()
		value := tok.Literal

		// A number such as 0.002 inside a path is two segments, 0 and 002.
		if tok.Type == TokenNumber {
			if head, tail, found := strings.Cut(value, "."); found {
				value = head
				dotPos := tok.Pos + utf8.RuneCountInString(head)
				p.tokens = slices.Insert(p.tokens, p.index,
					Token{Type: TokenDot, Literal: ".", Pos: dotPos},
					Token{Type: TokenNumber, Literal: tail, Pos: dotPos + 1, Base: 10},
				)
			}
		}

		return Segment{Value: value, Kind: SegmentPlain}, nil
	}

	if !p.match(TokenTemplateStart) {
		return Segment{}, p.errorMark("Expected metric identifier")
	}
	p.consume() // consume '[['

	if !p.match(TokenIdentifier) {
		return Segment{}, p.errorMark("Expected identifier after templateStart")
	}
	value := p.consume().Literal

	if !p.match(TokenTemplateEnd) {
		return Segment{}, p.errorMark("Expected templateEnd")
	}
	p.consume() // consume ']]'

	return Segment{Value: value, Kind: SegmentTemplate}, nil
}

// curlyBraceSegment reads an alternation group such as {a,b} as one opaque
// segment, together with an identifier directly in front of or behind it.
func (p *Parser) curlyBraceSegment() (Segment, bool, *Error) {
	if !p.match(TokenIdentifier, TokenLeftBrace) && !p.match(TokenLeftBrace) {
		return Segment{}, false, nil
	}

	var b strings.Builder
	for !p.atEnd() && !p.match(TokenRightBrace) {
		b.WriteString(p.consume().Literal)
	}

	if !p.match(TokenRightBrace) {
		return Segment{}, true, p.errorMark("Expected closing '}'")
	}
	closing := p.consume()
	b.WriteString(closing.Literal)

	if p.match(TokenIdentifier) && p.tokens[p.index].Pos == closing.Pos+1 {
		b.WriteString(p.consume().Literal)
	}

	return Segment{Value: b.String(), Kind: SegmentCurly}, true, nil
}

// Helper functions

// match reports whether the upcoming tokens have the given types
func (p *Parser) match(types ...TokenType) bool {
	for i, t := range types {
		idx := p.index + i
		if idx >= len(p.tokens) {
			return false
		}
		if p.tokens[idx].Type != t {
			return false
		}
	}
	return true
}

func (p *Parser) atEnd() bool {
	return p.index >= len(p.tokens)
}

// consume returns the current token and advances
func (p *Parser) consume() Token {
	tok := p.tokens[p.index]
	p.index++
	return tok
}

// errorMark builds an error describing what was found at the current token
func (p *Parser) errorMark(text string) *Error {
	if p.atEnd() {
		return &Error{Message: text + " instead found end of string", Pos: p.end}
	}
	tok := p.tokens[p.index]
	return &Error{Message: text + " instead found " + tok.Type.String(), Pos: tok.Pos}
}

// IsSeriesRef reports whether s has the shape of a reference to another
// target: # followed by an upper case letter.
func IsSeriesRef(s string) bool {
	return len(s) >= 2 && s[0] == '#' && s[1] >= 'A' && s[1] <= 'Z'
}

// numberValue converts a number token. Octal-looking literals are read as
// decimal, which is what Graphite itself does with them. Tokens the lexer
// flagged, such as 019 or 0x, do not convert.
func numberValue(tok Token) (float64, bool) {
	if tok.Malformed {
		return 0, false
	}
	if tok.Base == 16 {
		v, err := strconv.ParseInt(tok.Literal, 0, 64)
		return float64(v), err == nil
	}
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
