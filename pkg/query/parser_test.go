package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segmentValues(m *Metric) []string {
	values := make([]string, len(m.Segments))
	for i, s := range m.Segments {
		values[i] = s.Value
	}
	return values
}

func TestParserMetric(t *testing.T) {
	node := Parse("metric.test.*")

	metric, ok := node.(*Metric)
	require.True(t, ok, "expected *Metric, got %T", node)
	assert.Equal(t, []string{"metric", "test", "*"}, segmentValues(metric))
}

func TestParserCurlyBraceSegment(t *testing.T) {
	tests := []struct {
		input    string
		segments []string
	}{
		{input: "servers.{a,b}.cpu", segments: []string{"servers", "{a,b}", "cpu"}},
		{input: "{a,b}.cpu", segments: []string{"{a,b}", "cpu"}},
		{input: "servers.web{01,02}.cpu", segments: []string{"servers", "web{01,02}", "cpu"}},
		{input: "servers.{001,002}-east.cpu", segments: []string{"servers", "{001,002}-east", "cpu"}},
	}

	for _, tt := range tests {
		node := Parse(tt.input)
		metric, ok := node.(*Metric)
		require.True(t, ok, "input %q: expected *Metric, got %T (%v)", tt.input, node, node)
		assert.Equal(t, tt.segments, segmentValues(metric), "input %q", tt.input)
		for _, s := range metric.Segments {
			if s.Value[0] == '{' || s.Value == "web{01,02}" || s.Value == "{001,002}-east" {
				assert.Equal(t, SegmentCurly, s.Kind, "input %q segment %q", tt.input, s.Value)
			}
		}
	}
}

func TestParserDottedNumberSegment(t *testing.T) {
	node := Parse("metric.0.002.count")

	metric, ok := node.(*Metric)
	require.True(t, ok, "expected *Metric, got %T", node)
	assert.Equal(t, []string{"metric", "0", "002", "count"}, segmentValues(metric))
	assert.Equal(t, "metric.0.002.count", metric.String())
}

func TestParserFunction(t *testing.T) {
	node := Parse("sum(test)")

	fn, ok := node.(*Function)
	require.True(t, ok, "expected *Function, got %T", node)
	assert.Equal(t, "sum", fn.Name)
	assert.Equal(t, 1, fn.Pos)
	require.Len(t, fn.Params, 1)

	metric, ok := fn.Params[0].(*Metric)
	require.True(t, ok)
	assert.Equal(t, []string{"test"}, segmentValues(metric))
}

func TestParserFunctionParameters(t *testing.T) {
	node := Parse("func(metric.a, 5, -1.5, 'str', \"quoted\", true, #A)")

	fn, ok := node.(*Function)
	require.True(t, ok, "expected *Function, got %T (%v)", node, node)
	require.Len(t, fn.Params, 7)

	_, ok = fn.Params[0].(*Metric)
	assert.True(t, ok)

	num, ok := fn.Params[1].(*Literal)
	require.True(t, ok)
	assert.Equal(t, LiteralNumber, num.Kind)
	assert.Equal(t, 5.0, num.Number)

	neg, ok := fn.Params[2].(*Literal)
	require.True(t, ok)
	assert.Equal(t, -1.5, neg.Number)

	str, ok := fn.Params[3].(*Literal)
	require.True(t, ok)
	assert.Equal(t, LiteralString, str.Kind)
	assert.Equal(t, "str", str.Text)

	dq, ok := fn.Params[4].(*Literal)
	require.True(t, ok)
	assert.Equal(t, "quoted", dq.Text)

	b, ok := fn.Params[5].(*Literal)
	require.True(t, ok)
	assert.Equal(t, LiteralBool, b.Kind)
	assert.True(t, b.Bool)

	ref, ok := fn.Params[6].(*SeriesRef)
	require.True(t, ok)
	assert.Equal(t, "#A", ref.ID)
}

func TestParserNestedFunctions(t *testing.T) {
	node := Parse("aliasByNode(scaleToSeconds(test.prod.*,1),2)")

	outer, ok := node.(*Function)
	require.True(t, ok, "expected *Function, got %T", node)
	assert.Equal(t, "aliasByNode", outer.Name)
	require.Len(t, outer.Params, 2)

	inner, ok := outer.Params[0].(*Function)
	require.True(t, ok)
	assert.Equal(t, "scaleToSeconds", inner.Name)
	assert.Equal(t, 13, inner.Pos)

	assert.Equal(t, "aliasByNode(scaleToSeconds(test.prod.*, 1), 2)", node.String())
}

func TestParserSeriesByTag(t *testing.T) {
	node := Parse("seriesByTag('cluster=west','server=002')")

	fn, ok := node.(*Function)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "cluster=west", fn.Params[0].(*Literal).Text)
	assert.Equal(t, "server=002", fn.Params[1].(*Literal).Text)
}

func TestParserEmptyAndTrailingParams(t *testing.T) {
	fn, ok := Parse("randomWalk()").(*Function)
	require.True(t, ok)
	assert.Empty(t, fn.Params)

	fn, ok = Parse("alias(a.b,)").(*Function)
	require.True(t, ok)
	assert.Len(t, fn.Params, 1)
}

func TestParserReturnsNil(t *testing.T) {
	for _, input := range []string{"", "   ", "'just a string'", ")"} {
		assert.Nil(t, Parse(input), "input %q", input)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
		pos     int
	}{
		{
			input:   "sum(test",
			message: "Expected closing parenthesis instead found end of string",
			pos:     9,
		},
		{
			input:   "sum(test, 'abc",
			message: "Unclosed string parameter",
			pos:     11,
		},
		{
			input:   "foo.{a,b",
			message: "Expected closing '}' instead found end of string",
			pos:     9,
		},
		{
			input:   "foo.",
			message: "Expected metric identifier instead found end of string",
			pos:     5,
		},
		{
			input:   "foo(,)",
			message: "Expected function parameter instead found ,",
			pos:     5,
		},
		{
			input:   "foo(@)",
			message: "Expected function parameter instead found illegal",
			pos:     5,
		},
		{
			input:   "a.b c",
			message: "Unexpected token after expression instead found identifier",
			pos:     5,
		},
		{
			input:   "foo(a, 0x)",
			message: "Malformed number 0x",
			pos:     8,
		},
		{
			input:   "foo(a, 019)",
			message: "Malformed number 019",
			pos:     8,
		},
		{
			input:   "foo(a b)",
			message: "Expected closing parenthesis instead found identifier",
			pos:     7,
		},
	}

	for _, tt := range tests {
		node := Parse(tt.input)
		perr, ok := node.(*Error)
		require.True(t, ok, "input %q: expected *Error, got %T (%v)", tt.input, node, node)
		assert.Equal(t, tt.message, perr.Message, "input %q", tt.input)
		assert.Equal(t, tt.pos, perr.Pos, "input %q", tt.input)
	}
}

func TestParserErrorIsError(t *testing.T) {
	node := Parse("sum(")

	var err error = node.(*Error)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Expected closing parenthesis instead found end of string at position: 5", err.Error())
}

func TestParserNumberNormalisation(t *testing.T) {
	fn, ok := Parse("scale(test, 0.002)").(*Function)
	require.True(t, ok)

	lit := fn.Params[1].(*Literal)
	assert.Equal(t, "0.002", lit.Text)
	assert.Equal(t, "0.002", lit.Value())

	fn, ok = Parse("foo(a, 017, 0x1F, 1.50)").(*Function)
	require.True(t, ok)
	assert.Equal(t, "17", fn.Params[1].(*Literal).Value())
	assert.Equal(t, "31", fn.Params[2].(*Literal).Value())
	assert.Equal(t, "1.5", fn.Params[3].(*Literal).Value())
}

func TestParserBoolLeadingPath(t *testing.T) {
	metric, ok := Parse("true.foo").(*Metric)
	require.True(t, ok)
	assert.Equal(t, []string{"true", "foo"}, segmentValues(metric))

	fn, ok := Parse("sumSeries(false.a.b, true)").(*Function)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, []string{"false", "a", "b"}, segmentValues(fn.Params[0].(*Metric)))
	assert.Equal(t, LiteralBool, fn.Params[1].(*Literal).Kind)

	// a lone bool is still a one-segment path at the top level
	metric, ok = Parse("true").(*Metric)
	require.True(t, ok)
	assert.Equal(t, []string{"true"}, segmentValues(metric))
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		a, b  string
		equal bool
	}{
		{a: "scale(test, 0.002)", b: "scale(test,0.002)", equal: true},
		{a: "scale(test, '5')", b: "scale(test, 5)", equal: true},
		{a: "keepLastValue(a, 'true')", b: "keepLastValue(a, true)", equal: true},
		{a: "alias(a, 'x')", b: "alias(a, \"x\")", equal: true},
		{a: "alias(a, 'x')", b: "alias(a, 'y')", equal: false},
		{a: "sumSeries(a.b)", b: "sumSeries(a.c)", equal: false},
	}

	for _, tt := range tests {
		ca, cb := Canonical(Parse(tt.a)), Canonical(Parse(tt.b))
		if tt.equal {
			assert.Equal(t, ca, cb, "%q vs %q", tt.a, tt.b)
		} else {
			assert.NotEqual(t, ca, cb, "%q vs %q", tt.a, tt.b)
		}
	}
}

func TestNodeJSON(t *testing.T) {
	data, err := json.Marshal(Parse("alias(a.b, 'x')"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "function", decoded["type"])
	assert.Equal(t, "alias", decoded["name"])

	params := decoded["params"].([]any)
	require.Len(t, params, 2)
	assert.Equal(t, "metric", params[0].(map[string]any)["type"])
	assert.Equal(t, "string", params[1].(map[string]any)["type"])
	assert.Equal(t, "x", params[1].(map[string]any)["value"])
}
