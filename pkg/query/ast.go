package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node is a node of a parsed target. The set of implementations is closed:
// *Metric, *Function, *SeriesRef, *Literal and *Error.
type Node interface {
	node()
	// String renders the node back to query text.
	String() string
}

// SegmentKind distinguishes the forms a metric path component can take.
type SegmentKind int

const (
	SegmentPlain     SegmentKind = iota // cpu, *, server-0?
	SegmentCurly                        // {a,b}, prefix{a,b}suffix
	SegmentTemplate                     // [[variable]]
	SegmentSeriesRef                    // #A used as the whole path
)

// Segment is one dot-delimited component of a metric path
type Segment struct {
	Value string      `json:"value"`
	Kind  SegmentKind `json:"kind"`
}

// String renders the segment as it appears in a path
func (s Segment) String() string {
	if s.Kind == SegmentTemplate {
		return "[[" + s.Value + "]]"
	}
	return s.Value
}

// Metric is a dotted metric path: servers.{a,b}.cpu.*
type Metric struct {
	Segments []Segment `json:"segments"`
}

func (m *Metric) node() {}

func (m *Metric) String() string {
	return JoinSegments(m.Segments)
}

// Function is a function call: aliasByNode(servers.*.cpu, 1)
type Function struct {
	Name   string `json:"name"`
	Params []Node `json:"params"`
	Pos    int    `json:"pos"`
}

func (f *Function) node() {}

func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return f.Name + "(" + strings.Join(params, ", ") + ")"
}

// SeriesRef is a reference to another target of the same panel: #A
type SeriesRef struct {
	ID  string `json:"id"`
	Pos int    `json:"pos"`
}

func (r *SeriesRef) node() {}

func (r *SeriesRef) String() string { return r.ID }

// LiteralKind is the value type of a literal.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
)

// Literal is a number, string or boolean parameter
type Literal struct {
	Kind   LiteralKind `json:"kind"`
	Text   string      `json:"text"` // source text without quotes
	Number float64     `json:"number,omitempty"`
	Bool   bool        `json:"bool,omitempty"`
}

func (l *Literal) node() {}

// Value returns the literal as a function parameter value. Numbers are
// normalised, so 017 becomes 17 and 1.50 becomes 1.5.
func (l *Literal) Value() string {
	switch l.Kind {
	case LiteralNumber:
		return FormatNumber(l.Number)
	case LiteralBool:
		return strconv.FormatBool(l.Bool)
	default:
		return l.Text
	}
}

func (l *Literal) String() string {
	if l.Kind == LiteralString {
		return "'" + l.Text + "'"
	}
	return l.Value()
}

// Error is returned by the parser in place of a tree when the input is not a
// valid target. Pos is a 1-based rune offset.
type Error struct {
	Message string `json:"message"`
	Pos     int    `json:"pos"`
}

func (e *Error) node() {}

func (e *Error) String() string {
	return fmt.Sprintf("%s at position: %d", e.Message, e.Pos)
}

// Error implements the error interface.
func (e *Error) Error() string { return e.String() }

// JoinSegments renders path segments joined with dots.
func JoinSegments(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// FormatNumber renders a float the way Graphite users write numbers:
// integers without a fraction, everything else in the shortest form.
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Canonical renders a node in a form that ignores whitespace and quoting
// differences which do not change the meaning of a target: '5' and 5 compare
// equal, as do 'true' and true.
func Canonical(n Node) string {
	switch n := n.(type) {
	case nil:
		return ""
	case *Literal:
		if n.Kind != LiteralString {
			return n.Value()
		}
		if v, err := strconv.ParseFloat(n.Text, 64); err == nil {
			return FormatNumber(v)
		}
		if n.Text == "true" || n.Text == "false" {
			return n.Text
		}
		return "'" + n.Text + "'"
	case *Function:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = Canonical(p)
		}
		return n.Name + "(" + strings.Join(params, ",") + ")"
	default:
		return n.String()
	}
}
