package model

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/query"
)

// Errors returned by structural edits
var (
	ErrTooManyParams    = errors.New("too many parameters")
	ErrNoSuchFunction   = errors.New("no such function")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrTextEditorActive = errors.New("target is in text editor mode")
)

// SelectMetric is the placeholder segment an editor appends while the user
// picks the next path component. It is never rendered.
const SelectMetric = "select metric"

// Segment is one component of the metric path
type Segment = query.Segment

// Target is a query as stored in a panel: the text plus the editor state.
type Target struct {
	RefID      string `json:"refId"`
	Target     string `json:"target"`
	TargetFull string `json:"targetFull,omitempty"`
	TextEditor bool   `json:"textEditor,omitempty"`
	Hide       bool   `json:"hide,omitempty"`
}

// State is the editing state of a QueryModel
type State int

const (
	StateEmpty State = iota
	StateParsed
	StateEdited
	StateTextMode
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateParsed:
		return "parsed"
	case StateEdited:
		return "edited"
	case StateTextMode:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalText lets states appear by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateEmpty, StateParsed, StateEdited, StateTextMode} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// QueryModel is the structured, editable form of one target: a metric path,
// the functions applied to it from innermost to outermost, and the tag
// filters when the query selects series by tag.
//
// A QueryModel is not safe for concurrent use. All edits and renders of one
// model must happen on a single owner.
type QueryModel struct {
	Target Target

	Segments  []Segment
	Functions []*functions.Instance
	Tags      []TagExpr

	// SeriesByTagUsed is set when the first seriesByTag call was turned into
	// tags. Its instance is then hidden and Segments is empty.
	SeriesByTagUsed bool

	// Err holds the reason the target could not be decomposed. The model is in
	// text mode while it is set.
	Err *query.Error

	registry *functions.Registry
	interp   functions.Interpolator
	logger   *zap.Logger
	edited   bool
}

// Option configures a QueryModel
type Option func(*QueryModel)

// WithInterpolator sets the variable interpolator used while rendering
func WithInterpolator(interp functions.Interpolator) Option {
	return func(m *QueryModel) {
		if interp != nil {
			m.interp = interp
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *QueryModel) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a model for target and decomposes it. The registry is used as a
// read-only snapshot for the lifetime of the model.
func New(target Target, registry *functions.Registry, opts ...Option) *QueryModel {
	if registry == nil {
		registry = functions.Builtin()
	}
	m := &QueryModel{
		Target:   target,
		registry: registry,
		interp:   functions.Identity,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Parse()
	return m
}

// Registry returns the signature table the model resolves functions against
func (m *QueryModel) Registry() *functions.Registry {
	return m.registry
}

// State reports where the model is in its editing lifecycle.
func (m *QueryModel) State() State {
	switch {
	case m.Target.TextEditor:
		return StateTextMode
	case m.edited:
		return StateEdited
	case len(m.Segments) == 0 && len(m.Functions) == 0 && len(m.Tags) == 0:
		return StateEmpty
	default:
		return StateParsed
	}
}

// SeriesByTagIndex returns the index of the seriesByTag call, or -1
func (m *QueryModel) SeriesByTagIndex() int {
	for i, f := range m.Functions {
		if f.Def.Name == functions.SeriesByTag {
			return i
		}
	}
	return -1
}

func (m *QueryModel) seriesByTagFunc() *functions.Instance {
	if i := m.SeriesByTagIndex(); i >= 0 {
		return m.Functions[i]
	}
	return nil
}

func (m *QueryModel) markEdited() {
	m.edited = true
}
