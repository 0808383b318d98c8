package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/query"
)

// SetTarget replaces the target text and parses it again. Text mode is left,
// so an unparseable text puts the model straight back into it.
func (m *QueryModel) SetTarget(text string) {
	m.Target.Target = text
	m.Target.TextEditor = false
	m.Parse()
}

// ToggleTextEditor switches between the text editor and the structured
// editor. Leaving the text editor parses the current text.
func (m *QueryModel) ToggleTextEditor() {
	if !m.Target.TextEditor && m.State() != StateEmpty {
		m.Target.Target = m.Render()
	}
	m.Target.TextEditor = !m.Target.TextEditor
	m.Parse()
}

// UpdateSegment sets the value of the segment at index. Index len(Segments)
// appends a new segment.
func (m *QueryModel) UpdateSegment(index int, value string) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}
	if index < 0 || index > len(m.Segments) {
		return fmt.Errorf("segment %d: %w", index, ErrIndexOutOfRange)
	}

	seg := Segment{Value: value, Kind: segmentKind(value)}
	if index == len(m.Segments) {
		m.Segments = append(m.Segments, seg)
	} else {
		m.Segments[index] = seg
	}
	m.markEdited()
	return nil
}

// TruncateSegments keeps the first n segments
func (m *QueryModel) TruncateSegments(n int) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}
	if n < 0 || n > len(m.Segments) {
		return fmt.Errorf("segment %d: %w", n, ErrIndexOutOfRange)
	}
	m.Segments = m.Segments[:n]
	m.markEdited()
	return nil
}

// AddSelectMetricSegment appends the placeholder for the next path component
func (m *QueryModel) AddSelectMetricSegment() {
	m.Segments = append(m.Segments, Segment{Value: SelectMetric})
}

// HasSelectMetric reports whether the path ends in the placeholder.
func (m *QueryModel) HasSelectMetric() bool {
	n := len(m.Segments)
	return n > 0 && m.Segments[n-1].Value == SelectMetric
}

func segmentKind(value string) query.SegmentKind {
	switch {
	case strings.Contains(value, "{"):
		return query.SegmentCurly
	case query.IsSeriesRef(value):
		return query.SegmentSeriesRef
	default:
		return query.SegmentPlain
	}
}

// AddFunction appends a call of name with its default params and returns it.
// Unknown names get a synthetic signature. Adding seriesByTag turns the query
// into a tag query: the path is dropped and the call becomes the hidden tag
// selector.
func (m *QueryModel) AddFunction(name string) (*functions.Instance, error) {
	if m.Target.TextEditor {
		return nil, ErrTextEditorActive
	}
	if name == "" {
		return nil, ErrNoSuchFunction
	}

	f := functions.NewInstance(m.registry.Get(name), true)
	f.Added = true

	if name == functions.SeriesByTag {
		if m.SeriesByTagUsed {
			return nil, fmt.Errorf("query already selects series by tag")
		}
		f.Hidden = true
		m.Segments = nil
		m.Functions = append([]*functions.Instance{f}, m.Functions...)
		m.SeriesByTagUsed = true
		m.Tags = splitSeriesByTagParams(f.Params)
		m.markEdited()
		return f, nil
	}

	m.smartlyHandleAliasByNode(f)
	m.Functions = append(m.Functions, f)
	m.markEdited()
	return f, nil
}

// AddFunctionInstance appends an already built call
func (m *QueryModel) AddFunctionInstance(f *functions.Instance) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}
	m.Functions = append(m.Functions, f)
	m.markEdited()
	return nil
}

// smartlyHandleAliasByNode points a new aliasByNode at the first wildcard
// segment, which is usually the node worth naming series after.
func (m *QueryModel) smartlyHandleAliasByNode(f *functions.Instance) {
	if f.Def.Name != "aliasByNode" {
		return
	}
	for i, seg := range m.Segments {
		if strings.Contains(seg.Value, "*") {
			if len(f.Params) == 0 {
				f.Params = append(f.Params, "")
			}
			f.Params[0] = strconv.Itoa(i)
			return
		}
	}
}

// FunctionIndex returns the index of the first visible call of name.
func (m *QueryModel) FunctionIndex(name string) (int, error) {
	for i, f := range m.Functions {
		if f.Def.Name == name && !f.Hidden {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s: %w", name, ErrNoSuchFunction)
}

// RemoveFunction deletes the call at index. Removing the tag selector clears
// the tags too.
func (m *QueryModel) RemoveFunction(index int) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}
	if index < 0 || index >= len(m.Functions) {
		return fmt.Errorf("function %d: %w", index, ErrIndexOutOfRange)
	}

	if m.Functions[index].Hidden && m.Functions[index].Def.Name == functions.SeriesByTag {
		m.Tags = nil
		m.SeriesByTagUsed = false
	}
	m.Functions = append(m.Functions[:index], m.Functions[index+1:]...)
	m.markEdited()
	return nil
}

// MoveFunction moves the call at index by offset positions. Negative offsets
// move it inwards.
func (m *QueryModel) MoveFunction(index, offset int) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}
	to := index + offset
	if index < 0 || index >= len(m.Functions) || to < 0 || to >= len(m.Functions) {
		return fmt.Errorf("move %d by %d: %w", index, offset, ErrIndexOutOfRange)
	}
	if offset == 0 {
		return nil
	}

	f := m.Functions[index]
	m.Functions = append(m.Functions[:index], m.Functions[index+1:]...)
	m.Functions = append(m.Functions[:to], append([]*functions.Instance{f}, m.Functions[to:]...)...)
	m.markEdited()
	return nil
}

// UpdateFunctionParam sets a param of the call at index
func (m *QueryModel) UpdateFunctionParam(index, param int, value string) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}
	if index < 0 || index >= len(m.Functions) {
		return fmt.Errorf("function %d: %w", index, ErrIndexOutOfRange)
	}

	f := m.Functions[index]
	if param < 0 || (param >= len(f.Params) && !f.Def.AcceptsParam(param)) {
		return fmt.Errorf("%s param %d: %w", f.Def.Name, param, ErrTooManyParams)
	}
	f.UpdateParam(value, param)
	m.markEdited()
	return nil
}
