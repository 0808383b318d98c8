package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/query"
)

// Parse rebuilds segments, functions and tags from the target text. Anything
// built before is discarded. When the text cannot be represented the model
// switches to the text editor and Err explains why.
func (m *QueryModel) Parse() {
	m.Segments = nil
	m.Functions = nil
	m.Tags = nil
	m.SeriesByTagUsed = false
	m.Err = nil
	m.edited = false

	if m.Target.TextEditor {
		return
	}

	node := query.Parse(m.Target.Target)
	if node == nil {
		return
	}

	if perr, ok := node.(*query.Error); ok {
		m.toTextMode(perr)
		return
	}

	if perr := m.decompose(node, nil, 0); perr != nil {
		m.Segments = nil
		m.Functions = nil
		m.Tags = nil
		m.SeriesByTagUsed = false
		m.toTextMode(perr)
	}
}

func (m *QueryModel) toTextMode(perr *query.Error) {
	m.Err = perr
	m.Target.TextEditor = true
	m.logger.Debug("target switched to text mode",
		zap.String("refId", m.Target.RefID),
		zap.String("target", m.Target.Target),
		zap.Error(perr))
}

// decompose walks the tree depth first. Function calls are appended after
// their arguments, so Functions ends up ordered innermost first.
func (m *QueryModel) decompose(node query.Node, parent *functions.Instance, parentPos int) *query.Error {
	switch n := node.(type) {
	case *query.Function:
		// Only one structural path exists. A call nested next to it is kept
		// as text inside its parent's params.
		if parent != nil && (len(m.Segments) > 0 || len(m.Tags) > 0) {
			return m.addParam(parent, n.String(), parentPos)
		}

		inner := functions.NewInstance(m.registry.Get(n.Name), false)
		for _, p := range n.Params {
			if perr := m.decompose(p, inner, n.Pos); perr != nil {
				return perr
			}
		}
		m.Functions = append(m.Functions, inner)

		if inner.Def.Name == functions.SeriesByTag && !m.SeriesByTagUsed {
			m.SeriesByTagUsed = true
			inner.Hidden = true
			m.Tags = splitSeriesByTagParams(inner.Params)
		}

	case *query.SeriesRef:
		if len(m.Segments) > 0 || m.SeriesByTagIndex() >= 0 {
			return m.addParam(parent, n.ID, parentPos)
		}
		m.Segments = append(m.Segments, Segment{Value: n.ID, Kind: query.SegmentSeriesRef})

	case *query.Literal:
		return m.addParam(parent, n.Value(), parentPos)

	case *query.Metric:
		if len(m.Segments) > 0 || len(m.Tags) > 0 {
			return m.addParam(parent, query.JoinSegments(n.Segments), parentPos)
		}
		m.Segments = append([]Segment(nil), n.Segments...)
	}
	return nil
}

// addParam appends value to f, failing when the signature has no room for it
func (m *QueryModel) addParam(f *functions.Instance, value string, pos int) *query.Error {
	if f == nil {
		return nil
	}
	if !f.Def.AcceptsParam(len(f.Params)) {
		return &query.Error{
			Message: fmt.Sprintf("too many parameters for function %s", f.Def.Name),
			Pos:     pos,
		}
	}
	f.Params = append(f.Params, value)
	return nil
}
