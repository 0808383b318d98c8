package model

import (
	"strings"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/query"
)

// MetricPath returns the segments joined with dots, without a trailing
// select metric placeholder.
func (m *QueryModel) MetricPath() string {
	return m.SegmentPathUpTo(len(m.Segments))
}

// SegmentPathUpTo joins the first n segments. The select metric placeholder
// is dropped from the end of the path.
func (m *QueryModel) SegmentPathUpTo(n int) string {
	n = min(max(n, 0), len(m.Segments))
	path := query.JoinSegments(m.Segments[:n])
	if trimmed, ok := strings.CutSuffix(path, SelectMetric); ok {
		path = strings.TrimSuffix(trimmed, ".")
	}
	return path
}

// Render returns the target text for the current structure. It does not
// change the model. In text mode the stored text is returned as is.
func (m *QueryModel) Render() string {
	if m.Target.TextEditor {
		return m.Target.Target
	}

	text := m.MetricPath()
	for _, f := range m.Functions {
		if f.Hidden {
			// The tag selector carries its own arguments and never wraps the path.
			text = f.Render("", m.interp)
			continue
		}
		text = f.Render(text, m.interp)
	}
	return text
}

// Commit stores the rendered text in the target, resolves #X references
// against siblings into TargetFull, and clears the Added marks.
func (m *QueryModel) Commit(siblings []Target) Target {
	if !m.Target.TextEditor && m.State() != StateEmpty {
		m.Target.Target = m.Render()
	}

	m.Target.TargetFull = ""
	if full := ResolveReferences(m.Target.Target, m.Target.RefID, siblings); full != m.Target.Target {
		m.Target.TargetFull = full
	}

	for _, f := range m.Functions {
		f.Added = false
	}
	m.edited = false
	return m.Target
}

// RenderAll normalises every target through a model and resolves their
// references against each other. Targets in text mode keep their text.
func RenderAll(targets []Target, registry *functions.Registry, opts ...Option) []Target {
	rendered := make([]Target, len(targets))
	for i, t := range targets {
		if t.TextEditor {
			rendered[i] = t
			continue
		}
		m := New(t, registry, opts...)
		rendered[i] = m.Target
		if m.State() != StateEmpty {
			rendered[i].Target = m.Render()
		}
	}

	for i := range rendered {
		rendered[i].TargetFull = ""
		if full := ResolveReferences(rendered[i].Target, rendered[i].RefID, rendered); full != rendered[i].Target {
			rendered[i].TargetFull = full
		}
	}
	return rendered
}
