package model

import "github.com/nicktill/tinygraphite/pkg/functions"

// FunctionView is the JSON shape of a function call in a snapshot
type FunctionView struct {
	Name        string   `json:"name"`
	Params      []string `json:"params"`
	Text        string   `json:"text"`
	Category    string   `json:"category,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
	Added       bool     `json:"added,omitempty"`
	Unknown     bool     `json:"unknown,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Snapshot is a read-only copy of a model, safe to hand to other goroutines
// or encode as JSON.
type Snapshot struct {
	RefID           string         `json:"refId"`
	Target          string         `json:"target"`
	TargetFull      string         `json:"targetFull,omitempty"`
	Rendered        string         `json:"rendered"`
	TextEditor      bool           `json:"textEditor"`
	State           State          `json:"state"`
	Segments        []Segment      `json:"segments"`
	Functions       []FunctionView `json:"functions"`
	Tags            []TagExpr      `json:"tags"`
	SeriesByTagUsed bool           `json:"seriesByTagUsed"`
	Error           string         `json:"error,omitempty"`
	ErrorPos        int            `json:"errorPos,omitempty"`
	Reconciliation  string         `json:"reconciliation,omitempty"`
}

// suggestionCount is how many near names are offered for an unknown function
const suggestionCount = 3

// Snapshot captures the current state of the model.
func (m *QueryModel) Snapshot() Snapshot {
	s := Snapshot{
		RefID:           m.Target.RefID,
		Target:          m.Target.Target,
		TargetFull:      m.Target.TargetFull,
		Rendered:        m.Render(),
		TextEditor:      m.Target.TextEditor,
		State:           m.State(),
		Segments:        append([]Segment{}, m.Segments...),
		Functions:       make([]FunctionView, 0, len(m.Functions)),
		Tags:            append([]TagExpr{}, m.Tags...),
		SeriesByTagUsed: m.SeriesByTagUsed,
	}

	for _, f := range m.Functions {
		s.Functions = append(s.Functions, m.functionView(f))
	}

	if m.Err != nil {
		s.Error = m.Err.Message
		s.ErrorPos = m.Err.Pos
	}
	if err := m.Reconcile(); err != nil {
		s.Reconciliation = err.Error()
	}
	return s
}

func (m *QueryModel) functionView(f *functions.Instance) FunctionView {
	v := FunctionView{
		Name:     f.Def.Name,
		Params:   append([]string{}, f.Params...),
		Text:     f.Text(),
		Category: f.Def.Category,
		Hidden:   f.Hidden,
		Added:    f.Added,
		Unknown:  f.Def.Unknown,
	}
	if f.Def.Unknown {
		v.Suggestions = m.registry.Suggest(f.Def.Name, suggestionCount)
	}
	return v
}
