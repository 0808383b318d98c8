package model

import (
	"fmt"

	"github.com/nicktill/tinygraphite/pkg/query"
)

// ReconciliationError reports that the structured editor cannot represent a
// target: rendering the decomposed query gives a different query than the
// text it came from.
type ReconciliationError struct {
	Original string `json:"original"`
	Rebuilt  string `json:"rebuilt"`
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("query cannot be represented in the builder: %q rebuilds as %q", e.Original, e.Rebuilt)
}

// Reconcile checks that the stored target text and the rendered structure
// describe the same query, ignoring whitespace and quoting differences.
// Models in text mode or with uncommitted edits have nothing to compare and
// always reconcile.
func (m *QueryModel) Reconcile() error {
	if m.Target.TextEditor || m.edited {
		return nil
	}

	original := query.Parse(m.Target.Target)
	if original == nil {
		return nil
	}

	rebuilt := m.Render()
	if query.Canonical(original) != query.Canonical(query.Parse(rebuilt)) {
		return &ReconciliationError{Original: m.Target.Target, Rebuilt: rebuilt}
	}
	return nil
}
