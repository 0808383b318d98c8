package model

import (
	"regexp"

	"github.com/nicktill/tinygraphite/pkg/functions"
)

// RemoveTagValue is the key an editor sends to delete a tag through UpdateTag
const RemoveTagValue = "-- remove tag --"

// Tag operators understood by seriesByTag
const (
	OpEqual       = "="
	OpNotEqual    = "!="
	OpMatch       = "=~"
	OpNotMatch    = "!=~"
	defaultTagOp  = OpEqual
	tagExprFormat = `([^!=~]+)(!?=~?)(.*)`
)

var tagPattern = regexp.MustCompile(tagExprFormat)

// TagExpr is one seriesByTag filter: key, operator and value
type TagExpr struct {
	Key      string `json:"key"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// String renders the expression as a seriesByTag argument
func (t TagExpr) String() string {
	return t.Key + t.Operator + t.Value
}

// ParseTagExpr splits key<op>value on the first operator
func ParseTagExpr(s string) (TagExpr, bool) {
	match := tagPattern.FindStringSubmatch(s)
	if match == nil {
		return TagExpr{}, false
	}
	return TagExpr{Key: match[1], Operator: match[2], Value: match[3]}, true
}

// splitSeriesByTagParams turns seriesByTag arguments into tags. Arguments
// that are not tag expressions are skipped.
func splitSeriesByTagParams(params []string) []TagExpr {
	tags := []TagExpr{}
	for _, p := range params {
		if tag, ok := ParseTagExpr(p); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// AddTag appends a tag filter. A hidden seriesByTag selector is created when
// the query has none, which replaces the metric path.
func (m *QueryModel) AddTag(tag TagExpr) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}
	if tag.Operator == "" {
		tag.Operator = defaultTagOp
	}

	selector := m.seriesByTagFunc()
	if selector == nil {
		selector = functions.NewInstance(m.registry.Get(functions.SeriesByTag), false)
		selector.Hidden = true
		m.Functions = append([]*functions.Instance{selector}, m.Functions...)
		m.Segments = nil
		m.SeriesByTagUsed = true
	}

	m.Tags = append(m.Tags, tag)
	m.syncSelector(selector)
	m.markEdited()
	return nil
}

// UpdateTag replaces the tag at index. A tag whose key is RemoveTagValue is
// removed instead.
func (m *QueryModel) UpdateTag(tag TagExpr, index int) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}
	if tag.Key == RemoveTagValue {
		return m.RemoveTag(index)
	}

	selector := m.seriesByTagFunc()
	if selector == nil || index < 0 || index >= len(m.Tags) {
		return ErrIndexOutOfRange
	}
	if tag.Operator == "" {
		tag.Operator = defaultTagOp
	}

	m.Err = nil
	m.Tags[index] = tag
	m.syncSelector(selector)
	m.markEdited()
	return nil
}

// RemoveTag deletes the tag at index. Removing the last tag removes the
// seriesByTag selector as well.
func (m *QueryModel) RemoveTag(index int) error {
	if m.Target.TextEditor {
		return ErrTextEditorActive
	}

	selectorIndex := m.SeriesByTagIndex()
	if selectorIndex < 0 || index < 0 || index >= len(m.Tags) {
		return ErrIndexOutOfRange
	}
	selector := m.Functions[selectorIndex]

	m.Tags = append(m.Tags[:index], m.Tags[index+1:]...)
	m.syncSelector(selector)

	if len(m.Tags) == 0 {
		m.Functions = append(m.Functions[:selectorIndex], m.Functions[selectorIndex+1:]...)
		m.SeriesByTagUsed = false
	}

	m.Err = nil
	m.markEdited()
	return nil
}

// syncSelector rebuilds the selector's params from the tag list, dropping any
// argument that was not a tag expression.
func (m *QueryModel) syncSelector(selector *functions.Instance) {
	selector.Params = m.RenderTagExpressions(-1)
}

// RenderTagExpressions returns every tag as key<op>value, leaving out the one
// at exclude. Pass -1 to keep all of them.
func (m *QueryModel) RenderTagExpressions(exclude int) []string {
	exprs := make([]string, 0, len(m.Tags))
	for i, tag := range m.Tags {
		if i == exclude {
			continue
		}
		exprs = append(exprs, tag.String())
	}
	return exprs
}
