package functions

import (
	"math"
	"strconv"
	"strings"
)

// Instance is one call of a function inside a query, with its own parameter
// values. Params hold raw values; quoting is applied by Render.
type Instance struct {
	Def    *FuncDef
	Params []string
	// Hidden instances are not shown as function calls, e.g. the seriesByTag
	// selector whose params are edited as tags.
	Hidden bool
	// Added is set for functions added by the user since the last commit.
	Added bool
}

// NewInstance creates a call of def, optionally seeded with its default params
func NewInstance(def *FuncDef, withDefaults bool) *Instance {
	f := &Instance{Def: def, Params: []string{}}
	if withDefaults && len(def.DefaultParams) > 0 {
		f.Params = append(f.Params, def.DefaultParams...)
	}
	return f
}

// ParamType returns the type of the param at index i, or TypeUntyped when the
// signature does not cover it.
func (f *Instance) ParamType(i int) ParamType {
	spec, ok := f.Def.ParamAt(i)
	if !ok {
		return TypeUntyped
	}
	return spec.Type
}

// Render writes the call as query text with metricExp as the implicit first
// argument. An empty metricExp is left out.
func (f *Instance) Render(metricExp string, interp Interpolator) string {
	if interp == nil {
		interp = Identity
	}

	// Graphite rejects empty trailing arguments
	values := f.Params
	for len(values) > 0 && values[len(values)-1] == "" {
		values = values[:len(values)-1]
	}

	params := make([]string, 0, len(values)+1)
	if metricExp != "" {
		params = append(params, metricExp)
	}
	for i, value := range values {
		params = append(params, f.renderParam(i, value, interp))
	}

	return f.Def.Name + "(" + strings.Join(params, ", ") + ")"
}

func (f *Instance) renderParam(i int, value string, interp Interpolator) string {
	switch f.ParamType(i).Quoting() {
	case QuoteNever:
		return value
	case QuoteNumeric:
		if IsNumeric(interp.Interpolate(value)) {
			return value
		}
	}
	return "'" + value + "'"
}

// Text returns the call as shown in an editor: raw params, no implicit series
func (f *Instance) Text() string {
	return f.Def.Name + "(" + strings.Join(f.Params, ", ") + ")"
}

// UpdateParam sets the param at index. A value holding commas is spread over
// the following params when those are optional or repeatable. Clearing an
// optional param removes it.
func (f *Instance) UpdateParam(value string, index int) {
	if index < 0 {
		return
	}

	if f.spreadsOverParams(value, index) {
		for i, part := range strings.Split(value, ",") {
			f.UpdateParam(strings.TrimSpace(part), index+i)
		}
		return
	}

	if value == "" && (index >= len(f.Def.Params) || f.Def.Params[index].Optional) {
		if index < len(f.Params) {
			f.Params = append(f.Params[:index], f.Params[index+1:]...)
		}
		return
	}

	for len(f.Params) <= index {
		f.Params = append(f.Params, "")
	}
	f.Params[index] = value
}

func (f *Instance) spreadsOverParams(value string, index int) bool {
	if !strings.Contains(value, ",") {
		return false
	}
	params := f.Def.Params
	if index+1 < len(params) && params[index+1].Optional {
		return true
	}
	return index+1 >= len(params) && len(params) > 0 && params[len(params)-1].Multiple
}

// IsNumeric reports whether s reads as a finite number. Blank strings count as
// numeric, which keeps empty interval params unquoted.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return !math.IsInf(v, 0) && !math.IsNaN(v)
	}
	if _, err := strconv.ParseInt(s, 0, 64); err == nil {
		return true
	}
	return false
}
