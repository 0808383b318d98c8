package functions

import "regexp"

// Interpolator substitutes dashboard variables in a parameter value. Render
// uses it to decide whether a variable holds a number.
type Interpolator interface {
	Interpolate(value string) string
}

// InterpolatorFunc adapts a plain function to the Interpolator interface
type InterpolatorFunc func(value string) string

func (f InterpolatorFunc) Interpolate(value string) string { return f(value) }

// Identity returns values unchanged.
var Identity Interpolator = InterpolatorFunc(func(value string) string { return value })

// variablePattern matches $var, ${var}, ${var:fmt}, [[var]] and [[var:fmt]]
var variablePattern = regexp.MustCompile(`\$(\w+)|\$\{(\w+)(?::\w+)?\}|\[\[(\w+)(?::\w+)?\]\]`)

// Variables interpolates from a fixed set of name/value pairs. Unknown
// variables are left as written.
type Variables map[string]string

func (v Variables) Interpolate(value string) string {
	if len(v) == 0 {
		return value
	}
	return variablePattern.ReplaceAllStringFunc(value, func(match string) string {
		sub := variablePattern.FindStringSubmatch(match)
		for _, name := range sub[1:] {
			if name == "" {
				continue
			}
			if replacement, ok := v[name]; ok {
				return replacement
			}
		}
		return match
	})
}
