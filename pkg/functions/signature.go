package functions

// ParamType is the rendering type of a function parameter. It decides how a
// value is quoted when the function is written back to query text.
type ParamType string

const (
	TypeValueOrSeries ParamType = "value_or_series"
	TypeBoolean       ParamType = "boolean"
	TypeInt           ParamType = "int"
	TypeFloat         ParamType = "float"
	TypeNode          ParamType = "node"
	TypeIntOrInfinity ParamType = "int_or_infinity"
	TypeIntOrInterval ParamType = "int_or_interval"
	TypeNodeOrTag     ParamType = "node_or_tag"
	TypeString        ParamType = "string"
	TypeSelect        ParamType = "select"
	TypeUntyped       ParamType = ""
)

// Quoting describes when a parameter value is wrapped in single quotes
type Quoting int

const (
	QuoteAlways  Quoting = iota
	QuoteNever           // emitted verbatim
	QuoteNumeric         // quoted unless the interpolated value is a number
)

// Quoting returns the quoting rule of the type.
func (t ParamType) Quoting() Quoting {
	switch t {
	case TypeValueOrSeries, TypeBoolean, TypeInt, TypeFloat, TypeNode, TypeIntOrInfinity:
		return QuoteNever
	case TypeIntOrInterval, TypeNodeOrTag:
		return QuoteNumeric
	default:
		return QuoteAlways
	}
}

// ParamSpec describes one declared parameter of a function
type ParamSpec struct {
	Name     string    `json:"name"`
	Type     ParamType `json:"type"`
	Optional bool      `json:"optional,omitempty"`
	Multiple bool      `json:"multiple,omitempty"`
	Options  []string  `json:"options,omitempty"`
	Version  string    `json:"version,omitempty"`
}

// FuncDef is the signature of a Graphite function.
type FuncDef struct {
	Name          string      `json:"name"`
	ShortName     string      `json:"shortName,omitempty"`
	Category      string      `json:"category,omitempty"`
	Description   string      `json:"description,omitempty"`
	Params        []ParamSpec `json:"params"`
	DefaultParams []string    `json:"defaultParams"`
	Version       string      `json:"version,omitempty"`

	// Unknown marks a signature made up for a name the registry does not know.
	Unknown bool `json:"unknown,omitempty"`
	// Fake marks functions that produce series instead of transforming the
	// path they are applied to, e.g. constantLine.
	Fake bool `json:"fake,omitempty"`
}

// Special function names the query model treats differently
const (
	SeriesByTag = "seriesByTag"
)

// Synthetic returns the permissive signature used for unknown function names:
// a single untyped parameter that accepts any number of values.
func Synthetic(name string) *FuncDef {
	return &FuncDef{
		Name:          name,
		Params:        []ParamSpec{{Name: "", Type: TypeUntyped, Multiple: true}},
		DefaultParams: []string{""},
		Unknown:       true,
	}
}

// ParamAt returns the spec that governs the parameter at index i. Indexes past
// the declared list fall back to the last param when it accepts multiple
// values.
func (d *FuncDef) ParamAt(i int) (ParamSpec, bool) {
	if i >= 0 && i < len(d.Params) {
		return d.Params[i], true
	}
	if n := len(d.Params); n > 0 && i >= n && d.Params[n-1].Multiple {
		return d.Params[n-1], true
	}
	return ParamSpec{}, false
}

// AcceptsParam reports whether the function can take a parameter at index i
func (d *FuncDef) AcceptsParam(i int) bool {
	_, ok := d.ParamAt(i)
	return ok
}

// clone returns a deep copy so registry callers cannot change shared defs
func (d *FuncDef) clone() *FuncDef {
	c := *d
	c.Params = make([]ParamSpec, len(d.Params))
	for i, p := range d.Params {
		p.Options = append([]string(nil), p.Options...)
		c.Params[i] = p
	}
	c.DefaultParams = append([]string(nil), d.DefaultParams...)
	return &c
}
