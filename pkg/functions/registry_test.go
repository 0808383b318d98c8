package functions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry(map[string]*FuncDef{
		"foo": {Name: "foo", Params: []ParamSpec{{Name: "n", Type: TypeInt}}},
	})

	def := r.Get("bar")
	require.NotNil(t, def)
	assert.Equal(t, "bar", def.Name)
	assert.True(t, def.Unknown)
	require.Len(t, def.Params, 1)
	assert.True(t, def.Params[0].Multiple)
	assert.Equal(t, TypeUntyped, def.Params[0].Type)
	assert.Equal(t, []string{""}, def.DefaultParams)

	// synthetic signatures are not stored
	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup("bar")
	assert.False(t, ok)
}

func TestRegistryGetKnown(t *testing.T) {
	r := Builtin()

	def := r.Get("groupByNode")
	assert.False(t, def.Unknown)
	require.Len(t, def.Params, 2)
	assert.Equal(t, TypeInt, def.Params[0].Type)
	assert.Equal(t, TypeString, def.Params[1].Type)
	assert.Equal(t, []string{"3", "sum"}, def.DefaultParams)
}

func TestRegistryNameFromKey(t *testing.T) {
	r := NewRegistry(map[string]*FuncDef{"foo": {}})
	assert.Equal(t, "foo", r.Get("foo").Name)
}

func TestRegistryAllVersionFloor(t *testing.T) {
	r := Builtin()

	tests := []struct {
		floor   string
		present []string
		absent  []string
	}{
		{floor: "", present: []string{"scale", "diffSeries", "groupByNodes", SeriesByTag}},
		{floor: "0.8", present: []string{"scale", "aliasByNode"}, absent: []string{"diffSeries", "perSecond", SeriesByTag}},
		{floor: "0.9", present: []string{"diffSeries", "perSecond"}, absent: []string{"groupByNodes", SeriesByTag}},
		{floor: "1.0", present: []string{"groupByNodes", "delay"}, absent: []string{SeriesByTag, "aliasByTags"}},
		{floor: "1.1", present: []string{SeriesByTag, "groupByTags", "aliasByTags"}},
		{floor: "not-a-version", present: []string{SeriesByTag}},
	}

	for _, tt := range tests {
		all := r.All(tt.floor)
		for _, name := range tt.present {
			assert.Contains(t, all, name, "floor %q", tt.floor)
		}
		for _, name := range tt.absent {
			assert.NotContains(t, all, name, "floor %q", tt.floor)
		}
	}
}

func TestRegistryAllFiltersParams(t *testing.T) {
	r := NewRegistry(map[string]*FuncDef{
		"summarize": {
			Name: "summarize",
			Params: []ParamSpec{
				{Name: "interval", Type: TypeString},
				{Name: "func", Type: TypeSelect},
				{Name: "alignToFrom", Type: TypeBoolean, Version: "1.1"},
			},
		},
	})

	old := r.All("1.0")["summarize"]
	require.NotNil(t, old)
	assert.Len(t, old.Params, 2)

	current := r.All("1.1")["summarize"]
	assert.Len(t, current.Params, 3)

	// the registry itself is untouched
	assert.Len(t, r.Get("summarize").Params, 3)
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry(map[string]*FuncDef{"b": {}, "a": {}, "c": {}})
	assert.Equal(t, []string{"a", "b", "c"}, r.Names())
}

func TestRegistrySuggest(t *testing.T) {
	r := Builtin()

	suggestions := r.Suggest("sumSereis", 3)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "sumSeries", suggestions[0])
	assert.LessOrEqual(t, len(suggestions), 3)

	assert.Empty(t, r.Suggest("zzzzzzzzzzzz", 3))
	assert.Nil(t, r.Suggest("", 3))
}

func TestFuncDefParamAt(t *testing.T) {
	def := &FuncDef{Name: "aliasByNode", Params: []ParamSpec{{Name: "node", Type: TypeInt, Multiple: true}}}
	assert.True(t, def.AcceptsParam(0))
	assert.True(t, def.AcceptsParam(5))

	fixed := &FuncDef{Name: "scale", Params: []ParamSpec{{Name: "factor", Type: TypeInt}}}
	assert.True(t, fixed.AcceptsParam(0))
	assert.False(t, fixed.AcceptsParam(1))

	none := &FuncDef{Name: "absolute"}
	assert.False(t, none.AcceptsParam(0))
}

func TestParamTypeQuoting(t *testing.T) {
	never := []ParamType{TypeValueOrSeries, TypeBoolean, TypeInt, TypeFloat, TypeNode, TypeIntOrInfinity}
	for _, typ := range never {
		assert.Equal(t, QuoteNever, typ.Quoting(), "type %q", typ)
	}
	for _, typ := range []ParamType{TypeIntOrInterval, TypeNodeOrTag} {
		assert.Equal(t, QuoteNumeric, typ.Quoting(), "type %q", typ)
	}
	for _, typ := range []ParamType{TypeString, TypeSelect, TypeUntyped, "aggFunc"} {
		assert.Equal(t, QuoteAlways, typ.Quoting(), "type %q", typ)
	}
}
