package functions

// Categories used by the built-in table
const (
	CategoryCombine   = "Combine"
	CategoryTransform = "Transform"
	CategoryCalculate = "Calculate"
	CategoryFilter    = "Filter"
	CategorySpecial   = "Special"
	CategoryAlias     = "Alias"
)

var (
	nodeOptions     = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}
	boolOptions     = []string{"true", "false"}
	aggregateFuncs  = []string{"sum", "avg", "min", "max", "last"}
	shiftOptions    = []string{"1h", "6h", "12h", "1d", "2d", "7d", "14d", "30d"}
	windowOptions   = []string{"5", "7", "10", "5min", "10min", "30min", "1hour"}
	seriesRefParams = []ParamSpec{{Name: "other", Type: TypeValueOrSeries, Optional: true, Multiple: true}}
)

// builtinDefs is the static signature table used when no description
// document is available. It covers Graphite 0.9 to 1.1.
func builtinDefs() map[string]*FuncDef {
	defs := []*FuncDef{
		// Combine
		{Name: "sumSeries", ShortName: "sum", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{""}},
		{Name: "averageSeries", ShortName: "avg", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{""}},
		{Name: "maxSeries", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{""}},
		{Name: "minSeries", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{""}},
		{Name: "countSeries", Category: CategoryCombine},
		{Name: "percentileOfSeries", Category: CategoryCombine,
			Params: []ParamSpec{
				{Name: "n", Type: TypeInt},
				{Name: "interpolate", Type: TypeBoolean, Options: boolOptions, Optional: true},
			},
			DefaultParams: []string{"95", "false"}},
		{Name: "sumSeriesWithWildcards", Category: CategoryCombine,
			Params:        []ParamSpec{{Name: "node", Type: TypeInt, Multiple: true}},
			DefaultParams: []string{"3"}},
		{Name: "averageSeriesWithWildcards", Category: CategoryCombine,
			Params:        []ParamSpec{{Name: "node", Type: TypeInt, Multiple: true}},
			DefaultParams: []string{"3"}},
		{Name: "groupByNode", Category: CategoryCombine,
			Params: []ParamSpec{
				{Name: "node", Type: TypeInt, Options: nodeOptions},
				{Name: "function", Type: TypeString, Options: []string{"sum", "avg", "maxSeries"}},
			},
			DefaultParams: []string{"3", "sum"}},
		{Name: "diffSeries", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{"#A"}, Version: "0.9"},
		{Name: "divideSeries", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{"#A"}, Version: "0.9"},
		{Name: "multiplySeries", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{"#A"}, Version: "0.9"},
		{Name: "asPercent", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{"#A"}, Version: "0.9"},
		{Name: "group", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{"#A"}, Version: "0.9"},
		{Name: "stddevSeries", Category: CategoryCombine, Params: seriesRefParams, DefaultParams: []string{""}, Version: "0.9"},
		{Name: "mapSeries", ShortName: "map", Category: CategoryCombine,
			Params:        []ParamSpec{{Name: "node", Type: TypeInt, Options: nodeOptions}},
			DefaultParams: []string{"3"}, Version: "0.9"},
		{Name: "reduceSeries", ShortName: "reduce", Category: CategoryCombine,
			Params: []ParamSpec{
				{Name: "reduceFunction", Type: TypeString, Options: []string{"asPercent", "diffSeries", "divideSeries"}},
				{Name: "reduceNode", Type: TypeInt, Options: nodeOptions},
				{Name: "reduceMatchers", Type: TypeString, Multiple: true},
			},
			DefaultParams: []string{"asPercent", "2", "used_bytes"}, Version: "0.9"},
		{Name: "groupByNodes", Category: CategoryCombine,
			Params: []ParamSpec{
				{Name: "function", Type: TypeString, Options: []string{"sum", "avg", "maxSeries"}},
				{Name: "nodes", Type: TypeNode, Options: nodeOptions, Multiple: true},
			},
			DefaultParams: []string{"sum", "3"}, Version: "1.0"},
		{Name: "weightedAverage", Category: CategoryCombine,
			Params: []ParamSpec{
				{Name: "other", Type: TypeValueOrSeries, Optional: true},
				{Name: "node", Type: TypeInt, Options: nodeOptions},
			},
			DefaultParams: []string{"#A", "4"}, Version: "1.0"},
		{Name: "aggregate", Category: CategoryCombine,
			Params:        []ParamSpec{{Name: "func", Type: TypeString, Options: aggregateFuncs}},
			DefaultParams: []string{"sum"}, Version: "1.0"},
		{Name: "groupByTags", Category: CategoryCombine,
			Params: []ParamSpec{
				{Name: "function", Type: TypeString, Options: []string{"sum", "avg", "maxSeries"}},
				{Name: "tag", Type: TypeString, Multiple: true},
			},
			DefaultParams: []string{"sum", "tag"}, Version: "1.1"},

		// Transform
		{Name: "scaleToSeconds", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "seconds", Type: TypeInt}},
			DefaultParams: []string{"1"}},
		{Name: "perSecond", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "max value", Type: TypeInt, Optional: true}},
			DefaultParams: []string{}, Version: "0.9"},
		{Name: "integral", Category: CategoryTransform},
		{Name: "derivative", Category: CategoryTransform},
		{Name: "nonNegativeDerivative", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "max value or 0", Type: TypeInt, Optional: true}},
			DefaultParams: []string{""}},
		{Name: "absolute", Category: CategoryTransform},
		{Name: "invert", Category: CategoryTransform, Version: "1.0"},
		{Name: "isNonNull", Category: CategoryTransform, Version: "1.0"},
		{Name: "squareRoot", Category: CategoryTransform, Version: "1.0"},
		{Name: "minMax", Category: CategoryTransform, Version: "1.0"},
		{Name: "scale", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "factor", Type: TypeInt}},
			DefaultParams: []string{"1"}},
		{Name: "offset", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "amount", Type: TypeInt}},
			DefaultParams: []string{"10"}},
		{Name: "transformNull", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "amount", Type: TypeInt}},
			DefaultParams: []string{"0"}},
		{Name: "keepLastValue", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "n", Type: TypeInt}},
			DefaultParams: []string{"100"}},
		{Name: "log", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "base", Type: TypeInt}},
			DefaultParams: []string{"10"}},
		{Name: "pow", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "factor", Type: TypeInt}},
			DefaultParams: []string{"10"}, Version: "1.0"},
		{Name: "powSeries", Category: CategoryTransform, Params: seriesRefParams, DefaultParams: []string{""}, Version: "1.0"},
		{Name: "delay", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "steps", Type: TypeInt}},
			DefaultParams: []string{"1"}, Version: "1.0"},
		{Name: "timeShift", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "amount", Type: TypeSelect, Options: shiftOptions}},
			DefaultParams: []string{"1d"}},
		{Name: "timeStack", Category: CategoryTransform,
			Params: []ParamSpec{
				{Name: "timeShiftUnit", Type: TypeSelect, Options: []string{"1d", "1w", "1M"}},
				{Name: "timeShiftStart", Type: TypeInt},
				{Name: "timeShiftEnd", Type: TypeInt},
			},
			DefaultParams: []string{"1d", "0", "7"}},
		{Name: "timeSlice", Category: CategoryTransform,
			Params: []ParamSpec{
				{Name: "startSliceAt", Type: TypeSelect, Options: []string{"-1h", "-6h", "-12h", "-1d", "-2d", "-7d", "-14d", "-30d"}},
				{Name: "endSliceAt", Type: TypeSelect, Options: []string{"-1h", "-6h", "-12h", "-1d", "-2d", "-7d", "-14d", "-30d", "now"}, Optional: true},
			},
			DefaultParams: []string{"-1h", "now"}, Version: "1.0"},
		{Name: "summarize", Category: CategoryTransform,
			Params: []ParamSpec{
				{Name: "interval", Type: TypeString},
				{Name: "func", Type: TypeSelect, Options: aggregateFuncs},
				{Name: "alignToFrom", Type: TypeBoolean, Optional: true, Options: boolOptions},
			},
			DefaultParams: []string{"1h", "sum", "false"}},
		{Name: "smartSummarize", Category: CategoryTransform,
			Params: []ParamSpec{
				{Name: "interval", Type: TypeString},
				{Name: "func", Type: TypeSelect, Options: aggregateFuncs},
			},
			DefaultParams: []string{"1h", "sum"}},
		{Name: "hitcount", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "interval", Type: TypeString}},
			DefaultParams: []string{"10s"}},
		{Name: "integralByInterval", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "intervalUnit", Type: TypeSelect, Options: shiftOptions}},
			DefaultParams: []string{"1d"}, Version: "1.0"},
		{Name: "interpolate", Category: CategoryTransform,
			Params:        []ParamSpec{{Name: "limit", Type: TypeIntOrInfinity, Optional: true}},
			DefaultParams: []string{}, Version: "1.0"},

		// Calculate
		{Name: "movingAverage", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "windowSize", Type: TypeIntOrInterval, Options: windowOptions}},
			DefaultParams: []string{"10"}},
		{Name: "movingMedian", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "windowSize", Type: TypeIntOrInterval, Options: windowOptions}},
			DefaultParams: []string{"5"}},
		{Name: "movingSum", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "windowSize", Type: TypeIntOrInterval, Options: windowOptions}},
			DefaultParams: []string{"5"}, Version: "1.0"},
		{Name: "movingMin", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "windowSize", Type: TypeIntOrInterval, Options: windowOptions}},
			DefaultParams: []string{"5"}, Version: "1.0"},
		{Name: "movingMax", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "windowSize", Type: TypeIntOrInterval, Options: windowOptions}},
			DefaultParams: []string{"5"}, Version: "1.0"},
		{Name: "exponentialMovingAverage", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "windowSize", Type: TypeIntOrInterval, Options: windowOptions}},
			DefaultParams: []string{"10"}, Version: "1.0"},
		{Name: "stdev", Category: CategoryCalculate,
			Params: []ParamSpec{
				{Name: "n", Type: TypeInt},
				{Name: "tolerance", Type: TypeFloat},
			},
			DefaultParams: []string{"5", "0.1"}},
		{Name: "nPercentile", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "Nth percentile", Type: TypeInt}},
			DefaultParams: []string{"95"}, Version: "0.9"},
		{Name: "aggregateLine", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "func", Type: TypeSelect, Options: aggregateFuncs}},
			DefaultParams: []string{"avg"}, Version: "1.0"},
		{Name: "linearRegression", Category: CategoryCalculate,
			Params: []ParamSpec{
				{Name: "startSourceAt", Type: TypeSelect, Options: []string{"-1h", "-6h", "-12h", "-1d", "-2d", "-7d", "-14d", "-30d"}, Optional: true},
				{Name: "endSourceAt", Type: TypeSelect, Options: []string{"-1h", "-6h", "-12h", "-1d", "-2d", "-7d", "-14d", "-30d", "now"}, Optional: true},
			},
			DefaultParams: []string{"", ""}, Version: "1.0"},
		{Name: "holtWintersForecast", Category: CategoryCalculate},
		{Name: "holtWintersConfidenceBands", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "delta", Type: TypeInt}},
			DefaultParams: []string{"3"}},
		{Name: "holtWintersAberration", Category: CategoryCalculate,
			Params:        []ParamSpec{{Name: "delta", Type: TypeInt}},
			DefaultParams: []string{"3"}},

		// Filter
		{Name: "averageAbove", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"25"}},
		{Name: "averageBelow", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"25"}},
		{Name: "currentAbove", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"25"}},
		{Name: "currentBelow", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"25"}},
		{Name: "maximumAbove", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"0"}},
		{Name: "maximumBelow", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"0"}},
		{Name: "minimumAbove", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"0"}},
		{Name: "minimumBelow", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"0"}},
		{Name: "highestAverage", Category: CategoryFilter, Params: []ParamSpec{{Name: "count", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "highestCurrent", Category: CategoryFilter, Params: []ParamSpec{{Name: "count", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "highestMax", Category: CategoryFilter, Params: []ParamSpec{{Name: "count", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "lowestAverage", Category: CategoryFilter, Params: []ParamSpec{{Name: "count", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "lowestCurrent", Category: CategoryFilter, Params: []ParamSpec{{Name: "count", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "limit", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "mostDeviant", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"10"}},
		{Name: "exclude", Category: CategoryFilter, Params: []ParamSpec{{Name: "exclude", Type: TypeString}}, DefaultParams: []string{"exclude"}},
		{Name: "grep", Category: CategoryFilter, Params: []ParamSpec{{Name: "grep", Type: TypeString}}, DefaultParams: []string{"grep"}, Version: "1.0"},
		{Name: "removeAbovePercentile", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "removeAboveValue", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "removeBelowPercentile", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "removeBelowValue", Category: CategoryFilter, Params: []ParamSpec{{Name: "n", Type: TypeInt}}, DefaultParams: []string{"5"}},
		{Name: "removeEmptySeries", Category: CategoryFilter, Version: "1.0"},
		{Name: "useSeriesAbove", Category: CategoryFilter,
			Params: []ParamSpec{
				{Name: "value", Type: TypeInt},
				{Name: "search", Type: TypeString},
				{Name: "replace", Type: TypeString},
			},
			DefaultParams: []string{"0", "search", "replace"}},
		{Name: "highest", Category: CategoryFilter,
			Params: []ParamSpec{
				{Name: "count", Type: TypeInt},
				{Name: "func", Type: TypeString, Options: []string{"average", "current", "max", "min", "sum"}},
			},
			DefaultParams: []string{"4", "average"}, Version: "1.0"},
		{Name: "lowest", Category: CategoryFilter,
			Params: []ParamSpec{
				{Name: "count", Type: TypeInt},
				{Name: "func", Type: TypeString, Options: []string{"average", "current", "max", "min", "sum"}},
			},
			DefaultParams: []string{"4", "average"}, Version: "1.0"},
		{Name: "filterSeries", Category: CategoryFilter,
			Params: []ParamSpec{
				{Name: "func", Type: TypeString, Options: aggregateFuncs},
				{Name: "operator", Type: TypeString, Options: []string{"=", "!=", ">", ">=", "<", "<="}},
				{Name: "threshold", Type: TypeFloat},
			},
			DefaultParams: []string{"sum", ">", "0"}, Version: "1.0"},
		{Name: "sortByName", Category: CategoryFilter,
			Params:        []ParamSpec{{Name: "natural", Type: TypeBoolean, Options: boolOptions, Optional: true}},
			DefaultParams: []string{"false"}},
		{Name: "sortByMaxima", Category: CategoryFilter},
		{Name: "sortByMinima", Category: CategoryFilter},
		{Name: "sortByTotal", Category: CategoryFilter},
		{Name: "sortBy", Category: CategoryFilter,
			Params: []ParamSpec{
				{Name: "func", Type: TypeString, Options: []string{"average", "current", "max", "min", "sum"}},
				{Name: "reverse", Type: TypeBoolean, Options: boolOptions, Optional: true},
			},
			DefaultParams: []string{"sum", "false"}, Version: "1.0"},

		// Alias
		{Name: "alias", Category: CategoryAlias, Params: []ParamSpec{{Name: "alias", Type: TypeString}}, DefaultParams: []string{"alias"}},
		{Name: "aliasSub", Category: CategoryAlias,
			Params: []ParamSpec{
				{Name: "search", Type: TypeString},
				{Name: "replace", Type: TypeString},
			},
			DefaultParams: []string{"", "\\1"}},
		{Name: "aliasByNode", Category: CategoryAlias,
			Params:        []ParamSpec{{Name: "node", Type: TypeInt, Options: nodeOptions, Multiple: true}},
			DefaultParams: []string{"3"}},
		{Name: "aliasByMetric", Category: CategoryAlias},
		{Name: "aliasByTags", Category: CategoryAlias,
			Params:        []ParamSpec{{Name: "tag", Type: TypeNodeOrTag, Options: append([]string{"name"}, nodeOptions...), Multiple: true}},
			DefaultParams: []string{"name"}, Version: "1.1"},

		// Special
		{Name: "consolidateBy", Category: CategorySpecial,
			Params:        []ParamSpec{{Name: "function", Type: TypeString, Options: []string{"sum", "average", "min", "max"}}},
			DefaultParams: []string{"max"}},
		{Name: "cumulative", Category: CategorySpecial},
		{Name: "changed", Category: CategorySpecial},
		{Name: "cactiStyle", Category: CategorySpecial},
		{Name: "substr", Category: CategorySpecial,
			Params: []ParamSpec{
				{Name: "start", Type: TypeInt, Options: []string{"-6", "-5", "-4", "-3", "-2", "-1", "0", "1", "2", "3", "4", "5", "6"}},
				{Name: "stop", Type: TypeInt, Options: []string{"-6", "-5", "-4", "-3", "-2", "-1", "0", "1", "2", "3", "4", "5", "6"}},
			},
			DefaultParams: []string{"0", "0"}},
		{Name: SeriesByTag, Category: CategorySpecial,
			Params:        []ParamSpec{{Name: "tagExpression", Type: TypeString, Multiple: true}},
			DefaultParams: []string{}, Version: "1.1"},
		{Name: "constantLine", Category: CategorySpecial, Fake: true,
			Params:        []ParamSpec{{Name: "value", Type: TypeInt}},
			DefaultParams: []string{"10"}},
		{Name: "randomWalk", Category: CategorySpecial, Fake: true,
			Params:        []ParamSpec{{Name: "name", Type: TypeString}},
			DefaultParams: []string{"randomWalk"}},
		{Name: "identity", Category: CategorySpecial, Fake: true,
			Params:        []ParamSpec{{Name: "name", Type: TypeString}},
			DefaultParams: []string{"identity"}, Version: "0.9"},
	}

	table := make(map[string]*FuncDef, len(defs))
	for _, def := range defs {
		if def.DefaultParams == nil {
			def.DefaultParams = []string{}
		}
		table[def.Name] = def
	}
	return table
}
