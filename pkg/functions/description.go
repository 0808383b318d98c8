package functions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// infinitySentinel stands in for the bare Infinity that Graphite writes for
// some defaults, which is not valid JSON.
const infinitySentinel = "1.7976931348623157e308"

var (
	infinityDefault = regexp.MustCompile(`"default":\s*Infinity`)
	seriesListType  = regexp.MustCompile(`^seriesLists?$`)

	pyFuncRef   = regexp.MustCompile(":py:func:`([^`<]+?)( <[^>]*>)?`")
	codeBlockNo = regexp.MustCompile(`\.\. code-block *:: *none`)
)

// DecodeError is returned when a function description document cannot be
// decoded. The registry falls back to the built-in table.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode function descriptions: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// rawFunction is one entry of the /functions document served by Graphite
type rawFunction struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Module      string     `json:"module"`
	Group       string     `json:"group"`
	Params      []rawParam `json:"params"`
}

type rawParam struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Required    bool              `json:"required"`
	Multiple    bool              `json:"multiple"`
	Default     json.RawMessage   `json:"default"`
	Suggestions []json.RawMessage `json:"suggestions"`
	Options     []json.RawMessage `json:"options"`
}

// ParseDescriptionDocument decodes the function description document that
// Graphite 1.1 serves on /functions.
func ParseDescriptionDocument(raw []byte) (map[string]*FuncDef, error) {
	raw = infinityDefault.ReplaceAll(raw, []byte(`"default": `+infinitySentinel))

	var doc map[string]rawFunction
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &DecodeError{Err: err}
	}

	defs := make(map[string]*FuncDef, len(doc))
	for key, fn := range doc {
		// graph styling functions have no place in a query builder
		if fn.Group == "Graph" {
			continue
		}

		def := &FuncDef{
			Name:          fn.Name,
			Description:   tidyDescription(fn.Description),
			Category:      fn.Group,
			Params:        []ParamSpec{},
			DefaultParams: []string{},
		}
		if def.Name == "" {
			def.Name = key
		}

		params := slices.Clone(fn.Params)
		if i := slices.IndexFunc(params, isSeriesListParam); i >= 0 {
			// The series list is the path being transformed. Functions that
			// take several keep the param so more series can be added.
			if params[i].Multiple {
				params[i].Required = false
			} else {
				params = slices.Delete(params, i, i+1)
			}
		} else {
			def.Fake = true
		}

		for _, rp := range params {
			def.Params = append(def.Params, convertParam(rp))
			def.DefaultParams = append(def.DefaultParams, defaultValue(rp))
		}

		defs[key] = def
	}
	return defs, nil
}

func isSeriesListParam(rp rawParam) bool {
	return seriesListType.MatchString(rp.Type)
}

func convertParam(rp rawParam) ParamSpec {
	p := ParamSpec{
		Name:     rp.Name,
		Type:     TypeString,
		Optional: !rp.Required,
		Multiple: rp.Multiple,
	}

	switch rp.Type {
	case "boolean":
		p.Type = TypeBoolean
		p.Options = []string{"true", "false"}
	case "integer":
		p.Type = TypeInt
	case "float":
		p.Type = TypeFloat
	case "node":
		p.Type = TypeNode
		p.Options = append([]string(nil), nodeOptions...)
	case "nodeOrTag":
		p.Type = TypeNodeOrTag
		p.Options = append([]string{"name"}, nodeOptions...)
	case "intOrInterval":
		p.Type = TypeIntOrInterval
	case "intOrInf":
		p.Type = TypeIntOrInfinity
	case "seriesList":
		p.Type = TypeValueOrSeries
	}

	switch {
	case rp.Options != nil:
		p.Options = stringify(rp.Options)
	case rp.Suggestions != nil:
		p.Options = stringify(rp.Suggestions)
	}
	return p
}

func defaultValue(rp rawParam) string {
	if len(rp.Default) > 0 {
		return jsonString(rp.Default)
	}
	if len(rp.Suggestions) > 0 {
		return jsonString(rp.Suggestions[0])
	}
	return ""
}

func stringify(values []json.RawMessage) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = jsonString(v)
	}
	return out
}

// jsonString renders a JSON scalar the way it is written in a query:
// strings unquoted, numbers as written, null as empty.
func jsonString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			return strings.Join(stringify(items), ",")
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		text := string(raw)
		if text == infinitySentinel {
			return "inf"
		}
		if v, err := strconv.ParseFloat(text, 64); err == nil && math.IsInf(v, 1) {
			return "inf"
		}
		return text
	}
	return string(raw)
}

// tidyDescription rewrites pydoc constructs that plain rst renderers reject
func tidyDescription(desc string) string {
	if desc == "" {
		return desc
	}
	desc = pyFuncRef.ReplaceAllString(desc, "``$1``")
	desc = strings.ReplaceAll(desc, ".. seealso:: ", "See also: ")
	desc = codeBlockNo.ReplaceAllString(desc, ".. code-block::")
	return desc
}

// LoadRegistry builds a registry from a description document. When the
// document cannot be decoded the built-in table is returned together with a
// *DecodeError for the caller to surface.
func LoadRegistry(raw []byte, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	defs, err := ParseDescriptionDocument(raw)
	if err != nil {
		logger.Warn("falling back to built-in function table", zap.Error(err))
		return Builtin(), err
	}

	logger.Debug("loaded function descriptions", zap.Int("functions", len(defs)))
	return NewRegistry(defs), nil
}
