package query

import "encoding/json"

// The JSON form of a tree tags every node with its kind so that clients can
// tell a metric parameter from a function parameter.

func (m *Metric) MarshalJSON() ([]byte, error) {
	type metric Metric
	return json.Marshal(struct {
		Type string `json:"type"`
		*metric
	}{"metric", (*metric)(m)})
}

func (f *Function) MarshalJSON() ([]byte, error) {
	type function Function
	return json.Marshal(struct {
		Type string `json:"type"`
		*function
	}{"function", (*function)(f)})
}

func (r *SeriesRef) MarshalJSON() ([]byte, error) {
	type seriesRef SeriesRef
	return json.Marshal(struct {
		Type string `json:"type"`
		*seriesRef
	}{"seriesRef", (*seriesRef)(r)})
}

func (l *Literal) MarshalJSON() ([]byte, error) {
	kind := "string"
	switch l.Kind {
	case LiteralNumber:
		kind = "number"
	case LiteralBool:
		kind = "bool"
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{kind, l.Value()})
}

func (e *Error) MarshalJSON() ([]byte, error) {
	type parseError Error
	return json.Marshal(struct {
		Type string `json:"type"`
		*parseError
	}{"error", (*parseError)(e)})
}

// MarshalText lets segment kinds appear by name in JSON output.
func (k SegmentKind) MarshalText() ([]byte, error) {
	switch k {
	case SegmentCurly:
		return []byte("curly"), nil
	case SegmentTemplate:
		return []byte("template"), nil
	case SegmentSeriesRef:
		return []byte("seriesRef"), nil
	default:
		return []byte("plain"), nil
	}
}

// UnmarshalText accepts the names written by MarshalText.
func (k *SegmentKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "curly":
		*k = SegmentCurly
	case "template":
		*k = SegmentTemplate
	case "seriesRef":
		*k = SegmentSeriesRef
	default:
		*k = SegmentPlain
	}
	return nil
}
