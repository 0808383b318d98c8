package model

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nicktill/tinygraphite/pkg/functions"
)

type countingObserver struct {
	parses     map[State]int
	reconciles int
}

func (o *countingObserver) ObserveParse(state State) {
	if o.parses == nil {
		o.parses = map[State]int{}
	}
	o.parses[state]++
}

func (o *countingObserver) ObserveReconciliationError() {
	o.reconciles++
}

func newTestHandler(t *testing.T) (*Handler, *countingObserver) {
	t.Helper()
	h := NewHandler(functions.Builtin, zaptest.NewLogger(t))
	obs := &countingObserver{}
	h.SetObserver(obs)
	return h, obs
}

func post(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleTokenize(t *testing.T) {
	h, _ := newTestHandler(t)

	w := post(t, h.HandleTokenize, TokenizeRequest{Target: "scale(a.b, 2)"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tokens []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
			Pos   int    `json:"pos"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	types := make([]string, len(resp.Tokens))
	for i, tok := range resp.Tokens {
		types[i] = tok.Type
	}
	assert.Equal(t, []string{"identifier", "(", "identifier", ".", "identifier", ",", "number", ")"}, types)
	assert.Equal(t, "scale", resp.Tokens[0].Value)
	assert.Equal(t, 1, resp.Tokens[0].Pos)
	assert.Equal(t, 12, resp.Tokens[6].Pos)
}

func TestHandleTokenizeEmpty(t *testing.T) {
	h, _ := newTestHandler(t)

	w := post(t, h.HandleTokenize, TokenizeRequest{Target: ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"target":"","tokens":[]}`, w.Body.String())
}

func TestHandleParse(t *testing.T) {
	h, obs := newTestHandler(t)

	w := post(t, h.HandleParse, ParseRequest{RefID: "A", Target: "scale(a.b, 2)"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AST struct {
			Type   string            `json:"type"`
			Name   string            `json:"name"`
			Params []json.RawMessage `json:"params"`
		} `json:"ast"`
		Model Snapshot `json:"model"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "function", resp.AST.Type)
	assert.Equal(t, "scale", resp.AST.Name)
	assert.Len(t, resp.AST.Params, 2)
	assert.Equal(t, StateParsed, resp.Model.State)
	assert.Equal(t, "scale(a.b, 2)", resp.Model.Rendered)
	assert.Equal(t, 1, obs.parses[StateParsed])
}

func TestHandleParseError(t *testing.T) {
	h, obs := newTestHandler(t)

	w := post(t, h.HandleParse, ParseRequest{RefID: "A", Target: "sum("})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AST struct {
			Type string `json:"type"`
			Pos  int    `json:"pos"`
		} `json:"ast"`
		Model Snapshot `json:"model"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "error", resp.AST.Type)
	assert.Equal(t, 5, resp.AST.Pos)
	assert.True(t, resp.Model.TextEditor)
	assert.Equal(t, 5, resp.Model.ErrorPos)
	assert.Equal(t, 1, obs.parses[StateTextMode])
}

func TestHandleRender(t *testing.T) {
	tests := []struct {
		name       string
		req        RenderRequest
		target     string
		targetFull string
	}{
		{
			name: "path and functions",
			req: RenderRequest{
				RefID:    "A",
				Segments: []string{"servers", "*", "cpu"},
				Functions: []FunctionCall{
					{Name: "scale", Params: []string{"10"}},
					{Name: "aliasByNode"},
				},
			},
			target: "aliasByNode(scale(servers.*.cpu, 10), 1)",
		},
		{
			name: "tags",
			req: RenderRequest{
				RefID:     "A",
				Tags:      []TagExpr{{Key: "name", Value: "cpu"}},
				Functions: []FunctionCall{{Name: "sumSeries"}},
			},
			target: "sumSeries(seriesByTag('name=cpu'))",
		},
		{
			name: "reference to a sibling",
			req: RenderRequest{
				RefID:     "B",
				Segments:  []string{"#A"},
				Functions: []FunctionCall{{Name: "scale"}},
				Siblings:  []Target{{RefID: "A", Target: "a.b"}},
			},
			target:     "scale(#A, 1)",
			targetFull: "scale(a.b, 1)",
		},
		{
			name: "string param is quoted",
			req: RenderRequest{
				RefID:     "A",
				Segments:  []string{"a", "b"},
				Functions: []FunctionCall{{Name: "groupByNode", Params: []string{"2", "max"}}},
			},
			target: "groupByNode(a.b, 2, 'max')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, obs := newTestHandler(t)

			w := post(t, h.HandleRender, tt.req)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp RenderResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			assert.Equal(t, tt.target, resp.Target.Target)
			assert.Equal(t, tt.targetFull, resp.Target.TargetFull)
			assert.Equal(t, tt.req.RefID, resp.Target.RefID)
			assert.Empty(t, resp.Reconciliation)
			assert.Equal(t, StateParsed, resp.Model.State)
			assert.Zero(t, obs.reconciles)
		})
	}
}

func TestHandleRenderRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		req  RenderRequest
	}{
		{name: "unknown function", req: RenderRequest{Segments: []string{"a"}, Functions: []FunctionCall{{Name: "noSuchThing"}}}},
		{name: "selector as function", req: RenderRequest{Functions: []FunctionCall{{Name: functions.SeriesByTag}}}},
		{name: "too many params", req: RenderRequest{Segments: []string{"a"}, Functions: []FunctionCall{{Name: "scale", Params: []string{"1", "2"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)
			w := post(t, h.HandleRender, tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandlerRequestErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	for name, handler := range map[string]http.HandlerFunc{
		"tokenize": h.HandleTokenize,
		"parse":    h.HandleParse,
		"render":   h.HandleRender,
	} {
		t.Run(name+" method", func(t *testing.T) {
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})

		t.Run(name+" body", func(t *testing.T) {
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"target":`)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestBuildUsesReloadedRegistry(t *testing.T) {
	registry := functions.NewRegistry(map[string]*functions.FuncDef{
		"onlyHere": {Name: "onlyHere"},
	})
	h := NewHandler(func() *functions.Registry { return registry }, nil)

	w := post(t, h.HandleRender, RenderRequest{RefID: "A", Segments: []string{"x"}, Functions: []FunctionCall{{Name: "onlyHere"}}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RenderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "onlyHere(x)", resp.Target.Target)

	w = post(t, h.HandleRender, RenderRequest{RefID: "A", Segments: []string{"x"}, Functions: []FunctionCall{{Name: "scale"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
