package model

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/config"
	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/httpx"
	"github.com/nicktill/tinygraphite/pkg/query"
)

// Observer is notified about parses and reconciliation failures.
type Observer interface {
	ObserveParse(state State)
	ObserveReconciliationError()
}

// Handler serves the query endpoints: tokenize, parse and render.
type Handler struct {
	registry func() *functions.Registry
	logger   *zap.Logger
	observer Observer
}

// NewHandler creates a query handler. registry is called once per request so
// a reloaded function table takes effect without a restart.
func NewHandler(registry func() *functions.Registry, logger *zap.Logger) *Handler {
	if registry == nil {
		registry = functions.Builtin
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, logger: logger}
}

// SetObserver sets the observer notified for each parse.
func (h *Handler) SetObserver(o Observer) {
	h.observer = o
}

// TokenizeRequest is the body of POST /v1/query/tokenize
type TokenizeRequest struct {
	Target string `json:"target"`
}

// TokenizeResponse lists the tokens of a target
type TokenizeResponse struct {
	Target string        `json:"target"`
	Tokens []query.Token `json:"tokens"`
}

// ParseRequest is the body of POST /v1/query/parse
type ParseRequest struct {
	RefID      string            `json:"refId"`
	Target     string            `json:"target"`
	TextEditor bool              `json:"textEditor"`
	Variables  map[string]string `json:"variables,omitempty"`
}

// ParseResponse carries the syntax tree and the decomposed model
type ParseResponse struct {
	AST   query.Node `json:"ast"`
	Model Snapshot   `json:"model"`
}

// FunctionCall is one function applied in a structured render request.
// Params are raw values; quoting follows the function signature.
type FunctionCall struct {
	Name   string   `json:"name"`
	Params []string `json:"params,omitempty"`
}

// RenderRequest is the body of POST /v1/query/render. Functions are listed
// innermost first.
type RenderRequest struct {
	RefID     string            `json:"refId"`
	Segments  []string          `json:"segments"`
	Tags      []TagExpr         `json:"tags,omitempty"`
	Functions []FunctionCall    `json:"functions,omitempty"`
	Siblings  []Target          `json:"siblings,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// RenderResponse carries the committed target. Reconciliation is set when the
// rendered text does not read back into the same structure.
type RenderResponse struct {
	Target         Target   `json:"target"`
	Model          Snapshot `json:"model"`
	Reconciliation string   `json:"reconciliation,omitempty"`
}

// HandleTokenize handles POST /v1/query/tokenize
func (h *Handler) HandleTokenize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.RespondErrorString(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req TokenizeRequest
	if err := httpx.DecodeJSON(w, r, config.MaxRequestBytes, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	tokens := query.Tokenize(req.Target)
	if tokens == nil {
		tokens = []query.Token{}
	}
	httpx.RespondJSON(w, http.StatusOK, TokenizeResponse{Target: req.Target, Tokens: tokens})
}

// HandleParse handles POST /v1/query/parse. Parse errors are not request
// errors: the model reports them and switches to text mode.
func (h *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.RespondErrorString(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ParseRequest
	if err := httpx.DecodeJSON(w, r, config.MaxRequestBytes, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	target := Target{RefID: req.RefID, Target: req.Target, TextEditor: req.TextEditor}
	m := New(target, h.registry(),
		WithLogger(h.logger),
		WithInterpolator(functions.Variables(req.Variables)))

	snapshot := m.Snapshot()
	h.observe(m.State(), snapshot.Reconciliation != "")
	if snapshot.Error != "" {
		h.logger.Debug("target parse failed",
			zap.String("ref_id", req.RefID),
			zap.String("error", snapshot.Error),
			zap.Int("pos", snapshot.ErrorPos))
	}

	httpx.RespondJSON(w, http.StatusOK, ParseResponse{
		AST:   query.Parse(req.Target),
		Model: snapshot,
	})
}

// HandleRender handles POST /v1/query/render. It builds a model from the
// structured request, commits it against the siblings and reads the result
// back to check that it survives a round trip.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.RespondErrorString(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req RenderRequest
	if err := httpx.DecodeJSON(w, r, config.MaxRequestBytes, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	registry := h.registry()
	interp := WithInterpolator(functions.Variables(req.Variables))

	m, err := Build(req, registry, interp, WithLogger(h.logger))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	committed := m.Commit(req.Siblings)
	resp := RenderResponse{Target: committed, Model: m.Snapshot()}

	readBack := New(Target{RefID: committed.RefID, Target: committed.Target}, registry, interp)
	switch {
	case readBack.Err != nil:
		resp.Reconciliation = readBack.Err.Error()
	case readBack.Render() != committed.Target:
		resp.Reconciliation = (&ReconciliationError{Original: committed.Target, Rebuilt: readBack.Render()}).Error()
	}
	h.observe(m.State(), resp.Reconciliation != "")

	httpx.RespondJSON(w, http.StatusOK, resp)
}

// Build applies a structured render request to an empty model: path
// segments, then tag filters, then functions in order.
func Build(req RenderRequest, registry *functions.Registry, opts ...Option) (*QueryModel, error) {
	if registry == nil {
		registry = functions.Builtin()
	}
	m := New(Target{RefID: req.RefID}, registry, opts...)

	for i, segment := range req.Segments {
		if err := m.UpdateSegment(i, segment); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
	}
	for i, tag := range req.Tags {
		if err := m.AddTag(tag); err != nil {
			return nil, fmt.Errorf("tag %d: %w", i, err)
		}
	}
	for i, call := range req.Functions {
		if call.Name == functions.SeriesByTag {
			return nil, fmt.Errorf("function %d: %s is built from tags", i, call.Name)
		}
		if _, ok := registry.Lookup(call.Name); !ok {
			return nil, fmt.Errorf("function %d: %w: %s", i, ErrNoSuchFunction, call.Name)
		}
		if _, err := m.AddFunction(call.Name); err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}
		index := len(m.Functions) - 1
		for p, value := range call.Params {
			if err := m.UpdateFunctionParam(index, p, value); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (h *Handler) observe(state State, reconcileFailed bool) {
	if h.observer == nil {
		return
	}
	h.observer.ObserveParse(state)
	if reconcileFailed {
		h.observer.ObserveReconciliationError()
	}
}
