package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/config"
	"github.com/nicktill/tinygraphite/pkg/httpx"
	"github.com/nicktill/tinygraphite/pkg/model"
	"github.com/nicktill/tinygraphite/pkg/storage"
)

// PanelSummary is one entry of the panel list
type PanelSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Targets int    `json:"targets"`
}

// PanelListResponse lists saved panels
type PanelListResponse struct {
	Count  int            `json:"count"`
	Panels []PanelSummary `json:"panels"`
}

// TargetResponse is a stored target with its references resolved against
// the rest of the panel
type TargetResponse struct {
	PanelID string         `json:"panelId"`
	Target  model.Target   `json:"target"`
	Model   model.Snapshot `json:"model"`
}

func (s *Server) handleListPanels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.StoreTimeout)
	defer cancel()

	panels, err := s.store.List(ctx)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to list panels: %w", err))
		return
	}

	resp := PanelListResponse{Count: len(panels), Panels: make([]PanelSummary, len(panels))}
	for i, p := range panels {
		resp.Panels[i] = PanelSummary{ID: p.ID, Title: p.Title, Targets: len(p.Targets)}
	}
	httpx.RespondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.loadPanel(w, r)
	if !ok {
		return
	}
	httpx.RespondJSON(w, http.StatusOK, panel)
}

// handlePutPanel handles PUT /v1/panels/{id}. Every target is normalised
// through a query model and its references resolved before saving, so the
// stored targetFull always matches the stored text.
func (s *Server) handlePutPanel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var panel storage.Panel
	if err := httpx.DecodeJSON(w, r, config.MaxRequestBytes, &panel); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}
	if panel.ID == "" {
		panel.ID = id
	}
	if panel.ID != id {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			fmt.Sprintf("panel id %q does not match path %q", panel.ID, id))
		return
	}
	if len(panel.Targets) > config.MaxTargetsPerPane {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			fmt.Sprintf("panel has %d targets, at most %d are allowed", len(panel.Targets), config.MaxTargetsPerPane))
		return
	}
	if err := panel.Validate(); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.storageMonitor.CheckLimit(); err != nil {
		httpx.RespondError(w, http.StatusInsufficientStorage, err)
		return
	}

	registry := s.loader.Registry()
	panel.Targets = model.RenderAll(panel.Targets, registry)
	for _, t := range panel.Targets {
		if err := model.New(t, registry).Reconcile(); err != nil {
			s.metrics.ObserveReconciliationError()
			s.logger.Info("saved target cannot be edited structurally",
				zap.String("panel", panel.ID),
				zap.String("ref_id", t.RefID),
				zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.StoreTimeout)
	defer cancel()

	if err := s.store.Save(ctx, &panel); err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to save panel: %w", err))
		return
	}
	s.metrics.ObservePanelOp("save")
	s.logger.Debug("panel saved", zap.String("panel", panel.ID), zap.Int("targets", len(panel.Targets)))

	httpx.RespondJSON(w, http.StatusOK, panel)
}

func (s *Server) handleDeletePanel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), config.StoreTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.RespondError(w, http.StatusNotFound, err)
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to delete panel: %w", err))
		return
	}
	s.metrics.ObservePanelOp("delete")
	w.WriteHeader(http.StatusNoContent)
}

// handleGetTarget handles GET /v1/panels/{id}/targets/{refId}. The target is
// parsed with the current function table and resolved against its siblings.
func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.loadPanel(w, r)
	if !ok {
		return
	}

	refID := mux.Vars(r)["refId"]
	target, found := panel.Target(refID)
	if !found {
		httpx.RespondErrorString(w, http.StatusNotFound,
			fmt.Sprintf("panel %q has no target %q", panel.ID, refID))
		return
	}

	m := model.New(target, s.loader.Registry(), model.WithLogger(s.logger))
	s.metrics.ObserveParse(m.State())
	committed := m.Commit(panel.Targets)
	if committed.TargetFull == "" {
		committed.TargetFull = committed.Target
	}

	httpx.RespondJSON(w, http.StatusOK, TargetResponse{
		PanelID: panel.ID,
		Target:  committed,
		Model:   m.Snapshot(),
	})
}

func (s *Server) loadPanel(w http.ResponseWriter, r *http.Request) (*storage.Panel, bool) {
	id := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), config.StoreTimeout)
	defer cancel()

	panel, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.RespondError(w, http.StatusNotFound, err)
			return nil, false
		}
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to load panel: %w", err))
		return nil, false
	}
	return panel, true
}
