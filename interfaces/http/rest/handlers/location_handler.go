package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/infrastructure/persistence/memory"
	"github.com/silv3rmat/tainted-journal/pkg/common"
	"github.com/silv3rmat/tainted-journal/pkg/errors"
)

// LocationHandler serves the location detail and graph save endpoints of the
// dev overwrite store. The response shapes match what the sync client
// expects from the production store.
type LocationHandler struct {
	store  *memory.LocationStore
	logger *zap.Logger
}

// NewLocationHandler creates a handler over the given store
func NewLocationHandler(store *memory.LocationStore, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{store: store, logger: logger}
}

// detailPayload is the GET response body
type detailPayload struct {
	Location graph.Location `json:"location"`
	Notes    []graph.Note   `json:"notes"`
	Graph    graph.Snapshot `json:"graph"`
}

// GetLocation handles GET /api/locations/{locationID}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	rec, err := h.store.Get(id)
	if err != nil {
		if errors.IsNotFound(err) {
			common.WriteError(w, http.StatusNotFound, "location not found")
			return
		}
		h.logger.Error("location lookup failed", zap.Int64("location", id), zap.Error(err))
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	common.WriteJSON(w, http.StatusOK, detailPayload{
		Location: rec.Location,
		Notes:    rec.Notes,
		Graph:    rec.Graph,
	})
}

// SaveGraph handles POST /api/locations/{locationID}/graph. The body is the
// full snapshot; whatever was stored before is discarded.
func (h *LocationHandler) SaveGraph(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	var snap graph.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		common.WriteError(w, http.StatusBadRequest, "malformed graph payload")
		return
	}

	if err := h.store.SaveGraph(id, snap); err != nil {
		if errors.IsNotFound(err) {
			common.WriteError(w, http.StatusNotFound, "location not found")
			return
		}
		h.logger.Error("graph save failed", zap.Int64("location", id), zap.Error(err))
		common.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("graph stored",
		zap.Int64("location", id),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)),
		zap.String("requestID", r.Header.Get("X-Request-ID")),
	)
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Graph saved successfully",
	})
}

func locationID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "locationID"), 10, 64)
}
