package handlers

import (
	"net/http"
	"strconv"
	"time"
)

const defaultRecentLimit = 20

type analysisListItem struct {
	Fingerprint string    `json:"fingerprint"`
	Analysis    string    `json:"analysis"`
	CreatedAt   time.Time `json:"created_at"`
}

// HandleListAnalyses returns the newest cached analyses for the history panel.
func (h *APIHandler) HandleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to list analyses")
		writeError(w, err)
		return
	}

	items := make([]analysisListItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, analysisListItem{
			Fingerprint: entry.Fingerprint,
			Analysis:    entry.Analysis,
			CreatedAt:   entry.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": items})
}
