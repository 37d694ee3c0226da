package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mk-ultron/ai-image-analysis/internal/storage"
)

// HandleGetImage serves an archived original image by fingerprint.
func (h *APIHandler) HandleGetImage(w http.ResponseWriter, r *http.Request) {
	fingerprint := mux.Vars(r)["fingerprint"]
	if !validFingerprintRegex.MatchString(fingerprint) {
		http.Error(w, "Invalid fingerprint", http.StatusBadRequest)
		return
	}

	if h.archive == nil {
		writeError(w, storage.ErrNotArchived)
		return
	}

	content, contentType, err := h.archive.Get(r.Context(), fingerprint)
	if err != nil {
		h.log.WithError(err).WithField("fingerprint", fingerprint).Warn("Archive fetch failed")
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprint(len(content)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
