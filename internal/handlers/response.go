package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mk-ultron/ai-image-analysis/internal/analysis"
	"github.com/mk-ultron/ai-image-analysis/internal/imagesource"
	"github.com/mk-ultron/ai-image-analysis/internal/provider"
	"github.com/mk-ultron/ai-image-analysis/internal/speech"
	"github.com/mk-ultron/ai-image-analysis/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps internal error kinds onto HTTP statuses with a
// human-readable message. Cache misses never reach here; a miss is a
// normal branch, not a failure.
func writeError(w http.ResponseWriter, err error) {
	var perr *provider.Error
	switch {
	case errors.Is(err, analysis.ErrInvalidInput), errors.Is(err, speech.ErrEmptyText):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "invalid_input"})
	case errors.Is(err, imagesource.ErrFetchFailed):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Kind: "image_fetch_failed"})
	case errors.Is(err, storage.ErrNotArchived):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Kind: "not_found"})
	case errors.As(err, &perr):
		status := http.StatusBadGateway
		switch perr.Reason {
		case provider.ReasonTimeout:
			status = http.StatusGatewayTimeout
		case provider.ReasonRateLimit:
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, errorBody{Error: perr.Error(), Kind: "provider_error"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: "internal"})
	}
}

func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
