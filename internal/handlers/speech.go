package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mk-ultron/ai-image-analysis/internal/analysis"
)

type speechRequest struct {
	Text string `json:"text"`
}

// HandleSpeech synthesizes the analysis text and streams back mp3 bytes.
// Audio is regenerated on every request; there is no speech cache.
func (h *APIHandler) HandleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err))
		return
	}

	audio, err := h.synthesizer.Synthesize(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.WithField("bytes", len(audio)).Info("Speech served")

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", fmt.Sprint(len(audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}
