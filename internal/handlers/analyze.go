package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mk-ultron/ai-image-analysis/internal/analysis"
	"github.com/sirupsen/logrus"
)

type analyzeURLRequest struct {
	URL string `json:"url"`
}

type analyzeResponse struct {
	Fingerprint string `json:"fingerprint"`
	Analysis    string `json:"analysis"`
	Cached      bool   `json:"cached"`
}

// HandleAnalyze accepts either a multipart upload (field "image") or a JSON
// body naming a URL to fetch, and returns the description for the image.
func (h *APIHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	image, err := h.readImage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), image)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"fingerprint": result.Fingerprint,
		"cached":      result.Cached,
	}).Info("Analysis served")

	if h.archive != nil && !result.Cached {
		go h.archiveImage(result.Fingerprint, image)
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Fingerprint: result.Fingerprint,
		Analysis:    result.Analysis,
		Cached:      result.Cached,
	})
}

func (h *APIHandler) readImage(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.cfg.MaxImageBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("%w: missing image field", analysis.ErrInvalidInput)
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, h.cfg.MaxImageBytes+1))
	}

	var req analyzeURLRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
	}
	return h.fetcher.Fetch(r.Context(), req.URL)
}

func (h *APIHandler) archiveImage(fingerprint string, image []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	contentType := http.DetectContentType(image)
	if err := h.archive.Put(ctx, fingerprint, image, contentType); err != nil {
		h.log.WithError(err).WithField("fingerprint", fingerprint).Warn("Failed to archive image")
	}
}
