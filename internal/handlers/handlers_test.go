package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/mk-ultron/ai-image-analysis/internal/analysis"
	"github.com/mk-ultron/ai-image-analysis/internal/config"
	"github.com/mk-ultron/ai-image-analysis/internal/imagesource"
	"github.com/mk-ultron/ai-image-analysis/internal/metadata"
	"github.com/mk-ultron/ai-image-analysis/internal/models"
	"github.com/mk-ultron/ai-image-analysis/internal/provider"
	"github.com/mk-ultron/ai-image-analysis/internal/speech"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAnalyzer struct {
	result *analysis.Result
	err    error
	got    []byte
}

func (m *mockAnalyzer) Analyze(ctx context.Context, image []byte) (*analysis.Result, error) {
	m.got = image
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockSynthesizer struct {
	audio []byte
	err   error
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.audio, nil
}

type mockFetcher struct {
	image  []byte
	err    error
	gotURL string
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	m.gotURL = rawURL
	if m.err != nil {
		return nil, m.err
	}
	return m.image, nil
}

type stubStore struct {
	recent []models.ImageAnalysis
	err    error
}

func (s *stubStore) Lookup(ctx context.Context, fp string) (string, bool, error) {
	return "", false, nil
}

func (s *stubStore) Insert(ctx context.Context, fp, analysisText, meta string) error {
	return nil
}

func (s *stubStore) Recent(ctx context.Context, limit int) ([]models.ImageAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.recent) {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func (s *stubStore) Count(ctx context.Context) (int64, error) {
	return int64(len(s.recent)), nil
}

func newTestHandler(t *testing.T, analyzer Analyzer, synthesizer Synthesizer, fetcher URLFetcher, st *stubStore) *APIHandler {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if st == nil {
		st = &stubStore{}
	}
	return NewAPIHandler(logger, &config.Config{MaxImageBytes: 10 << 20}, analyzer, synthesizer, fetcher, st, nil)
}

func multipartImage(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &body, w.FormDataContentType()
}

func TestHandleAnalyzeUpload(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\nfake")
	analyzer := &mockAnalyzer{result: &analysis.Result{
		Fingerprint: strings.Repeat("ab", 32),
		Analysis:    "A red square.",
		Metadata:    metadata.Unknown(),
		Cached:      false,
		Persisted:   true,
	}}
	h := newTestHandler(t, analyzer, nil, nil, nil)

	body, contentType := multipartImage(t, image)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, image, analyzer.got)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A red square.", resp.Analysis)
	assert.False(t, resp.Cached)
}

func TestHandleAnalyzeByURL(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\nfetched")
	analyzer := &mockAnalyzer{result: &analysis.Result{
		Fingerprint: strings.Repeat("cd", 32),
		Analysis:    "A blue circle.",
		Cached:      true,
		Persisted:   true,
	}}
	fetcher := &mockFetcher{image: image}
	h := newTestHandler(t, analyzer, nil, fetcher, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"url":"https://example.com/a.png"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.HandleAnalyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/a.png", fetcher.gotURL)
	assert.Equal(t, image, analyzer.got)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
}

func TestHandleAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		analyzeErr error
		fetchErr   error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "invalid input",
			analyzeErr: analysis.ErrInvalidInput,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_input",
		},
		{
			name:       "fetch failed",
			fetchErr:   imagesource.ErrFetchFailed,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "image_fetch_failed",
		},
		{
			name:       "provider rate limited",
			analyzeErr: &provider.Error{Provider: "vision", Reason: provider.ReasonRateLimit, Status: 429},
			wantStatus: http.StatusTooManyRequests,
			wantKind:   "provider_error",
		},
		{
			name:       "provider timeout",
			analyzeErr: &provider.Error{Provider: "vision", Reason: provider.ReasonTimeout},
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   "provider_error",
		},
		{
			name:       "provider auth",
			analyzeErr: &provider.Error{Provider: "vision", Reason: provider.ReasonAuth, Status: 401},
			wantStatus: http.StatusBadGateway,
			wantKind:   "provider_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &mockAnalyzer{err: tt.analyzeErr}
			fetcher := &mockFetcher{image: []byte("img"), err: tt.fetchErr}
			h := newTestHandler(t, analyzer, nil, fetcher, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"url":"https://example.com/a.png"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.HandleAnalyze(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandleSpeech(t *testing.T) {
	audio := []byte{0xff, 0xfb, 0x90, 0x00}
	h := newTestHandler(t, nil, &mockSynthesizer{audio: audio}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/speech", strings.NewReader(`{"text":"A red square."}`))
	rec := httptest.NewRecorder()

	h.HandleSpeech(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, audio, rec.Body.Bytes())
}

func TestHandleSpeechEmptyText(t *testing.T) {
	h := newTestHandler(t, nil, &mockSynthesizer{err: speech.ErrEmptyText}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/speech", strings.NewReader(`{"text":""}`))
	rec := httptest.NewRecorder()

	h.HandleSpeech(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListAnalyses(t *testing.T) {
	st := &stubStore{recent: []models.ImageAnalysis{
		{Fingerprint: strings.Repeat("aa", 32), Analysis: "newest", CreatedAt: time.Now()},
		{Fingerprint: strings.Repeat("bb", 32), Analysis: "older", CreatedAt: time.Now().Add(-time.Hour)},
	}}
	h := newTestHandler(t, nil, nil, nil, st)

	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	rec := httptest.NewRecorder()

	h.HandleListAnalyses(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Analyses []analysisListItem `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Analyses, 2)
	assert.Equal(t, "newest", resp.Analyses[0].Analysis)
}

func TestHandleGetImageWithoutArchive(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil, nil)

	r := mux.NewRouter()
	r.HandleFunc("/api/images/{fingerprint}", h.HandleGetImage).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/api/images/"+strings.Repeat("ab", 32), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetImageRejectsBadFingerprint(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil, nil)

	r := mux.NewRouter()
	r.HandleFunc("/api/images/{fingerprint}", h.HandleGetImage).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/api/images/not-a-fingerprint", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
