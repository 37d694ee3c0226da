package handlers

import (
	"context"
	"regexp"

	"github.com/mk-ultron/ai-image-analysis/internal/analysis"
	"github.com/mk-ultron/ai-image-analysis/internal/config"
	"github.com/mk-ultron/ai-image-analysis/internal/storage"
	"github.com/mk-ultron/ai-image-analysis/internal/store"
	"github.com/sirupsen/logrus"
)

var validFingerprintRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Analyzer produces a description for an image, from cache when possible.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*analysis.Result, error)
}

// Synthesizer turns analysis text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// URLFetcher retrieves image bytes from a user-supplied URL.
type URLFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

type APIHandler struct {
	cfg         *config.Config
	analyzer    Analyzer
	synthesizer Synthesizer
	fetcher     URLFetcher
	store       store.Store
	archive     storage.Archive // nil when the archive is not configured
	log         *logrus.Entry
}

func NewAPIHandler(logger *logrus.Logger, cfg *config.Config, analyzer Analyzer, synthesizer Synthesizer, fetcher URLFetcher, st store.Store, archive storage.Archive) *APIHandler {
	return &APIHandler{
		cfg:         cfg,
		analyzer:    analyzer,
		synthesizer: synthesizer,
		fetcher:     fetcher,
		store:       st,
		archive:     archive,
		log:         logger.WithField("component", "api_handler"),
	}
}
