// Package analysis coordinates fingerprinting, cache lookup, the external
// vision call, and cache insertion.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/mk-ultron/ai-image-analysis/internal/fingerprint"
	"github.com/mk-ultron/ai-image-analysis/internal/metadata"
	"github.com/mk-ultron/ai-image-analysis/internal/store"
	"github.com/sirupsen/logrus"
)

// ErrInvalidInput rejects empty, oversized, or non-image payloads before
// any hashing or network work happens.
var ErrInvalidInput = errors.New("invalid image input")

// Describer is the external vision provider boundary.
type Describer interface {
	Describe(ctx context.Context, image []byte, mediaType string, meta metadata.Metadata) (string, error)
}

// Result is one completed analysis. Cached reports whether the text came
// from the store; Persisted is false when the fresh text could not be
// written back (the text itself is still valid).
type Result struct {
	Fingerprint string            `json:"fingerprint"`
	Analysis    string            `json:"analysis"`
	Metadata    metadata.Metadata `json:"metadata"`
	Cached      bool              `json:"cached"`
	Persisted   bool              `json:"-"`
}

type Orchestrator struct {
	store     store.Store
	describer Describer
	maxBytes  int64
	log       *logrus.Entry

	// inflight serializes provider calls per fingerprint so two concurrent
	// requests for the same new image cost one paid call, not two.
	inflight sync.Map // fingerprint -> chan struct{}

	mu     sync.Mutex
	hits   int64
	misses int64
}

func NewOrchestrator(logger *logrus.Logger, st store.Store, describer Describer, maxBytes int64) *Orchestrator {
	return &Orchestrator{
		store:     st,
		describer: describer,
		maxBytes:  maxBytes,
		log:       logger.WithField("component", "analysis_orchestrator"),
	}
}

// Analyze returns the description for the image, from cache when possible.
func (o *Orchestrator) Analyze(ctx context.Context, image []byte) (*Result, error) {
	mediaType, err := o.validate(image)
	if err != nil {
		return nil, err
	}

	meta := metadata.Extract(image)
	fp := fingerprint.Compute(image, meta)
	log := o.log.WithField("fingerprint", fp)

	if text, ok := o.lookup(ctx, fp, log); ok {
		o.recordHit()
		log.Debug("Serving analysis from cache")
		return &Result{Fingerprint: fp, Analysis: text, Metadata: meta, Cached: true, Persisted: true}, nil
	}

	for {
		ch := make(chan struct{})
		actual, loaded := o.inflight.LoadOrStore(fp, ch)
		if !loaded {
			result, err := o.describeAndStore(ctx, fp, image, mediaType, meta, log)
			o.inflight.Delete(fp)
			close(ch)
			return result, err
		}

		// Another request is already paying for this fingerprint; wait for
		// it, then take its answer from the store.
		select {
		case <-actual.(chan struct{}):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if text, ok := o.lookup(ctx, fp, log); ok {
			o.recordHit()
			return &Result{Fingerprint: fp, Analysis: text, Metadata: meta, Cached: true, Persisted: true}, nil
		}
		// The winner failed or could not persist; try to become the winner.
	}
}

func (o *Orchestrator) describeAndStore(ctx context.Context, fp string, image []byte, mediaType string, meta metadata.Metadata, log *logrus.Entry) (*Result, error) {
	// Re-check after winning the in-flight slot: a previous holder may have
	// finished between our lookup and the LoadOrStore.
	if text, ok := o.lookup(ctx, fp, log); ok {
		o.recordHit()
		return &Result{Fingerprint: fp, Analysis: text, Metadata: meta, Cached: true, Persisted: true}, nil
	}

	o.recordMiss()
	log.Info("Cache miss, requesting analysis from vision provider")

	text, err := o.describer.Describe(ctx, image, mediaType, meta)
	if err != nil {
		log.WithError(err).Error("Vision analysis failed")
		return nil, err
	}

	result := &Result{Fingerprint: fp, Analysis: text, Metadata: meta, Persisted: true}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		metaJSON = []byte("{}")
	}

	if err := o.store.Insert(ctx, fp, text, string(metaJSON)); err != nil {
		// The analysis was computed and paid for; losing it over a storage
		// hiccup would punish the user twice. Report and return it anyway.
		log.WithError(err).Error("Failed to persist analysis")
		result.Persisted = false
	}

	return result, nil
}

func (o *Orchestrator) lookup(ctx context.Context, fp string, log *logrus.Entry) (string, bool) {
	text, ok, err := o.store.Lookup(ctx, fp)
	if err != nil {
		// Storage trouble degrades to a miss rather than failing the request.
		log.WithError(err).Warn("Cache lookup failed, treating as miss")
		return "", false
	}
	return text, ok
}

func (o *Orchestrator) validate(image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	if int64(len(image)) > o.maxBytes {
		return "", fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, o.maxBytes)
	}
	mediaType := http.DetectContentType(image)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: unsupported content type %s", ErrInvalidInput, mediaType)
	}
	return mediaType, nil
}

func (o *Orchestrator) recordHit() {
	o.mu.Lock()
	o.hits++
	o.mu.Unlock()
}

func (o *Orchestrator) recordMiss() {
	o.mu.Lock()
	o.misses++
	o.mu.Unlock()
}

// Counters returns the process-lifetime hit/miss counts.
func (o *Orchestrator) Counters() (hits, misses int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits, o.misses
}
