// Package store persists cached vision analyses keyed by content fingerprint.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mk-ultron/ai-image-analysis/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnavailable wraps any failure to read or write the backing database.
// Callers treat a failed lookup as a cache miss and a failed insert as a
// degraded (but still successful) analysis; neither aborts the request.
var ErrUnavailable = errors.New("analysis store unavailable")

// Store is the lookup/insert surface of the analysis cache. Entries are
// immutable once written and are never evicted.
type Store interface {
	Lookup(ctx context.Context, fingerprint string) (string, bool, error)
	Insert(ctx context.Context, fingerprint, analysis, metadata string) error
	Recent(ctx context.Context, limit int) ([]models.ImageAnalysis, error)
	Count(ctx context.Context) (int64, error)
}

type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Lookup returns the stored analysis text for the fingerprint. Absence is
// the (zero, false, nil) return, not an error.
func (s *SQLStore) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	var entry models.ImageAnalysis
	err := s.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: lookup: %v", ErrUnavailable, err)
	}
	return entry.Analysis, true, nil
}

// Insert stores the analysis under the fingerprint. A fingerprint already
// present is left untouched: first write wins, so concurrent racers that
// both computed an analysis converge on a single stored row. The write is
// a single-statement transaction; no lock spans the external call.
func (s *SQLStore) Insert(ctx context.Context, fingerprint, analysis, metadata string) error {
	entry := models.ImageAnalysis{
		Fingerprint: fingerprint,
		Analysis:    analysis,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("%w: insert: %v", ErrUnavailable, err)
	}
	return nil
}

// Recent returns the newest entries for the history panel.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]models.ImageAnalysis, error) {
	var entries []models.ImageAnalysis
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: recent: %v", ErrUnavailable, err)
	}
	return entries, nil
}

func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ImageAnalysis{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrUnavailable, err)
	}
	return n, nil
}
