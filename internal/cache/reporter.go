// Package cache observes the analysis cache. Entries are never evicted,
// since descriptions stay valid for the lifetime of the storage file, so
// the background task only reports, it never deletes.
package cache

import (
	"context"
	"time"

	"github.com/mk-ultron/ai-image-analysis/internal/store"
	"github.com/sirupsen/logrus"
)

// Counters exposes the orchestrator's hit/miss tallies to the reporter.
type Counters interface {
	Counters() (hits, misses int64)
}

type StatsReporter struct {
	logger   *logrus.Logger
	store    store.Store
	counters Counters
	interval time.Duration
}

func NewStatsReporter(logger *logrus.Logger, st store.Store, counters Counters, interval time.Duration) *StatsReporter {
	return &StatsReporter{
		logger:   logger,
		store:    st,
		counters: counters,
		interval: interval,
	}
}

func (s *StatsReporter) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logEntry := s.logger.WithField("component", "cache_stats")
	logEntry.Info("Starting cache stats reporter")

	for {
		select {
		case <-ticker.C:
			s.report(ctx, logEntry)
		case <-ctx.Done():
			logEntry.Info("Stopping cache stats reporter")
			return
		}
	}
}

func (s *StatsReporter) report(ctx context.Context, log *logrus.Entry) {
	count, err := s.store.Count(ctx)
	if err != nil {
		log.WithError(err).Error("Cache count query failed")
		return
	}

	hits, misses := s.counters.Counters()
	log.WithFields(logrus.Fields{
		"entries": count,
		"hits":    hits,
		"misses":  misses,
	}).Info("Cache statistics")
}
