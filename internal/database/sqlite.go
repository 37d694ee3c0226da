package database

import (
	"fmt"
	"time"

	"github.com/mk-ultron/ai-image-analysis/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB opens (creating if necessary) the file-backed cache database
// and migrates the schema. The handle is opened once at startup and passed
// down explicitly; nothing else in the process opens the file.
func NewSQLiteDB(logger *logrus.Logger, path string) (*gorm.DB, error) {
	log := logger.WithFields(logrus.Fields{
		"component": "database",
		"path":      path,
	})

	var db *gorm.DB
	var err error
	const maxRetries = 3
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{})
		if err == nil {
			break
		}

		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err,
		}).Warn("Database open failed")

		if attempt < maxRetries {
			time.Sleep(retryDelay)
			retryDelay *= 2
		}
	}

	if err != nil {
		log.WithError(err).Error("Failed to open database after retries")
		return nil, fmt.Errorf("database open failed: %w", err)
	}

	if err := db.AutoMigrate(&models.ImageAnalysis{}, &models.ArchivedImage{}, &models.AccessLog{}); err != nil {
		log.WithError(err).Error("Database migration failed")
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	log.Info("Database opened")
	return db, nil
}
