package models

import (
	"time"
)

type AccessLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Timestamp time.Time `gorm:"index;not null"`
	RequestID string    `gorm:"type:varchar(36);not null"`
	Method    string    `gorm:"type:varchar(10);not null"`
	Path      string    `gorm:"type:text;not null;index:,length:256"`
	Status    int       `gorm:"not null;index"`
	Duration  time.Duration
	ClientIP  string `gorm:"type:varchar(45);not null"`
	UserAgent string `gorm:"type:text"`
	BytesSent int    `gorm:"not null;default:0"`
}

// ImageAnalysis is one cached vision-model description, keyed by the
// content fingerprint of the image it describes. Rows are written once
// and never updated; duplicate inserts for the same fingerprint are
// dropped so the first stored description wins.
type ImageAnalysis struct {
	Fingerprint string    `gorm:"primaryKey;type:varchar(64);not null"`
	Analysis    string    `gorm:"type:text;not null"`
	Metadata    string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"index;not null"`
}

// ArchivedImage indexes an original image stored in the object archive.
type ArchivedImage struct {
	Fingerprint string    `gorm:"primaryKey;type:varchar(64);not null"`
	ContentType string    `gorm:"type:varchar(64);not null"`
	SizeBytes   int64     `gorm:"not null"`
	StoredAt    time.Time `gorm:"index;not null"`
}

func (ImageAnalysis) TableName() string {
	return "image_analyses"
}

func (ArchivedImage) TableName() string {
	return "archived_images"
}

func (AccessLog) TableName() string {
	return "access_logs"
}
