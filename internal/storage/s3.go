package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/mk-ultron/ai-image-analysis/internal/config"
	"github.com/mk-ultron/ai-image-analysis/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type S3Archive struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	cfg      *config.Config
	db       *gorm.DB
	log      *logrus.Entry
}

func NewS3Archive(logger *logrus.Logger, cfg *config.Config, db *gorm.DB) *S3Archive {
	awsConfig := &aws.Config{
		Region:           aws.String(cfg.S3Region),
		Credentials:      credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}

	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
	}

	sess := session.Must(session.NewSession(awsConfig))

	return &S3Archive{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		cfg:      cfg,
		db:       db,
		log:      logger.WithField("component", "image_archive"),
	}
}

func objectKey(fingerprint string) string {
	return "images/" + fingerprint
}

func (a *S3Archive) Put(ctx context.Context, fingerprint string, content []byte, contentType string) error {
	_, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.cfg.S3Bucket),
		Key:         aws.String(objectKey(fingerprint)),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}

	entry := models.ArchivedImage{
		Fingerprint: fingerprint,
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
		StoredAt:    time.Now(),
	}

	if err := a.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return fmt.Errorf("failed to save archive entry: %w", err)
	}

	return nil
}

func (a *S3Archive) Get(ctx context.Context, fingerprint string) ([]byte, string, error) {
	var entry models.ArchivedImage
	err := a.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrNotArchived
	}
	if err != nil {
		return nil, "", err
	}

	buf := aws.NewWriteAtBuffer(make([]byte, 0, entry.SizeBytes))
	downloader := s3manager.NewDownloaderWithClient(a.client)
	_, err = downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.S3Bucket),
		Key:    aws.String(objectKey(fingerprint)),
	})
	if err != nil {
		return nil, "", fmt.Errorf("s3 download failed: %w", err)
	}

	return buf.Bytes(), entry.ContentType, nil
}

func (a *S3Archive) Delete(ctx context.Context, fingerprint string) error {
	_, err := a.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.S3Bucket),
		Key:    aws.String(objectKey(fingerprint)),
	})

	if dbErr := a.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).Delete(&models.ArchivedImage{}).Error; dbErr != nil {
		a.log.WithError(dbErr).Warn("Failed to delete archive entry from DB")
	}

	return err
}
