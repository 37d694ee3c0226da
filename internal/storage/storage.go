package storage

import (
	"context"
	"errors"
)

// ErrNotArchived is returned when no image is stored for a fingerprint.
var ErrNotArchived = errors.New("image not archived")

// Archive stores original image bytes keyed by fingerprint so the history
// panel can re-display previously analyzed images. Archiving is best-effort;
// failures never fail an analysis request.
type Archive interface {
	Put(ctx context.Context, fingerprint string, content []byte, contentType string) error
	Get(ctx context.Context, fingerprint string) ([]byte, string, error)
	Delete(ctx context.Context, fingerprint string) error
}
