// Package fingerprint derives the content-addressed cache key for an image.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/mk-ultron/ai-image-analysis/internal/metadata"
)

// Compute returns the hex SHA-256 digest of the raw image bytes followed by
// a zero separator and the canonical metadata serialization. The metadata
// participates because it changes the prompt sent to the vision model, so
// two uploads that differ only in EXIF must not share a cache entry.
// Filenames, timestamps, and object identity never participate.
func Compute(image []byte, meta metadata.Metadata) string {
	h := sha256.New()
	h.Write(image)
	h.Write([]byte{0})
	h.Write(meta.CanonicalBytes())
	return hex.EncodeToString(h.Sum(nil))
}
