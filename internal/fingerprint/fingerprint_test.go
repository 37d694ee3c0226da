package fingerprint

import (
	"testing"

	"github.com/mk-ultron/ai-image-analysis/internal/metadata"
	"github.com/stretchr/testify/assert"
)

func TestComputeDeterministic(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\nimage payload")
	meta := metadata.Unknown()

	first := Compute(image, meta)
	second := Compute(append([]byte(nil), image...), meta)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "hex sha256")
}

func TestComputeDiffersOnSingleByte(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\nimage payload")
	altered := append([]byte(nil), image...)
	altered[len(altered)-1] ^= 0x01

	assert.NotEqual(t, Compute(image, metadata.Unknown()), Compute(altered, metadata.Unknown()))
}

func TestComputeDiffersOnMetadata(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\nimage payload")
	withCamera := metadata.Metadata{Make: "Canon", Model: "EOS R5", DateTime: "Unknown", GPSLatitude: "Unknown", GPSLongitude: "Unknown"}

	assert.NotEqual(t, Compute(image, metadata.Unknown()), Compute(image, withCamera))
}

func TestComputeIgnoresSliceIdentity(t *testing.T) {
	// Two distinct allocations with the same content must collide.
	a := []byte{1, 2, 3}
	b := make([]byte, 3)
	copy(b, a)

	assert.Equal(t, Compute(a, metadata.Unknown()), Compute(b, metadata.Unknown()))
}
