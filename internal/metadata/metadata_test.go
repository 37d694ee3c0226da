package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractWithoutEXIFReturnsUnknown(t *testing.T) {
	tests := []struct {
		name  string
		image []byte
	}{
		{name: "empty bytes", image: nil},
		{name: "not an image", image: []byte("plain text, no exif here")},
		{name: "png header", image: []byte("\x89PNG\r\n\x1a\nrest of a png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Unknown(), Extract(tt.image))
		})
	}
}

func TestCanonicalBytesDeterministic(t *testing.T) {
	a := Metadata{Make: "Canon", Model: "EOS R5", DateTime: "2024:01:01 10:00:00", GPSLatitude: "51.5", GPSLongitude: "-0.12"}
	b := Metadata{Make: "Canon", Model: "EOS R5", DateTime: "2024:01:01 10:00:00", GPSLatitude: "51.5", GPSLongitude: "-0.12"}

	assert.Equal(t, a.CanonicalBytes(), b.CanonicalBytes())
}

func TestCanonicalBytesDistinguishesValues(t *testing.T) {
	a := Metadata{Make: "Canon", Model: "EOS R5"}
	b := Metadata{Make: "Canon", Model: "EOS R6"}

	assert.NotEqual(t, a.CanonicalBytes(), b.CanonicalBytes())
}

func TestCanonicalBytesVersioned(t *testing.T) {
	got := string(Unknown().CanonicalBytes())

	assert.Contains(t, got, "v1\n")
	assert.Contains(t, got, "make=Unknown\n")
	assert.Contains(t, got, "gps_longitude=Unknown\n")
}
