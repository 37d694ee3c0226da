// Package metadata extracts the EXIF fields that shape the analysis prompt.
package metadata

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/rwcarlsen/goexif/exif"
)

const unknown = "Unknown"

// Metadata holds the camera fields fed into the vision prompt. Every field
// is a display string and defaults to "Unknown" when the image carries no
// EXIF data, so prompts are stable regardless of extraction success.
type Metadata struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	DateTime     string `json:"datetime"`
	GPSLatitude  string `json:"gps_latitude"`
	GPSLongitude string `json:"gps_longitude"`
}

// Unknown returns the value used when no EXIF data can be read.
func Unknown() Metadata {
	return Metadata{
		Make:         unknown,
		Model:        unknown,
		DateTime:     unknown,
		GPSLatitude:  unknown,
		GPSLongitude: unknown,
	}
}

// Extract reads EXIF fields from the image bytes. Extraction failure is not
// an error; images without EXIF (PNGs, screenshots, stripped JPEGs) yield
// the all-Unknown value.
func Extract(image []byte) Metadata {
	meta := Unknown()

	x, err := exif.Decode(bytes.NewReader(image))
	if err != nil {
		return meta
	}

	meta.Make = tagString(x, exif.Make)
	meta.Model = tagString(x, exif.Model)
	meta.DateTime = tagString(x, exif.DateTime)

	if lat, long, err := x.LatLong(); err == nil {
		meta.GPSLatitude = strconv.FormatFloat(lat, 'f', 6, 64)
		meta.GPSLongitude = strconv.FormatFloat(long, 'f', 6, 64)
	}

	return meta
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return unknown
	}
	value, err := tag.StringVal()
	if err != nil || value == "" {
		return unknown
	}
	return value
}

// CanonicalBytes serializes the metadata in a fixed, versioned form so that
// two equal values always hash identically. Field order never changes within
// a version; adding fields bumps the version.
func (m Metadata) CanonicalBytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "v1\nmake=%s\nmodel=%s\ndatetime=%s\ngps_latitude=%s\ngps_longitude=%s\n",
		m.Make, m.Model, m.DateTime, m.GPSLatitude, m.GPSLongitude)
	return buf.Bytes()
}
