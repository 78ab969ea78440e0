// Package imagemeta inspects uploaded images: it detects their MIME type and
// reads GPS coordinates from EXIF metadata when present.
package imagemeta

import (
	"bytes"
	"math"
	"net/http"
	"strings"

	"github.com/phrazzld/caption-api/internal/generation"
	"github.com/rwcarlsen/goexif/exif"
)

// DetectMIME returns the image MIME type of data, preferring content sniffing
// over the declared type. ok is false when data is not an image.
func DetectMIME(data []byte, declared string) (mime string, ok bool) {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, true
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	// HEIC and some RAW formats are not recognized by the sniffer.
	if strings.HasPrefix(declared, "image/") && sniffed == "application/octet-stream" {
		return declared, true
	}
	return "", false
}

// GPS returns the coordinates stored in the EXIF block of data, or nil when
// the image carries no usable location.
func GPS(data []byte) *generation.GPSData {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	lat, long, err := x.LatLong()
	if err != nil || math.IsNaN(lat) || math.IsNaN(long) {
		return nil
	}
	if lat == 0 && long == 0 {
		return nil
	}
	return &generation.GPSData{Latitude: lat, Longitude: long}
}
