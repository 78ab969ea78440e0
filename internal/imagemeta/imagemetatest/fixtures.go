// Package imagemetatest builds image fixtures carrying EXIF metadata for tests.
package imagemetatest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// DMS is a coordinate in degrees, minutes and seconds, each stored as an
// EXIF rational numerator/denominator pair.
type DMS [3][2]uint32

// TIFF field types used by the GPS IFD.
const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

const (
	tagGPSInfoIFD   = 0x8825
	tagLatitudeRef  = 0x1
	tagLatitude     = 0x2
	tagLongitudeRef = 0x3
	tagLongitude    = 0x4
)

// JPEGWithGPS returns a small JPEG whose APP1 Exif block holds a GPS IFD
// with the given coordinates. latRef is "N" or "S", longRef "E" or "W".
func JPEGWithGPS(t testing.TB, lat DMS, latRef string, long DMS, longRef string) []byte {
	t.Helper()

	tiff := gpsTIFF(lat, latRef, long, longRef)

	var app1 bytes.Buffer
	app1.WriteString("Exif\x00\x00")
	app1.Write(tiff)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(app1.Len()+2))
	out.Write(app1.Bytes())

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var body bytes.Buffer
	if err := jpeg.Encode(&body, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	// Drop the encoder's SOI marker; ours already opened the stream.
	out.Write(body.Bytes()[2:])
	return out.Bytes()
}

// gpsTIFF lays out a little-endian TIFF with IFD0 pointing at a GPS IFD.
//
//	0   header
//	8   IFD0 (1 entry)
//	26  GPS IFD (4 entries)
//	80  latitude rationals
//	104 longitude rationals
func gpsTIFF(lat DMS, latRef string, long DMS, longRef string) []byte {
	const (
		ifd0Offset = 8
		gpsOffset  = 26
		latOffset  = 80
		longOffset = 104
	)
	le := binary.LittleEndian
	var b bytes.Buffer
	w := func(v any) { _ = binary.Write(&b, le, v) }

	b.WriteString("II")
	w(uint16(42))
	w(uint32(ifd0Offset))

	w(uint16(1))
	entry(w, tagGPSInfoIFD, typeLong, 1, uint32(gpsOffset))
	w(uint32(0))

	w(uint16(4))
	entry(w, tagLatitudeRef, typeASCII, 2, inlineASCII(latRef))
	entry(w, tagLatitude, typeRational, 3, uint32(latOffset))
	entry(w, tagLongitudeRef, typeASCII, 2, inlineASCII(longRef))
	entry(w, tagLongitude, typeRational, 3, uint32(longOffset))
	w(uint32(0))

	for _, c := range [...]DMS{lat, long} {
		for _, r := range c {
			w(r[0])
			w(r[1])
		}
	}
	return b.Bytes()
}

func entry(w func(any), tag, typ uint16, count, value uint32) {
	w(tag)
	w(typ)
	w(count)
	w(value)
}

// inlineASCII packs a one-letter reference and its NUL into a value field.
func inlineASCII(s string) uint32 {
	var v [4]byte
	copy(v[:], s)
	return binary.LittleEndian.Uint32(v[:])
}
