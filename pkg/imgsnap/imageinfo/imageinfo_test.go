package imageinfo

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// exifJPEG builds a JPEG container holding only an APP1 segment with a
// DateTime field and, when thumb is non-nil, an IFD1 pointing at it. It has
// no frame, so header decoding fails.
func exifJPEG(dateTime string, thumb []byte) []byte {
	value := append([]byte(dateTime), 0)
	const ifd0 = 8
	valueOffset := ifd0 + 2 + 12 + 4
	ifd1 := valueOffset + len(value)

	var tiffData bytes.Buffer
	le := binary.LittleEndian
	tiffData.WriteString("II*\x00")
	_ = binary.Write(&tiffData, le, uint32(ifd0))
	_ = binary.Write(&tiffData, le, uint16(1))
	_ = binary.Write(&tiffData, le, uint16(0x0132))
	_ = binary.Write(&tiffData, le, uint16(2))
	_ = binary.Write(&tiffData, le, uint32(len(value)))
	_ = binary.Write(&tiffData, le, uint32(valueOffset))
	if thumb == nil {
		_ = binary.Write(&tiffData, le, uint32(0))
		tiffData.Write(value)
	} else {
		_ = binary.Write(&tiffData, le, uint32(ifd1))
		tiffData.Write(value)

		thumbOffset := ifd1 + 2 + 2*12 + 4
		_ = binary.Write(&tiffData, le, uint16(2))
		for _, field := range [][2]uint32{{0x0201, uint32(thumbOffset)}, {0x0202, uint32(len(thumb))}} {
			_ = binary.Write(&tiffData, le, uint16(field[0]))
			_ = binary.Write(&tiffData, le, uint16(4))
			_ = binary.Write(&tiffData, le, uint32(1))
			_ = binary.Write(&tiffData, le, field[1])
		}
		_ = binary.Write(&tiffData, le, uint32(0))
		tiffData.Write(thumb)
	}

	payload := append([]byte("Exif\x00\x00"), tiffData.Bytes()...)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write([]byte{0xFF, 0xD9})
	return out.Bytes()
}

func TestRead_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	writePNG(t, path, 4, 3)

	info, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, "image/png", info.MIME)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 3, info.Height)
	assert.True(t, info.HasDimensions())
	assert.Empty(t, info.Tags)
	assert.True(t, info.Taken.IsZero())
	assert.False(t, info.CreateTime.IsZero())
	assert.Equal(t, info.ModTime.Year(), info.Year())
}

func TestRead_GIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	img := image.NewPaletted(image.Rect(0, 0, 7, 2), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	info, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", info.MIME)
	assert.Equal(t, "gif", info.Format)
	assert.Equal(t, 7, info.Width)
	assert.Equal(t, 2, info.Height)
}

func TestRead_ExifDateTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.jpg")
	require.NoError(t, os.WriteFile(path, exifJPEG("2019:06:15 10:30:00", nil), 0o644))

	mtime := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	info, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", info.MIME)
	assert.Equal(t, "JPG", info.Format, "frameless jpeg falls back to the extension")
	assert.False(t, info.HasDimensions())
	assert.Equal(t, 2019, info.Year())

	require.NotEmpty(t, info.Tags)
	var found bool
	for _, tag := range info.Tags {
		if tag.Name == "DateTime" {
			found = true
			assert.Contains(t, tag.Value, "2019:06:15")
		}
	}
	assert.True(t, found, "DateTime tag should be listed")
	assert.False(t, info.HasThumbnail)
}

func TestRead_ExifThumbnail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thumb.jpg")
	thumb := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	require.NoError(t, os.WriteFile(path, exifJPEG("2020:01:02 03:04:05", thumb), 0o644))

	info, err := Read(path)
	require.NoError(t, err)
	assert.True(t, info.HasThumbnail)
	assert.Equal(t, 2020, info.Year())

	plain := filepath.Join(t.TempDir(), "plain.png")
	writePNG(t, plain, 1, 1)
	info, err = Read(plain)
	require.NoError(t, err)
	assert.False(t, info.HasThumbnail)
}

func TestRead_ExtensionFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.webp")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not an image"), 0o644))

	info, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", info.MIME)
	assert.Equal(t, "WEBP", info.Format)
	assert.Zero(t, info.Width)
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Read(dir)
	assert.ErrorIs(t, err, ErrNotRegular)
}

func TestMIMEFromExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.jpg", "image/jpeg"},
		{"a.JPEG", "image/jpeg"},
		{"a.png", "image/png"},
		{"a.webp", "image/webp"},
		{"a.gif", "image/gif"},
		{"a.bmp", "image/bmp"},
		{"a.tiff", UnknownMIME},
		{"noext", UnknownMIME},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MIMEFromExtension(tt.path))
		})
	}
}
