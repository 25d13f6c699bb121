package storage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestConvertToWebPResizes(t *testing.T) {
	out, err := ConvertToWebP(bytes.NewReader(pngBytes(t, 400, 200)), "horse.png", WebPOptions{MaxW: 100, MaxH: 100, Quality: 70})
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestConvertToWebPRejectsText(t *testing.T) {
	_, err := ConvertToWebP(strings.NewReader("not an image"), "notes.txt", DefaultPhotoOptions)
	assert.Error(t, err)
}

// blankPNG encodes a tiny all-zero grayscale PNG, then rewrites the IHDR
// size so the header claims w x h.
func blankPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	b := buf.Bytes()
	require.Equal(t, "IHDR", string(b[12:16]))
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestConvertToWebPRejectsHugeDimensions(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"8000x8000 over pixel cap", blankPNG(t, 8000, 8000)},
		{"40000x40000", blankPNG(t, 40000, 40000)},
		{"side over cap", blankPNG(t, 8001, 10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Less(t, len(tc.data), 1024)
			_, err := ConvertToWebP(bytes.NewReader(tc.data), "huge.png", DefaultPhotoOptions)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrImageTooLarge), "got %v", err)
		})
	}

	// limits apply even when the caller leaves them unset
	_, err := ConvertToWebP(bytes.NewReader(blankPNG(t, 40000, 40000)), "huge.png", WebPOptions{MaxW: 100, MaxH: 100})
	assert.True(t, errors.Is(err, ErrImageTooLarge))
}

func TestConvertToWebPAcceptsRealSmallBlankPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2000, 1000))))

	out, err := ConvertToWebP(&buf, "blank.png", DefaultPhotoOptions)
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestUploadErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.Wrap(ErrImageTooLarge, "40000x40000"), fiber.StatusRequestEntityTooLarge},
		{ErrUnsupportedImage, fiber.StatusUnsupportedMediaType},
		{ErrEmptyImage, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		var fe *fiber.Error
		require.True(t, errors.As(uploadError(tc.err), &fe), tc.err.Error())
		assert.Equal(t, tc.status, fe.Code)
	}
}

func TestLocalStoreDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	target := filepath.Join(dir, "horses", "abc", "photo.webp")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	require.NoError(t, s.Delete("/uploads/horses/abc/photo.webp"))
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))

	// already gone or outside the prefix: ignored
	assert.NoError(t, s.Delete("/uploads/horses/abc/photo.webp"))
	assert.NoError(t, s.Delete("https://cdn.example.com/a.webp"))
	assert.NoError(t, s.Delete("/uploads/../etc/passwd"))
}
