package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"horseclub_backend/internals/constants"
)

var (
	ErrEmptyImage       = errors.New("empty file")
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrImageTooLarge    = errors.New("image dimensions too large")
)

// Source image caps, checked from the header before the bitmap is decoded.
const (
	defaultMaxSide   = 8000
	defaultMaxPixels = 40_000_000
)

// WebPOptions controls resizing and encode quality.
type WebPOptions struct {
	MaxW      int
	MaxH      int
	Quality   float32
	MaxSize   int64 // upload size limit (bytes)
	MaxSide   int   // source width/height limit (px)
	MaxPixels int   // source width*height limit
}

var DefaultPhotoOptions = WebPOptions{
	MaxW:      1600,
	MaxH:      1600,
	Quality:   80,
	MaxSize:   8 << 20,
	MaxSide:   defaultMaxSide,
	MaxPixels: defaultMaxPixels,
}

// LocalStore keeps converted files on disk, served under PublicPrefix.
type LocalStore struct {
	Dir          string // e.g. ./uploads
	PublicPrefix string // e.g. /uploads
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{Dir: dir, PublicPrefix: "/uploads"}
}

/* =======================================================================
   Image decode (jpeg/png/webp) via MIME sniffing
======================================================================= */

type imageKind int

const (
	kindUnknown imageKind = iota
	kindWebP
	kindRaster // jpeg/png via imaging
)

func sniffKind(all []byte, filename string) imageKind {
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	switch {
	case strings.Contains(ct, "webp"):
		return kindWebP
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "png"):
		return kindRaster
	}

	// fallback by extension
	if constants.DetectFileTypeFromExt(filename) != constants.FileImage {
		return kindUnknown
	}
	if strings.EqualFold(filepath.Ext(filename), ".webp") {
		return kindWebP
	}
	return kindRaster
}

// checkDimensions reads only the image header.
func checkDimensions(all []byte, kind imageKind, opt WebPOptions) error {
	var (
		cfg image.Config
		err error
	)
	if kind == kindWebP {
		cfg, err = webp.DecodeConfig(bytes.NewReader(all))
	} else {
		cfg, _, err = image.DecodeConfig(bytes.NewReader(all))
	}
	if err != nil {
		return errors.Wrap(ErrUnsupportedImage, err.Error())
	}

	maxSide, maxPixels := opt.MaxSide, opt.MaxPixels
	if maxSide <= 0 {
		maxSide = defaultMaxSide
	}
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrUnsupportedImage
	}
	if cfg.Width > maxSide || cfg.Height > maxSide || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return errors.Wrapf(ErrImageTooLarge, "%dx%d", cfg.Width, cfg.Height)
	}
	return nil
}

func decodeImage(all []byte, filename string, opt WebPOptions) (image.Image, error) {
	if len(all) == 0 {
		return nil, ErrEmptyImage
	}
	kind := sniffKind(all, filename)
	if kind == kindUnknown {
		return nil, ErrUnsupportedImage
	}
	if err := checkDimensions(all, kind, opt); err != nil {
		return nil, err
	}

	var (
		img image.Image
		err error
	)
	if kind == kindWebP {
		img, err = webp.Decode(bytes.NewReader(all))
	} else {
		img, err = imaging.Decode(bytes.NewReader(all), imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedImage, err.Error())
	}
	return img, nil
}

// ConvertToWebP: read → check dimensions → decode → resize (keep aspect) → encode webp
func ConvertToWebP(r io.Reader, filename string, opt WebPOptions) ([]byte, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	img, err := decodeImage(all, filename, opt)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if (opt.MaxW > 0 && b.Dx() > opt.MaxW) || (opt.MaxH > 0 && b.Dy() > opt.MaxH) {
		img = imaging.Fit(img, opt.MaxW, opt.MaxH, imaging.CatmullRom)
	}

	q := opt.Quality
	if q <= 0 {
		q = 80
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: q}); err != nil {
		return nil, errors.Wrap(err, "encode webp")
	}
	return buf.Bytes(), nil
}

// uploadError maps conversion errors to client statuses.
func uploadError(err error) error {
	switch {
	case errors.Is(err, ErrImageTooLarge):
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "image dimensions too large (max 8000px per side, 40MP)")
	case errors.Is(err, ErrEmptyImage):
		return fiber.NewError(fiber.StatusBadRequest, "file is empty")
	case errors.Is(err, ErrUnsupportedImage):
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "unsupported image format (use jpg/png/webp)")
	}
	return err
}

// SaveImageAsWebP re-encodes the upload and writes it under Dir/folder.
// Returns the public URL.
func (s *LocalStore) SaveImageAsWebP(ctx context.Context, folder string, fh *multipart.FileHeader, opt WebPOptions) (string, error) {
	if fh == nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if opt.MaxSize > 0 && fh.Size > opt.MaxSize {
		return "", fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	data, err := ConvertToWebP(src, fh.Filename, opt)
	if err != nil {
		return "", uploadError(err)
	}

	folder = strings.Trim(filepath.ToSlash(folder), "/")
	name := fmt.Sprintf("%s-%s.webp", time.Now().Format("20060102"), uuid.NewString())
	dir := filepath.Join(s.Dir, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "mkdir upload dir")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, "write upload")
	}
	return path.Join(s.PublicPrefix, folder, name), nil
}

// Delete removes a file previously returned by SaveImageAsWebP. Unknown URLs are ignored.
func (s *LocalStore) Delete(publicURL string) error {
	if !strings.HasPrefix(publicURL, s.PublicPrefix+"/") {
		return nil
	}
	rel := strings.TrimPrefix(publicURL, s.PublicPrefix+"/")
	if strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
