// Package photos stores account profile images. Uploads are size-checked,
// sniffed for a supported image type and downscaled before they reach the
// backend (local directory or S3).
package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support

	"github.com/Kauasx09-Henrique/Mava-connect/internal/config"
)

var (
	ErrTooLarge    = errors.New("photos: image too large")
	ErrUnsupported = errors.New("photos: unsupported image type")
)

// SupportedImageTypes lists the content types accepted for upload.
var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

const jpegQuality = 85

// Backend persists a prepared image under key and returns the reference
// stored on the account row.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Check(ctx context.Context) error
	Name() string
}

// Store prepares uploads and hands them to a backend.
type Store struct {
	backend  Backend
	maxBytes int64
	maxWidth int
	newID    func() string
}

// NewStore wraps backend with the upload limits from cfg.
func NewStore(backend Backend, cfg config.PhotosConfig) *Store {
	return &Store{
		backend:  backend,
		maxBytes: cfg.MaxBytes(),
		maxWidth: cfg.MaxWidthPx,
		newID:    func() string { return uuid.New().String() },
	}
}

// Save reads an upload, validates it, downscales it if it is wider than the
// configured maximum and stores it. The returned reference is what goes in
// usuarios.logo.
func (s *Store) Save(ctx context.Context, filename string, file io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: limit is %d MB", ErrTooLarge, s.maxBytes>>20)
	}

	contentType := detectContentType(data)
	if !SupportedImageTypes[contentType] {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	if s.maxWidth > 0 && img.Bounds().Dx() > s.maxWidth {
		resized, outFormat, err := resizeImage(img, s.maxWidth, format)
		if err != nil {
			return "", fmt.Errorf("resizing image: %w", err)
		}
		data = resized
		contentType = "image/" + outFormat
	}

	key := fmt.Sprintf("logo-%s%s", s.newID(), getExtension(contentType))
	ref, err := s.backend.Put(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("storing %s on %s: %w", sanitizeFilename(filename), s.backend.Name(), err)
	}
	return ref, nil
}

// Check reports whether the backend is reachable.
func (s *Store) Check(ctx context.Context) error {
	return s.backend.Check(ctx)
}

// Backend returns the backend name for health output.
func (s *Store) Backend() string {
	return s.backend.Name()
}

// URL turns a stored reference into an absolute URL. Absolute references
// (S3) are returned unchanged; local ones are resolved against baseURL.
func URL(ref, baseURL string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(strings.ReplaceAll(ref, "\\", "/"), "/")
}

// resizeImage scales img down to maxWidth keeping the aspect ratio. WebP has
// no encoder in x/image, so it is re-encoded as PNG.
func resizeImage(img image.Image, maxWidth int, format string) ([]byte, string, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	newHeight := int(float64(height) * float64(maxWidth) / float64(width))
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, "", err
		}
	case "gif":
		if err := gif.Encode(&buf, dst, nil); err != nil {
			return nil, "", err
		}
	default:
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", err
		}
		format = "png"
	}
	return buf.Bytes(), format, nil
}

func detectContentType(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
		return "image/png"
	}
	if len(data) >= 6 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
		return "image/gif"
	}
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}
	return "application/octet-stream"
}

func getExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")
	if len(filename) > 200 {
		ext := filepath.Ext(filename)
		filename = filename[:200-len(ext)] + ext
	}
	return filename
}

// Open builds the store for the configured backend.
func Open(ctx context.Context, cfg config.PhotosConfig) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case "s3":
		backend, err = NewS3Backend(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
	default:
		backend, err = NewLocalBackend(cfg.Dir)
	}
	if err != nil {
		return nil, err
	}
	return NewStore(backend, cfg), nil
}
