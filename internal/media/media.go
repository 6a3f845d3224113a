// Package media validates uploaded images and stores them on disk with
// resized JPEG and WebP variants for display.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"inkwell/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// JPEGQuality is used for the JPEG display variant.
	JPEGQuality = 82
	// WebPQuality is used for the WebP display variant.
	WebPQuality = 70
	// ThumbWidth and ThumbHeight bound the display variants.
	ThumbWidth  = 960
	ThumbHeight = 339
	// MaxPixels caps width*height so a small upload cannot declare a huge canvas.
	MaxPixels = 25_000_000

	// URLPrefix is where stored files are served from.
	URLPrefix = "/media/"

	postsDir  = "posts"
	thumbsDir = "thumbs"
)

// ErrNotImage is returned when the uploaded bytes do not decode as a supported image.
var ErrNotImage = errors.New("not a valid image")

// Info describes a successfully decoded upload.
type Info struct {
	Format string
	Width  int
	Height int
}

// Ext returns the canonical file extension for the format.
func (i Info) Ext() string {
	if i.Format == "jpeg" {
		return "jpg"
	}
	return i.Format
}

// Detect checks that data is a complete gif, png, jpeg or webp image. The
// declared content type of the upload is ignored; only the bytes count.
func Detect(data []byte) (Info, error) {
	img, format, err := decode(data)
	if err != nil {
		return Info{}, err
	}
	b := img.Bounds()
	return Info{Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

func decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrNotImage
	}
	if !isAllowedImageMIME(http.DetectContentType(data)) {
		return nil, "", ErrNotImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrNotImage, cfg.Width, cfg.Height, MaxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if !isSupportedDecodedFormat(format) {
		return nil, "", ErrNotImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", ErrNotImage
	}
	return img, format, nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.TrimSpace(strings.Split(contentType, ";")[0]) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

// Store writes uploads under a root directory. Files are content addressed so
// re-uploading the same bytes reuses the same name.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the directory served under URLPrefix.
func (s *Store) Root() string {
	return s.root
}

// Save validates data, writes the original and its display variants, and
// returns the media-relative path of the original (e.g. posts/<sha>.gif).
func (s *Store) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, format, err := decode(data)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])
	info := Info{Format: format}
	rel := path.Join(postsDir, name+"."+info.Ext())

	// Only files created by this call are removed on failure; an existing
	// original may already back another post.
	var created []string
	cleanup := func() {
		for _, p := range created {
			_ = os.Remove(p)
		}
	}
	write := func(p string, data []byte) error {
		fresh, err := writeIfMissing(p, data)
		if fresh {
			created = append(created, p)
		}
		return err
	}

	if err := write(s.abs(rel), data); err != nil {
		return "", fmt.Errorf("write original: %w", err)
	}

	thumb := resizeToFit(flatten(img, format), ThumbWidth, ThumbHeight)

	jpegBytes, err := encodeJPEG(thumb, JPEGQuality)
	if err != nil {
		cleanup()
		return "", fmt.Errorf("encode jpeg variant: %w", err)
	}
	if err := write(s.abs(ThumbnailPath(rel)), jpegBytes); err != nil {
		cleanup()
		return "", fmt.Errorf("write jpeg variant: %w", err)
	}

	webpBytes, err := encodeWebP(thumb, WebPQuality)
	if err != nil {
		cleanup()
		return "", fmt.Errorf("encode webp variant: %w", err)
	}
	if err := write(s.abs(WebPPath(rel)), webpBytes); err != nil {
		cleanup()
		return "", fmt.Errorf("write webp variant: %w", err)
	}

	observability.MediaStored.WithLabelValues(format).Inc()
	return rel, nil
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// URL returns the public URL of a media-relative path.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return URLPrefix + strings.TrimPrefix(rel, "/")
}

// ThumbnailPath returns the JPEG display variant for an original path.
func ThumbnailPath(rel string) string {
	return variantPath(rel, ".jpg")
}

// WebPPath returns the WebP display variant for an original path.
func WebPPath(rel string) string {
	return variantPath(rel, ".webp")
}

func variantPath(rel, ext string) string {
	dir, file := path.Split(rel)
	base := strings.TrimSuffix(file, path.Ext(file))
	return path.Join(dir, thumbsDir, base+ext)
}

// flatten draws paletted GIF frames onto an opaque canvas so the JPEG
// encoder does not see a transparent background as black.
func flatten(src image.Image, format string) image.Image {
	if format != "gif" {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Over)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeIfMissing writes data to path unless the file already exists. It
// reports whether this call created the file.
func writeIfMissing(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return true, err
	}
	return true, f.Close()
}
