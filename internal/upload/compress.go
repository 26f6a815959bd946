package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Options control client-side compression.
type Options struct {
	Quality   int
	MaxWidth  int
	MaxHeight int
}

// DefaultOptions matches what the service expects for avatars.
var DefaultOptions = Options{Quality: 70, MaxWidth: 800, MaxHeight: 800}

type Compressor interface {
	Compress(f File, opts Options) (File, error)
}

// ImageCompressor shrinks images to fit the bounding box and re-encodes them
// as JPEG. PNGs with transparency stay PNG so the alpha channel survives.
type ImageCompressor struct{}

func (ImageCompressor) Compress(f File, opts Options) (File, error) {
	img, format, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return File{}, fmt.Errorf("decode image: %w", err)
	}

	img = fit(img, opts.MaxWidth, opts.MaxHeight)

	var buf bytes.Buffer
	if format == "png" && !isOpaque(img) {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return File{}, fmt.Errorf("encode png: %w", err)
		}
		return File{Name: withExt(f.Name, ".png"), ContentType: "image/png", Data: buf.Bytes()}, nil
	}

	quality := opts.Quality
	if quality < 1 || quality > 100 {
		quality = DefaultOptions.Quality
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return File{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return File{Name: withExt(f.Name, ".jpg"), ContentType: "image/jpeg", Data: buf.Bytes()}, nil
}

// fit scales img down, keeping its aspect ratio, so it fits maxW x maxH.
// Images already inside the box are returned unchanged.
func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxW <= 0 {
		maxW = w
	}
	if maxH <= 0 {
		maxH = h
	}
	if w <= maxW && h <= maxH {
		return img
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	dstW := max(1, int(float64(w)*scale+0.5))
	dstH := max(1, int(float64(h)*scale+0.5))
	dstW = min(dstW, maxW)
	dstH = min(dstH, maxH)

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func withExt(name, ext string) string {
	if name == "" {
		return "icon" + ext
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "icon"
	}
	return base + ext
}
