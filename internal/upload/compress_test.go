package upload_test

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/bookreview-cli/internal/upload"
)

func TestImageCompressor_FitsBoundingBox(t *testing.T) {
	src := upload.File{Name: "wide.png", ContentType: "image/png", Data: encodePNG(t, solid(1600, 1200, color.NRGBA{G: 180, A: 255}))}

	out, err := upload.ImageCompressor{}.Compress(src, upload.DefaultOptions)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, "wide.jpg", out.Name)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}

func TestImageCompressor_DoesNotUpscale(t *testing.T) {
	src := upload.File{Name: "tiny.png", Data: encodePNG(t, solid(20, 10, color.NRGBA{B: 90, A: 255}))}

	out, err := upload.ImageCompressor{}.Compress(src, upload.DefaultOptions)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}

func TestImageCompressor_KeepsTransparentPNG(t *testing.T) {
	src := upload.File{Name: "clear.png", Data: encodePNG(t, solid(900, 300, color.NRGBA{R: 10, A: 100}))}

	out, err := upload.ImageCompressor{}.Compress(src, upload.DefaultOptions)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, 800, cfg.Width)
	assert.LessOrEqual(t, cfg.Height, 800)
}

func TestImageCompressor_RejectsGarbage(t *testing.T) {
	_, err := upload.ImageCompressor{}.Compress(upload.File{Name: "x.png", Data: []byte("not an image")}, upload.DefaultOptions)
	require.Error(t, err)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", upload.DetectContentType(encodePNG(t, solid(1, 1, color.NRGBA{A: 255}))))
	assert.Equal(t, "text/plain", upload.DetectContentType([]byte("hello")))
}
