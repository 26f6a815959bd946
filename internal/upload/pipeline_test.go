package upload_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/upload"
)

type fakeUploader struct {
	calls       int
	filename    string
	contentType string
	size        int
	url         string
	err         error
}

func (f *fakeUploader) UploadIcon(_ context.Context, filename, contentType string, data []byte) (string, error) {
	f.calls++
	f.filename = filename
	f.contentType = contentType
	f.size = len(data)
	return f.url, f.err
}

type fakeCompressor struct {
	calls int
	out   upload.File
	err   error
}

func (f *fakeCompressor) Compress(in upload.File, _ upload.Options) (upload.File, error) {
	f.calls++
	return f.out, f.err
}

func sized(n int, contentType string) upload.File {
	return upload.File{Name: "avatar.png", ContentType: contentType, Data: make([]byte, n)}
}

func TestPipeline_ProfileCompressesThenUploads(t *testing.T) {
	up := &fakeUploader{url: "https://cdn.example.com/a.jpg"}
	comp := &fakeCompressor{out: upload.File{Name: "avatar.jpg", ContentType: "image/jpeg", Data: make([]byte, 600<<10)}}
	p := upload.NewPipeline(up, comp, nil)

	got, err := p.Run(context.Background(), sized(2<<20, "image/png"), upload.ProfilePolicy)

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.jpg", got)
	assert.Equal(t, 1, up.calls)
	assert.Equal(t, "avatar.jpg", up.filename)
	assert.Equal(t, "image/jpeg", up.contentType)
	assert.Equal(t, 600<<10, up.size)
}

func TestPipeline_ProfileRejectsStillTooLarge(t *testing.T) {
	up := &fakeUploader{}
	comp := &fakeCompressor{out: upload.File{Name: "a.jpg", ContentType: "image/jpeg", Data: make([]byte, 1536<<10)}}
	p := upload.NewPipeline(up, comp, nil)

	_, err := p.Run(context.Background(), sized(3<<20, "image/png"), upload.ProfilePolicy)

	require.ErrorIs(t, err, upload.ErrCompressedTooLarge)
	var upErr *upload.Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, upload.KindResource, upErr.Kind)
	assert.Contains(t, upErr.Message, "1MB")
	assert.Zero(t, up.calls)
}

func TestPipeline_ProfileValidation(t *testing.T) {
	cases := []struct {
		name string
		file upload.File
		want error
	}{
		{name: "gif rejected", file: sized(10, "image/gif"), want: upload.ErrUnsupportedType},
		{name: "webp rejected", file: sized(10, "image/webp"), want: upload.ErrUnsupportedType},
		{name: "five megabytes rejected", file: sized(5<<20, "image/jpeg"), want: upload.ErrTooLarge},
		{name: "six megabytes rejected", file: sized(6<<20, "image/png"), want: upload.ErrTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			up := &fakeUploader{}
			comp := &fakeCompressor{}
			p := upload.NewPipeline(up, comp, nil)

			_, err := p.Run(context.Background(), tc.file, upload.ProfilePolicy)

			require.ErrorIs(t, err, tc.want)
			var upErr *upload.Error
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, upload.KindValidation, upErr.Kind)
			assert.Zero(t, comp.calls, "validation must happen before compression")
			assert.Zero(t, up.calls)
		})
	}
}

func TestPipeline_CompressionFailureFallsBackToOriginal(t *testing.T) {
	up := &fakeUploader{url: "u"}
	p := upload.NewPipeline(up, &fakeCompressor{err: errors.New("corrupt")}, nil)

	got, err := p.Run(context.Background(), sized(800<<10, "image/png"), upload.ProfilePolicy)

	require.NoError(t, err)
	assert.Equal(t, "u", got)
	assert.Equal(t, "avatar.png", up.filename)
	assert.Equal(t, 800<<10, up.size)
}

func TestPipeline_CompressionFailureWithLargeOriginal(t *testing.T) {
	up := &fakeUploader{}
	p := upload.NewPipeline(up, &fakeCompressor{err: errors.New("corrupt")}, nil)

	_, err := p.Run(context.Background(), sized(2<<20, "image/jpeg"), upload.ProfilePolicy)

	require.ErrorIs(t, err, upload.ErrOriginalTooLarge)
	assert.Zero(t, up.calls)
}

func TestPipeline_TransportFailure(t *testing.T) {
	apiErr := &bookreview.APIError{Status: 413, Message: "icon too big"}
	comp := &fakeCompressor{out: upload.File{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")}}

	t.Run("profile reports", func(t *testing.T) {
		p := upload.NewPipeline(&fakeUploader{err: apiErr}, comp, nil)
		_, err := p.Run(context.Background(), sized(10, "image/png"), upload.ProfilePolicy)

		var upErr *upload.Error
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, upload.KindTransport, upErr.Kind)
		assert.Equal(t, "icon too big", upErr.Message)
	})

	t.Run("signup swallows", func(t *testing.T) {
		up := &fakeUploader{err: apiErr}
		p := upload.NewPipeline(up, comp, nil)
		got, err := p.Run(context.Background(), sized(10, "image/png"), upload.SignupPolicy)

		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 1, up.calls)
	})
}

func TestPipeline_SignupSkipsValidation(t *testing.T) {
	up := &fakeUploader{url: "u"}
	comp := &fakeCompressor{out: upload.File{Name: "a.jpg", ContentType: "image/jpeg", Data: make([]byte, 3<<20)}}
	p := upload.NewPipeline(up, comp, nil)

	got, err := p.Run(context.Background(), sized(8<<20, "image/gif"), upload.SignupPolicy)

	require.NoError(t, err)
	assert.Equal(t, "u", got)
	assert.Equal(t, 3<<20, up.size)
}

func TestPipeline_SniffsMissingContentType(t *testing.T) {
	up := &fakeUploader{url: "u"}
	p := upload.NewPipeline(up, nil, nil)

	file := upload.File{Name: "pixel", Data: encodePNG(t, solid(4, 4, color.NRGBA{R: 200, A: 255}))}
	_, err := p.Run(context.Background(), file, upload.ProfilePolicy)

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", up.contentType)
	assert.Equal(t, "pixel.jpg", up.filename)
}

func TestPipeline_LargeNoisyPNGFitsAfterRealCompression(t *testing.T) {
	data := encodePNG(t, noise(1024, 1024))
	require.Greater(t, len(data), 2<<20)
	require.Less(t, len(data), 5<<20)

	up := &fakeUploader{url: "https://cdn.example.com/big.jpg"}
	p := upload.NewPipeline(up, upload.ImageCompressor{}, nil)

	got, err := p.Run(context.Background(), upload.File{Name: "big.png", ContentType: "image/png", Data: data}, upload.ProfilePolicy)

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/big.jpg", got)
	assert.LessOrEqual(t, up.size, 1<<20)
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func noise(w, h int) *image.NRGBA {
	r := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(r.Intn(256))
		img.Pix[i+1] = uint8(r.Intn(256))
		img.Pix[i+2] = uint8(r.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
