package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
)

const (
	uploadFailedMessage      = "failed to upload the icon"
	unsupportedTypeMessage   = "select a png or jpeg image"
	originalTooLargeMessage  = "upload failed (original file is too large)"
	compressedTooLargeFormat = "file is still too large after compression (must be %s or less)"
	tooLargeFormat           = "file is too large (%s or more is not allowed)"
)

// Policy decides how strictly an upload is validated and whether failures
// are reported or swallowed.
type Policy struct {
	Name string
	// MaxBytes caps the payload actually sent. Zero means no cap.
	MaxBytes int64
	// MaxRawBytes rejects the selected file before compression. Zero means no cap.
	MaxRawBytes int64
	// Accepted lists allowed MIME types. Empty accepts anything.
	Accepted []string
	// Tolerant policies log failures and report no URL instead of an error.
	Tolerant bool
}

var (
	ProfilePolicy = Policy{
		Name:        "profile",
		MaxBytes:    1 << 20,
		MaxRawBytes: 5 << 20,
		Accepted:    []string{"image/png", "image/jpeg"},
	}
	SignupPolicy = Policy{
		Name:     "signup",
		Tolerant: true,
	}
)

type Uploader interface {
	UploadIcon(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// Pipeline validates, compresses and uploads avatar images.
type Pipeline struct {
	uploader   Uploader
	compressor Compressor
	opts       Options
	logger     *slog.Logger
}

func NewPipeline(uploader Uploader, compressor Compressor, logger *slog.Logger) *Pipeline {
	if compressor == nil {
		compressor = ImageCompressor{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		uploader:   uploader,
		compressor: compressor,
		opts:       DefaultOptions,
		logger:     logger,
	}
}

// Validate applies the policy's pre-compression checks.
func (p *Pipeline) Validate(f File, policy Policy) error {
	if len(policy.Accepted) > 0 && !slices.Contains(policy.Accepted, f.mediaType()) {
		return &Error{Kind: KindValidation, Message: unsupportedTypeMessage, Err: ErrUnsupportedType}
	}
	if policy.MaxRawBytes > 0 && f.Size() >= policy.MaxRawBytes {
		return &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf(tooLargeFormat, humanSize(policy.MaxRawBytes)),
			Err:     ErrTooLarge,
		}
	}
	return nil
}

// Run uploads f under policy and returns the icon URL. Tolerant policies
// never return an error; a failed upload yields "".
func (p *Pipeline) Run(ctx context.Context, f File, policy Policy) (string, error) {
	iconURL, err := p.run(ctx, f, policy)
	if err != nil {
		if policy.Tolerant {
			p.logger.Warn("avatar upload skipped", "policy", policy.Name, "file", f.Name, "error", err)
			return "", nil
		}
		return "", err
	}
	return iconURL, nil
}

func (p *Pipeline) run(ctx context.Context, f File, policy Policy) (string, error) {
	if err := p.Validate(f, policy); err != nil {
		return "", err
	}

	payload, err := p.compressor.Compress(f, p.opts)
	switch {
	case err != nil:
		p.logger.Debug("compression failed, sending original", "file", f.Name, "error", err)
		if policy.MaxBytes > 0 && f.Size() > policy.MaxBytes {
			return "", &Error{Kind: KindResource, Message: originalTooLargeMessage, Err: ErrOriginalTooLarge}
		}
		payload = f
		if payload.ContentType == "" {
			payload.ContentType = f.mediaType()
		}
	case policy.MaxBytes > 0 && payload.Size() > policy.MaxBytes:
		return "", &Error{
			Kind:    KindResource,
			Message: fmt.Sprintf(compressedTooLargeFormat, humanSize(policy.MaxBytes)),
			Err:     ErrCompressedTooLarge,
		}
	default:
		p.logger.Debug("avatar compressed",
			"file", f.Name,
			"original_bytes", f.Size(),
			"compressed_bytes", payload.Size(),
		)
	}

	if err := ctx.Err(); err != nil {
		return "", &Error{Kind: KindTransport, Message: uploadFailedMessage, Err: err}
	}

	iconURL, err := p.uploader.UploadIcon(ctx, payload.Name, payload.ContentType, payload.Data)
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: bookreview.Describe(err, uploadFailedMessage), Err: err}
	}
	return iconURL, nil
}

func humanSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return fmt.Sprintf("%dKB", n>>10)
	}
	return fmt.Sprintf("%dB", n)
}
