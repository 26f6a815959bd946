package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is a locally selected file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// Open reads path and sniffs its content type from the bytes.
func Open(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: DetectContentType(data),
		Data:        data,
	}, nil
}

// DetectContentType returns the bare MIME type of data, without parameters.
func DetectContentType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}

func (f File) mediaType() string {
	if f.ContentType != "" {
		mt := f.ContentType
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return DetectContentType(f.Data)
}
