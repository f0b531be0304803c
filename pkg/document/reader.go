package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/claimwise/platform/pkg/common/logger"
	"github.com/claimwise/platform/pkg/observability/metrics"
)

// MinTextLength is the shortest extracted text treated as a real document.
const MinTextLength = 10

var (
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrInsufficientText = errors.New("could not extract sufficient text")
)

var imageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "tif": {}, "tiff": {},
}

// OCR recognises text in an encoded image.
type OCR interface {
	Recognize(ctx context.Context, img []byte) (string, error)
}

type Reader struct {
	ocr OCR
}

func NewReader(ocr OCR) *Reader {
	return &Reader{ocr: ocr}
}

// Extension returns the lower-case extension of path without the dot.
func Extension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Supported reports whether Read can handle files with this extension.
func Supported(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "pdf" || ext == "txt" {
		return true
	}
	_, ok := imageExtensions[ext]
	return ok
}

// Read returns the trimmed text content of the document at path.
func (r *Reader) Read(ctx context.Context, path string) (string, error) {
	ext := Extension(path)
	if !Supported(ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	var text string
	switch ext {
	case "txt":
		text = string(content)
	case "pdf":
		text, err = readPDF(ctx, content)
	default:
		text, err = r.readImage(ctx, content)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	text = strings.TrimSpace(text)
	if len(text) < MinTextLength {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrInsufficientText)
	}

	logger.Log.WithFields(map[string]interface{}{
		"file":       filepath.Base(path),
		"type":       ext,
		"characters": len(text),
	}).Debug("Document text extracted")
	return text, nil
}

func (r *Reader) readImage(ctx context.Context, content []byte) (string, error) {
	if r.ocr == nil {
		return "", errors.New("no OCR engine configured")
	}
	prepared, err := prepareImage(content)
	if err != nil {
		return "", err
	}
	metrics.OCRImage()
	return r.ocr.Recognize(ctx, prepared)
}
