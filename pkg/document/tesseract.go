package document

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR runs Tesseract through gosseract. A gosseract client is not
// safe for concurrent use, so each call gets its own client and calls are
// bounded by a semaphore.
type TesseractOCR struct {
	language       string
	tessdataPrefix string
	slots          chan struct{}
}

func NewTesseractOCR(language, tessdataPrefix string, concurrency int) *TesseractOCR {
	if language == "" {
		language = "eng"
	}
	if concurrency <= 0 {
		concurrency = 2
	}
	return &TesseractOCR{
		language:       language,
		tessdataPrefix: tessdataPrefix,
		slots:          make(chan struct{}, concurrency),
	}
}

func (t *TesseractOCR) Recognize(ctx context.Context, img []byte) (string, error) {
	select {
	case t.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-t.slots }()

	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
