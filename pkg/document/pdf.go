package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wudi/pdfkit/extractor"
	"github.com/wudi/pdfkit/ir"
)

// readPDF returns the text layer of every non-empty page, separated by a
// blank line. Scanned PDFs without a text layer come back empty.
func readPDF(ctx context.Context, content []byte) (string, error) {
	doc, err := ir.NewDefault().Parse(ctx, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	dec := doc.Decoded()
	if dec == nil {
		return "", errors.New("pdf pipeline produced no decoded document")
	}

	ext, err := extractor.New(dec)
	if err != nil {
		return "", fmt.Errorf("init pdf extractor: %w", err)
	}
	pages, err := ext.ExtractText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.Content) != "" {
			texts = append(texts, page.Content)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}
