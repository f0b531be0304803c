package document

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Images narrower than this are upscaled before OCR; Tesseract loses small
// glyphs on phone photos of receipts.
const minOCRWidth = 1500

// prepareImage decodes an uploaded image and returns a grayscale, sharpened
// PNG suitable for OCR.
func prepareImage(content []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	gray := imaging.Grayscale(img)
	if width := gray.Bounds().Dx(); width > 0 && width < minOCRWidth {
		gray = imaging.Resize(gray, minOCRWidth, 0, imaging.Lanczos)
	}
	gray = imaging.Sharpen(gray, 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}
