// Package ocr extracts text from screen captures.
package ocr

import (
	"context"
	"errors"
	"image"
)

// DefaultLanguage is the Tesseract language used when none is set.
const DefaultLanguage = "eng"

// ErrUnsupported is returned when the OCR engine is not compiled in.
var ErrUnsupported = errors.New("ocr: tesseract not available on this build")

// Recognizer extracts text from an image.
type Recognizer interface {
	Text(ctx context.Context, img image.Image) (string, error)
}

// Func adapts a function to Recognizer.
type Func func(ctx context.Context, img image.Image) (string, error)

// Text implements Recognizer.
func (f Func) Text(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}

// Tesseract recognizes text with the Tesseract engine after grayscale and
// Otsu binarization.
type Tesseract struct {
	Language string
}

// New returns a Tesseract recognizer for language.
func New(language string) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{Language: language}
}
