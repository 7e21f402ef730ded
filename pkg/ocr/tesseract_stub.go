//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// Text returns ErrUnsupported on builds without cgo.
func (t *Tesseract) Text(context.Context, image.Image) (string, error) {
	return "", ErrUnsupported
}
