package ocr

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsLanguage(t *testing.T) {
	assert.Equal(t, "eng", New("").Language)
	assert.Equal(t, "hin", New("hin").Language)
}

func TestFunc(t *testing.T) {
	var r Recognizer = Func(func(_ context.Context, img image.Image) (string, error) {
		return img.Bounds().String(), nil
	})
	text, err := r.Text(context.Background(), image.NewGray(image.Rect(0, 0, 2, 3)))
	require.NoError(t, err)
	assert.Equal(t, "(0,0)-(2,3)", text)
}
