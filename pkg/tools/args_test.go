package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgsAccessors(t *testing.T) {
	args, err := ParseArgs(`{"x": 10, "y": "20", "fast": true, "interval": 0.2, "name": "chrome", "n": null}`)
	require.NoError(t, err)

	assert.Equal(t, 10, args.Int("x", 0))
	assert.Equal(t, 20, args.Int("y", 0))
	assert.Equal(t, 0.2, args.Float("interval", 0.05))
	assert.True(t, args.Bool("fast", false))
	assert.Equal(t, "chrome", args.String("name"))
	assert.Equal(t, "fallback", args.StringOr("missing", "fallback"))
	assert.Equal(t, "10", args.String("x"))

	assert.False(t, args.Has("n"))
	assert.Nil(t, args.IntPtr("n"))
	assert.Nil(t, args.IntPtr("missing"))
	require.NotNil(t, args.IntPtr("x"))
	assert.Equal(t, 10, *args.IntPtr("x"))
}

func TestArgsGoTypes(t *testing.T) {
	args := Args{"amount": -3, "fast": 1}
	assert.Equal(t, -3, args.Int("amount", 500))
	assert.True(t, args.Bool("fast", false))
	assert.Equal(t, 500, Args{}.Int("amount", 500))
}

func TestParseArgsEmpty(t *testing.T) {
	args, err := ParseArgs("  ")
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = ParseArgs("{")
	assert.Error(t, err)
}

func TestResultRender(t *testing.T) {
	ok := OK("Typed 'hi'")
	assert.False(t, ok.Failed())
	assert.Equal(t, "JARVIS: Typed 'hi'", Render(ok, true))
	assert.Equal(t, "Typed 'hi'", Render(ok, false))

	bad := Failedf(errors.New("no display"), "typing text")
	assert.True(t, bad.Failed())
	assert.Equal(t, "Error typing text: no display", bad.Text)

	plain := Failed("Unknown app: foo", nil)
	assert.True(t, plain.Failed())
	assert.EqualError(t, plain.Err, "Unknown app: foo")
}
