// Package desktop drives the local keyboard, mouse and screen.
//
// A Driver performs single low-level actions. The Controller layers the
// user-facing behaviour on top (key aliases, typing interval, smooth mouse
// motion, screen regions) and runs every Driver call through a
// blocking.Adapter.
package desktop

import (
	"errors"
	"image"
)

// ErrUnsupported is returned by drivers unavailable on this build.
var ErrUnsupported = errors.New("desktop: automation not supported on this build")

// Driver performs low-level input and capture actions.
// Implementations block until the action completes.
type Driver interface {
	// TypeRune types one character.
	TypeRune(r rune) error

	// KeyTap presses and releases key.
	KeyTap(key string) error

	// KeyCombo holds modifiers, taps key, then releases modifiers.
	KeyCombo(key string, modifiers ...string) error

	// Location returns the pointer position.
	Location() (x, y int)

	// Move jumps the pointer to x, y.
	Move(x, y int) error

	// Click clicks button ("left", "right", "middle") at the pointer.
	Click(button string) error

	// Scroll scrolls vertically; positive is up.
	Scroll(amount int) error

	// Capture grabs a screen region.
	Capture(rect image.Rectangle) (image.Image, error)

	// ScreenSize returns the primary display size.
	ScreenSize() (w, h int)
}

// Unsupported is a Driver whose actions all fail with Err. It stands in
// when no automation backend is available so tools report the cause.
type Unsupported struct{ Err error }

func (u Unsupported) err() error {
	if u.Err != nil {
		return u.Err
	}
	return ErrUnsupported
}

func (u Unsupported) TypeRune(rune) error                          { return u.err() }
func (u Unsupported) KeyTap(string) error                          { return u.err() }
func (u Unsupported) KeyCombo(string, ...string) error             { return u.err() }
func (u Unsupported) Location() (int, int)                         { return 0, 0 }
func (u Unsupported) Move(int, int) error                          { return u.err() }
func (u Unsupported) Click(string) error                           { return u.err() }
func (u Unsupported) Scroll(int) error                             { return u.err() }
func (u Unsupported) Capture(image.Rectangle) (image.Image, error) { return nil, u.err() }
func (u Unsupported) ScreenSize() (int, int)                       { return 0, 0 }
