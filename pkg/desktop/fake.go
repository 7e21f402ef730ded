package desktop

import (
	"fmt"
	"image"
	"strings"
	"sync"
)

// Point is a pointer position.
type Point struct{ X, Y int }

// FakeDriver records every action. It is safe for concurrent use.
type FakeDriver struct {
	mu sync.Mutex

	typed  strings.Builder
	Calls  []string
	Moves  []Point
	Pos    Point
	Width  int
	Height int

	// Image is returned by Capture; a blank image of the region otherwise.
	Image image.Image

	// Err, when set, is returned by every action.
	Err error
}

// NewFakeDriver returns a driver with a 1920x1080 screen.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{Width: 1920, Height: 1080}
}

func (f *FakeDriver) record(format string, args ...any) error {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
	return f.Err
}

func (f *FakeDriver) TypeRune(r rune) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.typed.WriteRune(r)
	return nil
}

func (f *FakeDriver) KeyTap(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("tap %s", key)
}

func (f *FakeDriver) KeyCombo(key string, modifiers ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("combo %s+%s", strings.Join(modifiers, "+"), key)
}

func (f *FakeDriver) Location() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Pos.X, f.Pos.Y
}

func (f *FakeDriver) Move(x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Pos = Point{x, y}
	f.Moves = append(f.Moves, f.Pos)
	return nil
}

func (f *FakeDriver) Click(button string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("click %s at %d,%d", button, f.Pos.X, f.Pos.Y)
}

func (f *FakeDriver) Scroll(amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("scroll %d", amount)
}

func (f *FakeDriver) Capture(rect image.Rectangle) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("capture %v", rect); err != nil {
		return nil, err
	}
	if f.Image != nil {
		return f.Image, nil
	}
	return image.NewGray(rect), nil
}

func (f *FakeDriver) ScreenSize() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Width, f.Height
}

// TypedText returns everything typed so far.
func (f *FakeDriver) TypedText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.typed.String()
}

// History returns a copy of the recorded key, click, scroll and capture calls.
func (f *FakeDriver) History() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}
