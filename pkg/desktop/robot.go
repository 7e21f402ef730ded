//go:build cgo

package desktop

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
)

// RobotDriver drives the desktop with robotgo.
type RobotDriver struct{}

// NewRobotDriver returns the native driver.
func NewRobotDriver() (Driver, error) {
	return RobotDriver{}, nil
}

func (RobotDriver) TypeRune(r rune) error {
	robotgo.TypeStr(string(r))
	return nil
}

func (RobotDriver) KeyTap(key string) error {
	if err := robotgo.KeyTap(key); err != nil {
		return fmt.Errorf("desktop: key %q: %w", key, err)
	}
	return nil
}

func (RobotDriver) KeyCombo(key string, modifiers ...string) error {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	if err := robotgo.KeyTap(key, args...); err != nil {
		return fmt.Errorf("desktop: combo %v+%q: %w", modifiers, key, err)
	}
	return nil
}

func (RobotDriver) Location() (int, int) {
	return robotgo.Location()
}

func (RobotDriver) Move(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (RobotDriver) Click(button string) error {
	robotgo.Click(button, false)
	return nil
}

func (RobotDriver) Scroll(amount int) error {
	robotgo.Scroll(0, amount)
	return nil
}

func (RobotDriver) Capture(rect image.Rectangle) (image.Image, error) {
	img, err := robotgo.CaptureImg(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	if err != nil {
		return nil, fmt.Errorf("desktop: capture %v: %w", rect, err)
	}
	return img, nil
}

func (RobotDriver) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}
