package desktop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teslashibe/go-hero/pkg/blocking"
)

// Defaults for input actions.
const (
	DefaultTypeInterval = 50 * time.Millisecond
	DefaultMoveDuration = 200 * time.Millisecond
	DefaultScrollAmount = 500
	MoveStepsPerSecond  = 60
	MaxScreenTextLength = 200
	FullScreen          = "full"
)

// ErrInvalidRegion is returned for a region that is neither "full" nor
// "x,y,w,h" with a positive size.
var ErrInvalidRegion = errors.New("desktop: invalid region")

// keyAliases maps spoken key names to driver key names. Read-only.
var keyAliases = map[string]string{
	"enter":     "enter",
	"space":     "space",
	"tab":       "tab",
	"esc":       "esc",
	"escape":    "esc",
	"backspace": "backspace",
	"delete":    "delete",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
}

// NormalizeKey trims and lowercases key and maps known aliases.
// Unknown names pass through.
func NormalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// ParseRegion parses "full" or "x,y,w,h". A full region returns the zero
// rectangle and true.
func ParseRegion(region string) (image.Rectangle, bool, error) {
	region = strings.TrimSpace(region)
	if region == "" || strings.EqualFold(region, FullScreen) {
		return image.Rectangle{}, true, nil
	}

	parts := strings.Split(region, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, false, fmt.Errorf("%w: %q", ErrInvalidRegion, region)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, false, fmt.Errorf("%w: %q", ErrInvalidRegion, region)
		}
		n[i] = v
	}
	if n[2] <= 0 || n[3] <= 0 {
		return image.Rectangle{}, false, fmt.Errorf("%w: %q", ErrInvalidRegion, region)
	}
	return image.Rect(n[0], n[1], n[0]+n[2], n[1]+n[3]), false, nil
}

// Recognizer extracts text from an image.
type Recognizer interface {
	Text(ctx context.Context, img image.Image) (string, error)
}

// Controller performs user-level desktop actions.
type Controller struct {
	driver  Driver
	ocr     Recognizer
	adapter *blocking.Adapter
	logger  *slog.Logger

	// sleep is swapped in tests.
	sleep func(time.Duration)
}

// NewController creates a controller. ocr may be nil when screen reading
// is unavailable.
func NewController(driver Driver, ocr Recognizer, adapter *blocking.Adapter, logger *slog.Logger) *Controller {
	if adapter == nil {
		adapter = blocking.New(blocking.Config{Logger: logger})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		driver:  driver,
		ocr:     ocr,
		adapter: adapter,
		logger:  logger.With("component", "desktop"),
		sleep:   time.Sleep,
	}
}

// TypeText types text one character at a time, pausing interval after
// each character.
func (c *Controller) TypeText(ctx context.Context, text string, interval time.Duration) error {
	return c.adapter.RunInput(ctx, "type_text", func() error {
		for _, r := range text {
			if err := c.driver.TypeRune(r); err != nil {
				return err
			}
			if interval > 0 {
				c.sleep(interval)
			}
		}
		return nil
	})
}

// PressKey taps a single key after alias normalization.
func (c *Controller) PressKey(ctx context.Context, key string) error {
	k := NormalizeKey(key)
	return c.adapter.RunInput(ctx, "press_key", func() error {
		return c.driver.KeyTap(k)
	})
}

// Hotkey presses a "+"-separated chord such as "ctrl+shift+esc". The last
// key is tapped while the others are held.
func (c *Controller) Hotkey(ctx context.Context, keys string) error {
	parts := strings.Split(keys, "+")
	normalized := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := NormalizeKey(p); k != "" {
			normalized = append(normalized, k)
		}
	}
	if len(normalized) == 0 {
		return fmt.Errorf("desktop: empty hotkey %q", keys)
	}
	last := len(normalized) - 1
	return c.adapter.RunInput(ctx, "hotkey", func() error {
		return c.driver.KeyCombo(normalized[last], normalized[:last]...)
	})
}

// MoveMouse moves the pointer to x, y over duration using linear
// interpolation. A non-positive duration jumps.
func (c *Controller) MoveMouse(ctx context.Context, x, y int, duration time.Duration) error {
	return c.adapter.RunInput(ctx, "move_mouse", func() error {
		steps := int(duration.Seconds() * MoveStepsPerSecond)
		if steps < 1 {
			return c.driver.Move(x, y)
		}
		x0, y0 := c.driver.Location()
		pause := duration / time.Duration(steps)
		for i := 1; i <= steps; i++ {
			nx := x0 + (x-x0)*i/steps
			ny := y0 + (y-y0)*i/steps
			if err := c.driver.Move(nx, ny); err != nil {
				return err
			}
			c.sleep(pause)
		}
		return nil
	})
}

// Click clicks button. The pointer moves to x, y first only when both are
// given.
func (c *Controller) Click(ctx context.Context, x, y *int, button string) error {
	if button == "" {
		button = "left"
	}
	return c.adapter.RunInput(ctx, "click_mouse", func() error {
		if x != nil && y != nil {
			if err := c.driver.Move(*x, *y); err != nil {
				return err
			}
		}
		return c.driver.Click(button)
	})
}

// Scroll scrolls by amount and returns "up" or "down".
func (c *Controller) Scroll(ctx context.Context, amount int) (string, error) {
	direction := "up"
	if amount < 0 {
		direction = "down"
	}
	err := c.adapter.RunInput(ctx, "scroll", func() error {
		return c.driver.Scroll(amount)
	})
	return direction, err
}

// ReadScreen captures region and returns at most MaxScreenTextLength
// characters of recognized text.
func (c *Controller) ReadScreen(ctx context.Context, region string) (string, error) {
	rect, full, err := ParseRegion(region)
	if err != nil {
		return "", err
	}
	if c.ocr == nil {
		return "", errors.New("desktop: no text recognizer configured")
	}

	img, err := blocking.Do(ctx, c.adapter, "capture", func() (image.Image, error) {
		if full {
			w, h := c.driver.ScreenSize()
			rect = image.Rect(0, 0, w, h)
		}
		return c.driver.Capture(rect)
	})
	if err != nil {
		return "", err
	}

	text, err := blocking.Do(ctx, c.adapter, "ocr", func() (string, error) {
		return c.ocr.Text(context.WithoutCancel(ctx), img)
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("screen read", "region", region, "chars", utf8.RuneCountInString(text))
	return truncate(strings.TrimSpace(text), MaxScreenTextLength), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
