package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-hero/pkg/tools"
)

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// Type types text with the standard interval unless fast.
func (c *Controller) Type(ctx context.Context, text string, fast bool, interval float64) tools.Result {
	d := seconds(interval)
	if fast {
		d = 0
	}
	if err := c.TypeText(ctx, text, d); err != nil {
		return tools.Failedf(err, "typing text")
	}
	return tools.OK(fmt.Sprintf("Typed '%s'", text))
}

// Press presses one key and reports the key as given.
func (c *Controller) Press(ctx context.Context, key string) tools.Result {
	if err := c.PressKey(ctx, key); err != nil {
		return tools.Failedf(err, "pressing key")
	}
	return tools.OK("Pressed " + key)
}

// Tools returns the automation tools, all tagged.
func (c *Controller) Tools() []tools.Tool {
	return []tools.Tool{
		{
			Descriptor: tools.Descriptor{
				Name:        "type_text",
				Description: "Types text with the keyboard.",
				Params: []tools.Param{
					tools.Req("text", tools.TypeString, "Text to type."),
					tools.P("fast", tools.TypeBoolean, "Type without pauses between characters.", false),
					tools.P("interval", tools.TypeNumber, "Seconds between characters.", DefaultTypeInterval.Seconds()),
				},
			},
			Tagged: true,
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				return c.Type(ctx, args.String("text"), args.Bool("fast", false),
					args.Float("interval", DefaultTypeInterval.Seconds()))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "press_key",
				Description: "Presses a single key such as enter, tab or esc.",
				Params:      []tools.Param{tools.Req("key", tools.TypeString, "Key name.")},
			},
			Tagged: true,
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				return c.Press(ctx, args.String("key"))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "hotkey",
				Description: "Presses a keyboard shortcut such as ctrl+c.",
				Params:      []tools.Param{tools.Req("keys", tools.TypeString, "Keys joined with '+'.")},
			},
			Tagged: true,
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				keys := args.String("keys")
				if err := c.Hotkey(ctx, keys); err != nil {
					return tools.Failedf(err, "executing shortcut")
				}
				return tools.OK(fmt.Sprintf("Executed '%s' shortcut", keys))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "move_mouse",
				Description: "Moves the mouse pointer to screen coordinates.",
				Params: []tools.Param{
					tools.Req("x", tools.TypeInteger, "Target x."),
					tools.Req("y", tools.TypeInteger, "Target y."),
					tools.P("duration", tools.TypeNumber, "Seconds the movement takes.", DefaultMoveDuration.Seconds()),
				},
			},
			Tagged: true,
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				x, y := args.Int("x", 0), args.Int("y", 0)
				d := seconds(args.Float("duration", DefaultMoveDuration.Seconds()))
				if err := c.MoveMouse(ctx, x, y, d); err != nil {
					return tools.Failedf(err, "moving mouse")
				}
				return tools.OK(fmt.Sprintf("Moved mouse to %d,%d", x, y))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "click_mouse",
				Description: "Clicks a mouse button, optionally at coordinates.",
				Params: []tools.Param{
					tools.P("x", tools.TypeInteger, "Optional x.", nil),
					tools.P("y", tools.TypeInteger, "Optional y.", nil),
					tools.P("button", tools.TypeString, "left, right or middle.", "left"),
				},
			},
			Tagged: true,
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				button := args.StringOr("button", "left")
				if err := c.Click(ctx, args.IntPtr("x"), args.IntPtr("y"), button); err != nil {
					return tools.Failedf(err, "clicking mouse")
				}
				return tools.OK(fmt.Sprintf("Clicked %s button", button))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "scroll",
				Description: "Scrolls the active window. Positive is up, negative is down.",
				Params: []tools.Param{
					tools.P("amount", tools.TypeInteger, "Scroll amount.", DefaultScrollAmount),
				},
			},
			Tagged: true,
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				dir, err := c.Scroll(ctx, args.Int("amount", DefaultScrollAmount))
				if err != nil {
					return tools.Failedf(err, "scrolling")
				}
				return tools.OK("Scrolled " + dir)
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "read_screen",
				Description: "Reads visible text from the screen with OCR.",
				Params: []tools.Param{
					tools.P("region", tools.TypeString, `"full" or "x,y,width,height".`, FullScreen),
				},
			},
			Tagged: true,
			Handler: func(ctx context.Context, args tools.Args) tools.Result {
				text, err := c.ReadScreen(ctx, args.StringOr("region", FullScreen))
				if err != nil {
					return tools.Failedf(err, "reading screen")
				}
				return tools.OK("Screen text detected: " + text)
			},
		},
	}
}
