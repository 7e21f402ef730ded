// Package apps launches known desktop applications and provides the
// optional system-control tools.
package apps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/teslashibe/go-hero/pkg/tools"
)

// ErrUnknownApp is returned for a name missing from the known-app table.
var ErrUnknownApp = errors.New("apps: unknown app")

// Starter starts a process without waiting for it.
type Starter func(argv []string) error

// StartDetached starts argv and releases the process.
func StartDetached(argv []string) error {
	if len(argv) == 0 {
		return errors.New("apps: empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// knownApps maps a spoken app name to its command per OS. Read-only.
var knownApps = map[string]map[string][]string{
	"windows": {
		"notepad":    {"notepad.exe"},
		"calculator": {"calc.exe"},
		"cmd":        {"cmd.exe"},
		"chrome":     {`C:\Program Files\Google\Chrome\Application\chrome.exe`},
		"spotify":    {`C:\Users\%USERNAME%\AppData\Roaming\Spotify\Spotify.exe`},
	},
	"darwin": {
		"notepad":    {"open", "-a", "TextEdit"},
		"calculator": {"open", "-a", "Calculator"},
		"cmd":        {"open", "-a", "Terminal"},
		"chrome":     {"open", "-a", "Google Chrome"},
		"spotify":    {"open", "-a", "Spotify"},
	},
	"linux": {
		"notepad":    {"gedit"},
		"calculator": {"gnome-calculator"},
		"cmd":        {"x-terminal-emulator"},
		"chrome":     {"google-chrome"},
		"spotify":    {"spotify"},
	},
}

// KnownApps returns the app table for goos. Unknown platforms fall back
// to the linux table.
func KnownApps(goos string) map[string][]string {
	if t, ok := knownApps[goos]; ok {
		return t
	}
	return knownApps["linux"]
}

// expandWindowsVars replaces %NAME% references with environment values.
func expandWindowsVars(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "%")
		if start < 0 {
			break
		}
		end := strings.Index(s[start+1:], "%")
		if end < 0 {
			break
		}
		b.WriteString(s[:start])
		b.WriteString(os.Getenv(s[start+1 : start+1+end]))
		s = s[start+2+end:]
	}
	b.WriteString(s)
	return b.String()
}

// Launcher opens known applications.
type Launcher struct {
	apps   map[string][]string
	start  Starter
	logger *slog.Logger
}

// NewLauncher creates a launcher for the current OS. A nil start uses
// StartDetached.
func NewLauncher(start Starter, logger *slog.Logger) *Launcher {
	return NewLauncherFor(runtime.GOOS, start, logger)
}

// NewLauncherFor creates a launcher for goos.
func NewLauncherFor(goos string, start Starter, logger *slog.Logger) *Launcher {
	if start == nil {
		start = StartDetached
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		apps:   KnownApps(goos),
		start:  start,
		logger: logger.With("component", "apps"),
	}
}

// Command returns the argv for app, or ErrUnknownApp.
func (l *Launcher) Command(app string) ([]string, error) {
	argv, ok := l.apps[strings.ToLower(strings.TrimSpace(app))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, app)
	}
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = expandWindowsVars(a)
	}
	return out, nil
}

// Open launches app by its spoken name.
func (l *Launcher) Open(app string) tools.Result {
	argv, err := l.Command(app)
	if err != nil {
		return tools.Failed("Unknown app: "+app, err)
	}
	if err := l.start(argv); err != nil {
		l.logger.Error("failed to open app", "app", app, "command", argv, "error", err)
		return tools.Failed("Failed to open "+app, err)
	}
	l.logger.Info("opened app", "app", app)
	return tools.OK("Opening " + app)
}

// Tools returns open_app.
func (l *Launcher) Tools() []tools.Tool {
	return []tools.Tool{{
		Descriptor: tools.Descriptor{
			Name:        "open_app",
			Description: "Opens a known application: notepad, calculator, cmd, chrome or spotify.",
			Params:      []tools.Param{tools.Req("app", tools.TypeString, "Application name.")},
		},
		Tagged: true,
		Handler: func(_ context.Context, args tools.Args) tools.Result {
			return l.Open(args.String("app"))
		},
	}}
}
