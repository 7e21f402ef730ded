package apps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/distatus/battery"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/teslashibe/go-hero/pkg/tools"
)

// MaxFolderItems caps list_folder_items output.
const MaxFolderItems = 200

// System implements the system-control tools. Zero-value function fields
// use the real OS.
type System struct {
	GOOS      string
	Start     Starter
	OpenFile  func(path string) error
	LookPath  func(file string) (string, error)
	Batteries func() ([]*battery.Battery, error)
	Logger    *slog.Logger
}

// NewSystem returns a System for the current OS.
func NewSystem(logger *slog.Logger) *System {
	return &System{Logger: logger}
}

func (s *System) goos() string {
	if s.GOOS != "" {
		return s.GOOS
	}
	return runtime.GOOS
}

func (s *System) start(argv []string) error {
	if s.Start != nil {
		return s.Start(argv)
	}
	return StartDetached(argv)
}

func (s *System) lookPath(file string) (string, error) {
	if s.LookPath != nil {
		return s.LookPath(file)
	}
	return exec.LookPath(file)
}

func (s *System) logger() *slog.Logger {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", "apps.system")
}

// CreateFolder creates path and any missing parents.
func (s *System) CreateFolder(path string) tools.Result {
	s.logger().Info("create folder", "path", path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return tools.Failed(fmt.Sprintf("Error creating folder %s: %v", path, err), err)
	}
	return tools.OK("Folder created or already exists: " + path)
}

// ListFolder lists up to MaxFolderItems entries of path.
func (s *System) ListFolder(path string) tools.Result {
	if path == "" {
		path = "."
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return tools.Failed("Path does not exist: "+path, err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return tools.Failed(fmt.Sprintf("Error listing folder %s: %v", path, err), err)
	}
	s.logger().Info("listed folder", "path", path, "items", len(entries))
	if len(entries) == 0 {
		return tools.OK("No items in " + path)
	}
	if len(entries) > MaxFolderItems {
		entries = entries[:MaxFolderItems]
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return tools.OK(fmt.Sprintf("Items in %s:\n%s", path, strings.Join(names, "\n")))
}

// RunApplication launches an absolute path, a PATH entry, or on Windows a
// Program Files candidate.
func (s *System) RunApplication(nameOrPath string) tools.Result {
	launch := func(target, label string) tools.Result {
		if err := s.start([]string{target}); err != nil {
			return tools.Failed(fmt.Sprintf("Error launching %s: %v", nameOrPath, err), err)
		}
		return tools.OK("Launched " + label)
	}

	if filepath.IsAbs(nameOrPath) && exists(nameOrPath) {
		return launch(nameOrPath, nameOrPath)
	}
	if p, err := s.lookPath(nameOrPath); err == nil {
		s.logger().Info("found in PATH", "path", p)
		return launch(p, nameOrPath)
	}
	if s.goos() == "windows" {
		bases := []string{
			envOr("ProgramFiles", `C:\Program Files`),
			envOr("ProgramFiles(x86)", `C:\Program Files (x86)`),
		}
		for _, base := range bases {
			candidate := filepath.Join(base, nameOrPath)
			for _, c := range []string{candidate, candidate + ".exe"} {
				if exists(c) {
					return launch(c, c)
				}
			}
		}
	}

	s.logger().Warn("application not found", "name", nameOrPath)
	return tools.Failed("Application not available: "+nameOrPath, nil)
}

// PlayMedia opens a file with its default application.
func (s *System) PlayMedia(path string) tools.Result {
	if !exists(path) {
		return tools.Failed("File not found: "+path, nil)
	}
	open := s.OpenFile
	if open == nil {
		open = browser.OpenFile
	}
	if err := open(path); err != nil {
		return tools.Failed(fmt.Sprintf("Error playing %s: %v", path, err), err)
	}
	return tools.OK(fmt.Sprintf("Playing %s with default application.", path))
}

// BatteryPercentage reports the first battery's charge.
func (s *System) BatteryPercentage() tools.Result {
	get := s.Batteries
	if get == nil {
		get = battery.GetAll
	}
	bats, err := get()
	var fatal battery.ErrFatal
	if errors.As(err, &fatal) {
		return tools.Failed(fmt.Sprintf("Error fetching battery info: %v", err), err)
	}
	for _, b := range bats {
		if b == nil || b.Full <= 0 {
			continue
		}
		percent := int(b.Current / b.Full * 100)
		charging := "not charging"
		if b.State.Raw == battery.Charging || b.State.Raw == battery.Full {
			charging = "charging"
		}
		return tools.OK(fmt.Sprintf("Battery: %d%% (%s)", percent, charging))
	}
	s.logger().Warn("no battery detected")
	return tools.Failed("Battery info not available on this system (no battery detected).", nil)
}

// OpenSettings opens the platform settings application.
func (s *System) OpenSettings() tools.Result {
	switch s.goos() {
	case "windows":
		if err := s.start([]string{"cmd", "/c", "start", "ms-settings:"}); err != nil {
			return tools.Failed(fmt.Sprintf("Error opening settings: %v", err), err)
		}
		return tools.OK("Opening Windows Settings...")
	case "darwin":
		if err := s.start([]string{"open", "-b", "com.apple.systempreferences"}); err != nil {
			return tools.Failed(fmt.Sprintf("Error opening settings: %v", err), err)
		}
		return tools.OK("Opening settings via open...")
	}
	for _, name := range []string{"gnome-control-center", "systemsettings", "xdg-open"} {
		opener, err := s.lookPath(name)
		if err != nil {
			continue
		}
		if err := s.start([]string{opener}); err != nil {
			return tools.Failed(fmt.Sprintf("Error opening settings: %v", err), err)
		}
		return tools.OK(fmt.Sprintf("Opening settings via %s...", opener))
	}
	return tools.Failed("Could not find a settings application on this system.", nil)
}

// SystemInfo summarises host, CPU and memory.
func (s *System) SystemInfo(ctx context.Context) tools.Result {
	h, err := host.InfoWithContext(ctx)
	if err != nil {
		return tools.Failed(fmt.Sprintf("Error fetching system info: %v", err), err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Host: %s\n", h.Hostname)
	fmt.Fprintf(&b, "OS: %s %s %s (%s)\n", h.OS, h.Platform, h.PlatformVersion, h.KernelArch)
	fmt.Fprintf(&b, "Kernel: %s\n", h.KernelVersion)
	fmt.Fprintf(&b, "Uptime: %s\n", time.Duration(h.Uptime)*time.Second)

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		cores := 0
		for _, c := range cpus {
			cores += int(c.Cores)
		}
		fmt.Fprintf(&b, "CPU: %s (%d cores)\n", cpus[0].ModelName, cores)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		const gb = 1 << 30
		fmt.Fprintf(&b, "Memory: %.1f GB total, %.1f GB available\n",
			float64(vm.Total)/gb, float64(vm.Available)/gb)
	}
	return tools.OK(strings.TrimRight(b.String(), "\n"))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Tools returns the system-control tools.
func (s *System) Tools() []tools.Tool {
	return []tools.Tool{
		{
			Descriptor: tools.Descriptor{
				Name:        "create_folder",
				Description: "Creates a folder at a path. Succeeds if it already exists.",
				Params:      []tools.Param{tools.Req("path", tools.TypeString, "Folder path.")},
			},
			Handler: func(_ context.Context, args tools.Args) tools.Result {
				return s.CreateFolder(args.String("path"))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "list_folder_items",
				Description: "Lists the items in a folder (non-recursive).",
				Params:      []tools.Param{tools.P("path", tools.TypeString, "Folder path.", ".")},
			},
			Handler: func(_ context.Context, args tools.Args) tools.Result {
				return s.ListFolder(args.StringOr("path", "."))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "run_application",
				Description: "Runs an application by name or full path.",
				Params:      []tools.Param{tools.Req("name_or_path", tools.TypeString, "Application name or path.")},
			},
			Handler: func(_ context.Context, args tools.Args) tools.Result {
				return s.RunApplication(args.String("name_or_path"))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "play_media_file",
				Description: "Plays a media file with the default application.",
				Params:      []tools.Param{tools.Req("file_path", tools.TypeString, "Path to the media file.")},
			},
			Handler: func(_ context.Context, args tools.Args) tools.Result {
				return s.PlayMedia(args.String("file_path"))
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "get_battery_percentage",
				Description: "Returns the battery charge and charging state.",
			},
			Handler: func(context.Context, tools.Args) tools.Result {
				return s.BatteryPercentage()
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "open_settings",
				Description: "Opens the system settings application.",
			},
			Handler: func(context.Context, tools.Args) tools.Result {
				return s.OpenSettings()
			},
		},
		{
			Descriptor: tools.Descriptor{
				Name:        "get_system_info",
				Description: "Returns host, CPU and memory information.",
			},
			Handler: func(ctx context.Context, _ tools.Args) tools.Result {
				return s.SystemInfo(ctx)
			},
		},
	}
}
