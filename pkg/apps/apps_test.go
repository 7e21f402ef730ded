package apps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/distatus/battery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hero/internal/log"
)

type fakeStarter struct {
	started [][]string
	err     error
}

func (f *fakeStarter) start(argv []string) error {
	f.started = append(f.started, argv)
	return f.err
}

func TestLauncherOpen(t *testing.T) {
	t.Setenv("USERNAME", "tony")

	tests := []struct {
		name     string
		app      string
		startErr error
		want     string
		wantArgv []string
	}{
		{"known", "Notepad", nil, "Opening Notepad", []string{"notepad.exe"}},
		{"expands username", "spotify", nil, "Opening spotify", []string{`C:\Users\tony\AppData\Roaming\Spotify\Spotify.exe`}},
		{"unknown", "photoshop", nil, "Unknown app: photoshop", nil},
		{"start fails", "calculator", errors.New("not found"), "Failed to open calculator", []string{"calc.exe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStarter{err: tt.startErr}
			l := NewLauncherFor("windows", fs.start, log.NewRecorder().Logger())

			res := l.Open(tt.app)
			assert.Equal(t, tt.want, res.Text)
			if tt.wantArgv == nil {
				assert.Empty(t, fs.started)
				return
			}
			require.Len(t, fs.started, 1)
			assert.Equal(t, tt.wantArgv, fs.started[0])
		})
	}
}

func TestKnownAppsPerOS(t *testing.T) {
	for _, goos := range []string{"windows", "darwin", "linux", "plan9"} {
		table := KnownApps(goos)
		for _, app := range []string{"notepad", "calculator", "cmd", "chrome", "spotify"} {
			assert.NotEmpty(t, table[app], "%s/%s", goos, app)
		}
	}
}

func TestOpenAppToolIsTagged(t *testing.T) {
	ts := NewLauncher(nil, nil).Tools()
	require.Len(t, ts, 1)
	assert.Equal(t, "open_app", ts[0].Name)
	assert.True(t, ts[0].Tagged)
}

func TestCreateAndListFolder(t *testing.T) {
	s := &System{Logger: log.NewRecorder().Logger()}
	dir := filepath.Join(t.TempDir(), "a", "b")

	assert.Equal(t, "Folder created or already exists: "+dir, s.CreateFolder(dir).Text)
	assert.Equal(t, "Folder created or already exists: "+dir, s.CreateFolder(dir).Text)
	assert.Equal(t, "No items in "+dir, s.ListFolder(dir).Text)

	for i := 0; i < MaxFolderItems+5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%03d", i)), nil, 0o600))
	}
	res := s.ListFolder(dir)
	lines := strings.Split(res.Text, "\n")
	assert.Equal(t, "Items in "+dir+":", lines[0])
	assert.Len(t, lines, MaxFolderItems+1)

	missing := filepath.Join(dir, "nope")
	assert.Equal(t, "Path does not exist: "+missing, s.ListFolder(missing).Text)
}

func TestRunApplication(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(abs, nil, 0o700))

	fs := &fakeStarter{}
	s := &System{
		GOOS:  "linux",
		Start: fs.start,
		LookPath: func(file string) (string, error) {
			if file == "gedit" {
				return "/usr/bin/gedit", nil
			}
			return "", errors.New("not found")
		},
	}

	assert.Equal(t, "Launched "+abs, s.RunApplication(abs).Text)
	assert.Equal(t, "Launched gedit", s.RunApplication("gedit").Text)
	assert.Equal(t, "Application not available: photoshop", s.RunApplication("photoshop").Text)
	assert.Equal(t, [][]string{{abs}, {"/usr/bin/gedit"}}, fs.started)
}

func TestPlayMedia(t *testing.T) {
	file := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	var opened string
	s := &System{OpenFile: func(p string) error { opened = p; return nil }}

	assert.Equal(t, "Playing "+file+" with default application.", s.PlayMedia(file).Text)
	assert.Equal(t, file, opened)
	assert.Equal(t, "File not found: /no/such.mp3", s.PlayMedia("/no/such.mp3").Text)
}

func TestBatteryPercentage(t *testing.T) {
	tests := []struct {
		name string
		bats []*battery.Battery
		err  error
		want string
	}{
		{
			name: "charging",
			bats: []*battery.Battery{{Current: 40, Full: 50, State: battery.State{Raw: battery.Charging}}},
			want: "Battery: 80% (charging)",
		},
		{
			name: "discharging",
			bats: []*battery.Battery{{Current: 25, Full: 100, State: battery.State{Raw: battery.Discharging}}},
			want: "Battery: 25% (not charging)",
		},
		{
			name: "none",
			want: "Battery info not available on this system (no battery detected).",
		},
		{
			name: "fatal",
			err:  battery.ErrFatal{Err: errors.New("no sysfs")},
			want: "Error fetching battery info: ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &System{
				Batteries: func() ([]*battery.Battery, error) { return tt.bats, tt.err },
				Logger:    log.NewRecorder().Logger(),
			}
			assert.True(t, strings.HasPrefix(s.BatteryPercentage().Text, tt.want))
		})
	}
}

func TestOpenSettings(t *testing.T) {
	fs := &fakeStarter{}
	win := &System{GOOS: "windows", Start: fs.start}
	assert.Equal(t, "Opening Windows Settings...", win.OpenSettings().Text)

	linux := &System{
		GOOS:  "linux",
		Start: fs.start,
		LookPath: func(file string) (string, error) {
			if file == "xdg-open" {
				return "/usr/bin/xdg-open", nil
			}
			return "", errors.New("not found")
		},
	}
	assert.Equal(t, "Opening settings via /usr/bin/xdg-open...", linux.OpenSettings().Text)

	bare := &System{GOOS: "linux", Start: fs.start, LookPath: func(string) (string, error) { return "", errors.New("nope") }}
	assert.Equal(t, "Could not find a settings application on this system.", bare.OpenSettings().Text)
}

func TestSystemInfo(t *testing.T) {
	res := (&System{}).SystemInfo(context.Background())
	require.False(t, res.Failed(), res.Text)
	assert.Contains(t, res.Text, "OS: ")
}

func TestSystemToolsDeclared(t *testing.T) {
	var names []string
	for _, tool := range NewSystem(nil).Tools() {
		names = append(names, tool.Name)
		assert.False(t, tool.Tagged)
	}
	assert.Equal(t, []string{
		"create_folder", "list_folder_items", "run_application", "play_media_file",
		"get_battery_percentage", "open_settings", "get_system_info",
	}, names)
}
