package hero

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hero/internal/config"
	"github.com/teslashibe/go-hero/internal/log"
	"github.com/teslashibe/go-hero/pkg/audioio"
	"github.com/teslashibe/go-hero/pkg/desktop"
	"github.com/teslashibe/go-hero/pkg/ocr"
	"github.com/teslashibe/go-hero/pkg/tools"
	"github.com/teslashibe/go-hero/pkg/voice"
)

func settings() *config.Config {
	return &config.Config{
		Voice: config.VoiceConfig{
			GoogleAPIKey: "test-key",
			Model:        voice.DefaultModel,
			Voice:        voice.DefaultVoice,
			Language:     voice.DefaultLanguage,
		},
		Search:   config.SearchConfig{Timeout: time.Second},
		Weather:  config.WeatherConfig{Timeout: time.Second},
		Desktop:  config.DesktopConfig{Workers: 2, OCRLanguage: "eng"},
		Audio:    config.AudioConfig{Backend: string(audioio.BackendMock)},
		LogLevel: "debug",
	}
}

type starter struct {
	started [][]string
}

func (s *starter) start(argv []string) error {
	s.started = append(s.started, argv)
	return nil
}

func fakeTools(driver *desktop.FakeDriver, st *starter) func(*ToolsConfig) {
	return func(tc *ToolsConfig) {
		tc.Driver = driver
		tc.OCR = ocr.Func(func(context.Context, image.Image) (string, error) { return "screen text", nil })
		tc.Start = st.start
		tc.OpenURL = func(string) error { return nil }
	}
}

func TestConfigValidate(t *testing.T) {
	noKey := settings()
	noKey.Voice.GoogleAPIKey = ""
	noWorkers := settings()
	noWorkers.Desktop.Workers = 0

	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{"valid", Config{Settings: settings()}, ""},
		{"no settings", Config{}, "Settings"},
		{"no key", Config{Settings: noKey}, "GoogleAPIKey"},
		{"no workers", Config{Settings: noWorkers}, "Workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
		})
	}
}

func TestConfigLogLevel(t *testing.T) {
	s := settings()
	s.LogLevel = "warn"
	assert.Equal(t, "warn", (&Config{Settings: s}).LogLevel())
	assert.Equal(t, "debug", (&Config{Settings: s, Debug: true}).LogLevel())
}

func names(ts []tools.Tool) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func TestToolsOrder(t *testing.T) {
	tc := ToolsConfig{Settings: settings(), Logger: log.NewRecorder().Logger()}
	fakeTools(desktop.NewFakeDriver(), &starter{})(&tc)

	ts := Tools(tc)
	assert.Equal(t, ToolOrder, names(ts))

	tagged := map[string]bool{}
	for _, tool := range ts {
		tagged[tool.Name] = tool.Tagged
	}
	assert.False(t, tagged["search_internet"])
	assert.False(t, tagged["get_weather"])
	assert.False(t, tagged["play_spotify_music"])
	assert.True(t, tagged["type_text"])
	assert.True(t, tagged["open_app"])
	assert.True(t, tagged["macro"])
}

func TestToolsWithSystemTools(t *testing.T) {
	s := settings()
	s.SystemTools = true
	tc := ToolsConfig{Settings: s, Logger: log.NewRecorder().Logger()}
	fakeTools(desktop.NewFakeDriver(), &starter{})(&tc)

	got := names(Tools(tc))
	require.Len(t, got, len(ToolOrder)+7)
	assert.Equal(t, ToolOrder, got[:len(ToolOrder)])
	assert.Equal(t, "create_folder", got[len(ToolOrder)])
	assert.Equal(t, "get_system_info", got[len(got)-1])
}

func TestToolsWithoutDesktopDegrade(t *testing.T) {
	tc := ToolsConfig{Settings: settings(), Logger: log.NewRecorder().Logger()}
	fakeTools(nil, &starter{})(&tc)
	tc.Driver = desktop.Unsupported{Err: errors.New("no display")}

	r, err := NewRegistry(tc)
	require.NoError(t, err)
	out := r.Dispatch(context.Background(), tools.NewInvocation("press_key", tools.Args{"key": "enter"}))
	assert.Contains(t, out, "JARVIS: Error pressing key")
}

func TestMacroUsesLauncherAndKeyboard(t *testing.T) {
	driver := desktop.NewFakeDriver()
	st := &starter{}
	tc := ToolsConfig{Settings: settings(), Logger: log.NewRecorder().Logger()}
	fakeTools(driver, st)(&tc)

	r, err := NewRegistry(tc)
	require.NoError(t, err)

	out := r.Dispatch(context.Background(), tools.NewInvocation("macro", tools.Args{"command": "Open Notepad and write Hi"}))
	assert.Equal(t, "JARVIS: Task completed", out)
	require.Len(t, st.started, 1)
	assert.Equal(t, "hi", driver.TypedText())
}

func TestOrderedKeepsUnknownTools(t *testing.T) {
	ts := []tools.Tool{{Descriptor: tools.Descriptor{Name: "z"}}, {Descriptor: tools.Descriptor{Name: "b"}}, {Descriptor: tools.Descriptor{Name: "a"}}}
	assert.Equal(t, []string{"a", "b", "z"}, names(ordered(ts, []string{"a", "b"})))
}

type harness struct {
	app      *App
	pipeline *voice.Mock
	source   *audioio.MockSource
	sink     *audioio.MockSink
	driver   *desktop.FakeDriver
	logs     *bytes.Buffer
}

func newHarness(t *testing.T, port string) *harness {
	t.Helper()
	s := settings()
	s.Dashboard.Port = port

	src := audioio.CaptureConfig()
	src.Backend = audioio.BackendMock
	out := audioio.PlaybackConfig()
	out.Backend = audioio.BackendMock

	h := &harness{
		pipeline: voice.NewMock(),
		source:   audioio.NewMockSource(src, log.NewRecorder().Logger()),
		sink:     audioio.NewMockSink(out),
		driver:   desktop.NewFakeDriver(),
		logs:     &bytes.Buffer{},
	}
	h.app = New(Config{Settings: s},
		WithPipeline(h.pipeline),
		WithAudio(h.source, h.sink),
		WithToolsConfig(fakeTools(h.driver, &starter{})),
		WithLogOutput(h.logs),
	)
	require.NoError(t, h.app.Init())
	return h
}

func (h *harness) run(t *testing.T, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- h.app.Run(ctx) }()
	require.Eventually(t, h.pipeline.IsConnected, time.Second, 5*time.Millisecond)
	return done
}

func TestAppInitRejectsMissingKey(t *testing.T) {
	s := settings()
	s.Voice.GoogleAPIKey = ""
	err := New(Config{Settings: s}, WithPipeline(voice.NewMock())).Init()
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "GoogleAPIKey", ce.Field)
}

func TestAppRunSession(t *testing.T) {
	h := newHarness(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(t, ctx)

	assert.Equal(t, []string{Greeting}, h.pipeline.SentPrompts())
	assert.Len(t, h.pipeline.Declarations, len(ToolOrder))

	h.pipeline.EmitToolCall(voice.ToolCall{ID: "c1", Name: "press_key", Arguments: map[string]any{"key": "enter"}})
	require.Eventually(t, func() bool { return len(h.pipeline.SubmittedResults()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, voice.SubmittedResult{ID: "c1", Name: "press_key", Result: "JARVIS: Pressed enter"}, h.pipeline.SubmittedResults()[0])

	h.source.Push([]byte{1, 0, 2, 0})
	require.Eventually(t, func() bool { return len(h.pipeline.Audio()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []byte{1, 0, 2, 0}, h.pipeline.Audio()[0])

	h.pipeline.EmitAudioOut([]byte{9, 9})
	assert.Equal(t, []byte{9, 9}, h.sink.Written())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	h.app.Shutdown()
	assert.False(t, h.pipeline.IsConnected())
}

func TestAppRunEndsOnPipelineError(t *testing.T) {
	h := newHarness(t, "")
	done := h.run(t, context.Background())

	boom := errors.New("socket closed")
	h.pipeline.EmitError(boom)

	select {
	case err := <-done:
		require.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after pipeline error")
	}
	h.app.Shutdown()
	assert.Contains(t, h.logs.String(), "session ended")
}

func TestAppRunRecoversPanic(t *testing.T) {
	h := newHarness(t, "")
	h.pipeline.StartFunc = func(context.Context) error { panic("dial exploded") }

	err := h.app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial exploded")
	assert.Contains(t, h.logs.String(), "session crashed")
	h.app.Shutdown()
}

func TestAppRunStartFailure(t *testing.T) {
	h := newHarness(t, "")
	h.pipeline.StartFunc = func(context.Context) error { return errors.New("unauthorised") }

	err := h.app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorised")
	h.app.Shutdown()
}

func TestAppMirrorsToDashboard(t *testing.T) {
	h := newHarness(t, "0")
	require.NotNil(t, h.app.Server())
	assert.Equal(t, len(ToolOrder), h.app.Server().Status().Tools)

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(t, ctx)

	h.pipeline.EmitTranscript("user", "mausam kaisa hai", true)
	h.pipeline.EmitTranscript("assistant", "partial", false)
	h.pipeline.EmitTranscript("assistant", "Sir, Delhi mein 31 degree hai", true)

	require.Eventually(t, func() bool { return h.app.Server().Status().VoiceConnected }, time.Second, 5*time.Millisecond)
	st := h.app.Server().Status()
	assert.Equal(t, "mausam kaisa hai", st.LastUserMessage)
	assert.Equal(t, "Sir, Delhi mein 31 degree hai", st.LastAssistantMessage)

	cancel()
	<-done
	h.app.Shutdown()
}
