package hero

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/teslashibe/go-hero/internal/log"
	"github.com/teslashibe/go-hero/pkg/audioio"
	"github.com/teslashibe/go-hero/pkg/tools"
	"github.com/teslashibe/go-hero/pkg/voice"
	_ "github.com/teslashibe/go-hero/pkg/voice/bundled"
	"github.com/teslashibe/go-hero/pkg/web"
)

// App is the assistant: one voice session bound to the tool registry, fed
// by the microphone and played through the speaker.
type App struct {
	config Config

	logOut   io.Writer
	logger   *slog.Logger
	gatherer *prometheus.Registry
	metrics  *tools.Metrics

	registry *tools.Registry
	server   *web.Server
	pipeline voice.Pipeline
	session  *voice.Session
	source   audioio.Source
	sink     audioio.Sink

	toolOverrides []func(*ToolsConfig)

	errOnce sync.Once
	errCh   chan error
	wg      sync.WaitGroup
}

// Option customises an App before Init.
type Option func(*App)

// WithPipeline uses p instead of the configured voice provider.
func WithPipeline(p voice.Pipeline) Option {
	return func(a *App) { a.pipeline = p }
}

// WithAudio uses src and sink instead of the configured audio backend.
func WithAudio(src audioio.Source, sink audioio.Sink) Option {
	return func(a *App) {
		a.source = src
		a.sink = sink
	}
}

// WithToolsConfig edits the tool dependencies before the registry is built.
func WithToolsConfig(fn func(*ToolsConfig)) Option {
	return func(a *App) { a.toolOverrides = append(a.toolOverrides, fn) }
}

// WithLogOutput sends console logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) { a.logOut = w }
}

// New creates an App. Call Init before Run.
func New(cfg Config, opts ...Option) *App {
	a := &App{
		config: cfg,
		logOut: os.Stdout,
		errCh:  make(chan error, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init validates the config and builds every component.
func (a *App) Init() error {
	if err := a.config.Validate(); err != nil {
		return err
	}
	s := a.config.Settings
	level := a.config.LogLevel()

	a.gatherer = prometheus.NewRegistry()
	a.gatherer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = tools.NewMetrics(a.gatherer)

	console := log.New(a.logOut, level)
	a.logger = console
	if s.Dashboard.Port != "" {
		// The server logs to the console only; its hubs must not feed
		// back into the dashboard log stream.
		a.server = web.NewServer(web.Options{
			Addr:     ":" + s.Dashboard.Port,
			Gatherer: a.gatherer,
			Logger:   console,
		})
		a.logger = log.New(a.logOut, level, web.NewLogHandler(a.server, log.ParseLevel(level)))
	}

	tc := ToolsConfig{Settings: s, Logger: a.logger, Metrics: a.metrics}
	for _, fn := range a.toolOverrides {
		fn(&tc)
	}
	registry, err := NewRegistry(tc)
	if err != nil {
		return err
	}
	a.registry = registry
	if a.server != nil {
		a.server.SetRegistry(registry)
	}

	if a.pipeline == nil {
		vc := voice.DefaultConfig().
			WithAPIKey(s.Voice.GoogleAPIKey).
			WithModel(s.Voice.Model).
			WithVoice(s.Voice.Voice, s.Voice.Language).
			WithSystemPrompt(Instructions).
			WithLogger(a.logger)
		p, err := voice.New(vc)
		if err != nil {
			return fmt.Errorf("hero: voice pipeline: %w", err)
		}
		a.pipeline = p
	}
	a.session = voice.NewSession(a.pipeline, registry, Greeting, a.logger)

	if !a.config.NoAudio {
		if err := a.initAudio(); err != nil {
			return err
		}
	}

	a.logger.Info("hero initialised",
		"tools", registry.Len(),
		"model", s.Voice.Model,
		"audio", !a.config.NoAudio,
		"dashboard", s.Dashboard.Port)
	return nil
}

func (a *App) initAudio() error {
	s := a.config.Settings
	backend := audioio.Backend(s.Audio.Backend)
	if a.source == nil {
		cfg := audioio.CaptureConfig()
		cfg.Backend = backend
		cfg.Device = s.Audio.InputDevice
		src, err := audioio.NewSource(cfg, a.logger)
		if err != nil {
			return fmt.Errorf("hero: microphone: %w", err)
		}
		a.source = src
	}
	if a.sink == nil {
		cfg := audioio.PlaybackConfig()
		cfg.Backend = backend
		cfg.Device = s.Audio.OutputDevice
		sink, err := audioio.NewSink(cfg, a.logger)
		if err != nil {
			return fmt.Errorf("hero: speaker: %w", err)
		}
		a.sink = sink
	}
	return nil
}

// Registry returns the tool registry. Valid after Init.
func (a *App) Registry() *tools.Registry { return a.registry }

// Server returns the dashboard, or nil when disabled.
func (a *App) Server() *web.Server { return a.server }

// Logger returns the application logger. Valid after Init.
func (a *App) Logger() *slog.Logger { return a.logger }

// Run starts the session and blocks until ctx is done or the session
// fails. Failures and panics are logged and returned; the session is
// never restarted.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("session crashed", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("hero: session panic: %v", r)
		}
	}()

	if err := a.run(ctx); err != nil {
		a.logger.Error("session ended", "error", err)
		return err
	}
	return nil
}

func (a *App) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.server != nil {
		go func() {
			if err := a.server.Start(ctx); err != nil {
				a.logger.Error("dashboard stopped", "error", err)
			}
		}()
	}

	a.bindPipeline(ctx)

	if a.sink != nil {
		if err := a.sink.Start(ctx); err != nil {
			return fmt.Errorf("hero: start speaker: %w", err)
		}
	}
	if err := a.session.Start(ctx); err != nil {
		return err
	}
	a.updateStatus(func(st *web.Status) { st.VoiceConnected = true })

	if a.source != nil {
		if err := a.source.Start(ctx); err != nil {
			return fmt.Errorf("hero: start microphone: %w", err)
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			err := audioio.Pump(ctx, a.source, voice.InputSampleRate, a.sendAudio)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.fail(fmt.Errorf("hero: microphone: %w", err))
			}
		}()
	}

	a.logger.Info("hero is listening")
	select {
	case <-ctx.Done():
		return nil
	case err := <-a.errCh:
		return err
	}
}

func (a *App) sendAudio(pcm []byte) error {
	err := a.pipeline.SendAudio(pcm)
	if errors.Is(err, voice.ErrNotConnected) {
		return nil
	}
	return err
}

// bindPipeline routes pipeline events to the speaker and dashboard.
func (a *App) bindPipeline(ctx context.Context) {
	a.pipeline.OnAudioOut(func(pcm []byte) {
		a.updateStatus(func(st *web.Status) { st.Speaking = true })
		if a.sink == nil {
			return
		}
		if err := a.sink.Write(ctx, pcm); err != nil && !errors.Is(err, audioio.ErrClosed) {
			a.logger.Warn("speaker write failed", "error", err)
		}
	})
	a.pipeline.OnTranscript(func(role, text string, final bool) {
		if !final {
			return
		}
		a.logger.Info("transcript", "role", role, "text", text)
		if a.server == nil {
			return
		}
		a.server.AddConversation(role, text)
		a.server.UpdateStatus(func(st *web.Status) {
			switch role {
			case "user":
				st.LastUserMessage = text
				st.Speaking = false
			case "assistant":
				st.LastAssistantMessage = text
			}
		})
	})
	a.pipeline.OnResponse(func(text string) {
		a.logger.Debug("model text", "text", text)
	})
	a.pipeline.OnError(func(err error) {
		a.updateStatus(func(st *web.Status) { st.VoiceConnected = false })
		a.fail(err)
	})
}

func (a *App) fail(err error) {
	a.errOnce.Do(func() { a.errCh <- err })
}

func (a *App) updateStatus(fn func(*web.Status)) {
	if a.server != nil {
		a.server.UpdateStatus(fn)
	}
}

// Shutdown stops the session, audio and dashboard.
func (a *App) Shutdown() {
	if a.logger != nil {
		a.logger.Info("shutting down")
	}
	if a.session != nil {
		if err := a.session.Stop(); err != nil {
			a.logger.Warn("voice session stop failed", "error", err)
		}
	}
	if a.source != nil {
		_ = a.source.Close()
	}
	if a.sink != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.sink.Flush(flushCtx)
		cancel()
		_ = a.sink.Close()
	}
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			a.logger.Warn("dashboard shutdown failed", "error", err)
		}
	}
	a.wg.Wait()
}
