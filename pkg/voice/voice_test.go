package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hero/internal/log"
	"github.com/teslashibe/go-hero/pkg/tools"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default with key", DefaultConfig().WithAPIKey("k"), false},
		{"endpoint without key", Config{Provider: ProviderGemini, Endpoint: "ws://x", Model: "m", Voice: "v"}, false},
		{"missing key", DefaultConfig(), true},
		{"missing provider", Config{GoogleAPIKey: "k", Model: "m", Voice: "v"}, true},
		{"missing model", DefaultConfig().WithAPIKey("k").WithModel(""), true},
		{"missing voice", DefaultConfig().WithAPIKey("k").WithVoice("", "en-IN"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewUnregisteredProvider(t *testing.T) {
	cfg := DefaultConfig().WithAPIKey("k")
	cfg.Provider = "nope"
	_, err := New(cfg)
	assert.ErrorContains(t, err, "not registered")
}

func TestMetricsCollector(t *testing.T) {
	c := NewMetricsCollector()
	base := time.Unix(0, 0)
	tick := base
	c.now = func() time.Time { return tick }

	c.AudioIn()
	tick = base.Add(300 * time.Millisecond)
	c.AudioIn()
	tick = base.Add(450 * time.Millisecond)
	c.AudioOut()
	tick = base.Add(900 * time.Millisecond)
	c.AudioOut()
	c.ToolCall()
	c.TurnComplete()

	m := c.Snapshot()
	assert.Equal(t, 2, m.AudioChunksIn)
	assert.Equal(t, 2, m.AudioChunksOut)
	assert.Equal(t, 1, m.ToolCalls)
	assert.Equal(t, 1, m.Turns)
	assert.Equal(t, 450*time.Millisecond, m.FirstAudioLatency)
	assert.Equal(t, "450ms", m.FormatLatency())
	assert.Equal(t, "---ms", Metrics{}.FormatLatency())
}

func echoRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry(tools.WithLogger(log.NewRecorder().Logger()))
	r.MustRegister(
		tools.Tool{
			Descriptor: tools.Descriptor{
				Name:   "echo",
				Params: []tools.Param{tools.Req("text", tools.TypeString, "Text.")},
			},
			Handler: func(_ context.Context, a tools.Args) tools.Result { return tools.OK(a.String("text")) },
		},
		tools.Tool{
			Descriptor: tools.Descriptor{Name: "shout"},
			Tagged:     true,
			Handler:    func(context.Context, tools.Args) tools.Result { return tools.OK("HI") },
		},
	)
	return r
}

func TestSessionStart(t *testing.T) {
	m := NewMock()
	s := NewSession(m, echoRegistry(t), "Say hello", log.NewRecorder().Logger())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, m.IsConnected())
	require.Len(t, m.Declarations, 2)
	assert.Equal(t, "echo", m.Declarations[0].Name)
	assert.Equal(t, []string{"Say hello"}, m.Prompts)

	require.NoError(t, s.Stop())
	assert.False(t, m.IsConnected())
}

func TestSessionStartFailure(t *testing.T) {
	m := NewMock()
	m.StartFunc = func(context.Context) error { return errors.New("dial refused") }
	s := NewSession(m, echoRegistry(t), "Say hello", nil)

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "dial refused")
	assert.Empty(t, m.Prompts)
}

func TestSessionDispatchesToolCalls(t *testing.T) {
	m := NewMock()
	s := NewSession(m, echoRegistry(t), "", nil)
	require.NoError(t, s.Start(context.Background()))
	assert.Empty(t, m.Prompts)

	m.EmitToolCall(ToolCall{ID: "c1", Name: "echo", Arguments: map[string]any{"text": "namaste"}})
	m.EmitToolCall(ToolCall{ID: "c2", Name: "shout"})
	m.EmitToolCall(ToolCall{ID: "c3", Name: "missing"})
	s.Wait()

	got := map[string]string{}
	for _, r := range m.SubmittedResults() {
		got[r.ID] = r.Result
	}
	assert.Equal(t, map[string]string{
		"c1": "namaste",
		"c2": "JARVIS: HI",
		"c3": "Unknown tool: missing",
	}, got)
}

func TestSessionSlowToolDoesNotBlockOthers(t *testing.T) {
	release := make(chan struct{})
	r := echoRegistry(t)
	r.MustRegister(tools.Tool{
		Descriptor: tools.Descriptor{Name: "slow"},
		Handler: func(context.Context, tools.Args) tools.Result {
			<-release
			return tools.OK("done")
		},
	})
	m := NewMock()
	s := NewSession(m, r, "", nil)
	require.NoError(t, s.Start(context.Background()))

	m.EmitToolCall(ToolCall{ID: "slow", Name: "slow"})
	m.EmitToolCall(ToolCall{ID: "fast", Name: "echo", Arguments: map[string]any{"text": "quick"}})

	require.Eventually(t, func() bool { return len(m.SubmittedResults()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "fast", m.SubmittedResults()[0].ID)

	close(release)
	s.Wait()
	assert.Len(t, m.SubmittedResults(), 2)
}

func TestSessionDropsToolCallsAfterStop(t *testing.T) {
	rec := log.NewRecorder()
	m := NewMock()
	s := NewSession(m, echoRegistry(t), "", rec.Logger())
	require.NoError(t, s.Start(context.Background()))

	// The receive loop can still deliver a call while the pipeline closes.
	m.StopFunc = func() error {
		m.EmitToolCall(ToolCall{ID: "late", Name: "echo", Arguments: map[string]any{"text": "x"}})
		return nil
	}
	require.NoError(t, s.Stop())
	m.EmitToolCall(ToolCall{ID: "later", Name: "echo", Arguments: map[string]any{"text": "y"}})
	s.Wait()

	assert.Empty(t, m.SubmittedResults())
	_, ok := rec.Find("tool call after session end dropped")
	assert.True(t, ok)
}

func TestSessionDropsToolCallsAfterContextEnds(t *testing.T) {
	m := NewMock()
	s := NewSession(m, echoRegistry(t), "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	m.EmitToolCall(ToolCall{ID: "c1", Name: "echo", Arguments: map[string]any{"text": "x"}})
	s.Wait()
	assert.Empty(t, m.SubmittedResults())
}
