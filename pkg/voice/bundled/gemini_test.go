package bundled

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hero/internal/log"
	"github.com/teslashibe/go-hero/pkg/tools"
	"github.com/teslashibe/go-hero/pkg/voice"
)

// fakeLive accepts one session, replays script after the setup message and
// forwards every client message to received.
type fakeLive struct {
	received chan map[string]any
	script   []string
	key      chan string
}

func (f *fakeLive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.key <- r.URL.Query().Get("key")
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	first := true
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		f.received <- msg
		if first {
			first = false
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"setupComplete":{}}`))
			for _, s := range f.script {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(s))
			}
		}
	}
}

func next(t *testing.T, ch chan map[string]any) map[string]any {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client message")
		return nil
	}
}

func TestGeminiSession(t *testing.T) {
	audio := []byte{1, 2, 3, 4}
	fake := &fakeLive{
		received: make(chan map[string]any, 16),
		key:      make(chan string, 1),
		script: []string{
			`{"toolCall":{"functionCalls":[{"id":"call-1","name":"get_weather","args":{"city":"Pune"}}]}}`,
			`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` +
				base64.StdEncoding.EncodeToString(audio) + `"}}]}}}`,
			`{"serverContent":{"inputTranscription":{"text":"mausam kaisa hai"}}}`,
			`{"serverContent":{"turnComplete":true}}`,
		},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := voice.DefaultConfig().
		WithAPIKey("secret").
		WithModel("test-model").
		WithVoice("Charon", "hi-IN").
		WithSystemPrompt("You are HERO.").
		WithLogger(log.NewRecorder().Logger())
	cfg.Endpoint = "ws" + strings.TrimPrefix(srv.URL, "http")

	g, err := NewGemini(cfg)
	require.NoError(t, err)
	g.RegisterTools([]tools.FunctionDeclaration{
		tools.Descriptor{
			Name:        "get_weather",
			Description: "Weather.",
			Params:      []tools.Param{tools.Req("city", tools.TypeString, "City.")},
		}.Declaration(),
	})

	calls := make(chan voice.ToolCall, 1)
	g.OnToolCall(func(c voice.ToolCall) { calls <- c })
	gotAudio := make(chan []byte, 1)
	g.OnAudioOut(func(pcm []byte) { gotAudio <- pcm })
	transcripts := make(chan string, 1)
	g.OnTranscript(func(role, text string, _ bool) { transcripts <- role + ":" + text })

	require.NoError(t, g.Start(context.Background()))
	defer g.Stop()
	assert.Equal(t, "secret", <-fake.key)
	assert.True(t, g.IsConnected())

	setup := next(t, fake.received)["setup"].(map[string]any)
	assert.Equal(t, "models/test-model", setup["model"])
	speech := setup["generation_config"].(map[string]any)["speech_config"].(map[string]any)
	assert.Equal(t, "hi-IN", speech["language_code"])
	assert.Equal(t, "Charon",
		speech["voice_config"].(map[string]any)["prebuilt_voice_config"].(map[string]any)["voice_name"])
	decls := setup["tools"].([]any)[0].(map[string]any)["function_declarations"].([]any)
	require.Len(t, decls, 1)
	assert.Equal(t, "get_weather", decls[0].(map[string]any)["name"])

	select {
	case c := <-calls:
		assert.Equal(t, voice.ToolCall{ID: "call-1", Name: "get_weather", Arguments: map[string]any{"city": "Pune"}}, c)
	case <-time.After(2 * time.Second):
		t.Fatal("no tool call")
	}
	assert.Equal(t, audio, <-gotAudio)
	assert.Equal(t, "user:mausam kaisa hai", <-transcripts)

	require.NoError(t, g.SubmitToolResult("call-1", "get_weather", "Sunny"))
	resp := next(t, fake.received)["tool_response"].(map[string]any)["function_responses"].([]any)[0].(map[string]any)
	assert.Equal(t, "call-1", resp["id"])
	assert.Equal(t, map[string]any{"result": "Sunny"}, resp["response"])

	require.NoError(t, g.Prompt("Greet the user"))
	content := next(t, fake.received)["client_content"].(map[string]any)
	assert.Equal(t, true, content["turn_complete"])
	raw, _ := json.Marshal(content["turns"])
	assert.JSONEq(t, `[{"role":"user","parts":[{"text":"Greet the user"}]}]`, string(raw))

	require.NoError(t, g.SendAudio([]byte{9, 9}))
	chunk := next(t, fake.received)["realtime_input"].(map[string]any)["media_chunks"].([]any)[0].(map[string]any)
	assert.Equal(t, "audio/pcm;rate=16000", chunk["mime_type"])

	require.Eventually(t, func() bool { return g.Metrics().Turns == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, g.Metrics().ToolCalls)
}

func TestGeminiStopBeforeStart(t *testing.T) {
	g, err := NewGemini(voice.DefaultConfig().WithAPIKey("k"))
	require.NoError(t, err)
	assert.NoError(t, g.Stop())
	assert.False(t, g.IsConnected())
	assert.ErrorIs(t, g.SendAudio([]byte{1}), voice.ErrNotConnected)
}

func TestGeminiRegisteredAsProvider(t *testing.T) {
	p, err := voice.New(voice.DefaultConfig().WithAPIKey("k"))
	require.NoError(t, err)
	assert.IsType(t, &Gemini{}, p)
}
