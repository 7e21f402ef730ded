// Package bundled registers the hosted voice providers.
package bundled

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-hero/pkg/tools"
	"github.com/teslashibe/go-hero/pkg/voice"
)

// GeminiLiveURL is the Gemini Live bidirectional streaming endpoint.
const GeminiLiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Gemini implements voice.Pipeline over the Gemini Live websocket API.
// The model handles turn detection, recognition, reasoning and speech.
type Gemini struct {
	voice.Callbacks

	config voice.Config
	logger *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex

	mu        sync.RWMutex
	decls     []tools.FunctionDeclaration
	connected bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}

	metrics *voice.MetricsCollector
}

// NewGemini creates a Gemini Live pipeline.
func NewGemini(cfg voice.Config) (*Gemini, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		config:  cfg,
		logger:  logger.With("component", "voice.gemini"),
		metrics: voice.NewMetricsCollector(),
	}, nil
}

func (g *Gemini) endpoint() (string, error) {
	base := g.config.Endpoint
	if base == "" {
		base = GeminiLiveURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("voice/gemini: bad endpoint: %w", err)
	}
	if g.config.GoogleAPIKey != "" {
		q := u.Query()
		q.Set("key", g.config.GoogleAPIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func modelName(m string) string {
	if strings.HasPrefix(m, "models/") {
		return m
	}
	return "models/" + m
}

// Start dials the websocket, sends the session setup, and starts the
// receive loop.
func (g *Gemini) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.connected {
		g.mu.Unlock()
		return voice.ErrAlreadyStarted
	}
	g.mu.Unlock()

	target, err := g.endpoint()
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{HandshakeTimeout: g.config.DialTimeout}
	ws, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("voice/gemini: failed to connect: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	g.wsMu.Lock()
	g.ws = ws
	g.wsMu.Unlock()
	g.mu.Lock()
	g.connected = true
	g.closed = false
	g.cancel = cancel
	g.done = done
	g.mu.Unlock()

	go g.readLoop(runCtx, ws, done)

	if err := g.sendSetup(); err != nil {
		_ = g.Stop()
		return fmt.Errorf("voice/gemini: failed to configure session: %w", err)
	}
	g.logger.Info("gemini live connected", "model", g.config.Model, "voice", g.config.Voice)
	return nil
}

func (g *Gemini) sendSetup() error {
	generation := map[string]any{
		"response_modalities": []string{"AUDIO"},
		"speech_config": map[string]any{
			"voice_config": map[string]any{
				"prebuilt_voice_config": map[string]any{"voice_name": g.config.Voice},
			},
		},
	}
	if g.config.Language != "" {
		generation["speech_config"].(map[string]any)["language_code"] = g.config.Language
	}

	setup := map[string]any{
		"model":             modelName(g.config.Model),
		"generation_config": generation,
	}
	if g.config.SystemPrompt != "" {
		setup["system_instruction"] = map[string]any{
			"parts": []map[string]any{{"text": g.config.SystemPrompt}},
		}
	}

	g.mu.RLock()
	decls := make([]map[string]any, 0, len(g.decls))
	for _, d := range g.decls {
		decls = append(decls, d.Map())
	}
	g.mu.RUnlock()
	if len(decls) > 0 {
		setup["tools"] = []map[string]any{{"function_declarations": decls}}
	}

	return g.sendJSON(map[string]any{"setup": setup})
}

// Stop closes the connection and waits for the receive loop to exit.
func (g *Gemini) Stop() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.connected = false
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	g.wsMu.Lock()
	var err error
	if g.ws != nil {
		err = g.ws.Close()
	}
	g.wsMu.Unlock()
	if done != nil {
		<-done
	}
	return err
}

func (g *Gemini) IsConnected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected && !g.closed
}

// SendAudio streams PCM16 mono at voice.InputSampleRate.
func (g *Gemini) SendAudio(pcm []byte) error {
	if !g.IsConnected() {
		return voice.ErrNotConnected
	}
	g.metrics.AudioIn()
	return g.sendJSON(map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{{
				"data":      base64.StdEncoding.EncodeToString(pcm),
				"mime_type": fmt.Sprintf("audio/pcm;rate=%d", voice.InputSampleRate),
			}},
		},
	})
}

// RegisterTools sets the function declarations sent at setup.
func (g *Gemini) RegisterTools(decls []tools.FunctionDeclaration) {
	g.mu.Lock()
	g.decls = append([]tools.FunctionDeclaration(nil), decls...)
	g.mu.Unlock()
}

// SubmitToolResult answers a function call.
func (g *Gemini) SubmitToolResult(callID, name, result string) error {
	return g.sendJSON(map[string]any{
		"tool_response": map[string]any{
			"function_responses": []map[string]any{{
				"id":       callID,
				"name":     name,
				"response": map[string]any{"result": result},
			}},
		},
	})
}

// Prompt sends a complete user text turn.
func (g *Gemini) Prompt(text string) error {
	return g.sendJSON(map[string]any{
		"client_content": map[string]any{
			"turns": []map[string]any{{
				"role":  "user",
				"parts": []map[string]any{{"text": text}},
			}},
			"turn_complete": true,
		},
	})
}

func (g *Gemini) Metrics() voice.Metrics {
	return g.metrics.Snapshot()
}

// serverMessage is the subset of BidiGenerateContentServerMessage we read.
type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"modelTurn"`
		TurnComplete        bool           `json:"turnComplete"`
		Interrupted         bool           `json:"interrupted"`
		InputTranscription  *transcription `json:"inputTranscription"`
		OutputTranscription *transcription `json:"outputTranscription"`
	} `json:"serverContent"`
	ToolCall *struct {
		FunctionCalls []struct {
			ID   string         `json:"id"`
			Name string         `json:"name"`
			Args map[string]any `json:"args"`
		} `json:"functionCalls"`
	} `json:"toolCall"`
	ToolCallCancellation *struct {
		IDs []string `json:"ids"`
	} `json:"toolCallCancellation"`
	GoAway *struct {
		TimeLeft string `json:"timeLeft"`
	} `json:"goAway"`
}

type transcription struct {
	Text string `json:"text"`
}

func (g *Gemini) readLoop(ctx context.Context, ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			g.mu.RLock()
			closed := g.closed
			g.mu.RUnlock()
			if !closed && ctx.Err() == nil {
				g.logger.Error("gemini read failed", "error", err)
				g.EmitError(fmt.Errorf("voice/gemini: read: %w", err))
			}
			g.mu.Lock()
			g.connected = false
			g.mu.Unlock()
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			g.logger.Debug("unparseable gemini message", "error", err)
			continue
		}
		g.handle(&msg)
	}
}

func (g *Gemini) handle(msg *serverMessage) {
	switch {
	case msg.SetupComplete != nil:
		g.logger.Debug("gemini session ready")

	case msg.ServerContent != nil:
		sc := msg.ServerContent
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && strings.HasPrefix(part.InlineData.MimeType, "audio/pcm") {
					pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
					if err == nil && len(pcm) > 0 {
						g.metrics.AudioOut()
						g.EmitAudioOut(pcm)
					}
				}
				if part.Text != "" {
					g.EmitResponse(part.Text)
				}
			}
		}
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			g.EmitTranscript("user", sc.InputTranscription.Text, true)
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			g.EmitTranscript("assistant", sc.OutputTranscription.Text, true)
		}
		if sc.Interrupted {
			g.logger.Debug("gemini response interrupted")
		}
		if sc.TurnComplete {
			g.metrics.TurnComplete()
			g.logger.Debug("turn complete", "first_audio", g.metrics.Snapshot().FormatLatency())
		}

	case msg.ToolCall != nil:
		for _, fc := range msg.ToolCall.FunctionCalls {
			g.metrics.ToolCall()
			g.logger.Info("gemini tool call", "tool", fc.Name, "id", fc.ID)
			g.EmitToolCall(voice.ToolCall{ID: fc.ID, Name: fc.Name, Arguments: fc.Args})
		}

	case msg.ToolCallCancellation != nil:
		g.logger.Info("gemini tool calls cancelled", "ids", msg.ToolCallCancellation.IDs)

	case msg.GoAway != nil:
		g.logger.Warn("gemini session ending", "time_left", msg.GoAway.TimeLeft)
	}
}

func (g *Gemini) sendJSON(v any) error {
	g.wsMu.Lock()
	defer g.wsMu.Unlock()
	if g.ws == nil {
		return voice.ErrNotConnected
	}
	return g.ws.WriteJSON(v)
}

var _ voice.Pipeline = (*Gemini)(nil)

func init() {
	voice.Register(voice.ProviderGemini, func(cfg voice.Config) (voice.Pipeline, error) {
		return NewGemini(cfg)
	})
}
