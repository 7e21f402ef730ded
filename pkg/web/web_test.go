package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hero/internal/log"
	"github.com/teslashibe/go-hero/pkg/tools"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	r := tools.NewRegistry(
		tools.WithLogger(log.NewRecorder().Logger()),
		tools.WithMetrics(tools.NewMetrics(reg)),
	)
	r.MustRegister(tools.Tool{
		Descriptor: tools.Descriptor{
			Name:   "greet",
			Params: []tools.Param{tools.P("name", tools.TypeString, "Who.", "Tony")},
		},
		Tagged: true,
		Handler: func(_ context.Context, a tools.Args) tools.Result {
			return tools.OK("Hello " + a.String("name"))
		},
	})
	return NewServer(Options{Registry: r, Gatherer: reg, Logger: log.NewRecorder().Logger()})
}

func do(t *testing.T, s *Server, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestListTools(t *testing.T) {
	s := testServer(t)
	code, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Equal(t, http.StatusOK, code)

	var decls []tools.FunctionDeclaration
	require.NoError(t, json.Unmarshal(body, &decls))
	require.Len(t, decls, 1)
	assert.Equal(t, "greet", decls[0].Name)
}

func TestInvokeTool(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		body     string
		wantCode int
		want     string
	}{
		{"with args", "greet", `{"args":{"name":"Pepper"}}`, http.StatusOK, "JARVIS: Hello Pepper"},
		{"defaults", "greet", ``, http.StatusOK, "JARVIS: Hello Tony"},
		{"unknown", "fly", `{}`, http.StatusNotFound, ""},
		{"bad body", "greet", `{"args":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t)
			req := httptest.NewRequest(http.MethodPost, "/api/tools/"+tt.tool, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			code, body := do(t, s, req)
			require.Equal(t, tt.wantCode, code, string(body))
			if tt.want == "" {
				return
			}
			var resp InvokeResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.want, resp.Result)
			assert.NotEmpty(t, resp.ID)
			assert.Equal(t, "greet", s.Status().LastTool)
		})
	}
}

func TestLogsConversationStatus(t *testing.T) {
	s := testServer(t)
	for i := 0; i < maxLogs+10; i++ {
		s.AddLog("info", "line")
	}
	s.AddConversation("user", "namaste")
	s.UpdateStatus(func(st *Status) { st.VoiceConnected = true })

	_, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	var logs []LogEntry
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Len(t, logs, maxLogs)

	_, body = do(t, s, httptest.NewRequest(http.MethodGet, "/api/conversation", nil))
	var conv []ConversationEntry
	require.NoError(t, json.Unmarshal(body, &conv))
	require.Len(t, conv, 1)
	assert.Equal(t, "namaste", conv[0].Message)

	_, body = do(t, s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var st Status
	require.NoError(t, json.Unmarshal(body, &st))
	assert.True(t, st.VoiceConnected)
	assert.Equal(t, 1, st.Tools)
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/tools/greet", nil)
	do(t, s, req)

	code, body := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `hero_tool_invocations_total{outcome="ok",tool="greet"} 1`)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s := testServer(t)
	code, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/ws/logs", nil))
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestLogsWebsocket(t *testing.T) {
	s := testServer(t)
	s.AddLog("info", "before connect")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.Serve(context.Background(), ln) }()
	t.Cleanup(func() { _ = s.Shutdown() })

	url := "ws://" + ln.Addr().String() + "/ws/logs"
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer conn.Close()

	var e LogEntry
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, "before connect", e.Message)

	require.Eventually(t, func() bool { return s.logHub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	s.AddLog("warn", "live")
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, "live", e.Message)
	assert.Equal(t, "warn", e.Level)
}

func TestShutdownStopsHubs(t *testing.T) {
	t.Run("serving", func(t *testing.T) {
		s := testServer(t)
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		go func() { _ = s.Serve(context.Background(), ln) }()

		require.Eventually(t, func() bool {
			c, err := net.Dial("tcp", ln.Addr().String())
			if err == nil {
				c.Close()
			}
			return err == nil
		}, 2*time.Second, 10*time.Millisecond)

		_ = s.Shutdown()
		for _, h := range []interface{ Done() <-chan struct{} }{s.statusHub, s.logHub} {
			select {
			case <-h.Done():
			case <-time.After(time.Second):
				t.Fatal("hub still running after Shutdown")
			}
		}
	})

	t.Run("parent context", func(t *testing.T) {
		s := testServer(t)
		ctx, cancel := context.WithCancel(context.Background())
		s.startHubs(ctx)
		cancel()
		select {
		case <-s.logHub.Done():
		case <-time.After(time.Second):
			t.Fatal("hub still running after context cancel")
		}
	})

	t.Run("never started", func(t *testing.T) {
		s := testServer(t)
		assert.NotPanics(t, func() { _ = s.Shutdown() })
	})
}

type captureSink struct{ lines []string }

func (c *captureSink) AddLog(level, message string) {
	c.lines = append(c.lines, level+" "+message)
}

func TestLogHandler(t *testing.T) {
	sink := &captureSink{}
	logger := slog.New(NewLogHandler(sink, slog.LevelInfo)).With("component", "search")

	logger.Debug("hidden")
	logger.Info("provider failed", "error", "timeout")
	logger.WithGroup("req").Warn("slow", "ms", 900)

	assert.Equal(t, []string{
		"info provider failed component=search error=timeout",
		"warn slow component=search req.ms=900",
	}, sink.lines)
}
