// Package web serves the HERO dashboard: status, the tool manifest, manual
// tool invocation, recent logs and conversation, Prometheus metrics, and
// live websocket feeds.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-hero/pkg/hub"
	"github.com/teslashibe/go-hero/pkg/tools"
)

const (
	maxLogs         = 500
	maxConversation = 100
)

// Status is the assistant state shown on the dashboard.
type Status struct {
	VoiceConnected       bool      `json:"voice_connected"`
	Speaking             bool      `json:"speaking"`
	Tools                int       `json:"tools"`
	LastTool             string    `json:"last_tool,omitempty"`
	LastUserMessage      string    `json:"last_user_message,omitempty"`
	LastAssistantMessage string    `json:"last_assistant_message,omitempty"`
	StartedAt            time.Time `json:"started_at"`
}

// LogEntry is one dashboard log line.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ConversationEntry is one conversation line.
type ConversationEntry struct {
	Time    string `json:"time"`
	Role    string `json:"role"` // user, assistant, tool
	Message string `json:"message"`
}

// Options configures a Server.
type Options struct {
	// Addr is host:port or :port.
	Addr     string
	Registry *tools.Registry
	Gatherer prometheus.Gatherer
	// StaticDir, when set, is served at /.
	StaticDir string
	Logger    *slog.Logger
}

// Server is the dashboard.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	registryMu sync.RWMutex
	registry   *tools.Registry

	stateMu sync.RWMutex
	state   Status

	logsMu sync.RWMutex
	logs   []LogEntry

	conversationMu sync.RWMutex
	conversation   []ConversationEntry

	statusHub *hub.Hub
	logHub    *hub.Hub
	hubsOnce  sync.Once
	hubCtx    context.Context
	cancel    context.CancelFunc
}

// NewServer builds the fiber app and routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		addr:         opts.Addr,
		registry:     opts.Registry,
		logger:       logger.With("component", "web"),
		state:        Status{StartedAt: time.Now()},
		logs:         make([]LogEntry, 0, maxLogs),
		conversation: make([]ConversationEntry, 0, maxConversation),
		statusHub:    hub.New("status", logger),
		logHub:       hub.New("logs", logger),
	}
	if opts.Registry != nil {
		s.state.Tools = opts.Registry.Len()
	}
	s.hubCtx, s.cancel = context.WithCancel(context.Background())

	app := fiber.New(fiber.Config{
		AppName:               "HERO Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/tools", s.handleListTools)
	api.Post("/tools/:name", s.handleInvokeTool)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/conversation", s.handleGetConversation)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// SetRegistry replaces the registry served by the tool endpoints.
func (s *Server) SetRegistry(r *tools.Registry) {
	s.registryMu.Lock()
	s.registry = r
	s.registryMu.Unlock()
	s.UpdateStatus(func(st *Status) {
		st.Tools = 0
		if r != nil {
			st.Tools = r.Len()
		}
	})
}

func (s *Server) toolRegistry() *tools.Registry {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()
	return s.registry
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) startHubs(ctx context.Context) {
	s.hubsOnce.Do(func() {
		context.AfterFunc(ctx, s.cancel)
		go s.statusHub.Run(s.hubCtx)
		go s.logHub.Run(s.hubCtx)
	})
}

// Start serves on the configured address until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.startHubs(ctx)
	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.startHubs(ctx)
	s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown stops the server and its hubs.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}

// UpdateStatus mutates the status and broadcasts it.
func (s *Server) UpdateStatus(update func(*Status)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()
	_ = s.statusHub.BroadcastJSON(state)
}

// Status returns a copy of the current status.
func (s *Server) Status() Status {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// AddLog records a log line and broadcasts it.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	}
	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
	s.logsMu.Unlock()
	_ = s.logHub.BroadcastJSON(entry)
}

// AddConversation records a conversation line.
func (s *Server) AddConversation(role, message string) {
	entry := ConversationEntry{
		Time:    time.Now().Format("15:04:05"),
		Role:    role,
		Message: message,
	}
	s.conversationMu.Lock()
	s.conversation = append(s.conversation, entry)
	if len(s.conversation) > maxConversation {
		s.conversation = s.conversation[len(s.conversation)-maxConversation:]
	}
	s.conversationMu.Unlock()
}
