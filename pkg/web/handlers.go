package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-hero/pkg/hub"
	"github.com/teslashibe/go-hero/pkg/tools"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

func (s *Server) handleListTools(c *fiber.Ctx) error {
	r := s.toolRegistry()
	if r == nil {
		return c.JSON([]tools.FunctionDeclaration{})
	}
	return c.JSON(r.Manifest())
}

// InvokeRequest is the body of POST /api/tools/:name.
type InvokeRequest struct {
	Args tools.Args `json:"args"`
}

// InvokeResponse reports a manual invocation.
type InvokeResponse struct {
	ID     string `json:"id"`
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

func (s *Server) handleInvokeTool(c *fiber.Ctx) error {
	r := s.toolRegistry()
	if r == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no tool registry"})
	}
	name := c.Params("name")
	if _, ok := r.Get(name); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown tool: " + name})
	}

	var req InvokeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}
	if req.Args == nil {
		req.Args = tools.Args{}
	}

	inv := tools.NewInvocation(name, req.Args)
	out := r.Dispatch(c.UserContext(), inv)

	s.AddConversation("tool", name+": "+out)
	s.UpdateStatus(func(st *Status) { st.LastTool = name })

	return c.JSON(InvokeResponse{ID: inv.ID, Tool: name, Result: out})
}

func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	s.conversationMu.RLock()
	defer s.conversationMu.RUnlock()
	return c.JSON(s.conversation)
}

// handleLogsWS replays recent logs, then streams new ones.
func (s *Server) handleLogsWS(conn *websocket.Conn) {
	client := hub.NewClient(s.logHub, conn)
	s.logsMu.RLock()
	backlog := s.logs
	if len(backlog) > 200 {
		backlog = backlog[len(backlog)-200:]
	}
	for _, e := range backlog {
		if data, err := json.Marshal(e); err == nil {
			client.Send(hub.Message(data))
		}
	}
	s.logsMu.RUnlock()
	client.Run()
}

func (s *Server) handleStatusWS(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)
	if data, err := json.Marshal(s.Status()); err == nil {
		client.Send(hub.Message(data))
	}
	client.Run()
}
