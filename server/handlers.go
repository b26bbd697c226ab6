package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/KAVYAPALLERLA/chatbot/pkg/gateway"
	"github.com/KAVYAPALLERLA/chatbot/pkg/llm"
	"github.com/KAVYAPALLERLA/chatbot/pkg/markdown"
	"github.com/KAVYAPALLERLA/chatbot/pkg/session"
)

const (
	pageTitle = "Simple Chatbot"
	busyText  = "A response is still being generated. Please wait."
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned by POST /api/chat on success.
type ChatResponse struct {
	Reply    string        `json:"reply"`
	Messages []llm.Message `json:"messages"`
}

// MessagesResponse lists the conversation of the current session.
type MessagesResponse struct {
	Messages []llm.Message `json:"messages"`
}

type pageData struct {
	Title    string
	Messages []messageView
	Error    string
	Draft    string
	Pending  bool
}

type messageView struct {
	Role string
	HTML template.HTML
}

// handleIndex renders the chat page for the current session.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	return s.renderPage(c, fiber.StatusOK, "", "")
}

// handleChatForm runs one turn from the page's form. Success redirects back to
// the page; a failure re-renders it with the error inline and the text kept
// in the input so it can be submitted again.
func (s *Server) handleChatForm(c *fiber.Ctx) error {
	text := c.FormValue("message")
	if strings.TrimSpace(text) == "" {
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	_, _, err := s.runTurn(c.Context(), sessionID(c), text)
	if err != nil {
		status, msg := s.describeError(err)
		return s.renderPage(c, status, msg, text)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// handleClearForm discards the session's conversation and redirects to the page.
func (s *Server) handleClearForm(c *fiber.Ctx) error {
	if err := s.sessions.Clear(sessionID(c)); err != nil {
		return s.renderPage(c, fiber.StatusConflict, busyText, "")
	}

	s.logger.Info("conversation cleared", zap.String("session", truncate(sessionID(c), 8)))
	return c.Redirect("/", fiber.StatusSeeOther)
}

// handleListMessages returns the session's conversation.
func (s *Server) handleListMessages(c *fiber.Ctx) error {
	conv := s.sessions.Snapshot(sessionID(c))
	return c.JSON(MessagesResponse{Messages: conv.All()})
}

// handleChat runs one turn from a JSON request.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	conv, reply, err := s.runTurn(c.Context(), sessionID(c), req.Message)
	if err != nil {
		status, msg := s.describeError(err)
		return c.Status(status).JSON(llm.ErrorResponse{Error: msg})
	}

	return c.JSON(ChatResponse{Reply: reply, Messages: conv.All()})
}

// handleClear discards the session's conversation.
func (s *Server) handleClear(c *fiber.Ctx) error {
	if err := s.sessions.Clear(sessionID(c)); err != nil {
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: busyText})
	}

	s.logger.Info("conversation cleared", zap.String("session", truncate(sessionID(c), 8)))
	return c.JSON(MessagesResponse{Messages: []llm.Message{}})
}

// describeError maps a turn failure to a status code and a user-facing message.
func (s *Server) describeError(err error) (int, string) {
	var failed gateway.ErrProviderCallFailed
	switch {
	case errors.Is(err, gateway.ErrEmptyMessage):
		return fiber.StatusBadRequest, "Error: " + err.Error()
	case errors.Is(err, session.ErrBusy):
		return fiber.StatusConflict, busyText
	case errors.As(err, &failed):
		return fiber.StatusBadGateway, "Error: " + failed.Reason.Error()
	default:
		s.logger.Error("chat turn failed", zap.Error(err))
		return fiber.StatusInternalServerError, "Error: " + err.Error()
	}
}

func (s *Server) renderPage(c *fiber.Ctx, status int, errMsg, draft string) error {
	id := sessionID(c)
	msgs := s.sessions.Snapshot(id).All()

	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		// The system instruction is not part of the visible chat.
		if m.Role == llm.RoleSystem {
			continue
		}
		views = append(views, messageView{Role: string(m.Role), HTML: markdown.ToHTML(m.Content)})
	}

	data := pageData{
		Title:    pageTitle,
		Messages: views,
		Error:    errMsg,
		Draft:    draft,
		Pending:  s.sessions.State(id) == session.AwaitingResponse,
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

// truncate shortens s to at most maxLen runes for log previews.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
