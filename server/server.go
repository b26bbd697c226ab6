// Package server provides the browser chat interface: a single page holding the
// session's conversation, a message input and a clear button.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KAVYAPALLERLA/chatbot/pkg/conversation"
	"github.com/KAVYAPALLERLA/chatbot/pkg/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionIDKey = "session_id"

// Completer runs one chat turn. *gateway.Gateway implements it.
type Completer interface {
	Complete(ctx context.Context, conv conversation.Conversation, userText string) (conversation.Conversation, string, error)
}

// Server is the web chat interface. Conversations live in a session.Registry
// keyed by the id carried in the session cookie.
type Server struct {
	config    Config
	completer Completer
	sessions  *session.Registry
	cookies   *fibersession.Store
	page      *template.Template
	logger    *zap.Logger
	server    *fiber.App
}

// New creates a new Server.
func New(config Config, completer Completer, logger *zap.Logger) (*Server, error) {
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Form values and cookies end up in the session registry and must
		// outlive the request buffer.
		Immutable: true,
	})

	s := &Server{
		config:    config,
		completer: completer,
		sessions:  session.NewRegistry(config.SessionTTL),
		cookies: fibersession.New(fibersession.Config{
			Expiration:     sessionExpiration(config.SessionTTL),
			KeyLookup:      "cookie:" + sessionIDKey,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
			KeyGenerator:   uuid.NewString,
		}),
		page:   page,
		logger: logger,
		server: app,
	}

	app.Use(s.logRequests)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	// Everything below is bound to a browser session
	app.Use(s.withSession)

	app.Get("/", s.handleIndex)
	app.Post("/chat", s.handleChatForm)
	app.Post("/clear", s.handleClearForm)

	app.Get("/api/messages", s.handleListMessages)
	app.Post("/api/chat", s.handleChat)
	app.Post("/api/clear", s.handleClear)

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting chat server", zap.String("listen", s.config.ListenAddr))

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting chat server", zap.String("listen", ln.Addr().String()))

	return s.server.Listener(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// logRequests writes one log line per handled request.
func (s *Server) logRequests(c *fiber.Ctx) error {
	startTime := time.Now()
	err := c.Next()

	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("duration", time.Since(startTime)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Info("handled request", fields...)

	return err
}

// withSession resolves the caller's session id, issuing a cookie for new
// visitors, and stores it in the request locals.
func (s *Server) withSession(c *fiber.Ctx) error {
	sess, err := s.cookies.Get(c)
	if err != nil {
		s.logger.Error("failed to load session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("session unavailable")
	}

	id := sess.ID()
	if sess.Fresh() {
		s.logger.Debug("started session", zap.String("session", truncate(id, 8)))
	}

	// Save refreshes the cookie and its expiry on every request.
	if err := sess.Save(); err != nil {
		s.logger.Error("failed to save session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("session unavailable")
	}

	c.Locals(sessionIDKey, id)
	return c.Next()
}

func sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionIDKey).(string)
	return id
}

// runTurn performs one submission for the session: it claims the session,
// calls the completer once and stores the result only on success.
func (s *Server) runTurn(ctx context.Context, id, text string) (conversation.Conversation, string, error) {
	conv, err := s.sessions.Begin(id)
	if err != nil {
		return conv, "", err
	}

	next, reply, err := s.completer.Complete(ctx, conv, text)
	if err != nil {
		s.sessions.Abandon(id)
		return conv, "", err
	}

	s.sessions.Finish(id, next)
	return next, reply, nil
}

func sessionExpiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		// fiber replaces a zero expiry with its own 24h default.
		return 365 * 24 * time.Hour
	}
	return ttl
}
