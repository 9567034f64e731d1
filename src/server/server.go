// Package server exposes the relay over HTTP: WebSocket upgrades on
// /ws and a small Fiber surface for health and diagnostics.
package server

import (
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/chatwire/relay/config"
	"github.com/chatwire/relay/src/relay"
)

// Server wires the relay service into an HTTP surface.
type Server struct {
	svc      *relay.Service
	logger   zerolog.Logger
	app      *fiber.App
	upgrader websocket.FastHTTPUpgrader
}

// New creates the HTTP server around the relay service.
func New(svc *relay.Service, cfg *config.Config, logger zerolog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
				return true
			},
		},
	}

	app := fiber.New()
	app.Get("/healthz", s.handleHealth)
	app.Get("/ws/info", s.handleInfo)
	s.app = app
	return s
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"websocket": true,
		"endpoint":  "/ws",
		"clients":   s.svc.ConnectionCount(),
		"rooms":     len(s.svc.Registry().Rooms()),
	})
}

// Handler returns the root fasthttp handler. The WebSocket upgrade uses
// the raw fasthttp path since Fiber v3 does not expose
// *fasthttp.RequestCtx; every other request goes to the Fiber app.
func (s *Server) Handler() fasthttp.RequestHandler {
	httpHandler := s.app.Handler()
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/ws" {
			s.handleUpgrade(ctx)
			return
		}
		httpHandler(ctx)
	}
}

func (s *Server) handleUpgrade(ctx *fasthttp.RequestCtx) {
	upgrade := string(ctx.Request.Header.Peek("Upgrade"))
	if !strings.EqualFold(upgrade, "websocket") {
		ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
		ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
		return
	}

	err := s.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		defer conn.Close()
		s.svc.HandleConnection(&wsConn{conn})
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
	}
}

// wsConn wraps fasthttp/websocket.Conn to satisfy types.Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) WriteJSON(v any) error { return w.conn.WriteJSON(v) }
func (w *wsConn) ReadJSON(v any) error  { return w.conn.ReadJSON(v) }
func (w *wsConn) Close() error          { return w.conn.Close() }
