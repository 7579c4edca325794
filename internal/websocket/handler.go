package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenParser turns a bearer token into the authenticated user id.
type TokenParser interface {
	UserIDFromToken(token string) (string, error)
}

type HandlerConfig struct {
	// MaxEventsPerMin caps inbound events per connection; 0 disables.
	MaxEventsPerMin int
	// AllowedOrigins restricts the Origin header of upgrades. Empty allows all.
	AllowedOrigins []string
}

// Handler upgrades HTTP requests on /ws to live connections.
type Handler struct {
	hub      *Hub
	router   *Router
	tokens   TokenParser
	cfg      HandlerConfig
	upgrader websocket.Upgrader
	logger   *WebSocketLogger

	// ctx bounds the lifetime of every connection served by this handler.
	ctx context.Context
}

func NewHandler(ctx context.Context, hub *Hub, router *Router, tokens TokenParser, cfg HandlerConfig) *Handler {
	h := &Handler{
		hub:    hub,
		router: router,
		tokens: tokens,
		cfg:    cfg,
		logger: hub.logger,
		ctx:    ctx,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Connect upgrades the request. A valid token authenticates the
// connection; a missing or invalid one leaves it anonymous.
func (h *Handler) Connect(c *gin.Context) {
	userID := ""
	if token := extractToken(c); token != "" && h.tokens != nil {
		if id, err := h.tokens.UserIDFromToken(token); err == nil {
			userID = id
		} else {
			h.logger.Debug("ignoring invalid websocket token", "", "")
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", userID, "", err)
		return
	}

	client := NewClient(conn, userID, NewClientRateLimiter(h.cfg.MaxEventsPerMin))
	h.hub.Register(client)
	h.router.connected(h.ctx, client)
	h.logger.Info("client connected", client.UserID, client.ID)

	go client.writePump()
	go func() {
		client.readPump(h.ctx, h.hub, h.router, h.logger)
		h.logger.Info("client disconnected", client.UserID, client.ID)
	}()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
