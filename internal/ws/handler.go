package ws

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/auth"
	"github.com/fathima-sithara/ticket-notification-service/internal/hub"
)

const localsUserID = "ws_user_id"

type ReadyMessage struct {
	Event string `json:"event"`
}

// Handler authenticates upgrade requests on the notification stream path and
// serves the accepted sockets.
type Handler struct {
	auth     *auth.Authenticator
	hub      *hub.Hub
	settings Settings
	log      *zap.SugaredLogger
}

func NewHandler(a *auth.Authenticator, h *hub.Hub, settings Settings, log *zap.SugaredLogger) *Handler {
	settings.setDefaults()
	return &Handler{auth: a, hub: h, settings: settings, log: log}
}

// Register mounts the stream on path. No other path is handled.
func (h *Handler) Register(r fiber.Router, path string) {
	r.Get(path, h.Upgrade, websocket.New(h.Serve))
}

// Upgrade rejects the request before any socket exists unless it is a
// websocket upgrade with a valid bearer token and live session.
func (h *Handler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"status": "error", "message": "upgrade required"})
	}
	id, err := h.auth.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "message": "unauthorized"})
	}
	c.Locals(localsUserID, id.UserID)
	return c.Next()
}

func (h *Handler) Serve(conn *websocket.Conn) {
	userID, _ := conn.Locals(localsUserID).(string)
	wc := NewConnection(conn, h.settings)
	reg := h.hub.Track(userID, wc)
	defer reg.Close()

	ready, _ := json.Marshal(ReadyMessage{Event: "ready"})
	if err := wc.Write(ready); err != nil {
		h.log.Debugw("ready ack dropped", "user_id", userID, "error", err)
	}
	h.log.Infow("notification stream opened", "user_id", userID, "channel_id", wc.ID())
	wc.Run()
	h.log.Infow("notification stream closed", "user_id", userID, "channel_id", wc.ID())
}
