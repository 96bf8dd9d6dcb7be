package handler

import (
	"os"

	"stratos-backend/internal/pkg/logger"
	"stratos-backend/internal/pkg/serverutils"
	"stratos-backend/internal/service"
	internalWS "stratos-backend/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service *service.NotificationService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs upgrades the connection and attaches it to the hub. The token is
// taken from the query string first because browsers cannot set headers on
// websocket handshakes.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")

	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			secret = "default_secret"
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		h.logger.Warn("NotificationHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(c *websocket.Conn) {
			h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, c, userID)
			h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// GetNotifications returns the user's notifications.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, err := localUserID(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	notifications, total, err := h.service.GetNotifications(c.UserContext(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"data":  notifications,
		"total": total,
		"page":  offset/limit + 1,
		"limit": limit,
	})
}

// GetUnreadCount returns the number of unread notifications.
func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := localUserID(c)
	if err != nil {
		return err
	}

	count, err := h.service.GetUnreadCount(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"count": count})
}

// MarkAsRead marks a specific notification as read.
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ID"})
	}

	if err := h.service.MarkAsRead(c.UserContext(), id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllAsRead marks all user's notifications as read.
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, err := localUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkAllAsRead(c.UserContext(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

func localUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		if uid, ok := c.Locals("user_id").(uuid.UUID); ok {
			return uid, nil
		}
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID")
	}
	return userID, nil
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notifications")
	notif.Use(serverutils.JwtMiddleware)
	notif.Get("/", h.GetNotifications)
	notif.Get("/unread-count", h.GetUnreadCount)
	notif.Patch("/:id/read", h.MarkAsRead)
	notif.Patch("/read-all", h.MarkAllAsRead)

	// WebSocket event stream
	router.Get("/ws", h.ServeWs)
}
