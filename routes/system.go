package routes

import (
	"context"
	"time"

	"inventaris-backend/metrics"
	"inventaris-backend/services"
	"inventaris-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
)

// SetupSystemRoutes настраивает /health и /metrics
func SetupSystemRoutes(app *fiber.App, m *metrics.Metrics) {
	// Общий health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "Inventaris Backend is running",
			"timestamp": time.Now().Unix(),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
}

// SetupWebSocketRoutes настраивает /ws?token=...
func SetupWebSocketRoutes(app *fiber.App, hub *services.Hub, sessions *services.InventorySessions) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, ok := hub.Authenticate(c.Query("token"))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		c.Locals(utils.LocalUserID, userID)
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals(utils.LocalUserID).(uint)
		vm := sessions.Get(context.Background(), userID)
		hub.HandleWebSocket(c, userID, vm.Snapshot())
	}))
}
