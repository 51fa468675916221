package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Register mounts every route on the app. logs may be nil.
func Register(app *fiber.App, pool Submitter, logs func() []string) {
	transcribeHandler := NewTranscribeHandler(pool)
	streamHandler := NewStreamHandler(pool)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"Hello": "World"})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": Version,
		})
	})

	app.Post("/transcribe", transcribeHandler.Handle)

	// WebSocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/transcribe", websocket.New(streamHandler.Handle))

	if logs != nil {
		app.Get("/logs", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"logs": logs(),
			})
		})
	}
}
