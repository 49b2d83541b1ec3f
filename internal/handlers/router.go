package handlers

import (
	"newsdigest/internal/app"
	"newsdigest/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	api := router.Group("/api")
	NewHealthHandler(*app, api).Register()
	NewDigestHandler(*app, api).Register()

	return nil
}
