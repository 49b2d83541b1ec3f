package handlers

import (
	"context"
	"newsdigest/config"
	"newsdigest/internal/app"
	"newsdigest/internal/types"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

const HEALTH_CHECK_TIMEOUT = 2 * time.Second

type DatabasePinger interface {
	Ping(ctx context.Context) error
}

type SchedulerStatusProvider interface {
	Status() types.SchedulerStatus
}

type HealthHandler struct {
	Handler
	config    config.Config
	database  DatabasePinger
	scheduler SchedulerStatusProvider
}

func NewHealthHandler(app app.App, router fiber.Router) *HealthHandler {
	return &HealthHandler{
		config:    app.Config,
		database:  &app.Database,
		scheduler: app.Services.Scheduler,
		Handler: Handler{
			log:        logger.New("healthHandler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *HealthHandler) Register() {
	health := h.router.Group("/health")
	health.Get("", h.health)
	health.Get("/live", h.live)
	health.Get("/db", h.databaseHealth)
	health.Get("/ready", h.ready)
	health.Get("/scheduler", h.schedulerStatus)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.config.GeneralVersion,
		"service": "newsdigest_api",
	})
}

func (h *HealthHandler) live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

func (h *HealthHandler) pingDatabase(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), HEALTH_CHECK_TIMEOUT)
	defer cancel()
	return h.database.Ping(ctx)
}

func (h *HealthHandler) databaseHealth(c *fiber.Ctx) error {
	if err := h.pingDatabase(c); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"database": "unreachable",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "healthy",
		"database": "connected",
	})
}

// ready requires a reachable database and, when enabled, a running scheduler.
func (h *HealthHandler) ready(c *fiber.Ctx) error {
	log := h.log.Function("ready").TraceFromContext(c.UserContext())

	checks := fiber.Map{"database": "ok", "scheduler": "ok"}
	ready := true

	if err := h.pingDatabase(c); err != nil {
		log.Warn("database not ready", "error", err)
		checks["database"] = "unreachable"
		ready = false
	}

	status := h.scheduler.Status()
	switch {
	case !status.Enabled:
		checks["scheduler"] = "disabled"
	case !status.Running:
		checks["scheduler"] = "stopped"
		ready = false
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
			"checks": checks,
		})
	}

	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": checks,
	})
}

func (h *HealthHandler) schedulerStatus(c *fiber.Ctx) error {
	return c.JSON(h.scheduler.Status())
}
