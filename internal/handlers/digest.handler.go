package handlers

import (
	"newsdigest/internal/app"
	digestController "newsdigest/internal/controllers/digests"
	"newsdigest/internal/handlers/middleware"
	"newsdigest/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DigestHandler struct {
	Handler
	digestController digestController.DigestControllerInterface
}

func NewDigestHandler(app app.App, router fiber.Router) *DigestHandler {
	return &DigestHandler{
		digestController: app.Controllers.Digest,
		Handler: Handler{
			log:        logger.New("digestHandler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *DigestHandler) Register() {
	digests := h.router.Group("/digests", h.middleware.RequireAuth())
	digests.Post("/generate", h.generate)
	digests.Post("/regenerate/:date", h.regenerate)
	digests.Get("", h.list)
	digests.Get("/latest", h.latest)
	digests.Get("/by-date/:date", h.getByDate)
	digests.Get("/:id", h.getByID)
	digests.Delete("/:id", h.delete)
}

func (h *DigestHandler) generate(c *fiber.Ctx) error {
	log := h.log.Function("generate").TraceFromContext(c.UserContext())

	user := middleware.GetUser(c)
	if user == nil {
		return unauthorizedResponse(c)
	}

	var req types.GenerateDigestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
				"code":  CODE_INVALID_REQUEST,
			})
		}
	}

	digest, created, err := h.digestController.Generate(c.UserContext(), user, req.Force)
	if err != nil {
		log.Warn("digest generation request failed", "userID", user.ID, "error", err)
		return writeError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(types.NewDigestResponse(digest))
}

func (h *DigestHandler) regenerate(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorizedResponse(c)
	}

	digest, err := h.digestController.Regenerate(c.UserContext(), user, c.Params("date"))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(types.NewDigestResponse(digest))
}

func (h *DigestHandler) list(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorizedResponse(c)
	}

	response, err := h.digestController.List(
		c.UserContext(),
		user,
		c.QueryInt("page", 1),
		c.QueryInt("per_page", types.DefaultPerPage),
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(response)
}

func (h *DigestHandler) latest(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorizedResponse(c)
	}

	digest, err := h.digestController.Latest(c.UserContext(), user)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(types.NewDigestResponse(digest))
}

func (h *DigestHandler) getByDate(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorizedResponse(c)
	}

	digest, err := h.digestController.GetByDate(c.UserContext(), user, c.Params("date"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(types.NewDigestResponse(digest))
}

func (h *DigestHandler) getByID(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorizedResponse(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid digest ID",
			"code":  CODE_INVALID_REQUEST,
		})
	}

	digest, err := h.digestController.GetByID(c.UserContext(), user, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(types.NewDigestResponse(digest))
}

func (h *DigestHandler) delete(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorizedResponse(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid digest ID",
			"code":  CODE_INVALID_REQUEST,
		})
	}

	if err := h.digestController.Delete(c.UserContext(), user, id); err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}

func unauthorizedResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Authentication required",
		"code":  CODE_UNAUTHORIZED,
	})
}
